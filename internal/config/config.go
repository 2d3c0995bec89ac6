package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the environment-level configuration shared by the gateway and
// executor binaries. Defaults match a single-shard local deployment.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`

	// Brokers is the statically known set of downstream brokerages every
	// signal fans out to.
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"ZERODHA,UPSTOX,ANGEL,DHAN,ALICE,FIVEPAISA"`

	// Broker selects which brokerage this executor instance serves.
	Broker string `env:"BROKER" envDefault:"ZERODHA"`

	Partitions  int `env:"PARTITIONS_PER_BROKER" envDefault:"256"`
	ShardIndex  int `env:"SHARD_INDEX" envDefault:"0"`
	ShardCount  int `env:"SHARD_COUNT" envDefault:"1"`
	Concurrency int `env:"SHARD_CONCURRENCY" envDefault:"64"`

	MaxQtyPerSlice      int64   `env:"MAX_QTY_PER_SLICE" envDefault:"100"`
	MinQtyPerSlice      int64   `env:"MIN_QTY_PER_SLICE" envDefault:"1"`
	MaxNotionalPerSlice float64 `env:"MAX_NOTIONAL_PER_SLICE" envDefault:"0"`

	// IdemNamespace isolates idempotency key spaces between environments.
	IdemNamespace string `env:"IDEM_NAMESPACE" envDefault:""`

	// DatabaseURL enables the Postgres account directory; when empty the
	// executor falls back to the static mock directory.
	DatabaseURL       string        `env:"DATABASE_URL"`
	DirectoryCacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"30s"`

	// MarketDataFile optionally points at a JSON file of per-symbol
	// lot/tick/LTP parameters.
	MarketDataFile string `env:"MARKET_DATA_FILE"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Partitions <= 0 {
		return fmt.Errorf("PARTITIONS_PER_BROKER must be > 0, got %d", c.Partitions)
	}
	if c.ShardCount <= 0 || c.ShardCount > c.Partitions {
		return fmt.Errorf("SHARD_COUNT must be in [1, %d], got %d", c.Partitions, c.ShardCount)
	}
	if c.ShardIndex < 0 || c.ShardIndex >= c.ShardCount {
		return fmt.Errorf("SHARD_INDEX must be in [0, %d), got %d", c.ShardCount, c.ShardIndex)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("SHARD_CONCURRENCY must be > 0, got %d", c.Concurrency)
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("BROKERS is empty")
	}
	return nil
}
