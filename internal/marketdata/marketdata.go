// Package marketdata supplies the per-symbol exchange parameters sizing
// needs (lot size, tick size, last traded price, exchange minimum). A real
// deployment plugs a feed in behind Provider; the static implementation
// serves configured values and safe defaults.
package marketdata

import (
	"context"
	"encoding/json"
	"os"

	"github.com/chandu88611/tradeRepliction/internal/sizing"
)

type Provider interface {
	Lookup(ctx context.Context, symbol string) (sizing.MarketInfo, error)
}

// Static serves a fixed symbol table. Unknown symbols get the zero
// MarketInfo, which sizing treats as lot 1, no tick rounding, no LTP.
type Static struct {
	symbols map[string]sizing.MarketInfo
}

func NewStatic(symbols map[string]sizing.MarketInfo) *Static {
	if symbols == nil {
		symbols = make(map[string]sizing.MarketInfo)
	}
	return &Static{symbols: symbols}
}

// LoadFile reads a JSON object of symbol -> MarketInfo.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var symbols map[string]sizing.MarketInfo
	if err := json.Unmarshal(data, &symbols); err != nil {
		return nil, err
	}
	return NewStatic(symbols), nil
}

func (s *Static) Lookup(_ context.Context, symbol string) (sizing.MarketInfo, error) {
	return s.symbols[symbol], nil
}
