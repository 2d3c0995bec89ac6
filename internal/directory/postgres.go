package directory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chandu88611/tradeRepliction/internal/allocation"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// Postgres loads account assignments from the account_assignments table:
//
//	account_id  text primary key within (broker)
//	broker      text
//	mode        text  -- fixed_qty | percent_of_master | fixed_value
//	quantity    double precision
//	value       double precision
//	multiplier  double precision null
//	max_qty     double precision null
//	max_value   double precision null
//	slippage_bps double precision not null default 0
//	enabled     boolean not null default true
type Postgres struct{ DB *pgxpool.Pool }

func NewPostgres(db *pgxpool.Pool) *Postgres { return &Postgres{DB: db} }

func (p *Postgres) Expand(ctx context.Context, _ signal.Event, broker string) ([]allocation.Assignment, error) {
	rows, err := p.DB.Query(ctx, `
		SELECT account_id, mode, quantity, value, multiplier, max_qty, max_value, slippage_bps
		FROM account_assignments
		WHERE broker = $1 AND enabled
		ORDER BY account_id`, broker)
	if err != nil {
		return nil, fmt.Errorf("query assignments for %s: %w", broker, err)
	}
	defer rows.Close()

	out := make([]allocation.Assignment, 0)
	for rows.Next() {
		var (
			a           allocation.Assignment
			mode        string
			maxQty      *float64
			maxValue    *float64
			slippageBps float64
		)
		if err := rows.Scan(&a.AccountID, &mode, &a.Allocation.Quantity, &a.Allocation.Value,
			&a.Allocation.Multiplier, &maxQty, &maxValue, &slippageBps); err != nil {
			return nil, err
		}
		a.Broker = broker
		m, ok := allocation.ParseMode(mode)
		if !ok {
			return nil, fmt.Errorf("account %s: unknown allocation mode %q", a.AccountID, mode)
		}
		a.Allocation.Mode = m
		if maxQty != nil || maxValue != nil || slippageBps != 0 {
			a.Risk = &allocation.Risk{MaxQty: maxQty, MaxValue: maxValue, SlippageBps: slippageBps}
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
