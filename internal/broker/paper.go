package broker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Paper is a client that accepts everything and executes nothing: it logs
// each call and answers with a synthetic order id derived from the
// idempotency key, so repeated placements of the same slice resolve to the
// same order. Used for dry runs and as the default when no real broker
// client is configured.
type Paper struct {
	Broker  string
	Latency time.Duration
	Log     *zap.Logger
}

func NewPaper(brokerName string, log *zap.Logger) *Paper {
	return &Paper{Broker: brokerName, Latency: 20 * time.Millisecond, Log: log}
}

func (p *Paper) wait(ctx context.Context) error {
	if p.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Paper) PlaceOrder(ctx context.Context, req PlaceRequest) (Result, error) {
	if err := p.wait(ctx); err != nil {
		return Result{}, err
	}
	p.Log.Info("paper order placed",
		zap.String("broker", p.Broker),
		zap.String("account", req.AccountID),
		zap.String("symbol", req.Order.Symbol),
		zap.String("side", req.Order.Side.String()),
		zap.Int64("qty", req.Order.Qty),
		zap.Float64p("price", req.Order.Price),
		zap.String("idem", req.IdemKey))
	return Result{OrderID: "paper-" + req.IdemKey, Status: "ACCEPTED"}, nil
}

func (p *Paper) ModifyOrder(ctx context.Context, req ModifyRequest) (Result, error) {
	if err := p.wait(ctx); err != nil {
		return Result{}, err
	}
	p.Log.Info("paper order modified",
		zap.String("broker", p.Broker),
		zap.String("account", req.AccountID),
		zap.String("orderRef", req.OrderRef),
		zap.String("idem", req.IdemKey))
	return Result{OrderID: req.OrderRef, Status: "MODIFIED"}, nil
}

func (p *Paper) CancelOrder(ctx context.Context, req CancelRequest) (Result, error) {
	if err := p.wait(ctx); err != nil {
		return Result{}, err
	}
	p.Log.Info("paper order canceled",
		zap.String("broker", p.Broker),
		zap.String("account", req.AccountID),
		zap.String("orderRef", req.OrderRef),
		zap.String("idem", req.IdemKey))
	return Result{OrderID: req.OrderRef, Status: "CANCELED"}, nil
}
