// Package broker is the boundary to the per-broker wire clients. The
// pipeline treats a client as an opaque place/modify/cancel capability:
// failure must be observable, and the client is not expected to retry on
// its own.
package broker

import (
	"context"

	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// Order is the wire-agnostic order a client places.
type Order struct {
	Symbol string      `json:"symbol"` // exchange-qualified, e.g. NSE:RELIANCE
	Side   signal.Side `json:"side"`
	Qty    int64       `json:"qty"`
	Price  *float64    `json:"price"` // nil = market
}

// PlaceRequest carries one slice to the broker. IdemKey deduplicates
// retried placements; clients pass it through as the client order id.
type PlaceRequest struct {
	AccountID string
	Order     Order
	IdemKey   string
}

// ModifyRequest changes an already-placed order, addressed by the order
// reference the caller knows (the master order id in this pipeline).
type ModifyRequest struct {
	AccountID string
	OrderRef  string
	Changes   Order
	IdemKey   string
}

type CancelRequest struct {
	AccountID string
	OrderRef  string
	IdemKey   string
}

type Result struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Client is one broker's order capability.
type Client interface {
	PlaceOrder(ctx context.Context, req PlaceRequest) (Result, error)
	ModifyOrder(ctx context.Context, req ModifyRequest) (Result, error)
	CancelOrder(ctx context.Context, req CancelRequest) (Result, error)
}
