package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/broker"
	"github.com/chandu88611/tradeRepliction/internal/idem"
	"github.com/chandu88611/tradeRepliction/internal/marketdata"
	"github.com/chandu88611/tradeRepliction/internal/signal"
	"github.com/chandu88611/tradeRepliction/internal/sizing"
)

// Dispatcher executes one work item end to end: resolve market info, size,
// slice, derive idempotency keys, and call the broker client. Per-slice
// placement failures are logged with their key and never abort the
// remaining slices; broker-side partial failure is expected.
type Dispatcher struct {
	Client    broker.Client
	Market    marketdata.Provider
	Slice     sizing.SliceConfig
	Namespace string
	Log       *zap.Logger
}

func (d *Dispatcher) Execute(ctx context.Context, item Item) {
	switch item.Signal.Event {
	case signal.EventNew:
		d.placeNew(ctx, item)
	case signal.EventModify, signal.EventCancel, signal.EventClose:
		d.applyAction(ctx, item)
	default:
		d.Log.Error("work item with unknown event kind",
			zap.String("signal", item.Signal.ID),
			zap.String("event", item.Signal.Event.String()))
	}
}

func (d *Dispatcher) placeNew(ctx context.Context, item Item) {
	acct := item.Assignment
	sig := item.Signal

	market, err := d.Market.Lookup(ctx, sig.Symbol)
	if err != nil {
		// sizing handles absent parameters; proceed with defaults
		d.Log.Warn("market data lookup failed, sizing with defaults",
			zap.String("symbol", sig.Symbol), zap.Error(err))
		market = sizing.MarketInfo{}
	}

	sized := sizing.ComputeSizedOrder(sig, acct, market)
	if sized.Qty <= 0 {
		d.Log.Info("sized to zero, nothing to place",
			zap.String("signal", sig.ID),
			zap.String("account", acct.AccountID))
		return
	}

	for _, slice := range sizing.SliceOrder(sized, d.Slice, market) {
		key := idem.BuildKey(acct.Broker, acct.AccountID, sig.ID, slice.Seq)
		if d.Namespace != "" {
			key = idem.Namespace(d.Namespace, key)
		}

		res, err := d.Client.PlaceOrder(ctx, broker.PlaceRequest{
			AccountID: acct.AccountID,
			Order: broker.Order{
				Symbol: slice.Symbol,
				Side:   slice.Side,
				Qty:    slice.Qty,
				Price:  slice.Price,
			},
			IdemKey: key,
		})
		if err != nil {
			d.Log.Error("slice placement failed",
				zap.String("signal", sig.ID),
				zap.String("account", acct.AccountID),
				zap.Int("seq", slice.Seq),
				zap.String("idem", key),
				zap.Error(err))
			continue
		}
		d.Log.Info("slice placed",
			zap.String("signal", sig.ID),
			zap.String("account", acct.AccountID),
			zap.Int("seq", slice.Seq),
			zap.Int64("qty", slice.Qty),
			zap.String("orderId", res.OrderID),
			zap.String("idem", key))
	}
}

// applyAction forwards MODIFY/CANCEL/CLOSE to the broker client, addressed
// by the master order reference. The action label keeps these keys in a
// different space from NEW-order slice keys.
func (d *Dispatcher) applyAction(ctx context.Context, item Item) {
	acct := item.Assignment
	sig := item.Signal

	key := idem.BuildActionKey(acct.Broker, acct.AccountID, sig.ID, sig.Event)
	if d.Namespace != "" {
		key = idem.Namespace(d.Namespace, key)
	}

	var (
		res broker.Result
		err error
	)
	switch sig.Event {
	case signal.EventModify:
		res, err = d.Client.ModifyOrder(ctx, broker.ModifyRequest{
			AccountID: acct.AccountID,
			OrderRef:  sig.MasterOrderID,
			Changes: broker.Order{
				Symbol: sig.Symbol,
				Side:   sig.Side,
				Qty:    sig.Qty,
				Price:  sig.Price,
			},
			IdemKey: key,
		})
	default: // CANCEL and CLOSE both withdraw the working order
		res, err = d.Client.CancelOrder(ctx, broker.CancelRequest{
			AccountID: acct.AccountID,
			OrderRef:  sig.MasterOrderID,
			IdemKey:   key,
		})
	}
	if err != nil {
		d.Log.Error("order action failed",
			zap.String("signal", sig.ID),
			zap.String("event", sig.Event.String()),
			zap.String("account", acct.AccountID),
			zap.String("idem", key),
			zap.Error(err))
		return
	}
	d.Log.Info("order action applied",
		zap.String("signal", sig.ID),
		zap.String("event", sig.Event.String()),
		zap.String("account", acct.AccountID),
		zap.String("orderId", res.OrderID),
		zap.String("idem", key))
}
