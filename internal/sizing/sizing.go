// Package sizing turns a signal plus one account's allocation rule into a
// lot-compliant order and splits it into bounded child slices. Everything
// here is pure: same inputs, same outputs, no clock and no randomness.
package sizing

import (
	"math"

	"github.com/chandu88611/tradeRepliction/internal/allocation"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// MarketInfo carries the per-symbol exchange parameters supplied by the
// market-data collaborator. Zero values mean "unknown" and fall back to
// the defaulting rules below (lot 1, no tick rounding, no min qty).
type MarketInfo struct {
	LotSize         int64   `json:"lotSize,omitempty"`
	TickSize        float64 `json:"tickSize,omitempty"`
	LastTradedPrice float64 `json:"lastTradedPrice,omitempty"`
	MinQty          int64   `json:"minQty,omitempty"`
}

// SliceConfig bounds the size of each child order.
type SliceConfig struct {
	MaxQtyPerSlice      int64   `json:"maxQtyPerSlice,omitempty"`
	MaxNotionalPerSlice float64 `json:"maxNotionalPerSlice,omitempty"` // requires a known price
	MinQtyPerSlice      int64   `json:"minQtyPerSlice,omitempty"`
}

// Order is the fully resolved, lot-compliant order for one account.
type Order struct {
	AccountID string      `json:"accountId"`
	Symbol    string      `json:"symbol"`
	Side      signal.Side `json:"side"`
	Qty       int64       `json:"qty"`
	Price     *float64    `json:"price"` // nil = market
	Notional  *float64    `json:"notional,omitempty"`
}

// Slice is one child order of an Order's decomposition. Seq is zero-based
// and unique within the decomposition.
type Slice struct {
	Order
	Seq int `json:"seq"`
}

func roundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Round(price/tick) * tick
}

// ceilToLot rounds up so the requested exposure is never under-allocated.
func ceilToLot(qty float64, lot int64) int64 {
	if lot <= 1 {
		return int64(math.Max(1, math.Ceil(qty)))
	}
	lots := int64(math.Ceil(qty / float64(lot)))
	return lots * lot
}

func floorToLot(qty float64, lot int64) int64 {
	if lot <= 1 {
		return int64(math.Max(0, math.Floor(qty)))
	}
	lots := int64(math.Floor(qty / float64(lot)))
	return lots * lot
}

// applySlippage shifts a limit price against the taker (BUY up, SELL down)
// by slippageBps and snaps it to the tick grid. Market orders stay nil.
func applySlippage(side signal.Side, price *float64, slippageBps, tick float64) *float64 {
	if price == nil {
		return nil
	}
	bps := math.Max(0, slippageBps)
	factor := bps / 10_000
	adjusted := *price * (1 - factor)
	if side == signal.SideBuy {
		adjusted = *price * (1 + factor)
	}
	p := roundToTick(adjusted, tick)
	return &p
}

func notionalOf(qty int64, price float64) *float64 {
	if price <= 0 {
		return nil
	}
	n := float64(qty) * price
	return &n
}

// ComputeSizedOrder resolves the allocation rule for one account into a
// lot-compliant quantity and working price.
//
// Order of operations: rule -> exchange min-qty floor -> round up to lot ->
// risk caps (rounded down to lot) -> one-full-lot floor -> slippage + tick.
func ComputeSizedOrder(sig signal.Event, acct allocation.Assignment, market MarketInfo) Order {
	baseQty := sig.Qty
	if baseQty < 0 {
		baseQty = 0
	}
	lot := market.LotSize
	if lot <= 0 {
		lot = 1
	}

	refPrice := market.LastTradedPrice
	if sig.Price != nil {
		refPrice = *sig.Price
	}

	multiplier := 1.0
	if acct.Allocation.Multiplier != nil {
		multiplier = *acct.Allocation.Multiplier
	}

	var desired int64
	switch acct.Allocation.Mode {
	case allocation.ModeFixedQty:
		desired = int64(math.Max(0, math.Floor(acct.Allocation.Quantity)))
	case allocation.ModePercentOfMaster:
		desired = int64(math.Floor(float64(baseQty) * multiplier))
	case allocation.ModeFixedValue:
		if refPrice > 0 {
			desired = int64(math.Floor(acct.Allocation.Value / refPrice))
		} else {
			// no reference price: fall back to scaling the master qty
			desired = int64(math.Floor(float64(baseQty) * multiplier))
		}
	}

	if market.MinQty > 0 && desired > 0 && desired < market.MinQty {
		desired = market.MinQty
	}

	qty := ceilToLot(float64(desired), lot)

	var risk allocation.Risk
	if acct.Risk != nil {
		risk = *acct.Risk
	}
	if risk.MaxQty != nil {
		if capped := floorToLot(*risk.MaxQty, lot); capped < qty {
			qty = capped
		}
	}
	if risk.MaxValue != nil && refPrice > 0 {
		maxByValue := math.Floor(*risk.MaxValue / refPrice)
		if capped := floorToLot(maxByValue, lot); capped < qty {
			qty = capped
		}
	}

	// a positive quantity must still be at least one full lot
	if qty > 0 && lot > 1 && qty < lot {
		qty = lot
	}

	price := applySlippage(sig.Side, sig.Price, risk.SlippageBps, market.TickSize)

	return Order{
		AccountID: acct.AccountID,
		Symbol:    sig.Symbol,
		Side:      sig.Side,
		Qty:       qty,
		Price:     price,
		Notional:  notionalOf(qty, refPrice),
	}
}

// SliceOrder splits a sized order into child orders whose quantities sum
// exactly to the order's qty. The notional cap wins over the qty cap when
// both are set and a price is known; with neither cap the whole quantity
// goes out as a single slice. Each slice is lot-compliant except the
// forward-progress fallback, which takes min(remaining, lot) so a binding
// cap can never stall the loop.
func SliceOrder(sized Order, cfg SliceConfig, market MarketInfo) []Slice {
	lot := market.LotSize
	if lot <= 0 {
		lot = 1
	}
	minSlice := cfg.MinQtyPerSlice
	if minSlice < 1 {
		minSlice = 1
	}
	minSliceRounded := ceilToLot(float64(minSlice), lot)

	var price float64
	if sized.Price != nil {
		price = *sized.Price
	}
	useNotionalGuard := cfg.MaxNotionalPerSlice > 0 && price > 0

	slices := make([]Slice, 0, 1)
	remain := sized.Qty
	seq := 0

	for remain > 0 {
		var take int64
		switch {
		case useNotionalGuard:
			maxByValue := math.Max(1, math.Floor(cfg.MaxNotionalPerSlice/price))
			maxRounded := floorToLot(maxByValue, lot)
			take = min64(remain, maxRounded)
			if take < minSliceRounded {
				take = minSliceRounded
			}
		case cfg.MaxQtyPerSlice > 0:
			maxRounded := floorToLot(float64(cfg.MaxQtyPerSlice), lot)
			take = min64(remain, maxRounded)
			if take < minSliceRounded {
				take = minSliceRounded
			}
		default:
			take = remain
		}

		take = floorToLot(float64(min64(take, remain)), lot)
		if take <= 0 {
			// forward-progress fallback: remaining is smaller than one lot
			take = min64(remain, max64(lot, 1))
		}

		child := sized
		child.Qty = take
		child.Notional = notionalOf(take, price)
		slices = append(slices, Slice{Order: child, Seq: seq})
		seq++
		remain -= take
	}
	return slices
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
