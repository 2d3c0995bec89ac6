package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandu88611/tradeRepliction/internal/allocation"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

func fptr(v float64) *float64 { return &v }

func newSignal(qty int64, price *float64) signal.Event {
	return signal.Event{
		ID:            "S-1",
		MasterOrderID: "M-1",
		Event:         signal.EventNew,
		Symbol:        "NSE:RELIANCE",
		Side:          signal.SideBuy,
		Qty:           qty,
		Price:         price,
		TIF:           signal.TIFDay,
		TS:            1_700_000_000_000,
	}
}

func percentOfMaster(mult float64) allocation.Assignment {
	return allocation.Assignment{
		AccountID:  "ACC-1",
		Broker:     "ZERODHA",
		Allocation: allocation.Rule{Mode: allocation.ModePercentOfMaster, Multiplier: &mult},
	}
}

func TestComputeSizedOrderPercentOfMaster(t *testing.T) {
	sized := ComputeSizedOrder(newSignal(30, nil), percentOfMaster(1.0), MarketInfo{LotSize: 1})

	assert.Equal(t, int64(30), sized.Qty)
	assert.Nil(t, sized.Price, "market order keeps nil price")
	assert.Nil(t, sized.Notional, "no reference price, no notional")
	assert.Equal(t, "NSE:RELIANCE", sized.Symbol)
	assert.Equal(t, "ACC-1", sized.AccountID)
}

func TestComputeSizedOrderFixedValue(t *testing.T) {
	acct := allocation.Assignment{
		AccountID:  "ACC-1",
		Broker:     "ZERODHA",
		Allocation: allocation.Rule{Mode: allocation.ModeFixedValue, Value: 150_000},
	}
	market := MarketInfo{LotSize: 5, LastTradedPrice: 1500}

	sized := ComputeSizedOrder(newSignal(30, nil), acct, market)

	// floor(150000/1500) = 100, already a multiple of 5
	assert.Equal(t, int64(100), sized.Qty)
	require.NotNil(t, sized.Notional)
	assert.Equal(t, 150_000.0, *sized.Notional)
}

func TestComputeSizedOrderFixedValueFallsBackWithoutPrice(t *testing.T) {
	mult := 0.5
	acct := allocation.Assignment{
		AccountID:  "ACC-1",
		Broker:     "ZERODHA",
		Allocation: allocation.Rule{Mode: allocation.ModeFixedValue, Value: 150_000, Multiplier: &mult},
	}

	sized := ComputeSizedOrder(newSignal(40, nil), acct, MarketInfo{LotSize: 1})

	// no reference price: percent_of_master formula with the same multiplier
	assert.Equal(t, int64(20), sized.Qty)
}

func TestComputeSizedOrderFixedQty(t *testing.T) {
	acct := allocation.Assignment{
		AccountID:  "ACC-1",
		Broker:     "ZERODHA",
		Allocation: allocation.Rule{Mode: allocation.ModeFixedQty, Quantity: 17},
	}

	sized := ComputeSizedOrder(newSignal(1000, nil), acct, MarketInfo{LotSize: 5})

	// 17 rounds up to the next lot, never under-allocating
	assert.Equal(t, int64(20), sized.Qty)
}

func TestComputeSizedOrderMaxQtyCap(t *testing.T) {
	acct := percentOfMaster(1.0)
	acct.Risk = &allocation.Risk{MaxQty: fptr(20)}

	sized := ComputeSizedOrder(newSignal(100, nil), acct, MarketInfo{LotSize: 10})

	assert.Equal(t, int64(20), sized.Qty)
}

func TestComputeSizedOrderMaxValueCap(t *testing.T) {
	acct := percentOfMaster(1.0)
	acct.Risk = &allocation.Risk{MaxValue: fptr(10_000)}
	market := MarketInfo{LotSize: 5, LastTradedPrice: 300}

	sized := ComputeSizedOrder(newSignal(200, nil), acct, market)

	// floor(10000/300) = 33, floored to lot 5 = 30
	assert.Equal(t, int64(30), sized.Qty)
}

func TestComputeSizedOrderMinQtyFloor(t *testing.T) {
	acct := percentOfMaster(1.0)

	sized := ComputeSizedOrder(newSignal(3, nil), acct, MarketInfo{LotSize: 1, MinQty: 10})

	assert.Equal(t, int64(10), sized.Qty)
}

func TestComputeSizedOrderSlippage(t *testing.T) {
	market := MarketInfo{LotSize: 1, TickSize: 0.05}

	buy := percentOfMaster(1.0)
	buy.Risk = &allocation.Risk{SlippageBps: 10}
	sized := ComputeSizedOrder(newSignal(10, fptr(1000)), buy, market)
	require.NotNil(t, sized.Price)
	// 1000 * 1.001 = 1001, already on the 0.05 grid
	assert.InDelta(t, 1001.0, *sized.Price, 1e-9)

	sellSig := newSignal(10, fptr(1000))
	sellSig.Side = signal.SideSell
	sized = ComputeSizedOrder(sellSig, buy, market)
	require.NotNil(t, sized.Price)
	assert.InDelta(t, 999.0, *sized.Price, 1e-9)
}

func TestComputeSizedOrderLotMultipleProperty(t *testing.T) {
	rules := []allocation.Rule{
		{Mode: allocation.ModeFixedQty, Quantity: 37},
		{Mode: allocation.ModePercentOfMaster, Multiplier: fptr(0.7)},
		{Mode: allocation.ModeFixedValue, Value: 52_345},
	}
	lots := []int64{0, 1, 3, 5, 10, 25}

	for _, rule := range rules {
		for _, lot := range lots {
			acct := allocation.Assignment{AccountID: "A", Broker: "B", Allocation: rule}
			market := MarketInfo{LotSize: lot, LastTradedPrice: 123.45}
			sized := ComputeSizedOrder(newSignal(81, nil), acct, market)

			effLot := lot
			if effLot <= 0 {
				effLot = 1
			}
			assert.GreaterOrEqual(t, sized.Qty, int64(0))
			assert.Zero(t, sized.Qty%effLot,
				"mode=%s lot=%d qty=%d not lot-compliant", rule.Mode, lot, sized.Qty)
		}
	}
}

func TestComputeSizedOrderDeterministic(t *testing.T) {
	acct := percentOfMaster(1.3)
	acct.Risk = &allocation.Risk{MaxValue: fptr(99_999), SlippageBps: 25}
	market := MarketInfo{LotSize: 5, TickSize: 0.05, LastTradedPrice: 876.5}
	sig := newSignal(123, fptr(877.3))

	first := ComputeSizedOrder(sig, acct, market)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeSizedOrder(sig, acct, market))
	}
}

func sized(qty int64, price *float64) Order {
	o := Order{
		AccountID: "ACC-1",
		Symbol:    "NSE:RELIANCE",
		Side:      signal.SideBuy,
		Qty:       qty,
		Price:     price,
	}
	if price != nil {
		n := float64(qty) * *price
		o.Notional = &n
	}
	return o
}

func TestSliceOrderMaxQtyPerSlice(t *testing.T) {
	slices := SliceOrder(sized(250, nil), SliceConfig{MaxQtyPerSlice: 100}, MarketInfo{LotSize: 1})

	require.Len(t, slices, 3)
	assert.Equal(t, int64(100), slices[0].Qty)
	assert.Equal(t, int64(100), slices[1].Qty)
	assert.Equal(t, int64(50), slices[2].Qty)
	for i, s := range slices {
		assert.Equal(t, i, s.Seq)
	}
}

func TestSliceOrderSingleSliceWithoutCaps(t *testing.T) {
	slices := SliceOrder(sized(999, nil), SliceConfig{}, MarketInfo{LotSize: 1})

	require.Len(t, slices, 1)
	assert.Equal(t, int64(999), slices[0].Qty)
	assert.Equal(t, 0, slices[0].Seq)
}

func TestSliceOrderNotionalCap(t *testing.T) {
	slices := SliceOrder(
		sized(100, fptr(200)),
		SliceConfig{MaxNotionalPerSlice: 5000},
		MarketInfo{LotSize: 5},
	)

	// floor(5000/200)=25 per slice, lot-compliant
	require.Len(t, slices, 4)
	for _, s := range slices {
		assert.Equal(t, int64(25), s.Qty)
	}
}

func TestSliceOrderSumsAndSequencesProperty(t *testing.T) {
	cases := []struct {
		qty    int64
		cfg    SliceConfig
		market MarketInfo
		price  *float64
	}{
		{qty: 250, cfg: SliceConfig{MaxQtyPerSlice: 100}, market: MarketInfo{LotSize: 1}},
		{qty: 250, cfg: SliceConfig{MaxQtyPerSlice: 7}, market: MarketInfo{LotSize: 5}},
		{qty: 101, cfg: SliceConfig{MaxQtyPerSlice: 10, MinQtyPerSlice: 3}, market: MarketInfo{LotSize: 2}},
		{qty: 17, cfg: SliceConfig{MaxNotionalPerSlice: 999}, market: MarketInfo{LotSize: 3}, price: fptr(100)},
		{qty: 1, cfg: SliceConfig{MaxQtyPerSlice: 100}, market: MarketInfo{LotSize: 1}},
		{qty: 64, cfg: SliceConfig{}, market: MarketInfo{LotSize: 64}},
	}

	for _, tc := range cases {
		slices := SliceOrder(sized(tc.qty, tc.price), tc.cfg, tc.market)

		var sum int64
		for i, s := range slices {
			assert.Equal(t, i, s.Seq, "sequence numbers are 0..N-1 with no gaps")
			assert.Positive(t, s.Qty)
			sum += s.Qty
		}
		assert.Equal(t, tc.qty, sum, "slice quantities must sum to the sized qty (qty=%d cfg=%+v)", tc.qty, tc.cfg)
	}
}

func TestSliceOrderForwardProgressUnderBindingCap(t *testing.T) {
	// cap floors to zero lots per slice; the fallback must still advance
	slices := SliceOrder(sized(12, nil), SliceConfig{MaxQtyPerSlice: 3}, MarketInfo{LotSize: 5})

	var sum int64
	for _, s := range slices {
		assert.Positive(t, s.Qty)
		sum += s.Qty
	}
	assert.Equal(t, int64(12), sum)
	assert.LessOrEqual(t, len(slices), 12)
}
