package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAssignsFreshIDs(t *testing.T) {
	m := MasterOrder{ID: "M-1", Symbol: "NSE:RELIANCE", Side: SideBuy, Qty: 30}

	a := Normalize(m, EventNew)
	b := Normalize(m, EventNew)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "every signal gets its own id")
	assert.Equal(t, "M-1", a.MasterOrderID)
	assert.Equal(t, EventNew, a.Event)
	assert.Equal(t, SideBuy, a.Side)
	assert.Equal(t, int64(30), a.Qty)
	assert.Nil(t, a.Price)
}

func TestNormalizeDefaults(t *testing.T) {
	before := time.Now().UnixMilli()
	sig := Normalize(MasterOrder{ID: "M-1", Symbol: "NSE:TCS", Side: SideSell, Qty: 1}, EventNew)
	after := time.Now().UnixMilli()

	assert.Equal(t, TIFDay, sig.TIF)
	require.GreaterOrEqual(t, sig.TS, before)
	assert.LessOrEqual(t, sig.TS, after)
}

func TestNormalizeKeepsExplicitFields(t *testing.T) {
	px := 101.25
	m := MasterOrder{ID: "M-2", Symbol: "NSE:TCS", Side: SideBuy, Qty: 5, Price: &px, TIF: TIFIOC, TS: 1_700_000_000_000}

	sig := Normalize(m, EventModify)

	assert.Equal(t, TIFIOC, sig.TIF)
	assert.Equal(t, int64(1_700_000_000_000), sig.TS)
	require.NotNil(t, sig.Price)
	assert.Equal(t, 101.25, *sig.Price)
	assert.Equal(t, EventModify, sig.Event)
}

func TestSubjectAndStreamNames(t *testing.T) {
	assert.Equal(t, "signals.ZERODHA.p.0", Subject("ZERODHA", 0))
	assert.Equal(t, "signals.UPSTOX.p.255", Subject("UPSTOX", 255))
	assert.Equal(t, "SIG_ZERODHA", StreamName("ZERODHA"))
}

func TestParseEventKind(t *testing.T) {
	for raw, want := range map[string]EventKind{
		"NEW": EventNew, "new": EventNew, " Cancel ": EventCancel,
		"modify": EventModify, "CLOSE": EventClose,
	} {
		got, ok := ParseEventKind(raw)
		require.True(t, ok, "raw=%q", raw)
		assert.Equal(t, want, got)
	}

	_, ok := ParseEventKind("replace")
	assert.False(t, ok)
}

func TestParseSideAndTIF(t *testing.T) {
	side, ok := ParseSide(" buy ")
	require.True(t, ok)
	assert.Equal(t, SideBuy, side)
	_, ok = ParseSide("short")
	assert.False(t, ok)

	tif, ok := ParseTIF("gtc")
	require.True(t, ok)
	assert.Equal(t, TIFGTC, tif)
	_, ok = ParseTIF("FOK")
	assert.False(t, ok)
}
