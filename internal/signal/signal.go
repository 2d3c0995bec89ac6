package signal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventKind is the closed set of order intents a signal can carry.
type EventKind string

const (
	EventNew    EventKind = "NEW"
	EventModify EventKind = "MODIFY"
	EventCancel EventKind = "CANCEL"
	EventClose  EventKind = "CLOSE"
)

func (k EventKind) String() string { return string(k) }
func (k EventKind) Valid() bool {
	switch k {
	case EventNew, EventModify, EventCancel, EventClose:
		return true
	default:
		return false
	}
}

func ParseEventKind(s string) (EventKind, bool) {
	k := EventKind(strings.ToUpper(strings.TrimSpace(s)))
	if k.Valid() {
		return k, true
	}
	return "", false
}

// Side of the trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) String() string { return string(s) }
func (s Side) Valid() bool    { return s == SideBuy || s == SideSell }

func ParseSide(s string) (Side, bool) {
	v := Side(strings.ToUpper(strings.TrimSpace(s)))
	if v.Valid() {
		return v, true
	}
	return "", false
}

// TIF is the order's time in force.
type TIF string

const (
	TIFDay TIF = "DAY"
	TIFIOC TIF = "IOC"
	TIFGTC TIF = "GTC"
)

func (t TIF) String() string { return string(t) }
func (t TIF) Valid() bool    { return t == TIFDay || t == TIFIOC || t == TIFGTC }

func ParseTIF(s string) (TIF, bool) {
	v := TIF(strings.ToUpper(strings.TrimSpace(s)))
	if v.Valid() {
		return v, true
	}
	return "", false
}

// MasterOrder is the inbound instruction as accepted by the ingress.
type MasterOrder struct {
	ID     string   `json:"id"`
	Symbol string   `json:"symbol"` // exchange-qualified, e.g. NSE:RELIANCE
	Side   Side     `json:"side"`
	Qty    int64    `json:"qty"`
	Price  *float64 `json:"price,omitempty"` // nil = market
	TIF    TIF      `json:"tif,omitempty"`
	TS     int64    `json:"ts"` // unix millis
}

// Event is the canonical, immutable representation of one order intent.
// It is created once by Normalize and only ever read downstream.
type Event struct {
	ID            string    `json:"id"`
	MasterOrderID string    `json:"masterOrderId"`
	Event         EventKind `json:"event"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side,omitempty"`
	Qty           int64     `json:"qty,omitempty"`
	Price         *float64  `json:"price,omitempty"` // nil = market
	TIF           TIF       `json:"tif,omitempty"`
	TS            int64     `json:"ts"` // unix millis
}

// Normalize converts a master order into a Signal Event with a fresh
// globally unique id. The master order's timestamp is kept when set.
func Normalize(m MasterOrder, kind EventKind) Event {
	ts := m.TS
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	tif := m.TIF
	if tif == "" {
		tif = TIFDay
	}
	return Event{
		ID:            uuid.NewString(),
		MasterOrderID: m.ID,
		Event:         kind,
		Symbol:        m.Symbol,
		Side:          m.Side,
		Qty:           m.Qty,
		Price:         m.Price,
		TIF:           tif,
		TS:            ts,
	}
}

// Subject names the bus subject carrying one partition of one broker's
// signal stream.
func Subject(broker string, partition int) string {
	return fmt.Sprintf("signals.%s.p.%d", broker, partition)
}

// StreamName names the durable stream backing one broker's subject space.
func StreamName(broker string) string {
	return "SIG_" + broker
}
