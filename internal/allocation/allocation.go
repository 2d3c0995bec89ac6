package allocation

import (
	"fmt"
	"strings"
)

// Mode is the closed set of allocation-rule variants. Every switch over
// Mode must handle all three; Validate is the boundary that rejects
// anything else before it reaches the sizing path.
type Mode string

const (
	ModeFixedQty        Mode = "fixed_qty"
	ModePercentOfMaster Mode = "percent_of_master"
	ModeFixedValue      Mode = "fixed_value"
)

func (m Mode) String() string { return string(m) }
func (m Mode) Valid() bool {
	switch m {
	case ModeFixedQty, ModePercentOfMaster, ModeFixedValue:
		return true
	default:
		return false
	}
}

func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m, true
	}
	return "", false
}

// Rule is one account's allocation rule.
//
//   - fixed_qty: Quantity units, regardless of the master quantity.
//   - percent_of_master: master qty scaled by Multiplier (default 1).
//   - fixed_value: Value / reference price; falls back to the
//     percent_of_master formula when no reference price is known.
type Rule struct {
	Mode       Mode     `json:"mode"`
	Quantity   float64  `json:"quantity,omitempty"`
	Value      float64  `json:"value,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
}

// Risk holds the optional per-account limits applied after sizing.
type Risk struct {
	MaxQty      *float64 `json:"maxQty,omitempty"`
	MaxValue    *float64 `json:"maxValue,omitempty"`
	SlippageBps float64  `json:"slippageBps,omitempty"`
}

// Assignment binds one sub-account to its allocation rule for a signal.
type Assignment struct {
	AccountID  string `json:"accountId"`
	Broker     string `json:"broker"`
	Allocation Rule   `json:"allocation"`
	Risk       *Risk  `json:"risk,omitempty"`
}

// Validate rejects malformed rules at the directory boundary so the pure
// sizing path never sees an unknown variant.
func (r Rule) Validate() error {
	switch r.Mode {
	case ModeFixedQty:
		if r.Quantity < 0 {
			return fmt.Errorf("fixed_qty quantity must be >= 0, got %v", r.Quantity)
		}
	case ModePercentOfMaster:
		if r.Multiplier != nil && *r.Multiplier < 0 {
			return fmt.Errorf("percent_of_master multiplier must be >= 0, got %v", *r.Multiplier)
		}
	case ModeFixedValue:
		if r.Value < 0 {
			return fmt.Errorf("fixed_value value must be >= 0, got %v", r.Value)
		}
	default:
		return fmt.Errorf("unknown allocation mode: %q", r.Mode)
	}
	return nil
}

func (a Assignment) Validate() error {
	if a.AccountID == "" {
		return fmt.Errorf("assignment has empty accountId")
	}
	if a.Broker == "" {
		return fmt.Errorf("assignment %s has empty broker", a.AccountID)
	}
	if err := a.Allocation.Validate(); err != nil {
		return fmt.Errorf("assignment %s: %w", a.AccountID, err)
	}
	return nil
}
