// Package risk implements per-position close/keep policies. Managers are
// stateless: every decision is a pure function of the position's current
// P/L percentage and days to expiration.
package risk

import (
	"fmt"

	"options-backtester/internal/errors"
	"options-backtester/internal/position"
)

// Profit and loss thresholds shared by the percentage policies.
const (
	profitTargetPct = 50.0
	halfLossPct     = -50.0
	managementDTE   = 21
	expirationGuard = 1
)

// Manager decides, once per tick, whether an open position should close.
type Manager interface {
	// ShouldClose reports whether the position must be closed this tick.
	ShouldClose(p position.Primitive) bool
	// Name returns the policy name for logging and ledgers.
	Name() string
}

// Policy names accepted by New.
const (
	PolicyHoldToExpiration    = "hold_to_expiration"
	PolicyCloseAt50           = "close_at_50"
	PolicyCloseAt50Or21       = "close_at_50_or_21_days"
	PolicyCloseAt50Or21OrLoss = "close_at_50_or_21_days_or_half_loss"
	PolicyCloseAt21           = "close_at_21_days"
	PolicyCloseAtFixedDTE     = "close_at_fixed_dte"
)

// New builds a manager for the named policy. An unknown policy is a fatal
// configuration error.
func New(policy string, fixedDTE int) (Manager, error) {
	switch policy {
	case PolicyHoldToExpiration:
		return holdToExpiration{}, nil
	case PolicyCloseAt50:
		return closeAtProfit{}, nil
	case PolicyCloseAt50Or21:
		return closeAtProfitOrDTE{dte: managementDTE}, nil
	case PolicyCloseAt50Or21OrLoss:
		return closeAtProfitOrDTEOrLoss{}, nil
	case PolicyCloseAt21:
		return closeAtDTE{dte: managementDTE}, nil
	case PolicyCloseAtFixedDTE:
		if fixedDTE <= expirationGuard {
			return nil, errors.NewConfigError("risk.fixed_dte",
				fmt.Sprintf("must be greater than %d", expirationGuard), errors.ErrConfigInvalid)
		}
		return closeAtProfitOrDTE{dte: fixedDTE}, nil
	default:
		return nil, errors.NewConfigError("risk.policy", policy, errors.ErrUnknownRiskPolicy)
	}
}

type holdToExpiration struct{}

func (holdToExpiration) ShouldClose(p position.Primitive) bool {
	return p.DTE() <= expirationGuard
}

func (holdToExpiration) Name() string { return PolicyHoldToExpiration }

type closeAtProfit struct{}

func (closeAtProfit) ShouldClose(p position.Primitive) bool {
	return p.ProfitLossPct() >= profitTargetPct || p.DTE() <= expirationGuard
}

func (closeAtProfit) Name() string { return PolicyCloseAt50 }

type closeAtProfitOrDTE struct {
	dte int
}

func (c closeAtProfitOrDTE) ShouldClose(p position.Primitive) bool {
	return p.ProfitLossPct() >= profitTargetPct || p.DTE() == c.dte || p.DTE() <= expirationGuard
}

func (c closeAtProfitOrDTE) Name() string {
	if c.dte == managementDTE {
		return PolicyCloseAt50Or21
	}
	return PolicyCloseAtFixedDTE
}

type closeAtProfitOrDTEOrLoss struct{}

func (closeAtProfitOrDTEOrLoss) ShouldClose(p position.Primitive) bool {
	pct := p.ProfitLossPct()
	return pct >= profitTargetPct || pct <= halfLossPct || p.DTE() == managementDTE || p.DTE() <= expirationGuard
}

func (closeAtProfitOrDTEOrLoss) Name() string { return PolicyCloseAt50Or21OrLoss }

type closeAtDTE struct {
	dte int
}

func (c closeAtDTE) ShouldClose(p position.Primitive) bool {
	return p.DTE() == c.dte || p.DTE() <= expirationGuard
}

func (c closeAtDTE) Name() string { return PolicyCloseAt21 }
