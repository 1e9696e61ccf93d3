// Package strategy scans option chains, selects candidate legs, and emits
// at most one signal per tick.
package strategy

// Reason explains why a candidate leg was kept or discarded during a scan.
type Reason int

const (
	// ReasonOK passed every filter.
	ReasonOK Reason = iota
	// ReasonWrongTicker did not match the configured underlying.
	ReasonWrongTicker
	// ReasonNoDelta had no delta observation.
	ReasonNoDelta
	// ReasonNoSettlement had no settlement price observation.
	ReasonNoSettlement
	// ReasonMinDTE expired too soon.
	ReasonMinDTE
	// ReasonMaxDTE expired too late.
	ReasonMaxDTE
	// ReasonDeltaWindow fell outside the role's delta window.
	ReasonDeltaWindow
	// ReasonBidAsk had too wide a bid/ask spread.
	ReasonBidAsk
)

var reasonNames = map[Reason]string{
	ReasonOK:           "OK",
	ReasonWrongTicker:  "WRONG_TICKER",
	ReasonNoDelta:      "NO_DELTA",
	ReasonNoSettlement: "NO_SETTLEMENT_PRICE",
	ReasonMinDTE:       "MIN_DTE",
	ReasonMaxDTE:       "MAX_DTE",
	ReasonDeltaWindow:  "MIN_MAX_DELTA",
	ReasonBidAsk:       "MAX_BID_ASK",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// ScanReport counts, per reason, the legs inspected during one selection.
type ScanReport map[Reason]int

func (s ScanReport) add(r Reason) {
	s[r]++
}
