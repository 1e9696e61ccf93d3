// Package models defines the core market data types for the backtester.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
)

// OptionType identifies a contract as a put or a call.
type OptionType string

const (
	// Put is a put option.
	Put OptionType = "PUT"
	// Call is a call option.
	Call OptionType = "CALL"
)

// Valid returns true if the OptionType is one of the defined constants.
func (t OptionType) Valid() bool {
	return t == Put || t == Call
}

// OptionStyle identifies the exercise style of a contract.
type OptionStyle string

const (
	// American style options can be exercised any time before expiration.
	American OptionStyle = "A"
	// European style options can be exercised only at expiration.
	European OptionStyle = "E"
)

// Valid returns true if the OptionStyle is one of the defined constants.
func (s OptionStyle) Valid() bool {
	return s == American || s == European
}

// Direction is the transaction direction of an order or leg.
type Direction string

const (
	// Buy opens a long exposure.
	Buy Direction = "BUY"
	// Sell opens a short exposure.
	Sell Direction = "SELL"
)

// OptionRecord is one observed put or call quote. The identity tuple
// (Ticker, Type, Strike, Expiration) never changes after construction;
// observed fields may be refreshed in place via UpdateFrom.
//
// Money-like fields use fixed-point decimals. Greeks and implied
// volatility are nullable floats: nil means unobserved, not zero.
type OptionRecord struct {
	Ticker     string
	Symbol     string
	Type       OptionType
	Style      OptionStyle
	Strike     decimal.Decimal
	Expiration time.Time

	QuoteTime       time.Time
	UnderlyingPrice decimal.Decimal
	Bid             decimal.Decimal
	Ask             decimal.Decimal
	Settlement      *decimal.Decimal
	TradePrice      decimal.Decimal
	OpenInterest    int64
	Volume          int64
	Exchange        string

	Delta *float64
	Theta *float64
	Gamma *float64
	Rho   *float64
	Vega  *float64
	IV    *float64
}

// Mid returns the bid/ask midpoint.
func (o *OptionRecord) Mid() decimal.Decimal {
	return o.Bid.Add(o.Ask).Div(decimal.NewFromInt(2))
}

// DTE returns whole days between the record's quote time and its expiration.
func (o *OptionRecord) DTE() int {
	return int(o.Expiration.Sub(o.QuoteTime).Hours() / 24)
}

// SameContract reports whether other refers to the same listed contract.
func (o *OptionRecord) SameContract(other *OptionRecord) bool {
	return o.Ticker == other.Ticker &&
		o.Type == other.Type &&
		o.Strike.Equal(other.Strike) &&
		o.Expiration.Equal(other.Expiration)
}

// UpdateFrom refreshes the observed fields from a later quote of the same
// contract. The trade price is deliberately left alone: it records the
// fill at open and is the anchor for P/L. Updating from a record with a
// different identity tuple is an error.
func (o *OptionRecord) UpdateFrom(other *OptionRecord) error {
	if !o.SameContract(other) {
		return errors.ErrIdentityMismatch
	}
	o.QuoteTime = other.QuoteTime
	o.UnderlyingPrice = other.UnderlyingPrice
	o.Bid = other.Bid
	o.Ask = other.Ask
	o.Settlement = other.Settlement
	o.OpenInterest = other.OpenInterest
	o.Volume = other.Volume
	o.Exchange = other.Exchange
	o.Delta = other.Delta
	o.Theta = other.Theta
	o.Gamma = other.Gamma
	o.Rho = other.Rho
	o.Vega = other.Vega
	o.IV = other.IV
	return nil
}

// Clone returns a deep copy of the record. Strategies clone records out of
// a chain event before composing them into a primitive, so primitives own
// their legs exclusively.
func (o *OptionRecord) Clone() *OptionRecord {
	c := *o
	c.Settlement = cloneDecimal(o.Settlement)
	c.Delta = cloneFloat(o.Delta)
	c.Theta = cloneFloat(o.Theta)
	c.Gamma = cloneFloat(o.Gamma)
	c.Rho = cloneFloat(o.Rho)
	c.Vega = cloneFloat(o.Vega)
	c.IV = cloneFloat(o.IV)
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
