package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainEvent is one option chain: every record observed at a single quote
// time. Records are unordered within the event.
type ChainEvent struct {
	Time    time.Time
	Records []*OptionRecord
}

// Find returns the record matching the identity tuple, or nil.
func (c *ChainEvent) Find(ticker string, typ OptionType, strike decimal.Decimal, expiration time.Time) *OptionRecord {
	for _, rec := range c.Records {
		if rec.Ticker == ticker && rec.Type == typ && rec.Strike.Equal(strike) && rec.Expiration.Equal(expiration) {
			return rec
		}
	}
	return nil
}

// UnderlyingPrice returns the underlying price carried by records for the
// given ticker, or zero if the ticker is absent from the event.
func (c *ChainEvent) UnderlyingPrice(ticker string) decimal.Decimal {
	for _, rec := range c.Records {
		if rec.Ticker == ticker {
			return rec.UnderlyingPrice
		}
	}
	return decimal.Zero
}

// Len returns the number of records in the event.
func (c *ChainEvent) Len() int {
	return len(c.Records)
}
