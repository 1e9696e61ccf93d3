// Package chain turns tabular end-of-day option data into a lazy stream of
// option-chain events ordered by quote time.
package chain

// Canonical field names. Each supported provider maps these to its own
// column headers; the rest of the system only ever sees canonical fields.
const (
	fieldUnderlyingTicker = "underlying_ticker"
	fieldQuoteDate        = "quote_date"
	fieldUnderlyingPrice  = "underlying_price"
	fieldOptionSymbol     = "option_symbol"
	fieldExpirationDate   = "expiration_date"
	fieldStrike           = "strike"
	fieldCallPut          = "call_put"
	fieldStyle            = "style"
	fieldAsk              = "ask"
	fieldBid              = "bid"
	fieldSettlement       = "settlement"
	fieldImpliedVol       = "implied_volatility"
	fieldVolume           = "volume"
	fieldOpenInterest     = "open_interest"
	fieldDelta            = "delta"
	fieldTheta            = "theta"
	fieldGamma            = "gamma"
	fieldRho              = "rho"
	fieldVega             = "vega"
	fieldExchange         = "exchange"
)

var canonicalFields = []string{
	fieldUnderlyingTicker,
	fieldQuoteDate,
	fieldUnderlyingPrice,
	fieldOptionSymbol,
	fieldExpirationDate,
	fieldStrike,
	fieldCallPut,
	fieldStyle,
	fieldAsk,
	fieldBid,
	fieldSettlement,
	fieldImpliedVol,
	fieldVolume,
	fieldOpenInterest,
	fieldDelta,
	fieldTheta,
	fieldGamma,
	fieldRho,
	fieldVega,
	fieldExchange,
}

// providerColumns maps provider names to their canonical-to-header tables.
// Read-only after package init.
var providerColumns = map[string]map[string]string{
	"cboe": {
		fieldUnderlyingTicker: "underlying_symbol",
		fieldQuoteDate:        "quote_date",
		fieldUnderlyingPrice:  "active_underlying_price_1545",
		fieldOptionSymbol:     "root",
		fieldExpirationDate:   "expiration",
		fieldStrike:           "strike",
		fieldCallPut:          "option_type",
		fieldStyle:            "exercise_style",
		fieldAsk:              "ask_1545",
		fieldBid:              "bid_1545",
		fieldSettlement:       "settlement_price",
		fieldImpliedVol:       "implied_volatility_1545",
		fieldVolume:           "trade_volume",
		fieldOpenInterest:     "open_interest",
		fieldDelta:            "delta_1545",
		fieldTheta:            "theta_1545",
		fieldGamma:            "gamma_1545",
		fieldRho:              "rho_1545",
		fieldVega:             "vega_1545",
		fieldExchange:         "exchange",
	},
	"historicaloptiondata": {
		fieldUnderlyingTicker: "underlying",
		fieldQuoteDate:        "datadate",
		fieldUnderlyingPrice:  "underlying_last",
		fieldOptionSymbol:     "optionroot",
		fieldExpirationDate:   "expiration",
		fieldStrike:           "strike",
		fieldCallPut:          "type",
		fieldStyle:            "style",
		fieldAsk:              "ask",
		fieldBid:              "bid",
		fieldSettlement:       "last",
		fieldImpliedVol:       "impliedvol",
		fieldVolume:           "volume",
		fieldOpenInterest:     "openinterest",
		fieldDelta:            "delta",
		fieldTheta:            "theta",
		fieldGamma:            "gamma",
		fieldRho:              "rho",
		fieldVega:             "vega",
		fieldExchange:         "exchange",
	},
}

// Providers returns the names of the supported data providers.
func Providers() []string {
	names := make([]string, 0, len(providerColumns))
	for name := range providerColumns {
		names = append(names, name)
	}
	return names
}
