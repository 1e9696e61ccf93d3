package chain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

var testLogger = zerolog.Nop()

const cboeHeader = "underlying_symbol,quote_date,root,expiration,strike,option_type," +
	"exercise_style,bid_1545,ask_1545,active_underlying_price_1545,settlement_price," +
	"implied_volatility_1545,trade_volume,open_interest,delta_1545,theta_1545," +
	"gamma_1545,rho_1545,vega_1545,exchange"

// cboeRow builds one full data row; empty greek fields stay empty.
func cboeRow(ticker, quote, expiration, strike, typ, bid, ask, underlying, delta string) string {
	return strings.Join([]string{
		ticker, quote, "SPXW", expiration, strike, typ,
		"E", bid, ask, underlying, "",
		"", "", "", delta, "",
		"", "", "", "CBOE",
	}, ",")
}

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chains.csv")
	content := strings.Join(append([]string{cboeHeader}, lines...), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewSourceUnknownProvider(t *testing.T) {
	path := writeCSV(t)
	_, err := NewSource(path, "bloomberg", testLogger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownProvider))
}

func TestNewSourceMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.csv")
	header := strings.Replace(cboeHeader, "bid_1545", "bid", 1)
	require.NoError(t, os.WriteFile(path, []byte(header+"\n"), 0644))

	_, err := NewSource(path, "cboe", testLogger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingColumn))
}

func TestNextGroupsByQuoteTime(t *testing.T) {
	path := writeCSV(t,
		cboeRow("SPX", "3/5/24", "4/19/24", "4000", "P", "10.0", "10.5", "4200.5", "-0.16"),
		cboeRow("SPX", "3/5/24", "4/19/24", "4300", "C", "8.0", "8.4", "4200.5", "0.15"),
		cboeRow("SPX", "3/6/24", "4/19/24", "4000", "P", "9.0", "9.5", "4210.0", "-0.15"),
	)

	src, err := NewSource(path, "cboe", testLogger)
	require.NoError(t, err)
	defer src.Close()

	first, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())

	second, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Len())
	assert.True(t, second.Time.After(first.Time))

	_, err = src.Next()
	assert.True(t, errors.Is(err, errors.ErrExhausted))
}

func TestParsedRecordFields(t *testing.T) {
	path := writeCSV(t,
		cboeRow("spx", "3/5/24", "4/19/24", "4000", "P", "10.0", "10.5", "4200.5", "-0.16"),
	)

	src, err := NewSource(path, "cboe", testLogger)
	require.NoError(t, err)
	defer src.Close()

	event, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, 1, event.Len())
	rec := event.Records[0]

	// Ticker upper-cased, type expanded, dates Eastern midnight -> UTC.
	assert.Equal(t, "SPX", rec.Ticker)
	assert.Equal(t, models.Put, rec.Type)
	assert.Equal(t, models.European, rec.Style)
	assert.Equal(t, time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC), rec.QuoteTime)
	assert.Equal(t, time.Date(2024, 4, 19, 4, 0, 0, 0, time.UTC), rec.Expiration)
	assert.True(t, rec.Strike.Equal(decimal.NewFromInt(4000)))
	assert.True(t, rec.Bid.Equal(decimal.NewFromFloat(10.0)))
	assert.True(t, rec.Ask.Equal(decimal.NewFromFloat(10.5)))
	assert.True(t, rec.UnderlyingPrice.Equal(decimal.NewFromFloat(4200.5)))
	assert.Equal(t, "SPXW", rec.Symbol)
	assert.Equal(t, "CBOE", rec.Exchange)

	require.NotNil(t, rec.Delta)
	assert.Equal(t, -0.16, *rec.Delta)
	// Empty optional fields stay unobserved.
	assert.Nil(t, rec.Theta)
	assert.Nil(t, rec.IV)
	assert.Nil(t, rec.Settlement)
}

func TestFourDigitYearDates(t *testing.T) {
	path := writeCSV(t,
		cboeRow("SPX", "3/5/2024", "4/19/2024", "4000", "PUT", "10.0", "10.5", "4200.5", ""),
	)

	src, err := NewSource(path, "cboe", testLogger)
	require.NoError(t, err)
	defer src.Close()

	event, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, 1, event.Len())
	assert.Equal(t, time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC), event.Records[0].QuoteTime)
	assert.Nil(t, event.Records[0].Delta)
}

func TestMalformedRowsAreSkipped(t *testing.T) {
	path := writeCSV(t,
		cboeRow("SPX1", "3/5/24", "4/19/24", "4000", "P", "10.0", "10.5", "4200.5", ""), // bad ticker
		cboeRow("SPX", "3/5/24", "4/19/24", "4000", "X", "10.0", "10.5", "4200.5", ""),  // bad type
		cboeRow("SPX", "3/5/24", "2/1/24", "4000", "P", "10.0", "10.5", "4200.5", ""),   // expired before quote
		cboeRow("SPX", "3/5/24", "4/19/24", "oops", "P", "10.0", "10.5", "4200.5", ""),  // bad strike
		cboeRow("SPX", "3/5/24", "4/19/24", "4000", "P", "", "10.5", "4200.5", ""),      // missing bid
		cboeRow("SPX", "3/5/24", "4/19/24", "4000", "P", "10.0", "10.5", "4200.5", ""),  // good
	)

	src, err := NewSource(path, "cboe", testLogger)
	require.NoError(t, err)
	defer src.Close()

	event, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, event.Len())

	_, err = src.Next()
	assert.True(t, errors.Is(err, errors.ErrExhausted))
}

func TestEmptyFileIsExhaustedImmediately(t *testing.T) {
	path := writeCSV(t)

	src, err := NewSource(path, "cboe", testLogger)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next()
	assert.True(t, errors.Is(err, errors.ErrExhausted))
}

func TestHistoricalOptionDataProvider(t *testing.T) {
	header := "underlying,underlying_last,exchange,optionroot,type,expiration,datadate," +
		"strike,last,bid,ask,volume,openinterest,impliedvol,delta,gamma,theta,vega,rho,style"
	row := "SPX,4200.5,CBOE,SPXW,put,4/19/24,3/5/24,4000,10.10,10.0,10.5,12,345,0.18,-0.16,0.001,-0.5,1.2,0.3,E"

	path := filepath.Join(t.TempDir(), "hod.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"\n"+row+"\n"), 0644))

	src, err := NewSource(path, "historicaloptiondata", testLogger)
	require.NoError(t, err)
	defer src.Close()

	event, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, 1, event.Len())
	rec := event.Records[0]

	assert.Equal(t, models.Put, rec.Type)
	require.NotNil(t, rec.Settlement)
	assert.True(t, rec.Settlement.Equal(decimal.NewFromFloat(10.10)))
	assert.Equal(t, int64(12), rec.Volume)
	assert.Equal(t, int64(345), rec.OpenInterest)
	require.NotNil(t, rec.IV)
	assert.Equal(t, 0.18, *rec.IV)
}

func TestProviders(t *testing.T) {
	names := Providers()
	assert.Contains(t, names, "cboe")
	assert.Contains(t, names, "historicaloptiondata")
}

func TestChunkedReadingSpansEvents(t *testing.T) {
	// Force tiny chunks so one event straddles several refills.
	lines := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		lines = append(lines, cboeRow("SPX", "3/5/24", "4/19/24", "4000", "P", "10.0", "10.5", "4200.5", ""))
	}
	path := writeCSV(t, lines...)

	src, err := NewSource(path, "cboe", testLogger)
	require.NoError(t, err)
	defer src.Close()
	src.chunkSize = 3

	event, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 10, event.Len())

	_, err = src.Next()
	assert.True(t, errors.Is(err, errors.ErrExhausted))
}
