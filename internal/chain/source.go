package chain

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// defaultChunkSize is how many input rows are parsed per refill. The source
// never holds more than one chunk plus one in-flight chain event.
const defaultChunkSize = 8192

// Quote timestamps in the input are local to the exchange.
const sourceTimeZone = "America/New_York"

// Two-digit years are tried first, four-digit as a fallback.
var dateLayouts = []string{"1/2/06", "1/2/2006"}

// Source streams option-chain events from a tabular data file. Events are
// emitted lazily in the file's (non-decreasing) timestamp order; consecutive
// rows sharing a quote time form one event.
type Source struct {
	file      *os.File
	reader    *csv.Reader
	cols      map[string]int
	loc       *time.Location
	logger    zerolog.Logger
	chunkSize int

	buf  []*models.OptionRecord
	idx  int
	line int
	eof  bool

	lastEmitted time.Time
}

// NewSource opens the data file for the named provider. An unknown provider,
// an unopenable file, or a header missing a mapped column is fatal here.
func NewSource(path, provider string, logger zerolog.Logger) (*Source, error) {
	mapping, ok := providerColumns[strings.ToLower(provider)]
	if !ok {
		return nil, errors.NewConfigError("data.provider", provider, errors.ErrUnknownProvider)
	}

	loc, err := time.LoadLocation(sourceTimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading source time zone: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(canonicalFields))
	for _, field := range canonicalFields {
		col := mapping[field]
		i, ok := index[strings.ToLower(col)]
		if !ok {
			f.Close()
			return nil, errors.NewConfigError(field, fmt.Sprintf("provider %q column %q", provider, col), errors.ErrMissingColumn)
		}
		cols[field] = i
	}

	return &Source{
		file:      f,
		reader:    r,
		cols:      cols,
		loc:       loc,
		logger:    logger.With().Str("component", "chain_source").Logger(),
		chunkSize: defaultChunkSize,
		line:      1, // header consumed
	}, nil
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}

// Next returns the next chain event, or errors.ErrExhausted once the input
// is fully consumed.
func (s *Source) Next() (*models.ChainEvent, error) {
	first, err := s.peek()
	if err != nil {
		return nil, err
	}

	event := &models.ChainEvent{Time: first.QuoteTime}
	for {
		rec, err := s.peek()
		if err != nil || !rec.QuoteTime.Equal(event.Time) {
			break
		}
		event.Records = append(event.Records, rec)
		s.idx++
	}

	if event.Time.Before(s.lastEmitted) {
		s.logger.Warn().
			Time("event", event.Time).
			Time("previous", s.lastEmitted).
			Msg("Input timestamps out of order")
	}
	s.lastEmitted = event.Time

	return event, nil
}

// peek returns the next parsed record without consuming it, refilling the
// chunk buffer as needed.
func (s *Source) peek() (*models.OptionRecord, error) {
	for s.idx >= len(s.buf) {
		if s.eof {
			return nil, errors.ErrExhausted
		}
		if err := s.refill(); err != nil {
			return nil, err
		}
	}
	return s.buf[s.idx], nil
}

// refill reads the next chunk of rows, dropping rows that fail to parse.
func (s *Source) refill() error {
	s.buf = s.buf[:0]
	s.idx = 0

	for n := 0; n < s.chunkSize; n++ {
		row, err := s.reader.Read()
		if err == io.EOF {
			s.eof = true
			return nil
		}
		if err != nil {
			// Malformed CSV line; recoverable.
			s.line++
			s.logger.Debug().Err(err).Int("line", s.line).Msg("Skipping unreadable row")
			continue
		}
		s.line++

		rec, perr := s.parseRow(row)
		if perr != nil {
			s.logger.Debug().Err(perr).Msg("Skipping row")
			continue
		}
		s.buf = append(s.buf, rec)
	}
	return nil
}

func (s *Source) parseRow(row []string) (*models.OptionRecord, error) {
	get := func(field string) string {
		i := s.cols[field]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	ticker := strings.ToUpper(get(fieldUnderlyingTicker))
	if !isAlphabetic(ticker) {
		return nil, errors.NewRowError(s.line, fieldUnderlyingTicker, ticker, "non-alphabetic ticker", nil)
	}

	typ, err := parseOptionType(get(fieldCallPut))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldCallPut, get(fieldCallPut), "bad option type", err)
	}

	style := models.OptionStyle(strings.ToUpper(get(fieldStyle)))
	if !style.Valid() {
		return nil, errors.NewRowError(s.line, fieldStyle, get(fieldStyle), "unknown option style", nil)
	}

	quote, err := s.parseDate(get(fieldQuoteDate))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldQuoteDate, get(fieldQuoteDate), "bad quote date", err)
	}
	expiration, err := s.parseDate(get(fieldExpirationDate))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldExpirationDate, get(fieldExpirationDate), "bad expiration date", err)
	}
	if expiration.Before(quote) {
		return nil, errors.NewRowError(s.line, fieldExpirationDate, get(fieldExpirationDate), "expiration before quote date", nil)
	}

	strike, err := parseDecimal(get(fieldStrike))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldStrike, get(fieldStrike), "bad strike", err)
	}
	bid, err := parseDecimal(get(fieldBid))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldBid, get(fieldBid), "bad bid", err)
	}
	ask, err := parseDecimal(get(fieldAsk))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldAsk, get(fieldAsk), "bad ask", err)
	}
	underlying, err := parseDecimal(get(fieldUnderlyingPrice))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldUnderlyingPrice, get(fieldUnderlyingPrice), "bad underlying price", err)
	}

	settlement, err := parseOptionalDecimal(get(fieldSettlement))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldSettlement, get(fieldSettlement), "bad settlement", err)
	}

	volume, err := parseOptionalInt(get(fieldVolume))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldVolume, get(fieldVolume), "bad volume", err)
	}
	openInterest, err := parseOptionalInt(get(fieldOpenInterest))
	if err != nil {
		return nil, errors.NewRowError(s.line, fieldOpenInterest, get(fieldOpenInterest), "bad open interest", err)
	}

	rec := &models.OptionRecord{
		Ticker:          ticker,
		Symbol:          get(fieldOptionSymbol),
		Type:            typ,
		Style:           style,
		Strike:          strike,
		Expiration:      expiration,
		QuoteTime:       quote,
		UnderlyingPrice: underlying,
		Bid:             bid,
		Ask:             ask,
		Settlement:      settlement,
		Volume:          volume,
		OpenInterest:    openInterest,
		Exchange:        get(fieldExchange),
	}

	greeks := []struct {
		field string
		dst   **float64
	}{
		{fieldDelta, &rec.Delta},
		{fieldTheta, &rec.Theta},
		{fieldGamma, &rec.Gamma},
		{fieldRho, &rec.Rho},
		{fieldVega, &rec.Vega},
		{fieldImpliedVol, &rec.IV},
	}
	for _, g := range greeks {
		v, err := parseOptionalFloat(get(g.field))
		if err != nil {
			return nil, errors.NewRowError(s.line, g.field, get(g.field), "bad numeric field", err)
		}
		*g.dst = v
	}

	return rec, nil
}

// parseDate converts a provider date to UTC, trying the two-digit year form
// before the four-digit form.
func (s *Source) parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, s.loc)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseOptionType(value string) (models.OptionType, error) {
	switch strings.ToUpper(value) {
	case "C", "CALL":
		return models.Call, nil
	case "P", "PUT":
		return models.Put, nil
	}
	return "", fmt.Errorf("unrecognized option type %q", value)
}

func parseDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("empty numeric field")
	}
	return decimal.NewFromString(value)
}

func parseOptionalDecimal(value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptionalFloat(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseOptionalInt(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
