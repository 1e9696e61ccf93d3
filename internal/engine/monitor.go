package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"options-backtester/internal/models"
	"options-backtester/internal/portfolio"
)

// LedgerColumns is the header of the per-tick monitoring ledger.
var LedgerColumns = []string{
	"Date",
	"UnderlyingPrice",
	"NetLiq",
	"RealizedCapital",
	"NumPositions",
	"TotNumContracts",
	"BuyingPower",
	"TotalDelta",
	"Wins",
	"Losses",
}

// LedgerDateFormat is the date layout used in the ledger.
const LedgerDateFormat = "2006-01-02"

// LedgerWriter appends one CSV row per processed tick.
type LedgerWriter struct {
	file   *os.File
	writer *csv.Writer
	ticker string
}

// NewLedgerWriter creates the ledger file and writes the header row.
func NewLedgerWriter(path, ticker string) (*LedgerWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating ledger: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(LedgerColumns); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing ledger header: %w", err)
	}
	return &LedgerWriter{file: f, writer: w, ticker: ticker}, nil
}

// Write appends the row for one tick.
func (l *LedgerWriter) Write(chain *models.ChainEvent, stats portfolio.Stats) error {
	row := []string{
		chain.Time.Format(LedgerDateFormat),
		chain.UnderlyingPrice(l.ticker).String(),
		stats.NetLiq.String(),
		stats.RealizedCapital.String(),
		strconv.Itoa(stats.NumPositions),
		strconv.Itoa(stats.TotalContracts),
		stats.BuyingPowerUsed.String(),
		strconv.FormatFloat(stats.TotalDelta, 'f', -1, 64),
		strconv.Itoa(stats.Wins),
		strconv.Itoa(stats.Losses),
	}
	return l.writer.Write(row)
}

// Close flushes buffered rows and closes the file.
func (l *LedgerWriter) Close() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
