// Package sweep computes summary metrics over the per-tick ledgers that
// backtest runs leave behind, so parameter sweeps can be compared side by
// side.
package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RunMetrics summarizes one ledger.
type RunMetrics struct {
	Name          string          `json:"name"`
	Ticks         int             `json:"ticks"`
	FinalNetLiq   decimal.Decimal `json:"final_net_liq"`
	FinalRealized decimal.Decimal `json:"final_realized_capital"`
	TotalReturn   decimal.Decimal `json:"total_return"`
	MaxDrawdown   decimal.Decimal `json:"max_drawdown"`
	MeanDailyPL   float64         `json:"mean_daily_pl_per_contract"`
	StdDevDailyPL float64         `json:"stddev_daily_pl_per_contract"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	WinPct        float64         `json:"win_pct"`
}

// WinPercentage returns wins over total closed positions as a percentage,
// or zero when nothing closed.
func WinPercentage(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// ledgerSeries is the subset of ledger columns the metrics need, in row
// order.
type ledgerSeries struct {
	netLiq    []decimal.Decimal
	realized  []decimal.Decimal
	contracts []int
	wins      []int
	losses    []int
}

// MaxDrawdown returns the largest peak-to-trough decline of the series: the
// maximum over all rows of the running peak minus the current value. An
// empty or monotonically rising series has zero drawdown.
func MaxDrawdown(netLiq []decimal.Decimal) decimal.Decimal {
	var peak, worst decimal.Decimal
	for i, v := range netLiq {
		if i == 0 || v.GreaterThan(peak) {
			peak = v
		}
		if dd := peak.Sub(v); dd.GreaterThan(worst) {
			worst = dd
		}
	}
	return worst
}

// DailyPLPerContract derives the per-contract profit series: each day's
// net-liquidity change divided by the average open contract count across
// that day and the previous one. Days where that average is zero carry no
// position and are skipped.
func DailyPLPerContract(netLiq []decimal.Decimal, contracts []int) []float64 {
	if len(netLiq) != len(contracts) {
		return nil
	}
	out := make([]float64, 0, len(netLiq))
	for i := 1; i < len(netLiq); i++ {
		avg := float64(contracts[i]+contracts[i-1]) / 2
		if avg == 0 {
			continue
		}
		change, _ := netLiq[i].Sub(netLiq[i-1]).Float64()
		out = append(out, change/avg)
	}
	return out
}

// Mean returns the arithmetic mean, or zero for an empty series.
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// SampleStdDev returns the sample standard deviation (n-1 divisor), or zero
// when fewer than two observations exist.
func SampleStdDev(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	mean := Mean(series)
	var sum float64
	for _, v := range series {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(series)-1))
}

// SummarizeLedger parses one ledger file and computes its metrics. The run
// name is the file name without the .csv extension.
func SummarizeLedger(path string) (RunMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return RunMetrics{}, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	series, err := readLedger(f)
	if err != nil {
		return RunMetrics{}, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return summarize(name, series), nil
}

// SummarizeDir summarizes every .csv file directly under dir, sorted by run
// name. Files that fail to parse are reported, not skipped silently.
func SummarizeDir(dir string) ([]RunMetrics, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	runs := make([]RunMetrics, 0, len(paths))
	for _, path := range paths {
		metrics, err := SummarizeLedger(path)
		if err != nil {
			return nil, err
		}
		runs = append(runs, metrics)
	}
	return runs, nil
}

func summarize(name string, s ledgerSeries) RunMetrics {
	m := RunMetrics{Name: name, Ticks: len(s.netLiq)}
	if m.Ticks == 0 {
		return m
	}

	m.FinalNetLiq = s.netLiq[len(s.netLiq)-1]
	m.TotalReturn = m.FinalNetLiq.Sub(s.netLiq[0])
	m.MaxDrawdown = MaxDrawdown(s.netLiq)

	daily := DailyPLPerContract(s.netLiq, s.contracts)
	m.MeanDailyPL = Mean(daily)
	m.StdDevDailyPL = SampleStdDev(daily)

	m.FinalRealized = s.realized[len(s.realized)-1]
	m.Wins = s.wins[len(s.wins)-1]
	m.Losses = s.losses[len(s.losses)-1]
	m.WinPct = WinPercentage(m.Wins, m.Losses)
	return m
}

// readLedger parses the ledger columns by header name, so reordered or
// extended ledgers still summarize.
func readLedger(r io.Reader) (ledgerSeries, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return ledgerSeries{}, fmt.Errorf("reading header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	required := []string{"NetLiq", "RealizedCapital", "TotNumContracts", "Wins", "Losses"}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return ledgerSeries{}, fmt.Errorf("ledger missing column %s", name)
		}
	}

	var s ledgerSeries
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ledgerSeries{}, fmt.Errorf("line %d: %w", line, err)
		}

		netLiq, err := decimal.NewFromString(row[index["NetLiq"]])
		if err != nil {
			return ledgerSeries{}, fmt.Errorf("line %d: bad NetLiq %q", line, row[index["NetLiq"]])
		}
		realized, err := decimal.NewFromString(row[index["RealizedCapital"]])
		if err != nil {
			return ledgerSeries{}, fmt.Errorf("line %d: bad RealizedCapital %q", line, row[index["RealizedCapital"]])
		}
		contracts, err := strconv.Atoi(row[index["TotNumContracts"]])
		if err != nil {
			return ledgerSeries{}, fmt.Errorf("line %d: bad TotNumContracts %q", line, row[index["TotNumContracts"]])
		}
		wins, err := strconv.Atoi(row[index["Wins"]])
		if err != nil {
			return ledgerSeries{}, fmt.Errorf("line %d: bad Wins %q", line, row[index["Wins"]])
		}
		losses, err := strconv.Atoi(row[index["Losses"]])
		if err != nil {
			return ledgerSeries{}, fmt.Errorf("line %d: bad Losses %q", line, row[index["Losses"]])
		}

		s.netLiq = append(s.netLiq, netLiq)
		s.realized = append(s.realized, realized)
		s.contracts = append(s.contracts, contracts)
		s.wins = append(s.wins, wins)
		s.losses = append(s.losses, losses)
	}
	return s, nil
}
