package sweep

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// segmented builds a series from linear segments of n points each.
func segmented(n int, stops ...float64) []decimal.Decimal {
	var out []decimal.Decimal
	for i := 0; i+1 < len(stops); i++ {
		from, to := stops[i], stops[i+1]
		for j := 0; j < n; j++ {
			v := from + (to-from)*float64(j)/float64(n-1)
			out = append(out, decimal.NewFromFloat(v))
		}
	}
	return out
}

func toDecimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestMaxDrawdown(t *testing.T) {
	// Four linear segments: 0->100, 100->-20, -20->80, 80->-40.
	// Worst decline is from the peak of 100 down to -40.
	series := segmented(50, 0, 100, -20, 80, -40)
	dd := MaxDrawdown(series)
	got, _ := dd.Float64()
	assert.InDelta(t, 140.0, got, 1e-9)
}

func TestMaxDrawdownEdgeCases(t *testing.T) {
	assert.True(t, MaxDrawdown(nil).IsZero())
	assert.True(t, MaxDrawdown(toDecimals(5)).IsZero())
	// Monotonically rising: no drawdown.
	assert.True(t, MaxDrawdown(toDecimals(1, 2, 3, 4)).IsZero())
	// All-negative series still measures peak-to-trough.
	dd := MaxDrawdown(toDecimals(-10, -5, -25))
	assert.True(t, dd.Equal(decimal.NewFromInt(20)), "dd = %s", dd)
}

func TestDailyPLPerContract(t *testing.T) {
	netLiq := toDecimals(1000, 2000, 1500, 3000)
	contracts := []int{2, 2, 2, 4}

	daily := DailyPLPerContract(netLiq, contracts)
	require.Equal(t, 3, len(daily))
	// (1000/2, -500/2, 1500/3)
	assert.InDelta(t, 500, daily[0], 1e-9)
	assert.InDelta(t, -250, daily[1], 1e-9)
	assert.InDelta(t, 500, daily[2], 1e-9)

	assert.InDelta(t, 250.0, Mean(daily), 1e-9)
	assert.InDelta(t, 433.01270189, SampleStdDev(daily), 1e-6)
}

func TestDailyPLSkipsFlatDays(t *testing.T) {
	netLiq := toDecimals(1000, 1000, 1200)
	contracts := []int{0, 0, 2}

	daily := DailyPLPerContract(netLiq, contracts)
	// Day one has no contracts on either side; day two averages one.
	require.Equal(t, 1, len(daily))
	assert.InDelta(t, 200, daily[0], 1e-9)
}

func TestMeanAndStdDevEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, SampleStdDev(nil))
	assert.Equal(t, 0.0, SampleStdDev([]float64{42}))
}

func writeLedger(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	header := "Date,UnderlyingPrice,NetLiq,RealizedCapital,NumPositions,TotNumContracts,BuyingPower,TotalDelta,Wins,Losses"
	path := filepath.Join(dir, name)
	content := strings.Join(append([]string{header}, rows...), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSummarizeLedger(t *testing.T) {
	dir := t.TempDir()
	path := writeLedger(t, dir, "base.csv",
		"2024-03-05,4200.5,1000,1000,1,2,64045,0.01,0,0",
		"2024-03-06,4210.0,2000,1000,1,2,64045,0.01,0,0",
		"2024-03-07,4190.0,1500,1500,1,2,64045,0.01,1,0",
		"2024-03-08,4200.0,3000,3000,0,4,0,0,2,0",
	)

	m, err := SummarizeLedger(path)
	require.NoError(t, err)

	assert.Equal(t, "base", m.Name)
	assert.Equal(t, 4, m.Ticks)
	assert.True(t, m.FinalNetLiq.Equal(decimal.NewFromInt(3000)))
	assert.True(t, m.TotalReturn.Equal(decimal.NewFromInt(2000)))
	assert.True(t, m.MaxDrawdown.Equal(decimal.NewFromInt(500)))
	assert.InDelta(t, 250.0, m.MeanDailyPL, 1e-9)
	assert.InDelta(t, 433.01270189, m.StdDevDailyPL, 1e-6)
	assert.True(t, m.FinalRealized.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 2, m.Wins)
	assert.Equal(t, 0, m.Losses)
	assert.InDelta(t, 100.0, m.WinPct, 1e-9)
}

func TestWinPercentage(t *testing.T) {
	assert.Equal(t, 0.0, WinPercentage(0, 0))
	assert.InDelta(t, 100.0, WinPercentage(3, 0), 1e-9)
	assert.InDelta(t, 25.0, WinPercentage(1, 3), 1e-9)
}

func TestSummarizeLedgerMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,NetLiq\n2024-03-05,1000\n"), 0644))

	_, err := SummarizeLedger(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RealizedCapital")
}

func TestSummarizeDir(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir, "b_run.csv", "2024-03-05,4200.5,1000,1000,0,0,0,0,0,0")
	writeLedger(t, dir, "a_run.csv", "2024-03-05,4200.5,2000,2000,0,0,0,0,1,2")

	runs, err := SummarizeDir(dir)
	require.NoError(t, err)
	require.Equal(t, 2, len(runs))

	// Sorted by file name.
	assert.Equal(t, "a_run", runs[0].Name)
	assert.Equal(t, "b_run", runs[1].Name)
	assert.True(t, runs[0].FinalNetLiq.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, 1, runs[0].Wins)
	assert.Equal(t, 2, runs[0].Losses)
}

func TestSummarizeDirEmpty(t *testing.T) {
	runs, err := SummarizeDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
