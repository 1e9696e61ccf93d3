package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"options-backtester/internal/store"
	"options-backtester/internal/sweep"
)

// newSweepCmd creates the sweep command: compare the runs of a parameter
// sweep, either from a directory of ledgers or from the run database.
func newSweepCmd(app *App) *cobra.Command {
	var fromDB string

	cmd := &cobra.Command{
		Use:   "sweep [dir]",
		Short: "Summarize a directory of run ledgers",
		Long: `Sweep computes per-run metrics (final net liquidity, max drawdown, daily
P/L mean and standard deviation, win/loss counts) for every ledger CSV in a
directory, or for the runs recorded in a database via --from-db.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if fromDB != "" {
				return sweepFromDB(cmd, output, fromDB)
			}

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			runs, err := sweep.SummarizeDir(dir)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				return fmt.Errorf("no ledger files found in %s", dir)
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}
			renderSweepTable(output, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromDB, "from-db", "", "read run summaries from this SQLite database instead of ledger files")
	return cmd
}

// sweepFromDB lists previously recorded runs.
func sweepFromDB(cmd *cobra.Command, output *Output, dbPath string) error {
	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	recorded, err := db.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(recorded) == 0 {
		return fmt.Errorf("no runs recorded in %s", dbPath)
	}

	runs := make([]sweep.RunMetrics, 0, len(recorded))
	for _, r := range recorded {
		runs = append(runs, sweep.RunMetrics{
			Name:          r.Name,
			Ticks:         r.Ticks,
			FinalNetLiq:   r.FinalNetLiq,
			MaxDrawdown:   r.MaxDrawdown,
			MeanDailyPL:   r.MeanDailyPL,
			StdDevDailyPL: r.StdDevDailyPL,
			Wins:          r.Wins,
			Losses:        r.Losses,
			WinPct:        sweep.WinPercentage(r.Wins, r.Losses),
		})
	}

	if output.IsJSON() {
		return output.JSON(runs)
	}
	renderSweepTable(output, runs)
	return nil
}

func renderSweepTable(output *Output, runs []sweep.RunMetrics) {
	table := NewTable(output,
		"Run", "Ticks", "Final NetLiq", "Max DD", "Daily P/L", "StdDev", "W", "L", "Win %")
	for _, m := range runs {
		table.AddRow(
			m.Name,
			strconv.Itoa(m.Ticks),
			FormatUSD(m.FinalNetLiq),
			FormatUSD(m.MaxDrawdown),
			fmt.Sprintf("%.2f", m.MeanDailyPL),
			fmt.Sprintf("%.2f", m.StdDevDailyPL),
			output.Green(strconv.Itoa(m.Wins)),
			output.Red(strconv.Itoa(m.Losses)),
			fmt.Sprintf("%.1f", m.WinPct),
		)
	}
	table.Render()
}
