package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"options-backtester/internal/chain"
	"options-backtester/internal/config"
	"options-backtester/internal/engine"
	"options-backtester/internal/logging"
	"options-backtester/internal/portfolio"
	"options-backtester/internal/risk"
	"options-backtester/internal/store"
	"options-backtester/internal/strategy"
	"options-backtester/internal/sweep"
)

// newRunCmd creates the run command: one backtest from one config file.
func newRunCmd(app *App) *cobra.Command {
	var configPath string
	var ledgerPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one backtest",
		Long: `Run replays the configured option-chain CSV through the strategy and
writes a per-tick ledger. When the config names a run database, a summary
row is recorded there as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			started := time.Now()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			fees := &config.OpenClose{}
			if cfg.Fees.File != "" {
				pricing, err := config.LoadPricing(cfg.Fees.File)
				if err != nil {
					return err
				}
				cfg.Pricing = pricing
				if cfg.Fees.Symbol != "" {
					fees, err = pricing.FuturesOption(cfg.Fees.Brokerage, cfg.Fees.Symbol)
				} else {
					fees, err = pricing.IndexOption(cfg.Fees.Brokerage)
				}
				if err != nil {
					return err
				}
			}

			logger := logging.WithStrategy(logging.WithTicker(app.Logger, cfg.Strategy.Ticker), cfg.Strategy.Kind)

			source, err := chain.NewSource(cfg.Data.Path, cfg.Data.Provider, logger)
			if err != nil {
				return err
			}
			defer source.Close()

			mgr, err := risk.New(cfg.Risk.Policy, cfg.Risk.FixedDTE)
			if err != nil {
				return err
			}

			book := portfolio.New(cfg.Portfolio, logger)

			strat, err := strategy.New(cfg.Strategy, fees, book, mgr, logger)
			if err != nil {
				return err
			}

			if ledgerPath == "" {
				ledgerPath = cfg.Output.LedgerPath
			}
			monitor, err := engine.NewLedgerWriter(ledgerPath, cfg.Strategy.Ticker)
			if err != nil {
				return err
			}

			driver := engine.NewDriver(source, strat, book, monitor, logger)
			runErr := driver.Run(cmd.Context())
			if cerr := monitor.Close(); cerr != nil && runErr == nil {
				runErr = fmt.Errorf("closing ledger: %w", cerr)
			}
			if runErr != nil {
				return runErr
			}

			metrics, err := sweep.SummarizeLedger(ledgerPath)
			if err != nil {
				return fmt.Errorf("summarizing run: %w", err)
			}
			name := cfg.Output.RunName
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
			}
			metrics.Name = name

			if cfg.Output.DBPath != "" {
				if err := recordRun(cmd, cfg, name, ledgerPath, started, metrics); err != nil {
					output.Warning("Failed to record run: %v", err)
				}
			}

			if output.IsJSON() {
				return output.JSON(metrics)
			}
			printRunSummary(output, cfg, ledgerPath, metrics, time.Since(started))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "backtest.yaml", "run configuration file")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "override the configured ledger path")
	return cmd
}

// recordRun persists one run summary to the configured SQLite database.
func recordRun(cmd *cobra.Command, cfg *config.Config, name, ledgerPath string, started time.Time, metrics sweep.RunMetrics) error {
	db, err := store.NewSQLiteStore(cfg.Output.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveRun(cmd.Context(), &store.Run{
		ID:            uuid.NewString(),
		Name:          name,
		Ticker:        cfg.Strategy.Ticker,
		Strategy:      cfg.Strategy.Kind,
		RiskPolicy:    cfg.Risk.Policy,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		Ticks:         metrics.Ticks,
		FinalNetLiq:   metrics.FinalNetLiq,
		MaxDrawdown:   metrics.MaxDrawdown,
		MeanDailyPL:   metrics.MeanDailyPL,
		StdDevDailyPL: metrics.StdDevDailyPL,
		Wins:          metrics.Wins,
		Losses:        metrics.Losses,
		LedgerPath:    ledgerPath,
	})
}

// printRunSummary prints the end-of-run totals.
func printRunSummary(output *Output, cfg *config.Config, ledgerPath string, m sweep.RunMetrics, elapsed time.Duration) {
	output.Println()
	color.Cyan("📊 Backtest Summary: %s", m.Name)
	output.Println("─────────────────────────────────────────")
	output.Printf("%-18s %s\n", "Strategy:", cfg.Strategy.Kind)
	output.Printf("%-18s %s\n", "Ticker:", cfg.Strategy.Ticker)
	output.Printf("%-18s %s\n", "Risk policy:", cfg.Risk.Policy)
	output.Printf("%-18s %d\n", "Ticks:", m.Ticks)
	output.Println()
	output.Printf("%-18s %s\n", "Final net liq:", FormatUSD(m.FinalNetLiq))
	output.Printf("%-18s %s\n", "Realized capital:", FormatUSD(m.FinalRealized))
	output.Printf("%-18s %s\n", "Total return:", output.FormatPnL(m.TotalReturn))
	output.Printf("%-18s %s\n", "Max drawdown:", FormatUSD(m.MaxDrawdown))
	output.Printf("%-18s %.2f\n", "Daily P/L mean:", m.MeanDailyPL)
	output.Printf("%-18s %.2f\n", "Daily P/L stddev:", m.StdDevDailyPL)
	output.Printf("%-18s %s / %s (%.1f%%)\n", "Wins / losses:",
		output.Green(fmt.Sprintf("%d", m.Wins)), output.Red(fmt.Sprintf("%d", m.Losses)), m.WinPct)
	output.Println()
	output.Dim("Ledger: %s (%s)", ledgerPath, FormatDuration(elapsed))
}
