package cli

import (
	"github.com/spf13/cobra"
)

// addHelpCommands adds documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCommandsCmd(app))
	rootCmd.AddCommand(newExamplesCmd(app))
	rootCmd.AddCommand(newQuickstartCmd(app))
}

func newCommandsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		Long:  "Display all available commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Options Backtester Commands")
			output.Println()

			categories := []struct {
				name     string
				commands []struct {
					cmd  string
					desc string
				}
			}{
				{
					name: "Backtesting",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"run -c <config>", "Run one backtest"},
						{"run --ledger <path>", "Override the ledger destination"},
					},
				},
				{
					name: "Analysis",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"sweep <dir>", "Summarize every ledger in a directory"},
						{"sweep --from-db", "Summarize runs recorded in the database"},
					},
				},
				{
					name: "Configuration",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"config init [dir]", "Write annotated config templates"},
						{"config validate <config>", "Validate a run configuration"},
						{"config path", "Show default config directory"},
					},
				},
				{
					name: "Help",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"commands", "List all commands"},
						{"examples", "Common workflows"},
						{"quickstart", "New user guide"},
						{"version", "Version information"},
					},
				},
			}

			for _, cat := range categories {
				output.Bold(cat.name)
				for _, c := range cat.commands {
					output.Printf("  %-30s %s\n", output.ColoredString(ColorCyan, c.cmd), c.desc)
				}
				output.Println()
			}

			output.Dim("Use 'backtester help <command>' for detailed help on any command")

			return nil
		},
	}
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common backtesting workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflows")
			output.Println()

			examples := []struct {
				title string
				steps []string
			}{
				{
					title: "First backtest",
					steps: []string{
						"backtester config init",
						"# edit backtest.yaml: data path, strategy, risk policy",
						"backtester run -c backtest.yaml",
					},
				},
				{
					title: "Compare risk policies",
					steps: []string{
						"# run once per policy, one ledger each",
						"backtester run -c hold.yaml --ledger sweeps/hold.csv",
						"backtester run -c close50.yaml --ledger sweeps/close50.csv",
						"backtester sweep sweeps/",
					},
				},
				{
					title: "Track runs in a database",
					steps: []string{
						"# set output.db_path in backtest.yaml",
						"backtester run -c backtest.yaml",
						"backtester sweep --from-db",
					},
				},
				{
					title: "Commissions and fees",
					steps: []string{
						"# config init also writes pricing.yaml",
						"# set fees.file: pricing.yaml in backtest.yaml",
						"backtester config validate backtest.yaml",
						"backtester run -c backtest.yaml",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, step := range ex.steps {
					output.Printf("  %s\n", output.ColoredString(ColorCyan, step))
				}
				output.Println()
			}

			return nil
		},
	}
}

func newQuickstartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "Guide for new users",
		Long:  "Step-by-step guide to running your first backtest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Quickstart")
			output.Println()

			steps := []struct {
				title string
				body  []string
			}{
				{
					title: "1. Get historical option data",
					body: []string{
						"The backtester reads end-of-day option-chain CSVs.",
						"Supported providers: cboe, historicaloptiondata.",
					},
				},
				{
					title: "2. Write a configuration",
					body: []string{
						"backtester config init",
						"Edit backtest.yaml: point data.path at your CSV, pick a",
						"strategy kind and delta windows, pick a risk policy.",
					},
				},
				{
					title: "3. Run it",
					body: []string{
						"backtester run -c backtest.yaml",
						"The run prints a summary and writes one ledger row per",
						"quote day to output.ledger_path.",
					},
				},
				{
					title: "4. Analyze",
					body: []string{
						"backtester sweep <dir> compares the ledgers of several",
						"runs: final net liq, max drawdown, daily P/L per contract.",
					},
				},
			}

			for _, s := range steps {
				output.Bold(s.title)
				for _, line := range s.body {
					output.Printf("  %s\n", line)
				}
				output.Println()
			}

			output.Dim("See 'backtester examples' for complete workflows")

			return nil
		},
	}
}
