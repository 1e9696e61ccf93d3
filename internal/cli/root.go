package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-backtester/internal/config"
	"options-backtester/internal/logging"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "backtester",
		Short: "Event-driven options backtester",
		Long: `Backtester replays historical option-chain data through a strategy and
risk-management state machine, tracks the resulting portfolio, and writes a
per-tick ledger for analysis.

Use 'backtester run' to execute one backtest and 'backtester sweep' to
compare the ledgers a parameter sweep produced.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newSweepCmd(app))
	addHelpCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("options-backtester v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Generate and validate run configuration files.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [dir]",
		Short: "Write annotated configuration templates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			runPath := filepath.Join(dir, "backtest.yaml")
			if err := config.WriteRunTemplate(runPath); err != nil {
				return err
			}
			pricingPath := filepath.Join(dir, "pricing.yaml")
			if err := config.WritePricingTemplate(pricingPath); err != nil {
				return err
			}

			output.Success("Wrote %s and %s", runPath, pricingPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a run configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg, err := config.Load(args[0])
			if err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if cfg.Fees.File != "" {
				if _, err := config.LoadPricing(cfg.Fees.File); err != nil {
					output.Error("Pricing validation failed: %v", err)
					return err
				}
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show default configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	return cmd
}
