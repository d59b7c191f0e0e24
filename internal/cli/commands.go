package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"CoinPulse/internal/di"
	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/service/report"
	"CoinPulse/internal/usecase"
	"CoinPulse/pkg/config"

	"github.com/spf13/cobra"
)

const (
	version           = "v1.0.0"
	defaultConfigPath = "config/config.yaml"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coinpulse",
		Short: "CoinPulse - crypto research aggregation and scoring",
		Long: `CoinPulse collects price patterns, indicators, sentiment, web research and
market data for a coin in parallel, scores them and writes an investment report.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Configuration file path")

	return rootCmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [COIN_ID]",
		Short: "Run one research pipeline for a coin",
		Long: `Run the research pipeline for a CoinGecko coin id and write the report.
Example: coinpulse analyze bitcoin --days=30 --output=reports/bitcoin.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			days, _ := cmd.Flags().GetInt("days")
			indicatorDays, _ := cmd.Flags().GetInt("indicator-days")
			output, _ := cmd.Flags().GetString("output")
			if output != "" {
				cfg.Report.OutputPath = output
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAnalyze(ctx, cmd.OutOrStdout(), cfg, usecase.RunRequest{
				CoinID:        args[0],
				PatternDays:   days,
				IndicatorDays: indicatorDays,
			})
		},
	}

	cmd.Flags().Int("days", 0, "Price pattern and volume window in days (config research.pattern_days if 0)")
	cmd.Flags().Int("indicator-days", 0, "Indicator window in days (config research.indicator_days if 0)")
	cmd.Flags().String("output", "", "Report output path (config report.output_path if empty)")

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve research runs over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CoinPulse %s\n", version)
		},
	}
}

// loadConfig reads --config. A missing default file falls back to built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func runAnalyze(ctx context.Context, out io.Writer, cfg *config.Config, req usecase.RunRequest) error {
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer app.Close()

	fmt.Fprintln(out, renderTitle(req.CoinID))
	req.Observer = func(r models.SignalResult) {
		fmt.Fprintln(out, renderSignal(r))
	}

	res, err := app.Pipeline().Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderScorecard(res.Card))

	if err := report.WriteMarkdown(cfg.Report.OutputPath, res.Report); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nRun %s report written to %s\n", res.RunID, cfg.Report.OutputPath)
	return nil
}
