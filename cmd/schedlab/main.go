// Command schedlab attaches to kernel scheduler tracepoints, derives
// per-task scheduling metrics, and streams them through one of several
// analysis-mode projections.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/schedlab/schedlab/internal/app"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	defaults := app.DefaultOptions()
	opts := defaults

	rootCmd := &cobra.Command{
		Use:     "schedlab",
		Short:   "Kernel scheduler tracepoint observability tool",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvOverrides(&opts)
			return runSchedlab(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&opts.Mode, "mode", defaults.Mode,
		"output projection: stream|latency|fairness|ctx|timeline|shortlong|starvation|fork")
	rootCmd.Flags().Uint32Var(&opts.FilterPID, "filter-pid", defaults.FilterPID, "restrict output to this task id (0 disables)")
	rootCmd.Flags().IntVar(&opts.WaitAlertMs, "wait-alert-ms", defaults.WaitAlertMs, "wake-to-run latency alert threshold in ms (0 disables)")
	rootCmd.Flags().BoolVar(&opts.CSV, "csv", defaults.CSV, "emit machine-readable CSV instead of human-readable text")
	rootCmd.Flags().BoolVar(&opts.CSVHeader, "csv-header", defaults.CSVHeader, "print the CSV header once before data rows (requires --csv)")
	rootCmd.Flags().BoolVar(&opts.Simulate, "simulate", defaults.Simulate, "run the deterministic in-process event generator instead of attaching eBPF probes")
	rootCmd.Flags().DurationVar(&opts.SummaryInterval, "summary-interval", defaults.SummaryInterval, "log a periodic summary (count of tracked tasks) on this interval (0 disables)")

	viper.SetEnvPrefix("SCHEDLAB")
	viper.AutomaticEnv()
	bindEnv(rootCmd, "mode")
	bindEnv(rootCmd, "filter-pid")
	bindEnv(rootCmd, "wait-alert-ms")
	bindEnv(rootCmd, "csv")
	bindEnv(rootCmd, "csv-header")
	bindEnv(rootCmd, "simulate")
	bindEnv(rootCmd, "summary-interval")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		var cliErr *app.CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintln(os.Stderr, rootCmd.UsageString())
		}
		fmt.Fprintf(os.Stderr, "schedlab: %v\n", err)
		return app.ExitCode(err)
	}
	return 0
}

// bindEnv wires SCHEDLAB_<FLAG> onto the cobra flag of the same name via
// viper. BindPFlag makes viper's resolved value fall back to the flag
// when the environment variable is unset.
func bindEnv(cmd *cobra.Command, flag string) {
	_ = viper.BindPFlag(flag, cmd.Flags().Lookup(flag))
}

// applyEnvOverrides re-reads each bound flag through viper so that a
// SCHEDLAB_* environment variable takes priority over the flag's default.
// A flag given explicitly on the command line still wins over the
// environment variable, which is the precedence viper applies to a flag
// bound with BindPFlag.
func applyEnvOverrides(opts *app.Options) {
	opts.Mode = viper.GetString("mode")
	opts.FilterPID = uint32(viper.GetInt64("filter-pid"))
	opts.WaitAlertMs = viper.GetInt("wait-alert-ms")
	opts.CSV = viper.GetBool("csv")
	opts.CSVHeader = viper.GetBool("csv-header")
	opts.Simulate = viper.GetBool("simulate")
	opts.SummaryInterval = viper.GetDuration("summary-interval")
}

func runSchedlab(ctx context.Context, opts app.Options) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	return app.Run(ctx, logger, opts, os.Stdout)
}
