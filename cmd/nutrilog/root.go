package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nutrilog/internal/cli"
	applog "nutrilog/internal/log"
	"nutrilog/internal/services"
)

// app carries the state shared by every subcommand. open is replaced in
// tests to run against an in-memory ledger.
type app struct {
	date    string
	verbose bool
	now     func() time.Time
	open    func(ctx context.Context, verbose bool) (*services.LedgerService, func() error, error)

	svc     *services.LedgerService
	cleanup func() error
}

func newApp() *app {
	return &app{now: time.Now, open: openService}
}

// openService builds the service from the environment. Logs go to stderr so
// they never mix with command output.
func openService(ctx context.Context, verbose bool) (*services.LedgerService, func() error, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	level := applog.ParseLevel("warn")
	if verbose {
		level = applog.ParseLevel(cfg.LogLevel)
	}
	logger := applog.New(applog.Config{Level: level, Component: applog.ComponentCLI, Output: os.Stderr})
	applog.SetDefault(logger)

	store, res, err := cli.OpenLedger(ctx, logger.Logger, cfg)
	if err != nil {
		return nil, nil, err
	}
	if res.Events != nil {
		return services.NewLedgerService(store, res.Events), res.Cleanup, nil
	}
	return services.NewLedgerService(store, nil), res.Cleanup, nil
}

// close releases the backend opened by the first command.
func (a *app) close() error {
	if a.cleanup == nil {
		return nil
	}
	err := a.cleanup()
	a.cleanup = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "nutrilog",
		Short:         "Track food, workouts and cardio by day",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.svc != nil {
				return nil
			}
			svc, cleanup, err := a.open(cmd.Context(), a.verbose)
			if err != nil {
				return err
			}
			a.svc, a.cleanup = svc, cleanup
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.date, "date", "d", "today", "day to act on (today, yesterday, YYMMDD or YYYY-MM-DD)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at the configured LOG_LEVEL instead of warn")

	root.AddCommand(
		newMonthCmd(a),
		newDayCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newToggleCmd(a),
		newRemoveCmd(a),
	)
	return root
}
