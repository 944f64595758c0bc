package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/isohyet-io/isohyet/runtime"
	"github.com/isohyet-io/isohyet/types"
)

// Exit codes shared by run and retry.
const (
	exitAllSucceeded     = 0 // every date reached succeeded
	exitFailuresRecorded = 1 // at least one date landed in the ledger or ultimate log
	exitFatal            = 2 // the pass itself could not complete
)

// RunCommand returns the run command: the initial pass over the
// configured date range.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute the initial pass over the configured date range",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to isohyet.yaml",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "pass-id",
				Usage: "Pass ID (defaults to a generated UUID)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a JSON pass report to this path ('-' for stderr)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress the result summary",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := buildPipeline(ctx, c.String("config"), c.String("pass-id"), 1)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}
	defer p.Close()

	dates := types.DateRange(p.cfg.StartDate, p.cfg.EndDate)
	scheduler := runtime.NewScheduler(
		runtime.SchedulerConfig{Concurrency: p.cfg.Concurrency},
		p.worker, p.ledger, p.metrics, p.logger,
	)

	result, err := scheduler.Run(ctx, dates)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: pass failed: %v", err), exitFatal)
	}

	exitCode := exitAllSucceeded
	if result.Failed > 0 {
		exitCode = exitFailuresRecorded
	}

	if path := c.String("report"); path != "" {
		report := runtime.BuildPassReport(p.passID, runtime.PassKindInitial, 1, exitCode, result, p.metrics.Snapshot())
		if err := runtime.WritePassReport(report, path); err != nil {
			return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
		}
	}

	if !c.Bool("quiet") {
		printPassSummary(runtime.PassKindInitial, p.passID, result)
	}
	return cli.Exit("", exitCode)
}

// signalContext returns a context canceled on SIGINT or SIGTERM, so an
// interrupted pass stops dispatching and leaves the ledger untouched.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printPassSummary(kind, passID string, result *runtime.PassResult) {
	fmt.Fprintf(os.Stdout, "\n=== Pass Summary (%s) ===\n", kind)
	fmt.Fprintf(os.Stdout, "Pass ID:    %s\n", passID)
	fmt.Fprintf(os.Stdout, "Dates:      %d\n", result.DatesTotal)
	fmt.Fprintf(os.Stdout, "Succeeded:  %d (%d skipped)\n", result.Succeeded, result.Skipped)
	fmt.Fprintf(os.Stdout, "Failed:     %d\n", result.Failed)

	if result.Failed > 0 {
		fmt.Fprintf(os.Stdout, "\nFailed dates:\n")
		for _, rec := range result.FailureRecords() {
			fmt.Fprintf(os.Stdout, "  %s  %s  %s\n", rec.Date, rec.Kind, rec.Message)
		}
	}
}
