package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/isohyet-io/isohyet/runtime"
)

// RetryCommand returns the retry command: one retry pass over the dates
// in the failure ledger.
func RetryCommand() *cli.Command {
	return &cli.Command{
		Name:  "retry",
		Usage: "Re-run the dates in the failure ledger, exactly once",
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
		Action: retryAction,
	}
}

func retryAction(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	p, err := buildPipeline(ctx, c.String("config"), c.String("pass-id"), 2)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}
	defer p.Close()

	manager := &runtime.RetryManager{
		Config:   runtime.SchedulerConfig{Concurrency: p.cfg.Concurrency},
		Worker:   p.worker,
		Ledger:   p.ledger,
		Ultimate: p.ultimate,
		Metrics:  p.metrics,
		Logger:   p.logger,
	}

	result, err := manager.RunOnce(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: retry failed: %v", err), exitFatal)
	}

	exitCode := exitAllSucceeded
	if result.Ultimate > 0 {
		exitCode = exitFailuresRecorded
	}

	if path := c.String("report"); path != "" {
		passResult := &runtime.PassResult{
			DatesTotal: int64(result.Attempted),
			Succeeded:  int64(result.Recovered),
			Failed:     int64(result.Ultimate),
			Outcomes:   result.Outcomes,
		}
		report := runtime.BuildPassReport(p.passID, runtime.PassKindRetry, 2, exitCode, passResult, p.metrics.Snapshot())
		if err := runtime.WritePassReport(report, path); err != nil {
			return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
		}
	}

	if !c.Bool("quiet") {
		printRetrySummary(p.passID, result)
	}
	return cli.Exit("", exitCode)
}

func printRetrySummary(passID string, result *runtime.RetryResult) {
	fmt.Fprintf(os.Stdout, "\n=== Retry Summary ===\n")
	fmt.Fprintf(os.Stdout, "Pass ID:    %s\n", passID)
	fmt.Fprintf(os.Stdout, "Attempted:  %d\n", result.Attempted)
	fmt.Fprintf(os.Stdout, "Recovered:  %d\n", result.Recovered)
	fmt.Fprintf(os.Stdout, "Ultimate:   %d\n", result.Ultimate)

	if result.Ultimate > 0 {
		fmt.Fprintf(os.Stdout, "\nUltimate failures:\n")
		for _, o := range result.Outcomes {
			if o.Failed() {
				fmt.Fprintf(os.Stdout, "  %s  %s  %s\n", o.Date, o.Kind, o.Message)
			}
		}
	}
}
