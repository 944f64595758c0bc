package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/isohyet-io/isohyet/config"
	"github.com/isohyet-io/isohyet/store"
	"github.com/isohyet-io/isohyet/types"
)

// ExportCommand returns the export command, publishing completed daily
// aggregates into the configured Lode dataset.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Publish completed daily aggregates to the configured dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to isohyet.yaml",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "First date to export (YYYY-MM-DD, defaults to everything stored)",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "Last date to export (YYYY-MM-DD, inclusive)",
			},
		},
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}
	if cfg.Export.Dataset == "" {
		return cli.Exit("isohyet: export.dataset is not configured", exitFatal)
	}

	bounds, err := parseExportBounds(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}

	pstore := store.NewParquetStore(cfg.DataDir)
	dates, err := pstore.Dates()
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}

	aggregates, err := loadAggregates(ctx, pstore, dates, bounds)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}
	if len(aggregates) == 0 {
		fmt.Fprintln(os.Stdout, "nothing to export")
		return nil
	}

	exporter, err := store.NewExporterFromConfig(ctx, cfg.Export)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}

	n, err := exporter.Export(ctx, aggregates)
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: export failed: %v", err), exitFatal)
	}

	fmt.Fprintf(os.Stdout, "exported %d records for %d dates to dataset %s\n",
		n, len(aggregates), cfg.Export.Dataset)
	return nil
}

// exportBounds is the optional date window narrowing an export.
type exportBounds struct {
	start, end *types.Date
}

func parseExportBounds(c *cli.Context) (exportBounds, error) {
	var b exportBounds
	if s := c.String("start"); s != "" {
		d, err := types.ParseDate(s)
		if err != nil {
			return b, fmt.Errorf("invalid --start: %w", err)
		}
		b.start = &d
	}
	if s := c.String("end"); s != "" {
		d, err := types.ParseDate(s)
		if err != nil {
			return b, fmt.Errorf("invalid --end: %w", err)
		}
		b.end = &d
	}
	return b, nil
}

func (b exportBounds) contains(d types.Date) bool {
	if b.start != nil && d.Before(*b.start) {
		return false
	}
	if b.end != nil && b.end.Before(d) {
		return false
	}
	return true
}

func loadAggregates(ctx context.Context, pstore *store.ParquetStore, dates []types.Date, bounds exportBounds) ([]*types.DailyAggregate, error) {
	var aggregates []*types.DailyAggregate
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !bounds.contains(d) {
			continue
		}
		agg, err := pstore.Read(d)
		if err != nil {
			return nil, fmt.Errorf("reading aggregate for %s: %w", d, err)
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, nil
}
