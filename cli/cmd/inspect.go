package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/isohyet-io/isohyet/cli/render"
	"github.com/isohyet-io/isohyet/cli/tui"
	"github.com/isohyet-io/isohyet/config"
	"github.com/isohyet-io/isohyet/store"
)

// InspectCommand returns the inspect command with its read-only
// subcommands over the pipeline's durable state.
func InspectCommand() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to isohyet.yaml",
		Required: true,
	}

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the failure ledger, ultimate failures, and stored aggregates",
		Subcommands: []*cli.Command{
			{
				Name:   "ledger",
				Usage:  "Show the failure ledger of the most recent pass",
				Flags:  append(ReadOnlyFlags(), configFlag),
				Action: inspectLedgerAction,
			},
			{
				Name:   "ultimate",
				Usage:  "Show the accumulated ultimate failure log",
				Flags:  append(ReadOnlyFlags(), configFlag),
				Action: inspectUltimateAction,
			},
			{
				Name:   "aggregates",
				Usage:  "List dates with a completed daily aggregate",
				Flags:  append(ReadOnlyFlags(), configFlag),
				Action: inspectAggregatesAction,
			},
		},
	}
}

func inspectLedgerAction(c *cli.Context) error {
	cfg, r, err := inspectSetup(c)
	if err != nil {
		return err
	}

	ledger := store.NewFileLedger(filepath.Join(cfg.DataDir, ledgerFileName))
	records, err := ledger.Read()
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}

	view := &tui.LedgerView{Path: ledger.Path(), Records: records}
	if c.Bool("tui") {
		return r.RenderTUI("inspect_ledger", view)
	}
	return r.Render(view)
}

func inspectUltimateAction(c *cli.Context) error {
	cfg, r, err := inspectSetup(c)
	if err != nil {
		return err
	}

	ultimate := store.NewUltimateLog(filepath.Join(cfg.DataDir, ultimateFileName))
	records, err := ultimate.Read()
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}

	view := &tui.UltimateView{Path: ultimate.Path(), Records: records}
	if c.Bool("tui") {
		return r.RenderTUI("inspect_ultimate", view)
	}
	return r.Render(view)
}

func inspectAggregatesAction(c *cli.Context) error {
	cfg, r, err := inspectSetup(c)
	if err != nil {
		return err
	}

	dates, err := store.NewParquetStore(cfg.DataDir).Dates()
	if err != nil {
		return cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}

	view := &tui.AggregatesView{DataDir: cfg.DataDir}
	for _, d := range dates {
		view.Dates = append(view.Dates, d.String())
	}
	if c.Bool("tui") {
		return r.RenderTUI("inspect_aggregates", view)
	}
	return r.Render(view)
}

func inspectSetup(c *cli.Context) (*config.Config, *render.Renderer, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("isohyet: %v", err), exitFatal)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return nil, nil, err
	}
	return cfg, r, nil
}
