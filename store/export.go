package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"

	"github.com/isohyet-io/isohyet/config"
	"github.com/isohyet-io/isohyet/types"
)

// ExportRecord is the published form of one variable's daily aggregate:
// summary statistics plus the full grid, partitioned by day. Masked cells
// (NaN in the stored grid) are exported as null, which JSON can carry and
// NaN cannot; summary statistics cover the unmasked cells only.
type ExportRecord struct {
	Day      string     `json:"day"`
	Variable string     `json:"variable"`
	Method   string     `json:"method"`
	Cells    int64      `json:"cells"`
	Min      *float64   `json:"min"`
	Max      *float64   `json:"max"`
	Mean     *float64   `json:"mean"`
	Values   []*float64 `json:"values"`
}

// Exporter publishes completed daily aggregates to a Lode dataset with a
// day-partitioned Hive layout, for consumption outside the pipeline.
type Exporter struct {
	dataset lode.Dataset
}

// NewExporter builds an exporter over the given store factory.
func NewExporter(dataset string, factory lode.StoreFactory) (*Exporter, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout("day"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, fmt.Errorf("opening export dataset %s: %w", dataset, err)
	}
	return &Exporter{dataset: ds}, nil
}

// NewExporterFromConfig builds an exporter for the configured backend.
// Backend "fs" writes Hive-partitioned files under the configured path;
// "s3" publishes to the configured bucket using the AWS default
// credential chain.
func NewExporterFromConfig(ctx context.Context, cfg config.ExportConfig) (*Exporter, error) {
	switch cfg.Backend {
	case "fs", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("export path required for fs backend")
		}
		return NewExporter(cfg.Dataset, lode.NewFSFactory(cfg.Path))
	case "s3":
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		factory := func() (lode.Store, error) {
			return lodes3.New(client, lodes3.Config{
				Bucket: cfg.Path,
			})
		}
		return NewExporter(cfg.Dataset, factory)
	default:
		return nil, fmt.Errorf("unknown export backend %q", cfg.Backend)
	}
}

// Export publishes the given aggregates. Each variable becomes one record
// in its date's partition.
func (e *Exporter) Export(ctx context.Context, aggregates []*types.DailyAggregate) (int, error) {
	records := make([]any, 0, len(aggregates))
	for _, agg := range aggregates {
		names := make([]string, 0, len(agg.Values))
		for name := range agg.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			records = append(records, buildExportRecord(agg, name))
		}
	}
	if len(records) == 0 {
		return 0, nil
	}

	if _, err := e.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return 0, fmt.Errorf("writing export records: %w", err)
	}
	return len(records), nil
}

// buildExportRecord computes summary statistics over the unmasked cells
// of one variable's grid.
func buildExportRecord(agg *types.DailyAggregate, name string) ExportRecord {
	grid := agg.Values[name]
	values := make([]*float64, len(grid))
	min, max := math.Inf(1), math.Inf(-1)
	sum, n := 0.0, 0
	for i, v := range grid {
		if math.IsNaN(v) {
			continue
		}
		cell := v
		values[i] = &cell
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
		n++
	}

	rec := ExportRecord{
		Day:      agg.Date.String(),
		Variable: name,
		Method:   string(agg.Methods[name]),
		Cells:    int64(agg.Cells),
		Values:   values,
	}
	if n > 0 {
		mean := sum / float64(n)
		rec.Min, rec.Max, rec.Mean = &min, &max, &mean
	}
	return rec
}
