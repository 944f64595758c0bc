package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/isohyet-io/isohyet/aggregate"
	"github.com/isohyet-io/isohyet/archive"
	"github.com/isohyet-io/isohyet/config"
	"github.com/isohyet-io/isohyet/log"
	"github.com/isohyet-io/isohyet/metrics"
	"github.com/isohyet-io/isohyet/runtime"
	"github.com/isohyet-io/isohyet/store"
)

// Well-known file names under the data directory.
const (
	ledgerFileName   = "failed_jobs.json"
	ultimateFileName = "ultimate_failures.jsonl"
)

// pipeline bundles the wired components of one pass.
type pipeline struct {
	cfg      *config.Config
	passID   string
	attempt  int
	archive  archive.Client
	worker   *runtime.DayWorker
	ledger   *store.FileLedger
	ultimate *store.UltimateLog
	metrics  *metrics.Collector
	logger   *log.Logger
}

// buildPipeline loads config and wires the archive client, aggregator,
// validation rules, stores, and worker for one pass. attempt is 1 for the
// initial pass and 2 for the retry pass.
func buildPipeline(ctx context.Context, configPath, passID string, attempt int) (*pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if passID == "" {
		passID = uuid.New().String()
	}
	logger := log.NewLogger(passID, attempt)
	collector := metrics.NewCollector(passID, attempt)

	client, err := buildArchiveClient(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}

	aggregator, err := aggregate.NewAggregator(cfg.Variables, cfg.Derived)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("building aggregator: %w", err)
	}

	worker := &runtime.DayWorker{
		Archive:    client,
		Aggregator: aggregator,
		Rules:      aggregate.RulesFromConfig(cfg.Validation),
		Store:      store.NewParquetStore(cfg.DataDir),
		Metrics:    collector,
		Logger:     logger,
		LogDir:     cfg.LogDir,
	}

	return &pipeline{
		cfg:      cfg,
		passID:   passID,
		attempt:  attempt,
		archive:  client,
		worker:   worker,
		ledger:   store.NewFileLedger(filepath.Join(cfg.DataDir, ledgerFileName)),
		ultimate: store.NewUltimateLog(filepath.Join(cfg.DataDir, ultimateFileName)),
		metrics:  collector,
		logger:   logger,
	}, nil
}

func buildArchiveClient(ctx context.Context, cfg config.ArchiveConfig) (archive.Client, error) {
	switch cfg.Backend {
	case "s3", "":
		client, err := archive.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("building archive client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

func (p *pipeline) Close() {
	if err := p.archive.Close(); err != nil {
		p.logger.Warn("archive client close failed", map[string]any{"error": err.Error()})
	}
}
