package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/andresuchdata/autopo-py/planner-go/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Batch is the files of one snapshot date plus the undated files shared by
// every date (holiday and vendor tables usually are).
type Batch struct {
	Date  time.Time
	Files map[ingest.Kind]string
}

// Orchestrator coordinates running the planner over a set of local files grouped by snapshot date.
type Orchestrator struct {
	cfg    Config
	worker *Worker
}

type Option func(*Orchestrator)

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.worker.recorder = r }
}

func WithPublisher(p storage.ObjectStorage) Option {
	return func(o *Orchestrator) { o.worker.publisher = p }
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(planner *service.PlannerService, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		worker: NewWorker(planner, cfg),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GroupByDate sorts files into dated batches by their YYYYMMDD prefix and
// detected kind. Undated files join every batch unless the batch has its own
// file of that kind. Files whose kind cannot be detected are returned as skipped.
func GroupByDate(files []string) ([]Batch, []string) {
	byDate := make(map[time.Time]map[ingest.Kind]string)
	shared := make(map[ingest.Kind]string)
	var skipped []string

	for _, f := range files {
		base := filepath.Base(f)
		if !ingest.Supported(base) {
			skipped = append(skipped, f)
			continue
		}
		kind, ok := ingest.DetectKind(base)
		if !ok {
			skipped = append(skipped, f)
			continue
		}
		date, dated := ingest.FileDate(base)
		if !dated {
			shared[kind] = f
			continue
		}
		if byDate[date] == nil {
			byDate[date] = make(map[ingest.Kind]string)
		}
		byDate[date][kind] = f
	}

	batches := make([]Batch, 0, len(byDate))
	for date, own := range byDate {
		merged := make(map[ingest.Kind]string, len(own)+len(shared))
		for k, f := range shared {
			merged[k] = f
		}
		for k, f := range own {
			merged[k] = f
		}
		batches = append(batches, Batch{Date: date, Files: merged})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Date.Before(batches[j].Date) })
	return batches, skipped
}

// Run plans every dated batch with a bounded worker pool. Every batch is
// attempted; the first failure is returned after all finish.
func (o *Orchestrator) Run(ctx context.Context, files []string) ([]*DateRun, error) {
	batches, skipped := GroupByDate(files)
	for _, f := range skipped {
		log.Warn().Str("file", f).Msg("Skipping file with unknown table kind")
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("no dated input files found (expected YYYYMMDD_<table>.csv|xlsx)")
	}

	workerCount := o.cfg.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	runs := make([]*DateRun, len(batches))
	errs := make([]error, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)
	for i, b := range batches {
		g.Go(func() error {
			runs[i], errs[i] = o.worker.ProcessDate(gctx, b.Date, b.Files)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			return runs, fmt.Errorf("failed to process batch for %s: %w", batches[i].Date.Format("2006-01-02"), err)
		}
	}
	return runs, nil
}

// RunTables plans a single in-memory dataset as of date.
func (o *Orchestrator) RunTables(ctx context.Context, date time.Time, tables map[ingest.Kind]*ingest.Table) (*DateRun, error) {
	return o.worker.ProcessTables(ctx, date, tables)
}
