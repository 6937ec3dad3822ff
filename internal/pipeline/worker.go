package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/export"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/repository"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/andresuchdata/autopo-py/planner-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Worker plans one snapshot date: read its files, run the planner, write exports.
type Worker struct {
	planner   *service.PlannerService
	config    Config
	names     export.Namer
	recorder  Recorder
	publisher storage.ObjectStorage
}

func NewWorker(planner *service.PlannerService, config Config) *Worker {
	return &Worker{
		planner: planner,
		config:  config,
		names:   planner.Config(),
	}
}

// ProcessDate never returns a nil run; a failed date carries its error message.
func (w *Worker) ProcessDate(ctx context.Context, date time.Time, files map[ingest.Kind]string) (*DateRun, error) {
	return w.track(date, files, func(run *DateRun) error {
		tables := make(map[ingest.Kind]*ingest.Table, len(files))
		for kind, file := range files {
			t, err := ingest.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			tables[kind] = t
		}
		return w.plan(ctx, run, tables)
	})
}

// ProcessTables plans tables that are already in memory, e.g. loaded from Postgres.
func (w *Worker) ProcessTables(ctx context.Context, date time.Time, tables map[ingest.Kind]*ingest.Table) (*DateRun, error) {
	files := make(map[ingest.Kind]string, len(tables))
	for kind, t := range tables {
		files[kind] = t.Name
	}
	return w.track(date, files, func(run *DateRun) error {
		return w.plan(ctx, run, tables)
	})
}

func (w *Worker) track(date time.Time, files map[ingest.Kind]string, fn func(*DateRun) error) (*DateRun, error) {
	run := &DateRun{
		Date:      date,
		Files:     files,
		Status:    StatusProcessing,
		StartedAt: time.Now(),
	}
	dateKey := date.Format("20060102")
	log.Info().Str("date", dateKey).Int("tables", len(files)).Msg("Starting dated plan")

	if err := fn(run); err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		run.CompletedAt = time.Now()
		log.Error().Err(err).Str("date", dateKey).Msg("Dated plan failed")
		return run, err
	}

	run.Status = StatusCompleted
	run.CompletedAt = time.Now()
	log.Info().
		Str("date", dateKey).
		Int("outputs", len(run.Outputs)).
		Strs("pending", run.Pending).
		Dur("took", run.CompletedAt.Sub(run.StartedAt)).
		Msg("Dated plan completed")
	return run, nil
}

func (w *Worker) plan(ctx context.Context, run *DateRun, tables map[ingest.Kind]*ingest.Table) error {
	params := w.config.Params
	params.AsOf = run.Date
	res, err := w.planner.Plan(ctx, tables, params)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	run.Fingerprint = res.Fingerprint
	run.Summary = res.Summary
	run.Pending = res.Pending

	outputs, err := w.writeOutputs(run.Date, res)
	if err != nil {
		return err
	}
	run.Outputs = outputs

	if w.recorder != nil {
		err := w.recorder.SavePlanRun(ctx, repository.PlanRun{
			Fingerprint:        res.Fingerprint,
			AsOf:               run.Date,
			Positions:          res.Summary.Positions,
			OutOfStock:         res.Summary.OutOfStock,
			NeedsQuantity:      res.Summary.NeedsQuantity,
			TotalReplenishment: res.Summary.TotalReplenishment,
			Pending:            res.Pending,
		})
		if err != nil {
			return fmt.Errorf("failed to record plan run: %w", err)
		}
	}

	if w.publisher != nil {
		if err := w.publish(ctx, run.Date, outputs); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) writeOutputs(date time.Time, res *service.Result) ([]string, error) {
	sheets := export.FromResult(res, w.names)
	if len(sheets) == 0 {
		return nil, nil
	}

	dir := filepath.Join(w.config.OutputDir, date.Format("20060102"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	opts := export.Options{IndonesianNumbers: w.config.IndonesianNumbers}

	if w.config.Format == FormatCSV {
		var paths []string
		for _, s := range sheets {
			var buf bytes.Buffer
			if err := export.WriteCSV(&buf, s, opts); err != nil {
				return nil, err
			}
			p := filepath.Join(dir, s.Name+".csv")
			if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", p, err)
			}
			paths = append(paths, p)
		}
		return paths, nil
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sheets, opts); err != nil {
		return nil, err
	}
	p := filepath.Join(dir, "plan.xlsx")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", p, err)
	}
	return []string{p}, nil
}

func (w *Worker) publish(ctx context.Context, date time.Time, outputs []string) error {
	for _, p := range outputs {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s for upload: %w", p, err)
		}
		key := path.Join(w.config.PublishPrefix, date.Format("20060102"), filepath.Base(p))
		if err := w.publisher.UploadObject(ctx, key, data, ContentType(p)); err != nil {
			return err
		}
		log.Info().Str("key", key).Int("bytes", len(data)).Msg("Published export")
	}
	return nil
}

// ContentType picks the MIME type for an export file.
func ContentType(file string) string {
	if filepath.Ext(file) == ".xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
