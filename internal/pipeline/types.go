package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/repository"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
)

// Config holds configuration for a batch planning run.
type Config struct {
	WorkerCount       int    // Number of dates planned concurrently
	OutputDir         string // Root directory; each date gets a YYYYMMDD subdirectory
	Format            string // "csv" writes one file per table, "xlsx" one workbook
	IndonesianNumbers bool
	PublishPrefix     string // Object key prefix used when a publisher is set
	Params            service.PlanParams
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount:   2,
		OutputDir:     "data/output",
		Format:        FormatXLSX,
		PublishPrefix: "planner/exports/",
	}
}

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// RunStatus represents the current state of a dated run
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// DateRun tracks planning for one snapshot date.
type DateRun struct {
	Date        time.Time
	Files       map[ingest.Kind]string
	Status      RunStatus
	Fingerprint string
	Summary     service.Summary
	Pending     []string
	Outputs     []string
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Recorder persists run summaries; the postgres planning repository satisfies it.
type Recorder interface {
	SavePlanRun(ctx context.Context, run repository.PlanRun) error
}
