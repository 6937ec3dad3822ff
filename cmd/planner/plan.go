package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/pipeline"
	"github.com/andresuchdata/autopo-py/planner-go/internal/repository"
	"github.com/andresuchdata/autopo-py/planner-go/internal/repository/postgres"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func planCommand() *cli.Command {
	flags := []cli.Flag{
		newPlanningConfigFlag(),
		newDBURLFlag(false),
		&cli.StringFlag{
			Name:    "input-dir",
			Usage:   "Directory of YYYYMMDD_<table>.csv|xlsx files; undated files apply to every date",
			Value:   "./data/input",
			EnvVars: []string{"PLANNER_INPUT_DIR"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Usage:   "Exports are written to <output-dir>/<YYYYMMDD>/",
			Value:   "./data/output",
			EnvVars: []string{"APP_DATA_DIR"},
		},
		&cli.StringFlag{Name: "format", Usage: "csv or xlsx", Value: pipeline.FormatXLSX},
		&cli.BoolFlag{Name: "indonesian-numbers", Usage: "Format CSV numbers as 1.234,50"},
		&cli.IntFlag{Name: "workers", Usage: "Dates planned in parallel", Value: 2},
		&cli.StringFlag{Name: "as-of", Usage: "Snapshot date (YYYY-MM-DD) when planning from the database; latest if empty"},
		&cli.Int64SliceFlag{Name: "location", Usage: "Restrict database positions to these location IDs"},
		&cli.IntFlag{Name: "cycles", Usage: "Future cycles to project (config default if unset)"},
		&cli.IntFlag{Name: "period-days", Usage: "Days between cycles; 0 or less uses vendor JI"},
		&cli.StringFlag{Name: "incoming-policy", Usage: "ospo, ospo+ospr or all"},
		&cli.StringFlag{Name: "priority", Usage: "largest_first or lowest_doi"},
		&cli.BoolFlag{Name: "jitter", Usage: "Perturb fallback demand with the seeded jitter"},
		&cli.BoolFlag{Name: "publish", Usage: "Upload exports to object storage"},
		&cli.StringFlag{Name: "publish-prefix", Value: "planner/exports/", EnvVars: []string{"STORAGE_PREFIX"}},
	}
	return &cli.Command{
		Name:   "plan",
		Usage:  "Run the planner over dated input files, or over stock positions in Postgres",
		Flags:  append(flags, storageFlags()...),
		Action: runPlan,
	}
}

func planParams(c *cli.Context) service.PlanParams {
	var p service.PlanParams
	if c.IsSet("cycles") {
		v := c.Int("cycles")
		p.Cycles = &v
	}
	if c.IsSet("period-days") {
		v := c.Int("period-days")
		p.PeriodDays = &v
	}
	if c.IsSet("jitter") {
		v := c.Bool("jitter")
		p.Jitter = &v
	}
	p.Incoming = c.String("incoming-policy")
	p.Priority = c.String("priority")
	return p
}

func runPlan(c *cli.Context) error {
	ctx := c.Context
	planning, err := config.LoadPlanning(c.String("planning-config"))
	if err != nil {
		return err
	}
	planner := service.NewPlannerService(planning, nil)

	cfg := pipeline.DefaultConfig()
	cfg.WorkerCount = c.Int("workers")
	cfg.OutputDir = c.String("output-dir")
	cfg.Format = c.String("format")
	cfg.IndonesianNumbers = c.Bool("indonesian-numbers")
	cfg.PublishPrefix = c.String("publish-prefix")
	cfg.Params = planParams(c)
	if cfg.Format != pipeline.FormatCSV && cfg.Format != pipeline.FormatXLSX {
		return fmt.Errorf("unknown format %q", cfg.Format)
	}
	if _, err := planner.Resolve(cfg.Params); err != nil {
		return err
	}

	var opts []pipeline.Option
	if c.Bool("publish") {
		client, err := newStorage(c)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithPublisher(client))
	}

	var repo repository.PlanningRepository
	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := postgres.NewDB(ctx, config.DatabaseConfig{URL: dbURL})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		repo = postgres.NewPlanningRepository(db)
		opts = append(opts, pipeline.WithRecorder(repo))
	}

	orch := pipeline.NewOrchestrator(planner, cfg, opts...)
	files, err := listInputFiles(c.String("input-dir"))
	if err != nil && repo == nil {
		return err
	}

	if repo != nil {
		run, err := planFromDatabase(ctx, c, orch, repo, files)
		if err != nil {
			return err
		}
		logRun(run)
		return nil
	}

	runs, err := orch.Run(ctx, files)
	for _, run := range runs {
		if run != nil {
			logRun(run)
		}
	}
	return err
}

// planFromDatabase plans the positions of one snapshot. Input files whose
// kind is not stock or estimated_so still join the run, regardless of their date.
func planFromDatabase(ctx context.Context, c *cli.Context, orch *pipeline.Orchestrator, repo repository.PlanningRepository, files []string) (*pipeline.DateRun, error) {
	var asOf time.Time
	if v := c.String("as-of"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid --as-of: %w", err)
		}
		asOf = d
	} else {
		d, err := repo.LatestSnapshotDate(ctx)
		if err != nil {
			return nil, err
		}
		asOf = d
	}

	locations := c.Int64Slice("location")
	positions, err := repo.ListPositions(ctx, repository.PositionFilter{SnapshotDate: asOf, LocationIDs: locations})
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no stock positions for %s", asOf.Format("2006-01-02"))
	}
	tables := map[ingest.Kind]*ingest.Table{ingest.KindStock: ingest.PositionsTable(positions)}

	history, err := repo.ListHubHistory(ctx, asOf, locations)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		tables[ingest.KindEstimatedSO] = ingest.HubHistoryTable(history)
	}

	for _, f := range files {
		kind, ok := ingest.DetectKind(filepath.Base(f))
		if !ok || kind == ingest.KindStock || kind == ingest.KindEstimatedSO {
			continue
		}
		t, err := ingest.ReadFile(f)
		if err != nil {
			return nil, err
		}
		tables[kind] = t
	}

	log.Info().Str("as_of", asOf.Format("2006-01-02")).Int("positions", len(positions)).Int("tables", len(tables)).Msg("Planning from database")
	return orch.RunTables(ctx, asOf, tables)
}

func listInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !ingest.Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func logRun(run *pipeline.DateRun) {
	event := log.Info()
	if run.Status == pipeline.StatusFailed {
		event = log.Error().Str("error", run.Error)
	}
	event.
		Str("date", run.Date.Format("2006-01-02")).
		Str("status", string(run.Status)).
		Int("positions", run.Summary.Positions).
		Int("out_of_stock", run.Summary.OutOfStock).
		Float64("replenishment_qty", run.Summary.TotalReplenishment).
		Strs("outputs", run.Outputs).
		Strs("pending", run.Pending).
		Msg("Plan run")
}
