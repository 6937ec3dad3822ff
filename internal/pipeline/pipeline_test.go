package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/repository"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/andresuchdata/autopo-py/planner-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRepo struct {
	mu   sync.Mutex
	runs []repository.PlanRun
}

func (r *recordingRepo) SavePlanRun(_ context.Context, run repository.PlanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestGroupByDate(t *testing.T) {
	files := []string{
		"in/20250605_stock.csv",
		"in/20250604_stock.csv",
		"in/holidays.csv",
		"in/20250605_holiday.csv",
		"in/notes.txt",
		"in/misc.csv",
	}

	batches, skipped := GroupByDate(files)
	require.Len(t, batches, 2)

	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), batches[0].Date)
	assert.Equal(t, "in/20250604_stock.csv", batches[0].Files[ingest.KindStock])
	assert.Equal(t, "in/holidays.csv", batches[0].Files[ingest.KindHoliday])
	assert.Equal(t, "in/20250605_holiday.csv", batches[1].Files[ingest.KindHoliday])
	assert.Equal(t, []string{"in/notes.txt", "in/misc.csv"}, skipped)
}

func TestOrchestratorRunWritesExports(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	published := t.TempDir()

	files := []string{
		writeInput(t, in, "20250604_stock.csv", "product_id,location_id,primary_vendor_name,stock_wh,avg_sales_final\n1,40,Acme,10,5\n"),
		writeInput(t, in, "20250611_stock.csv", "product_id,location_id,primary_vendor_name,stock_wh,avg_sales_final\n1,40,Acme,0,5\n"),
	}

	cfg := DefaultConfig()
	cfg.OutputDir = out
	cfg.Format = FormatCSV
	repo := &recordingRepo{}
	orch := NewOrchestrator(
		service.NewPlannerService(config.DefaultPlanning(), nil),
		cfg,
		WithRecorder(repo),
		WithPublisher(&storage.LocalStorage{Root: published}),
	)

	runs, err := orch.Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	for _, run := range runs {
		assert.Equal(t, StatusCompleted, run.Status)
		assert.NotEmpty(t, run.Fingerprint)
		assert.NotEmpty(t, run.Outputs)
		assert.Contains(t, run.Pending, "category_forecast")
	}
	assert.FileExists(t, filepath.Join(out, "20250604", "projection.csv"))
	assert.FileExists(t, filepath.Join(out, "20250611", "projection.csv"))
	assert.FileExists(t, filepath.Join(published, "planner", "exports", "20250604", "projection.csv"))
	assert.Len(t, repo.runs, 2)
	assert.Equal(t, 1, runs[1].Summary.Positions)
}

func TestOrchestratorRunXLSX(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()

	files := []string{
		writeInput(t, in, "20250604_stock.csv", "product_id,location_id,stock_wh,avg_sales_final\n1,40,10,5\n"),
	}
	runs, err := NewOrchestrator(service.NewPlannerService(config.DefaultPlanning(), nil), cfg).Run(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{filepath.Join(cfg.OutputDir, "20250604", "plan.xlsx")}, runs[0].Outputs)

	tbl, err := ingest.ReadFile(runs[0].Outputs[0])
	require.NoError(t, err)
	assert.Positive(t, tbl.Len())
}

func TestOrchestratorRunFailures(t *testing.T) {
	orch := NewOrchestrator(service.NewPlannerService(config.DefaultPlanning(), nil), DefaultConfig())

	_, err := orch.Run(context.Background(), []string{"in/stock.csv"})
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	orch = NewOrchestrator(service.NewPlannerService(config.DefaultPlanning(), nil), cfg)
	runs, err := orch.Run(context.Background(), []string{filepath.Join(t.TempDir(), "20250604_stock.csv")})
	require.Error(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "failed to read")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ContentType("a/projection.csv"))
	assert.Contains(t, ContentType("plan.xlsx"), "spreadsheetml")
}

func TestOrchestratorRunTables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Format = FormatCSV
	repo := &recordingRepo{}
	orch := NewOrchestrator(service.NewPlannerService(config.DefaultPlanning(), nil), cfg, WithRecorder(repo))

	date := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	tables := map[ingest.Kind]*ingest.Table{
		ingest.KindStock: ingest.PositionsTable([]domain.StockPosition{{ProductID: 1, LocationID: 40, StockWH: 10, AvgDailySales: 5}}),
	}
	run, err := orch.RunTables(context.Background(), date, tables)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, "stock", run.Files[ingest.KindStock])
	require.Len(t, repo.runs, 1)
	assert.Equal(t, date, repo.runs[0].AsOf)
	assert.Equal(t, 1, repo.runs[0].Positions)
}
