package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/allocator"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/eoq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, fingerprint string, dst any) (bool, error) {
	raw, ok := m.entries[fingerprint]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) Set(_ context.Context, fingerprint string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.entries[fingerprint] = raw
	return nil
}

func (m *memoryCache) InvalidateAll(context.Context) error {
	m.entries = make(map[string][]byte)
	return nil
}

func table(t *testing.T, name, body string) *ingest.Table {
	t.Helper()
	tbl, err := ingest.ReadCSV(name, strings.NewReader(body))
	require.NoError(t, err)
	return tbl
}

func stockOnly(t *testing.T) map[ingest.Kind]*ingest.Table {
	return map[ingest.Kind]*ingest.Table{
		ingest.KindStock: table(t, "stock.csv", "product_id,location_id,primary_vendor_name,stock_wh,avg_sales_final\n1,40,Acme,10,5\n"),
	}
}

func TestResolveDefaultsAsOfToToday(t *testing.T) {
	svc := NewPlannerService(config.DefaultPlanning(), nil)

	r, err := svc.Resolve(PlanParams{})
	require.NoError(t, err)
	assert.Equal(t, domain.DateOnly(time.Now()).Format("2006-01-02"), r.AsOf)
}

func TestResolve(t *testing.T) {
	svc := NewPlannerService(config.DefaultPlanning(), nil)

	r, err := svc.Resolve(PlanParams{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-04", r.AsOf)
	assert.Equal(t, 2, r.Cycles)
	assert.Equal(t, 7, r.PeriodDays)
	assert.Equal(t, "ospo", r.Incoming)
	assert.Equal(t, "largest_first", r.Priority)
	assert.False(t, r.Jitter)
	assert.Equal(t, defaultCalendarDays, r.CalendarDays)

	cycles, jitter := 4, true
	r, err = svc.Resolve(PlanParams{AsOf: asOf, Cycles: &cycles, Jitter: &jitter, Priority: "lowest_doi", Incoming: "all"})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Cycles)
	assert.True(t, r.Jitter)
	assert.Equal(t, "lowest_doi", r.Priority)
	assert.Equal(t, "all", r.Incoming)

	tests := []struct {
		name   string
		params PlanParams
	}{
		{"bad priority", PlanParams{Priority: "random"}},
		{"bad incoming", PlanParams{Incoming: "everything"}},
		{"negative cycles", PlanParams{Cycles: func() *int { n := -1; return &n }()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Resolve(tt.params)
			assert.Error(t, err)
		})
	}
}

func TestPlanGatesSectionsOnMissingTables(t *testing.T) {
	svc := NewPlannerService(config.DefaultPlanning(), nil)

	res, err := svc.Plan(context.Background(), stockOnly(t), PlanParams{AsOf: asOf})
	require.NoError(t, err)

	require.Len(t, res.Projections, 1)
	assert.Equal(t, 1, res.Summary.Positions)
	assert.Empty(t, res.EOQ)
	assert.Empty(t, res.Warehouses)
	assert.Nil(t, res.InboundCalendar)
	assert.ElementsMatch(t, []string{"category_forecast", "cost", "inbound_order", "vendor"}, res.Pending)
	for _, issue := range res.Issues {
		assert.Equal(t, domain.IssueMissingInput, issue.Kind)
	}

	c0, ok := res.Projections[0].At(0)
	require.True(t, ok)
	require.Greater(t, c0.ReplenishmentQty, 0.0)

	require.NotNil(t, res.Schedule, "schedule falls back to cycle 0 replenishment")
	require.Len(t, res.Schedule.Allocations, 1)
	assert.Equal(t, "Acme", res.Schedule.Allocations[0].VendorName)
	assert.InDelta(t, c0.ReplenishmentQty, res.Schedule.Allocations[0].Qty, 1e-9)
	assert.InDelta(t, c0.ReplenishmentQty, res.Summary.TotalReplenishment, 1e-9)
}

func TestPlanCountsEmptyPositionsByIncomingPolicy(t *testing.T) {
	svc := NewPlannerService(config.DefaultPlanning(), nil)
	body := "product_id,location_id,primary_vendor_name,stock_wh,ospo_qty,osrl_qty,avg_sales_final\n" +
		"1,40,Acme,0,0,0,5\n" +
		"2,40,Acme,0,0,8,5\n" +
		"3,40,Acme,0,6,0,5\n" +
		"4,40,Acme,9,0,0,5\n"

	tests := []struct {
		incoming string
		want     int
	}{
		{"ospo", 2},
		{"ospo+ospr", 2},
		{"all", 1},
	}
	for _, tt := range tests {
		t.Run(tt.incoming, func(t *testing.T) {
			tables := map[ingest.Kind]*ingest.Table{ingest.KindStock: table(t, "stock.csv", body)}
			res, err := svc.Plan(context.Background(), tables, PlanParams{AsOf: asOf, Incoming: tt.incoming})
			require.NoError(t, err)
			assert.Equal(t, 4, res.Summary.Positions)
			assert.Equal(t, tt.want, res.Summary.Empty)
		})
	}
}

func TestPlanAllocatesCategoriesAndHubs(t *testing.T) {
	svc := NewPlannerService(config.DefaultPlanning(), nil)
	tables := map[ingest.Kind]*ingest.Table{
		ingest.KindCategoryForecast: table(t, "forecast.csv", "type,demand\nDry,300\nCBN,50\nUnknown,999\n"),
		ingest.KindEstimatedSO:      table(t, "estimated_so.csv", "wh_id,hub_id,qty_so_final\n40,98,30\n40,121,10\n40,537,500\n"),
	}

	res, err := svc.Plan(context.Background(), tables, PlanParams{AsOf: asOf})
	require.NoError(t, err)

	totals := allocator.TotalsByWarehouse(res.Warehouses)
	assert.InDelta(t, 200, totals[40], 1e-9)
	assert.InDelta(t, 100, totals[772], 1e-9)
	assert.InDelta(t, 50, totals[661], 1e-9)

	require.Len(t, res.Hubs, 2, "excluded hub 537 is dropped")
	var sum float64
	for _, h := range res.Hubs {
		assert.NotEmpty(t, h.HubName)
		sum += h.FinalSOQty
	}
	assert.InDelta(t, 200, sum, 1e-6)
	assert.Contains(t, res.Pending, "stock")
}

func TestPlanSizesOrdersWithCosts(t *testing.T) {
	svc := NewPlannerService(config.DefaultPlanning(), nil)
	tables := stockOnly(t)
	tables[ingest.KindCost] = table(t, "cost.csv", "product_id,cogs,pack_size\n1,10000,12\n")

	res, err := svc.Plan(context.Background(), tables, PlanParams{AsOf: asOf})
	require.NoError(t, err)

	require.Len(t, res.EOQ, 1)
	r := res.EOQ[0]
	assert.Equal(t, int64(40), r.LocationID, "location 0 cost row applies to every location")
	assert.Equal(t, "Acme", r.VendorName)
	assert.Greater(t, r.FinalQty, 0.0)
	assert.NotContains(t, res.Pending, "cost")
}

func TestPlanUsesCache(t *testing.T) {
	mem := newMemoryCache()
	svc := NewPlannerService(config.DefaultPlanning(), mem)
	tables := stockOnly(t)

	first, err := svc.Plan(context.Background(), tables, PlanParams{AsOf: asOf})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, mem.sets)

	second, err := svc.Plan(context.Background(), tables, PlanParams{AsOf: asOf})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, 1, mem.sets)
	require.Len(t, second.Projections, 1)

	third, err := svc.Plan(context.Background(), tables, PlanParams{AsOf: asOf.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
}

func TestFingerprint(t *testing.T) {
	params := ResolvedParams{AsOf: "2025-06-04", Cycles: 2}
	a := Fingerprint(stockOnly(t), params)
	b := Fingerprint(stockOnly(t), params)
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)

	params.Cycles = 3
	assert.NotEqual(t, a, Fingerprint(stockOnly(t), params))

	changed := map[ingest.Kind]*ingest.Table{
		ingest.KindStock: table(t, "stock.csv", "product_id,location_id,primary_vendor_name,stock_wh,avg_sales_final\n1,40,Acme,11,5\n"),
	}
	assert.NotEqual(t, a, Fingerprint(changed, ResolvedParams{AsOf: "2025-06-04", Cycles: 2}))
}

func TestDynamicEOQUsesConfigDefaults(t *testing.T) {
	cfg := config.DefaultPlanning()
	svc := NewPlannerService(cfg, nil)

	p := eoq.DynamicParams{ForecastDemand: 100, DemandStdDev: 10, COGS: 5000}
	full := p
	full.SafetyFactor = cfg.EOQ.SafetyFactor
	full.LaborCostPerHour = cfg.EOQ.LaborCostPerHour
	full.HoursPerOrder = cfg.EOQ.HoursPerOrder
	full.HoldingCostRate = cfg.EOQ.HoldingCostRate

	assert.Equal(t, eoq.DynamicEOQ(full), svc.DynamicEOQ(p))
}
