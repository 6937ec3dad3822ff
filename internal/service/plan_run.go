package service

import (
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/calendar"
	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/allocator"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/eoq"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/projection"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/schedule"
)

// planRun carries one Plan call's state between the sections.
type planRun struct {
	svc    *PlannerService
	res    *Result
	parsed *ingest.Parsed
	asOf   time.Time
	params ResolvedParams
	cal    *calendar.Calendar
}

// require reports whether every kind was provided. Missing ones are listed as
// pending with the section they block.
func (r *planRun) require(section string, kinds ...ingest.Kind) bool {
	ok := true
	for _, k := range kinds {
		if r.parsed.Has(k) {
			continue
		}
		ok = false
		if r.hasIssue(k) {
			continue
		}
		err := &domain.MissingInputError{Table: string(k)}
		r.res.Issues = append(r.res.Issues, domain.Issue{
			Table:   string(k),
			Kind:    domain.IssueMissingInput,
			Message: err.Error() + "; " + section + " skipped",
		})
		r.addPending(string(k))
	}
	return ok
}

func (r *planRun) hasIssue(k ingest.Kind) bool {
	for _, issue := range r.res.Issues {
		if issue.Table == string(k) && issue.Kind != domain.IssueMissingInput {
			return true
		}
	}
	return false
}

func (r *planRun) addPending(table string) {
	for _, p := range r.res.Pending {
		if p == table {
			return
		}
	}
	r.res.Pending = append(r.res.Pending, table)
}

func (r *planRun) allocateDemand() {
	cfg := r.svc.cfg
	if !r.require("demand allocation", ingest.KindCategoryForecast) {
		return
	}
	routes := make([]allocator.CategoryRoute, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		route := allocator.CategoryRoute{Category: c.Category}
		for _, wh := range c.Warehouses {
			route.Shares = append(route.Shares, allocator.WarehouseRatio{WarehouseID: wh.ID, Ratio: wh.Ratio})
		}
		routes = append(routes, route)
	}
	window := allocator.Window{AsOf: r.asOf, From: 1, To: cfg.ForecastWindowDays}
	r.res.Warehouses = allocator.AllocateCategories(r.parsed.CategoryForecast, routes, window)

	if !r.require("hub allocation", ingest.KindEstimatedSO) {
		return
	}
	filter := allocator.HubFilter{ExcludedHubs: cfg.ExcludedHubs, ExcludedWarehouses: cfg.ExcludedWarehouses}
	hubs := allocator.AllocateHubs(allocator.TotalsByWarehouse(r.res.Warehouses), r.parsed.HubHistory, filter)
	for i := range hubs {
		hubs[i].HubName = cfg.HubName(hubs[i].HubID)
	}
	r.res.Hubs = hubs
}

func (r *planRun) project() {
	if !r.require("projection", ingest.KindStock) {
		return
	}
	cfg := r.svc.cfg
	params := projection.DefaultParams(r.asOf)
	params.DOIPolicyDays = cfg.DOIPolicyDays
	params.PeriodDays = r.params.PeriodDays
	params.Cycles = r.params.Cycles
	params.DefaultLeadTimeDays = cfg.DefaultLeadTimeDays
	params.DefaultCoverageGapDays = cfg.DefaultCoverageGapDays
	params.Incoming = projection.IncomingPolicy(r.params.Incoming)

	opts := []projection.Option{projection.WithVendors(r.parsed.Vendors)}
	if r.cal != nil {
		opts = append(opts, projection.WithCalendar(r.cal))
	}
	if r.params.Jitter {
		opts = append(opts, projection.WithPerturbation(projection.SeededJitter{
			Seed: cfg.Jitter.Seed,
			Low:  cfg.Jitter.Low,
			High: cfg.Jitter.High,
		}))
	}

	engine := projection.NewEngine(params, opts...)
	r.res.Projections = engine.ProjectAll(r.parsed.Positions, r.parsed.Demand)
	r.res.Summary = summarize(r.res.Projections)
	for _, pos := range r.parsed.Positions {
		if params.Incoming.Empty(pos) {
			r.res.Summary.Empty++
		}
	}
}

func summarize(projections []domain.Projection) Summary {
	var s Summary
	for _, p := range projections {
		s.Positions++
		switch p.Status() {
		case domain.CoverageOutOfStock:
			s.OutOfStock++
		case domain.CoverageNeedsQuantity:
			s.NeedsQuantity++
		default:
			s.Covered++
		}
		if c, ok := p.At(0); ok {
			s.TotalReplenishment += c.ReplenishmentQty
			if c.ZeroDemand {
				s.ZeroDemand++
			}
		}
	}
	return s
}

func (r *planRun) sizeOrders() {
	if !r.require("EOQ", ingest.KindStock, ingest.KindCost) {
		return
	}
	e := r.svc.cfg.EOQ
	policy := eoq.Policy{
		PeriodDays:           e.PeriodDays,
		SafetyFactor:         e.SafetyFactor,
		InflateDemand:        e.InflateDemand,
		MaxOrdersPerPeriod:   e.MaxOrdersPerPeriod,
		MinDOIDays:           e.MinDOIDays,
		LeadTimeDays:         e.LeadTimeDays,
		HoldingCostRate:      e.HoldingCostRate,
		LaborCostPerHour:     e.LaborCostPerHour,
		HoursPerOrder:        e.HoursPerOrder,
		SafetyStockBeforeMOV: e.SafetyStockBeforeMOV,
	}
	items := eoqItems(r.res.Projections, r.parsed.Costs, r.parsed.Demand, r.parsed.Vendors)
	r.res.EOQ, r.res.MOV = eoq.NewCalculator(policy, r.parsed.Vendors).Compute(items)
}

// eoqItems joins projections with cost rows. A cost row for location 0
// applies to every location of the product; positions without cost are skipped.
func eoqItems(projections []domain.Projection, costs []domain.CostRecord, demand *domain.DemandBook, vendors *domain.VendorBook) []eoq.Item {
	index := make(map[domain.PositionKey]domain.CostRecord, len(costs))
	for _, c := range costs {
		index[domain.PositionKey{ProductID: c.ProductID, LocationID: c.LocationID}] = c
	}

	var items []eoq.Item
	for _, p := range projections {
		cost, ok := index[p.Key()]
		if !ok {
			cost, ok = index[domain.PositionKey{ProductID: p.ProductID}]
		}
		if !ok {
			continue
		}
		c0, _ := p.At(0)

		vendor := p.VendorName
		if vendor == "" {
			vendor = cost.VendorName
		}
		stdDev := cost.DemandStdDev
		if stdDev <= 0 {
			_, stdDev = demand.Lookup(p.Key(), c0.AvgDailyDemand).Stats()
		}
		var lead float64
		if loc, ok := vendors.Location(vendor, p.LocationID); ok {
			lead = float64(loc.LeadTimeDays)
		}

		items = append(items, eoq.Item{
			ProductID:       p.ProductID,
			LocationID:      p.LocationID,
			VendorName:      vendor,
			AvgDailyDemand:  c0.AvgDailyDemand,
			DemandStdDev:    stdDev,
			COGS:            cost.COGS,
			PackSize:        cost.PackSize,
			HoldingCost:     cost.HoldingCost,
			HoldingCostRate: cost.HoldingCostRate,
			OrderingCost:    cost.OrderingCost,
			LeadTimeDays:    lead,
		})
	}
	return items
}

func (r *planRun) schedule() {
	lines := r.parsed.SKULines
	if !r.parsed.Has(ingest.KindSKU) {
		lines = deriveSKULines(r.res.Projections)
	}
	if len(lines) == 0 {
		r.require("delivery schedule", ingest.KindSKU)
		return
	}

	cfg := r.svc.cfg
	s := schedule.New(r.asOf,
		schedule.WithCapacities(cfg.Capacities(), cfg.DefaultDailyCapacity),
		schedule.WithPriority(schedule.Priority(r.params.Priority)),
		schedule.WithVendors(r.parsed.Vendors),
		schedule.WithCalendar(r.cal),
	)
	plan := schedule.ShiftHolidays(s.Allocate(schedule.AggregateSKUs(lines)), r.cal)
	r.res.Schedule = &plan
	r.res.DailySummary = plan.DailySummary()
	r.res.SKUAssignments = plan.SKUAssignments(lines)
}

// deriveSKULines turns cycle 0 of each projection into a scheduling line when
// no SKU table was uploaded.
func deriveSKULines(projections []domain.Projection) []domain.SKULine {
	var lines []domain.SKULine
	for _, p := range projections {
		c0, ok := p.At(0)
		if !ok || p.VendorName == "" || c0.ReplenishmentQty <= 0 {
			continue
		}
		lines = append(lines, domain.SKULine{
			ProductID:  p.ProductID,
			VendorName: p.VendorName,
			LocationID: p.LocationID,
			StockWH:    c0.AssumedStock,
			SalesAvg:   c0.AvgDailyDemand,
			RLQty:      c0.ReplenishmentQty,
		})
	}
	return lines
}

func (r *planRun) inboundCalendar() {
	if !r.require("inbound calendar", ingest.KindInboundOrder, ingest.KindVendor) {
		return
	}
	to := r.asOf.AddDate(0, 0, r.params.CalendarDays-1)
	cal := schedule.ExpandInboundCalendar(r.parsed.InboundOrders, r.parsed.Vendors, r.asOf, to)
	r.res.InboundCalendar = &cal
}
