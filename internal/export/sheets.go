// Package export renders plan results as flat tables and writes them as CSV
// or a multi-sheet XLSX workbook.
package export

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/allocator"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/eoq"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/schedule"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
)

const calendarDateLayout = "02-Jan-2006"

// Sheet is one exportable table. Cells hold string, int64, float64, bool,
// time.Time or decimal.Decimal values.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Namer resolves display names for warehouse and hub IDs.
type Namer interface {
	WarehouseName(id int64) string
	HubName(id int64) string
}

type noNames struct{}

func (noNames) WarehouseName(int64) string { return "" }
func (noNames) HubName(int64) string       { return "" }

func orNoNames(n Namer) Namer {
	if n == nil {
		return noNames{}
	}
	return n
}

const (
	TableProjection      = "projection"
	TableEOQ             = "eoq"
	TableMOV             = "mov"
	TableAllocation      = "allocation"
	TableHubs            = "hubs"
	TableSchedule        = "schedule"
	TableDailySummary    = "daily_summary"
	TableSKUAssignments  = "sku_assignments"
	TableUnallocated     = "unallocated"
	TableInboundCalendar = "inbound_calendar"
)

// Tables lists the export names in workbook order.
var Tables = []string{
	TableProjection,
	TableEOQ,
	TableMOV,
	TableAllocation,
	TableHubs,
	TableSchedule,
	TableDailySummary,
	TableSKUAssignments,
	TableUnallocated,
	TableInboundCalendar,
}

// FromResult builds every non-empty sheet of a plan result.
func FromResult(res *service.Result, names Namer) []Sheet {
	names = orNoNames(names)
	var sheets []Sheet
	add := func(s Sheet) {
		if len(s.Rows) > 0 {
			sheets = append(sheets, s)
		}
	}

	add(ProjectionSheet(res.Projections, names))
	add(EOQSheet(res.EOQ))
	add(MOVSheet(res.MOV))
	add(AllocationSheet(res.Warehouses, names))
	add(HubSheet(res.Hubs, names))
	if res.Schedule != nil {
		add(ScheduleSheet(*res.Schedule, names))
		add(UnallocatedSheet(res.Schedule.Unallocated, names))
	}
	add(DailySummarySheet(res.DailySummary, names))
	add(SKUAssignmentSheet(res.SKUAssignments))
	if res.InboundCalendar != nil {
		add(InboundCalendarSheet(*res.InboundCalendar))
	}
	return sheets
}

// Select returns the sheet with the given table name.
func Select(sheets []Sheet, table string) (Sheet, error) {
	for _, s := range sheets {
		if s.Name == table {
			return s, nil
		}
	}
	return Sheet{}, fmt.Errorf("table %q is not available; have %s", table, strings.Join(sheetNames(sheets), ", "))
}

func sheetNames(sheets []Sheet) []string {
	out := make([]string, len(sheets))
	for i, s := range sheets {
		out[i] = s.Name
	}
	return out
}

// ProjectionSheet is the long format: one row per position and cycle.
func ProjectionSheet(projections []domain.Projection, names Namer) Sheet {
	names = orNoNames(names)
	s := Sheet{
		Name: TableProjection,
		Header: []string{
			"product_id", "product_name", "location_id", "location_name", "primary_vendor_name",
			"cycle", "order_date", "inbound_date", "coverage_date",
			"avg_daily_demand", "demand_from_forecast", "max_stock", "assumed_stock",
			"assumed_incoming", "replenishment_qty", "landed_doi", "status",
		},
	}
	for _, p := range projections {
		for _, c := range p.Cycles {
			s.Rows = append(s.Rows, []any{
				p.ProductID, p.ProductName, p.LocationID, names.WarehouseName(p.LocationID), p.VendorName,
				int64(c.Cycle.Index), c.Cycle.OrderDate, c.Cycle.InboundDate, c.Cycle.CoverageDate,
				c.AvgDailyDemand, c.DemandFromForecast, c.MaxStock, c.AssumedStock,
				c.AssumedIncoming, c.ReplenishmentQty, c.LandedDOI, c.StatusLabel(),
			})
		}
	}
	return s
}

func EOQSheet(results []eoq.Result) Sheet {
	s := Sheet{
		Name: TableEOQ,
		Header: []string{
			"product_id", "location_id", "primary_vendor_name", "avg_daily_demand", "demand_std_dev",
			"cogs", "pack_size", "adjusted_demand", "ordering_cost", "holding_cost",
			"raw_eoq", "frequency_capped_eoq", "doi_floored_eoq", "safety_stock",
			"landed_qty", "landed_doi", "mov_scale", "mov_adjusted_qty", "final_qty",
			"implied_frequency", "zero_demand", "zero_holding_cost",
		},
	}
	for _, r := range results {
		s.Rows = append(s.Rows, []any{
			r.ProductID, r.LocationID, r.VendorName, r.AvgDailyDemand, r.DemandStdDev,
			r.COGS, r.PackSize, r.AdjustedDemand, r.OrderingCostUsed, r.HoldingCostUsed,
			r.RawEOQ, r.FrequencyCappedEOQ, r.DOIFlooredEOQ, r.SafetyStock,
			r.LandedQty, r.LandedDOI, r.MOVScale, r.MOVAdjustedQty, r.FinalQty,
			r.ImpliedFrequency, r.ZeroDemand, r.ZeroHoldingCost,
		})
	}
	return s
}

func MOVSheet(shortfalls []eoq.MOVShortfall) Sheet {
	s := Sheet{
		Name:   TableMOV,
		Header: []string{"primary_vendor_name", "location_id", "items", "order_value", "mov", "shortfall", "scale_ratio", "meets_mov", "unscalable"},
	}
	for _, m := range shortfalls {
		s.Rows = append(s.Rows, []any{
			m.VendorName, m.LocationID, int64(m.Items), m.OrderValue, m.MOV, m.Shortfall, m.ScaleRatio, m.Meets, m.Unscalable,
		})
	}
	return s
}

func AllocationSheet(rows []allocator.WarehouseDemand, names Namer) Sheet {
	names = orNoNames(names)
	s := Sheet{
		Name:   TableAllocation,
		Header: []string{"category", "warehouse_id", "warehouse_name", "qty"},
	}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.Category, r.WarehouseID, names.WarehouseName(r.WarehouseID), r.Qty})
	}
	return s
}

func HubSheet(hubs []allocator.HubDemand, names Namer) Sheet {
	names = orNoNames(names)
	s := Sheet{
		Name: TableHubs,
		Header: []string{
			"wh_id", "warehouse_name", "hub_id", "hub_name", "qty_so_final", "share",
			"forecast_based_so", "final_so_qty", "hub_stock", "coverage",
		},
	}
	for _, h := range hubs {
		hubName := h.HubName
		if hubName == "" {
			hubName = names.HubName(h.HubID)
		}
		s.Rows = append(s.Rows, []any{
			h.WarehouseID, names.WarehouseName(h.WarehouseID), h.HubID, hubName, h.HistoricalQty, h.Share,
			h.ForecastQty, h.FinalSOQty, h.HubStock, h.Coverage,
		})
	}
	return s
}

func ScheduleSheet(plan schedule.Plan, names Namer) Sheet {
	names = orNoNames(names)
	s := Sheet{
		Name:   TableSchedule,
		Header: []string{"primary_vendor_name", "location_id", "location_name", "allocated_date", "adjusted_inbound_date", "qty", "doi_left"},
	}
	for _, a := range plan.Allocations {
		s.Rows = append(s.Rows, []any{
			a.VendorName, a.LocationID, names.WarehouseName(a.LocationID), a.Date, a.AdjustedDate, a.Qty, a.DOILeft,
		})
	}
	return s
}

func UnallocatedSheet(rows []schedule.Unallocated, names Namer) Sheet {
	names = orNoNames(names)
	s := Sheet{
		Name:   TableUnallocated,
		Header: []string{"primary_vendor_name", "location_id", "location_name", "qty", "reason"},
	}
	for _, u := range rows {
		s.Rows = append(s.Rows, []any{u.VendorName, u.LocationID, names.WarehouseName(u.LocationID), u.Qty, u.Reason})
	}
	return s
}

func DailySummarySheet(totals []schedule.DailyTotal, names Namer) Sheet {
	names = orNoNames(names)
	s := Sheet{
		Name:   TableDailySummary,
		Header: []string{"date", "location_id", "location_name", "total_allocated_qty", "vendors"},
	}
	for _, d := range totals {
		s.Rows = append(s.Rows, []any{d.Date, d.LocationID, names.WarehouseName(d.LocationID), d.Qty, int64(d.Vendors)})
	}
	return s
}

func SKUAssignmentSheet(rows []schedule.SKUAssignment) Sheet {
	s := Sheet{
		Name:   TableSKUAssignments,
		Header: []string{"product_id", "primary_vendor_name", "location_id", "rl_qty", "allocated_date", "adjusted_inbound_date", "scheduled"},
	}
	for _, a := range rows {
		s.Rows = append(s.Rows, []any{a.ProductID, a.VendorName, a.LocationID, a.RLQty, a.AllocatedDate, a.AdjustedInboundDate, a.Scheduled})
	}
	return s
}

// InboundCalendarSheet puts one column per calendar date after the product columns.
func InboundCalendarSheet(cal schedule.InboundCalendar) Sheet {
	s := Sheet{
		Name:   TableInboundCalendar,
		Header: []string{"product_id", "product_name", "location_id", "primary_vendor_name"},
	}
	for _, d := range cal.Dates {
		s.Header = append(s.Header, d.Format(calendarDateLayout))
	}
	for _, r := range cal.Rows {
		row := make([]any, 0, len(s.Header))
		row = append(row, r.ProductID, r.ProductName, r.LocationID, r.VendorName)
		for _, q := range r.Qty {
			row = append(row, q)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}
