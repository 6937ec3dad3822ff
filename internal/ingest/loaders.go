package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Kind names an input table a session can hold.
type Kind string

const (
	KindStock            Kind = "stock"
	KindDemand           Kind = "demand"
	KindVendor           Kind = "vendor"
	KindHoliday          Kind = "holiday"
	KindCost             Kind = "cost"
	KindEstimatedSO      Kind = "estimated_so"
	KindCategoryForecast Kind = "category_forecast"
	KindSKU              Kind = "sku"
	KindInboundOrder     Kind = "inbound_order"
)

// Kinds lists every table kind in load order.
var Kinds = []Kind{
	KindStock, KindDemand, KindVendor, KindHoliday, KindCost,
	KindEstimatedSO, KindCategoryForecast, KindSKU, KindInboundOrder,
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown table kind %q", s)
}

var (
	StockSchema = Schema{Table: string(KindStock), Columns: []Column{
		{Name: "product_id", Aliases: []string{"sku", "item_id"}, Required: true},
		{Name: "product_name", Aliases: []string{"nama", "name"}},
		{Name: "location_id", Aliases: []string{"wh_id", "warehouse_id"}, Required: true},
		{Name: "primary_vendor_name", Aliases: []string{"vendor_name", "vendor", "supplier"}},
		{Name: "stock_wh", Aliases: []string{"stock", "stok", "stock_qty"}, Required: true},
		{Name: "ospo_qty", Aliases: []string{"quantity_po", "sedang_po", "incoming_po"}},
		{Name: "osrl_qty", Aliases: []string{"outstanding_rl"}},
		{Name: "ospr_qty", Aliases: []string{"outstanding_pr"}},
		{Name: "hub_qty", Aliases: []string{"sum of hub_qty", "stock_hub"}},
		{Name: "hub_in_transit", Aliases: []string{"stock_in_transit", "sit_qty"}},
		{Name: "reorder_point", Aliases: []string{"rop"}},
		{Name: "max_qty", Aliases: []string{"max_stock"}},
		{Name: "order_multiplier", Aliases: []string{"multiplier", "min_order", "moq"}},
		{Name: "avg_sales_final", Aliases: []string{"sales_avg", "avg_daily_sales", "daily_sales"}},
		{Name: "doi_policy"},
		{Name: "order_date"},
		{Name: "inbound_date"},
		{Name: "coverage_date"},
	}}

	DemandSchema = Schema{Table: string(KindDemand), Columns: []Column{
		{Name: "product_id", Required: true},
		{Name: "location_id", Aliases: []string{"wh_id"}, Required: true},
		{Name: "date_key", Aliases: []string{"date", "forecast_date"}, Required: true},
		{Name: "demand", Aliases: []string{"forecast", "qty", "forecast_qty"}, Required: true},
	}}

	VendorSchema = Schema{Table: string(KindVendor), Columns: []Column{
		{Name: "primary_vendor_name", Aliases: []string{"vendor_name", "vendor"}, Required: true},
		{Name: "location_id", Aliases: []string{"wh_id"}, Required: true},
		{Name: "order_frequency", Aliases: []string{"frequency", "freq"}},
		{Name: "mov", Aliases: []string{"min_order_value", "minimum_order_value"}},
		{Name: "lead_time", Aliases: []string{"ji", "lead_time_days"}},
		{Name: "inbound_day", Aliases: []string{"inbound_days", "delivery_day"}},
	}}

	HolidaySchema = Schema{Table: string(KindHoliday), Columns: []Column{
		{Name: "tgl_holiday", Aliases: []string{"holiday", "date"}, Required: true},
		{Name: "primary_vendor_name", Aliases: []string{"vendor_name", "vendor"}},
	}}

	CostSchema = Schema{Table: string(KindCost), Columns: []Column{
		{Name: "product_id", Required: true},
		{Name: "location_id", Aliases: []string{"wh_id"}},
		{Name: "primary_vendor_name", Aliases: []string{"vendor_name", "vendor"}},
		{Name: "cogs", Aliases: []string{"hpp", "unit_cost"}, Required: true},
		{Name: "pack_size", Aliases: []string{"carton_size", "case_pack"}},
		{Name: "holding_cost", Aliases: []string{"holding_cost_per_unit"}},
		{Name: "holding_cost_rate"},
		{Name: "ordering_cost", Aliases: []string{"order_cost"}},
		{Name: "demand_std_dev", Aliases: []string{"std_dev", "stddev"}},
	}}

	EstimatedSOSchema = Schema{Table: string(KindEstimatedSO), Columns: []Column{
		{Name: "wh_id", Aliases: []string{"location_id"}, Required: true},
		{Name: "hub_id", Required: true},
		{Name: "qty_so_final", Aliases: []string{"sum of qty_so_final"}, Required: true},
		{Name: "hub_qty", Aliases: []string{"sum of hub_qty"}},
		{Name: "hub_in_transit", Aliases: []string{"quantity", "stock_in_transit"}},
	}}

	CategoryForecastSchema = Schema{Table: string(KindCategoryForecast), Columns: []Column{
		{Name: "type", Aliases: []string{"category"}, Required: true},
		{Name: "date_key", Aliases: []string{"date"}},
		{Name: "demand", Aliases: []string{"qty", "forecast"}, Required: true},
	}}

	SKUSchema = Schema{Table: string(KindSKU), Columns: []Column{
		{Name: "product_id", Required: true},
		{Name: "primary_vendor_name", Aliases: []string{"vendor_name", "vendor"}, Required: true},
		{Name: "location_id", Aliases: []string{"wh_id"}, Required: true},
		{Name: "stock_wh", Aliases: []string{"stock"}},
		{Name: "sales_avg", Aliases: []string{"avg_sales_final", "avg_daily_sales"}},
		{Name: "rl_qty", Aliases: []string{"qty"}, Required: true},
	}}

	InboundOrderSchema = Schema{Table: string(KindInboundOrder), Columns: []Column{
		{Name: "product_id", Required: true},
		{Name: "product_name"},
		{Name: "location_id", Aliases: []string{"wh_id"}, Required: true},
		{Name: "primary_vendor_name", Aliases: []string{"vendor_name", "vendor"}, Required: true},
		{Name: "qty_order", Aliases: []string{"qty", "rl_qty"}, Required: true},
	}}
)

// Options carry the as-of date malformed dates are anchored to.
type Options struct {
	AsOf                    time.Time
	MalformedDateOffsetDays int
}

func (o Options) fallbackDate() time.Time {
	return domain.DateOnly(o.AsOf).AddDate(0, 0, o.MalformedDateOffsetDays)
}

func bind(t *Table, s Schema) (*Binding, error) {
	if t == nil {
		return nil, &domain.MissingInputError{Table: s.Table}
	}
	return s.Bind(t)
}

// rows walks t's records through b; row numbers are 1-based spreadsheet rows
// counting the header.
func rows(t *Table, b *Binding, repairs *[]domain.Repair, fn func(Row)) {
	for i, rec := range t.Rows {
		fn(b.Row(i+2, rec, repairs))
	}
}

func LoadPositions(t *Table, opts Options) ([]domain.StockPosition, []domain.Repair, error) {
	b, err := bind(t, StockSchema)
	if err != nil {
		return nil, nil, err
	}
	fallback := opts.fallbackDate()
	var repairs []domain.Repair
	out := make([]domain.StockPosition, 0, t.Len())
	rows(t, b, &repairs, func(r Row) {
		out = append(out, domain.StockPosition{
			ProductID:       r.Int("product_id"),
			ProductName:     r.String("product_name"),
			LocationID:      r.Int("location_id"),
			WarehouseID:     r.Int("location_id"),
			VendorName:      r.String("primary_vendor_name"),
			StockWH:         r.Float("stock_wh"),
			OSPOQty:         r.Float("ospo_qty"),
			OSRLQty:         r.Float("osrl_qty"),
			OSPRQty:         r.Float("ospr_qty"),
			HubStock:        r.Float("hub_qty"),
			HubInTransit:    r.Float("hub_in_transit"),
			ReorderPoint:    r.Float("reorder_point"),
			MaxQty:          r.Float("max_qty"),
			OrderMultiplier: r.Float("order_multiplier"),
			AvgDailySales:   r.Float("avg_sales_final"),
			DOIPolicy:       r.Float("doi_policy"),
			OrderDate:       r.Date("order_date", fallback),
			InboundDate:     r.Date("inbound_date", fallback),
			CoverageDate:    r.Date("coverage_date", fallback),
		}.Clipped())
	})
	return out, repairs, nil
}

// LoadDemand builds the per product × location forecast book. Rows whose date
// cannot be read are dropped and recorded.
func LoadDemand(t *Table) (*domain.DemandBook, []domain.Repair, error) {
	b, err := bind(t, DemandSchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	book := domain.NewDemandBook()
	rows(t, b, &repairs, func(r Row) {
		raw := r.String("date_key")
		date, ok := parseDate(raw)
		if !ok {
			r.repair("date_key", raw, "row skipped")
			return
		}
		key := domain.PositionKey{ProductID: r.Int("product_id"), LocationID: r.Int("location_id")}
		book.Add(key, date, r.Float("demand"))
	})
	return book, repairs, nil
}

func LoadVendors(t *Table) (*domain.VendorBook, []domain.Repair, error) {
	b, err := bind(t, VendorSchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	book := domain.NewVendorBook()
	rows(t, b, &repairs, func(r Row) {
		loc := domain.VendorLocation{
			LocationID:     r.Int("location_id"),
			OrderFrequency: r.Float("order_frequency"),
			MOV:            decimal.NewFromFloat(r.Float("mov")),
			LeadTimeDays:   int(r.Int("lead_time")),
		}
		if raw := r.String("inbound_day"); raw != "" {
			days, ok := parseWeekdays(raw)
			if ok {
				loc.InboundDays = days
			} else {
				r.repair("inbound_day", raw, "any day")
			}
		}
		book.Upsert(r.String("primary_vendor_name"), loc)
	})
	return book, repairs, nil
}

func LoadHolidays(t *Table) ([]domain.Holiday, []domain.Repair, error) {
	b, err := bind(t, HolidaySchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	var out []domain.Holiday
	rows(t, b, &repairs, func(r Row) {
		raw := r.String("tgl_holiday")
		date, ok := parseDate(raw)
		if !ok {
			r.repair("tgl_holiday", raw, "row skipped")
			return
		}
		out = append(out, domain.Holiday{Date: date, Vendor: r.String("primary_vendor_name")})
	})
	return out, repairs, nil
}

func LoadCosts(t *Table) ([]domain.CostRecord, []domain.Repair, error) {
	b, err := bind(t, CostSchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	out := make([]domain.CostRecord, 0, t.Len())
	rows(t, b, &repairs, func(r Row) {
		out = append(out, domain.CostRecord{
			ProductID:       r.Int("product_id"),
			LocationID:      r.Int("location_id"),
			VendorName:      r.String("primary_vendor_name"),
			COGS:            r.Float("cogs"),
			PackSize:        r.Float("pack_size"),
			HoldingCost:     r.Float("holding_cost"),
			HoldingCostRate: r.Float("holding_cost_rate"),
			OrderingCost:    r.Float("ordering_cost"),
			DemandStdDev:    r.Float("demand_std_dev"),
		})
	})
	return out, repairs, nil
}

func LoadHubHistory(t *Table) ([]domain.HubHistory, []domain.Repair, error) {
	b, err := bind(t, EstimatedSOSchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	out := make([]domain.HubHistory, 0, t.Len())
	rows(t, b, &repairs, func(r Row) {
		out = append(out, domain.HubHistory{
			WarehouseID:  r.Int("wh_id"),
			HubID:        r.Int("hub_id"),
			QtySOFinal:   r.Float("qty_so_final"),
			HubQty:       r.Float("hub_qty"),
			HubInTransit: r.Float("hub_in_transit"),
		})
	})
	return out, repairs, nil
}

// LoadCategoryForecast reads category demand. Rows without a date keep the
// zero time and count toward every window.
func LoadCategoryForecast(t *Table) ([]domain.CategoryForecast, []domain.Repair, error) {
	b, err := bind(t, CategoryForecastSchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	out := make([]domain.CategoryForecast, 0, t.Len())
	rows(t, b, &repairs, func(r Row) {
		row := domain.CategoryForecast{Category: r.String("type"), Qty: r.Float("demand")}
		if raw := r.String("date_key"); raw != "" {
			date, ok := parseDate(raw)
			if !ok {
				r.repair("date_key", raw, "row skipped")
				return
			}
			row.Date = date
		}
		out = append(out, row)
	})
	return out, repairs, nil
}

func LoadSKULines(t *Table) ([]domain.SKULine, []domain.Repair, error) {
	b, err := bind(t, SKUSchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	out := make([]domain.SKULine, 0, t.Len())
	rows(t, b, &repairs, func(r Row) {
		out = append(out, domain.SKULine{
			ProductID:  r.Int("product_id"),
			VendorName: r.String("primary_vendor_name"),
			LocationID: r.Int("location_id"),
			StockWH:    r.Float("stock_wh"),
			SalesAvg:   r.Float("sales_avg"),
			RLQty:      r.Float("rl_qty"),
		})
	})
	return out, repairs, nil
}

func LoadInboundOrders(t *Table) ([]domain.InboundOrder, []domain.Repair, error) {
	b, err := bind(t, InboundOrderSchema)
	if err != nil {
		return nil, nil, err
	}
	var repairs []domain.Repair
	out := make([]domain.InboundOrder, 0, t.Len())
	rows(t, b, &repairs, func(r Row) {
		out = append(out, domain.InboundOrder{
			ProductID:   r.Int("product_id"),
			ProductName: r.String("product_name"),
			LocationID:  r.Int("location_id"),
			VendorName:  r.String("primary_vendor_name"),
			Qty:         r.Float("qty_order"),
		})
	})
	return out, repairs, nil
}
