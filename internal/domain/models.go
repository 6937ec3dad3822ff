// planner-go/internal/domain/models.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PositionKey identifies a product at a warehouse location.
type PositionKey struct {
	ProductID  int64 `json:"product_id"`
	LocationID int64 `json:"location_id"`
}

// StockPosition is the stock state of one product at one location as of the plan date.
type StockPosition struct {
	ProductID       int64     `json:"product_id" db:"product_id"`
	ProductName     string    `json:"product_name" db:"product_name"`
	LocationID      int64     `json:"location_id" db:"location_id"`
	WarehouseID     int64     `json:"warehouse_id" db:"warehouse_id"`
	VendorName      string    `json:"vendor_name" db:"vendor_name"`
	StockWH         float64   `json:"stock_wh" db:"stock_wh"`
	OSPOQty         float64   `json:"ospo_qty" db:"ospo_qty"`
	OSRLQty         float64   `json:"osrl_qty" db:"osrl_qty"`
	OSPRQty         float64   `json:"ospr_qty" db:"ospr_qty"`
	HubStock        float64   `json:"hub_stock" db:"hub_stock"`
	HubInTransit    float64   `json:"hub_in_transit" db:"hub_in_transit"`
	ReorderPoint    float64   `json:"reorder_point" db:"reorder_point"`
	MaxQty          float64   `json:"max_qty" db:"max_qty"`
	OrderMultiplier float64   `json:"order_multiplier" db:"order_multiplier"`
	AvgDailySales   float64   `json:"avg_daily_sales" db:"avg_daily_sales"`
	DOIPolicy       float64   `json:"doi_policy" db:"doi_policy"`
	OrderDate       time.Time `json:"order_date" db:"order_date"`
	InboundDate     time.Time `json:"inbound_date" db:"inbound_date"`
	CoverageDate    time.Time `json:"coverage_date" db:"coverage_date"`
}

func (p StockPosition) Key() PositionKey {
	return PositionKey{ProductID: p.ProductID, LocationID: p.LocationID}
}

// Clipped returns a copy with every quantity floored at zero.
func (p StockPosition) Clipped() StockPosition {
	p.StockWH = nonNegative(p.StockWH)
	p.OSPOQty = nonNegative(p.OSPOQty)
	p.OSRLQty = nonNegative(p.OSRLQty)
	p.OSPRQty = nonNegative(p.OSPRQty)
	p.HubStock = nonNegative(p.HubStock)
	p.HubInTransit = nonNegative(p.HubInTransit)
	p.ReorderPoint = nonNegative(p.ReorderPoint)
	p.MaxQty = nonNegative(p.MaxQty)
	p.OrderMultiplier = nonNegative(p.OrderMultiplier)
	p.AvgDailySales = nonNegative(p.AvgDailySales)
	p.DOIPolicy = nonNegative(p.DOIPolicy)
	return p
}

// IsOOS reports a position with nothing on hand and nothing inbound. Which
// outstanding quantities count as inbound is the caller's incoming policy.
func (p StockPosition) IsOOS(incoming float64) bool {
	return p.StockWH <= 0 && incoming <= 0
}

// VendorLocation is a vendor's ordering terms at one warehouse location.
type VendorLocation struct {
	LocationID     int64           `json:"location_id"`
	OrderFrequency float64         `json:"order_frequency"`
	MOV            decimal.Decimal `json:"mov"`
	LeadTimeDays   int             `json:"lead_time_days"`
	InboundDays    []time.Weekday  `json:"inbound_days,omitempty"`
}

// AllowsWeekday reports whether a delivery may land on d. An empty inbound
// table allows every day.
func (l VendorLocation) AllowsWeekday(d time.Weekday) bool {
	return len(l.InboundDays) == 0 || containsWeekday(l.InboundDays, d)
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, w := range days {
		if w == d {
			return true
		}
	}
	return false
}

type VendorProfile struct {
	Name      string                   `json:"name"`
	Locations map[int64]VendorLocation `json:"locations"`
}

// VendorBook indexes vendor profiles by normalized vendor name.
type VendorBook struct {
	profiles map[string]*VendorProfile
}

func NewVendorBook() *VendorBook {
	return &VendorBook{profiles: make(map[string]*VendorProfile)}
}

// Upsert merges a location entry into the vendor's profile. Inbound weekdays
// accumulate across rows.
func (b *VendorBook) Upsert(name string, loc VendorLocation) {
	key := NormalizeVendor(name)
	if key == "" {
		return
	}
	p, ok := b.profiles[key]
	if !ok {
		p = &VendorProfile{Name: strings.TrimSpace(name), Locations: make(map[int64]VendorLocation)}
		b.profiles[key] = p
	}
	existing, ok := p.Locations[loc.LocationID]
	if !ok {
		p.Locations[loc.LocationID] = loc
		return
	}
	if loc.OrderFrequency > 0 {
		existing.OrderFrequency = loc.OrderFrequency
	}
	if !loc.MOV.IsZero() {
		existing.MOV = loc.MOV
	}
	if loc.LeadTimeDays > 0 {
		existing.LeadTimeDays = loc.LeadTimeDays
	}
	for _, d := range loc.InboundDays {
		if !containsWeekday(existing.InboundDays, d) {
			existing.InboundDays = append(existing.InboundDays, d)
		}
	}
	p.Locations[loc.LocationID] = existing
}

func (b *VendorBook) Location(vendor string, locationID int64) (VendorLocation, bool) {
	if b == nil {
		return VendorLocation{}, false
	}
	p, ok := b.profiles[NormalizeVendor(vendor)]
	if !ok {
		return VendorLocation{}, false
	}
	loc, ok := p.Locations[locationID]
	return loc, ok
}

func (b *VendorBook) Len() int {
	if b == nil {
		return 0
	}
	return len(b.profiles)
}

// NormalizeVendor is the join key used between vendor, SKU and holiday tables.
func NormalizeVendor(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// Holiday excludes a date from delivery. An empty Vendor applies to everyone.
type Holiday struct {
	Date   time.Time `json:"date"`
	Vendor string    `json:"vendor,omitempty"`
}

// CostRecord feeds the EOQ calculator. LocationID 0 applies to every location.
type CostRecord struct {
	ProductID       int64   `json:"product_id"`
	LocationID      int64   `json:"location_id"`
	VendorName      string  `json:"vendor_name"`
	COGS            float64 `json:"cogs"`
	PackSize        float64 `json:"pack_size"`
	HoldingCost     float64 `json:"holding_cost"`
	HoldingCostRate float64 `json:"holding_cost_rate"`
	OrderingCost    float64 `json:"ordering_cost"`
	DemandStdDev    float64 `json:"demand_std_dev"`
}

// HubHistory is one warehouse × hub row of the SQL-estimated sales order table.
type HubHistory struct {
	WarehouseID  int64   `json:"wh_id" db:"wh_id"`
	HubID        int64   `json:"hub_id" db:"hub_id"`
	QtySOFinal   float64 `json:"qty_so_final" db:"qty_so_final"`
	HubQty       float64 `json:"hub_qty" db:"hub_qty"`
	HubInTransit float64 `json:"hub_in_transit" db:"hub_in_transit"`
}

// CategoryForecast is one dated row of the aggregate demand forecast.
type CategoryForecast struct {
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
	Qty      float64   `json:"qty"`
}

// SKULine is one product row of the vendor scheduling input.
type SKULine struct {
	ProductID  int64   `json:"product_id"`
	VendorName string  `json:"vendor_name"`
	LocationID int64   `json:"location_id"`
	StockWH    float64 `json:"stock_wh"`
	SalesAvg   float64 `json:"sales_avg"`
	RLQty      float64 `json:"rl_qty"`
}

// InboundOrder is an order quantity to be spread over a vendor's inbound weekdays.
type InboundOrder struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	LocationID  int64   `json:"location_id"`
	VendorName  string  `json:"vendor_name"`
	Qty         float64 `json:"qty"`
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
