// Package eoq computes Economic Order Quantities and runs them through the
// ordering policy chain:
//
//	raw EOQ -> frequency cap -> minimum DOI floor -> safety stock
//	        -> MOV scale-up per vendor x location -> carton rounding
//
// Every stage is an exported pure function so it can be checked on its own.
package eoq

import (
	"math"
	"sort"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/pkg/numfmt"
)

// tolerance absorbs float residue when re-checking a stage that already ran,
// which keeps the cap and floor stages idempotent.
const tolerance = 1e-9

type Policy struct {
	PeriodDays           float64 `json:"period_days"`
	SafetyFactor         float64 `json:"safety_factor"`
	InflateDemand        bool    `json:"inflate_demand"`
	MaxOrdersPerPeriod   float64 `json:"max_orders_per_period"`
	MinDOIDays           float64 `json:"min_doi_days"`
	LeadTimeDays         float64 `json:"lead_time_days"`
	HoldingCostRate      float64 `json:"holding_cost_rate"`
	LaborCostPerHour     float64 `json:"labor_cost_per_hour"`
	HoursPerOrder        float64 `json:"hours_per_order"`
	SafetyStockBeforeMOV bool    `json:"safety_stock_before_mov"`
}

func DefaultPolicy() Policy {
	return Policy{
		PeriodDays:           365,
		SafetyFactor:         1.65,
		InflateDemand:        true,
		MaxOrdersPerPeriod:   12,
		MinDOIDays:           3,
		LeadTimeDays:         2,
		HoldingCostRate:      0.18,
		LaborCostPerHour:     15000,
		HoursPerOrder:        1,
		SafetyStockBeforeMOV: true,
	}
}

// Item is one product × location to size. DemandStdDev is per day.
type Item struct {
	ProductID       int64   `json:"product_id"`
	LocationID      int64   `json:"location_id"`
	VendorName      string  `json:"vendor_name"`
	AvgDailyDemand  float64 `json:"avg_daily_demand"`
	DemandStdDev    float64 `json:"demand_std_dev"`
	COGS            float64 `json:"cogs"`
	PackSize        float64 `json:"pack_size"`
	HoldingCost     float64 `json:"holding_cost"`
	HoldingCostRate float64 `json:"holding_cost_rate"`
	OrderingCost    float64 `json:"ordering_cost"`
	LeadTimeDays    float64 `json:"lead_time_days"`
}

type Result struct {
	Item
	AdjustedDemand     float64 `json:"adjusted_demand"`
	OrderingCostUsed   float64 `json:"ordering_cost_used"`
	HoldingCostUsed    float64 `json:"holding_cost_used"`
	RawEOQ             float64 `json:"raw_eoq"`
	FrequencyCappedEOQ float64 `json:"frequency_capped_eoq"`
	DOIFlooredEOQ      float64 `json:"doi_floored_eoq"`
	SafetyStock        float64 `json:"safety_stock"`
	LandedQty          float64 `json:"landed_qty"`
	LandedDOI          float64 `json:"landed_doi"`
	MOVScale           float64 `json:"mov_scale"`
	MOVAdjustedQty     float64 `json:"mov_adjusted_qty"`
	FinalQty           float64 `json:"final_qty"`
	ImpliedFrequency   float64 `json:"implied_frequency"`
	ZeroHoldingCost    bool    `json:"zero_holding_cost"`
	ZeroDemand         bool    `json:"zero_demand"`
}

// AdjustedDemand is period demand, optionally inflated by z·σ·√period.
func AdjustedDemand(item Item, policy Policy) float64 {
	period := policy.PeriodDays
	if period <= 0 {
		period = 365
	}
	d := math.Max(0, item.AvgDailyDemand) * period
	if policy.InflateDemand {
		d += policy.SafetyFactor * math.Max(0, item.DemandStdDev) * math.Sqrt(period)
	}
	return d
}

// RawEOQ is √(2DS/H). Non-positive demand or holding cost yields 0.
func RawEOQ(demand, orderingCost, holdingCost float64) float64 {
	if holdingCost <= 0 || demand <= 0 || orderingCost <= 0 {
		return 0
	}
	return math.Sqrt(2 * demand * orderingCost / holdingCost)
}

// CapFrequency raises eoq so demand/eoq never exceeds maxOrders. Applying it
// to its own output changes nothing.
func CapFrequency(eoq, demand, maxOrders float64) float64 {
	if eoq <= 0 || demand <= 0 || maxOrders <= 0 {
		return eoq
	}
	freq := demand / eoq
	if freq <= maxOrders*(1+tolerance) {
		return eoq
	}
	return eoq * freq / maxOrders
}

// FloorDOI bumps eoq by the shortfall in days × daily demand when it covers
// fewer than minDOI days.
func FloorDOI(eoq, dailyDemand, minDOI float64) float64 {
	if dailyDemand <= 0 || minDOI <= 0 {
		return eoq
	}
	doi := eoq / dailyDemand
	if doi >= minDOI*(1-tolerance) {
		return eoq
	}
	return eoq + (minDOI-doi)*dailyDemand
}

// SafetyStock is z·σ·√lead.
func SafetyStock(z, stdDev, leadTimeDays float64) float64 {
	if z <= 0 || stdDev <= 0 || leadTimeDays <= 0 {
		return 0
	}
	return z * stdDev * math.Sqrt(leadTimeDays)
}

// RoundToCarton rounds qty up to a whole number of cartons. Without a pack
// size it rounds up to whole units.
func RoundToCarton(qty, packSize float64) float64 {
	if qty <= 0 {
		return 0
	}
	if packSize <= 0 {
		packSize = 1
	}
	return math.Ceil(qty/packSize-tolerance) * packSize
}

// Calculator runs the full chain for a batch of items.
type Calculator struct {
	policy  Policy
	vendors *domain.VendorBook
}

func NewCalculator(policy Policy, vendors *domain.VendorBook) *Calculator {
	return &Calculator{policy: policy, vendors: vendors}
}

func (c *Calculator) Policy() Policy { return c.policy }

// Compute sizes every item and applies the vendor MOV adjustment. Results are
// ordered by product then location.
func (c *Calculator) Compute(items []Item) ([]Result, []MOVShortfall) {
	sorted := append([]Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].LocationID < sorted[j].LocationID
	})

	results := make([]Result, len(sorted))
	lines := make([]MOVLine, len(sorted))
	for i, item := range sorted {
		r := c.size(item)
		results[i] = r

		base := r.DOIFlooredEOQ
		if c.policy.SafetyStockBeforeMOV {
			base = r.LandedQty
		}
		lines[i] = MOVLine{VendorName: item.VendorName, LocationID: item.LocationID, Qty: base, COGS: item.COGS}
	}

	scaled, shortfalls := AdjustForMOV(lines, c.vendors)
	for i := range results {
		r := &results[i]
		r.MOVScale = scaled[i].Scale
		r.MOVAdjustedQty = scaled[i].Qty
		if !c.policy.SafetyStockBeforeMOV {
			r.MOVAdjustedQty += r.SafetyStock
		}
		r.FinalQty = RoundToCarton(r.MOVAdjustedQty, r.PackSize)
	}
	return results, shortfalls
}

func (c *Calculator) size(item Item) Result {
	p := c.policy
	r := Result{Item: item}

	r.OrderingCostUsed = item.OrderingCost
	if r.OrderingCostUsed <= 0 {
		r.OrderingCostUsed = p.LaborCostPerHour * p.HoursPerOrder
	}
	r.HoldingCostUsed = item.HoldingCost
	if r.HoldingCostUsed <= 0 {
		rate := item.HoldingCostRate
		if rate <= 0 {
			rate = p.HoldingCostRate
		}
		r.HoldingCostUsed = item.COGS * rate
	}
	lead := item.LeadTimeDays
	if lead <= 0 {
		lead = p.LeadTimeDays
	}

	r.AdjustedDemand = AdjustedDemand(item, p)
	r.ZeroDemand = r.AdjustedDemand <= 0
	r.ZeroHoldingCost = r.HoldingCostUsed <= 0

	// 1. Raw EOQ = sqrt(2DS/H)
	r.RawEOQ = RawEOQ(r.AdjustedDemand, r.OrderingCostUsed, r.HoldingCostUsed)
	// 2. Never order more often than the cap allows
	r.FrequencyCappedEOQ = CapFrequency(r.RawEOQ, r.AdjustedDemand, p.MaxOrdersPerPeriod)
	// 3. Cover at least the minimum days of inventory
	r.DOIFlooredEOQ = FloorDOI(r.FrequencyCappedEOQ, item.AvgDailyDemand, p.MinDOIDays)
	// 4. Safety stock rides on top for the landed quantity
	r.SafetyStock = SafetyStock(p.SafetyFactor, item.DemandStdDev, lead)
	r.LandedQty = r.DOIFlooredEOQ + r.SafetyStock

	if item.AvgDailyDemand > 0 {
		r.LandedDOI = r.LandedQty / item.AvgDailyDemand
	}
	if r.DOIFlooredEOQ > 0 {
		r.ImpliedFrequency = r.AdjustedDemand / r.DOIFlooredEOQ
	}
	return r
}

// DynamicParams are the inputs of the single-item calculator planners use to
// sanity-check an order size.
type DynamicParams struct {
	ForecastDemand   float64 `json:"forecast_demand"`
	DemandStdDev     float64 `json:"demand_std_dev"`
	SafetyFactor     float64 `json:"safety_factor"`
	LaborCostPerHour float64 `json:"labor_cost_per_hour"`
	HoursPerOrder    float64 `json:"hours_per_order"`
	COGS             float64 `json:"cogs"`
	HoldingCostRate  float64 `json:"holding_cost_rate"`
}

// DynamicEOQ inflates forecast demand by z·σ, prices the order by labour time
// and holding by a COGS rate, and rounds to two decimals.
func DynamicEOQ(p DynamicParams) float64 {
	demand := p.ForecastDemand + p.SafetyFactor*p.DemandStdDev
	orderCost := p.LaborCostPerHour * p.HoursPerOrder
	holding := p.COGS * p.HoldingCostRate
	return numfmt.Round(RawEOQ(demand, orderCost, holding), 2)
}
