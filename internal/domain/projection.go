package domain

import (
	"strconv"
	"time"
)

// Cycle is one ordering step in the planning horizon; index 0 is the current cycle.
type Cycle struct {
	Index        int       `json:"index"`
	OrderDate    time.Time `json:"order_date"`
	InboundDate  time.Time `json:"inbound_date"`
	CoverageDate time.Time `json:"coverage_date"`
}

// CoverageGapDays is the order-to-coverage span the cycle's stock has to cover.
func (c Cycle) CoverageGapDays() int {
	return DaysBetween(c.OrderDate, c.CoverageDate)
}

// LeadTimeDays is JI, the order-to-inbound gap.
func (c Cycle) LeadTimeDays() int {
	return DaysBetween(c.OrderDate, c.InboundDate)
}

func (c Cycle) WellFormed() bool {
	return !c.InboundDate.Before(c.OrderDate) && !c.CoverageDate.Before(c.InboundDate)
}

// CycleProjection is the derived state of one cycle. Values are never changed
// after the engine emits them.
type CycleProjection struct {
	Cycle              Cycle   `json:"cycle"`
	AvgDailyDemand     float64 `json:"avg_daily_demand"`
	DemandFromForecast bool    `json:"demand_from_forecast"`
	MaxStock           float64 `json:"max_stock"`
	AssumedStock       float64 `json:"assumed_stock"`
	AssumedIncoming    float64 `json:"assumed_incoming"`
	ReplenishmentQty   float64 `json:"replenishment_qty"`
	LandedDOI          float64 `json:"landed_doi"`
	ZeroDemand         bool    `json:"zero_demand"`
}

// Status classifies the cycle for reporting.
func (c CycleProjection) Status() CoverageStatus {
	switch {
	case c.AssumedStock == 0 && c.LandedDOI == 0:
		return CoverageOutOfStock
	case c.AssumedStock > 0 && c.LandedDOI == 0:
		return CoverageNeedsQuantity
	default:
		return CoverageCovered
	}
}

// StatusLabel is the label shown in reports: a warning text or the numeric DOI.
func (c CycleProjection) StatusLabel() string {
	return c.Status().Label(c.LandedDOI)
}

// Projection is the full replayed recurrence for one product × location.
type Projection struct {
	ProductID   int64             `json:"product_id"`
	ProductName string            `json:"product_name,omitempty"`
	LocationID  int64             `json:"location_id"`
	VendorName  string            `json:"vendor_name,omitempty"`
	DOIPolicy   float64           `json:"doi_policy"`
	PeriodDays  int               `json:"period_days"`
	Cycles      []CycleProjection `json:"cycles"`
}

func (p Projection) Key() PositionKey {
	return PositionKey{ProductID: p.ProductID, LocationID: p.LocationID}
}

// At returns cycle i, if the horizon reaches it.
func (p Projection) At(i int) (CycleProjection, bool) {
	if i < 0 || i >= len(p.Cycles) {
		return CycleProjection{}, false
	}
	return p.Cycles[i], true
}

// Terminal returns the last projected cycle.
func (p Projection) Terminal() CycleProjection {
	if len(p.Cycles) == 0 {
		return CycleProjection{}
	}
	return p.Cycles[len(p.Cycles)-1]
}

func (p Projection) Status() CoverageStatus {
	return p.Terminal().Status()
}

// CoverageStatus is the terminal classification of a projection.
type CoverageStatus string

const (
	CoverageOutOfStock    CoverageStatus = "out_of_stock"
	CoverageNeedsQuantity CoverageStatus = "needs_quantity"
	CoverageCovered       CoverageStatus = "covered"
)

var coverageLabels = map[CoverageStatus]string{
	CoverageOutOfStock:    "currently out of stock at warehouse",
	CoverageNeedsQuantity: "needs additional coverage/quantity",
}

// Label returns the report text for the status. Covered cycles report their DOI.
func (s CoverageStatus) Label(doi float64) string {
	if label, ok := coverageLabels[s]; ok {
		return label
	}
	return strconv.FormatFloat(doi, 'f', 2, 64)
}
