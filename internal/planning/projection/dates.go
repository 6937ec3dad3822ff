package projection

import (
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// baseline holds cycle 0's unshifted dates and the gaps every later cycle reuses.
type baseline struct {
	order    time.Time
	leadTime int // JI: order to inbound
	tail     int // inbound to coverage
	gap      int // order to coverage
}

func (e *Engine) baseDates(pos domain.StockPosition) baseline {
	order := domain.DateOnly(pos.OrderDate)
	if pos.OrderDate.IsZero() {
		order = e.params.AsOf
	}

	lead := -1
	if loc, ok := e.vendors.Location(pos.VendorName, pos.LocationID); ok && loc.LeadTimeDays > 0 {
		lead = loc.LeadTimeDays
	}
	if lead < 0 && !pos.InboundDate.IsZero() {
		lead = domain.DaysBetween(order, pos.InboundDate)
	}
	if lead < 0 {
		lead = e.params.DefaultLeadTimeDays
	}
	lead = max(0, lead)

	var gap int
	if pos.CoverageDate.IsZero() {
		gap = max(e.params.DefaultCoverageGapDays, lead)
	} else {
		gap = domain.DaysBetween(order, pos.CoverageDate)
	}
	gap = max(gap, lead)

	return baseline{order: order, leadTime: lead, tail: gap - lead, gap: gap}
}

// cadence is the day count between consecutive cycles.
func (e *Engine) cadence(b baseline) int {
	if e.params.PeriodDays > 0 {
		return e.params.PeriodDays
	}
	return max(1, b.gap)
}

// cycleDates derives cycle i's dates. With a calendar, order and inbound dates
// move forward past Sundays and holidays; coverage keeps the baseline tail
// after inbound, so a late inbound widens the coverage gap.
func (e *Engine) cycleDates(b baseline, i, period int, vendor string) domain.Cycle {
	order := b.order.AddDate(0, 0, i*period)
	if e.calendar != nil {
		order = e.calendar.NextWorkday(order, vendor)
	}
	inbound := order.AddDate(0, 0, b.leadTime)
	if e.calendar != nil {
		inbound = e.calendar.NextWorkday(inbound, vendor)
	}
	return domain.Cycle{
		Index:        i,
		OrderDate:    order,
		InboundDate:  inbound,
		CoverageDate: inbound.AddDate(0, 0, b.tail),
	}
}
