// Package schedule assigns vendor deliveries to days of the planning week
// without exceeding each warehouse's daily intake cap.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/calendar"
	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// deliveryDays is Monday to Saturday.
const deliveryDays = 6

// Priority decides which vendor gets first pick of the days.
type Priority string

const (
	PriorityLargestFirst Priority = "largest_first"
	PriorityLowestDOI    Priority = "lowest_doi"
)

func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriorityLargestFirst:
		return PriorityLargestFirst, nil
	case PriorityLowestDOI:
		return PriorityLowestDOI, nil
	}
	return "", fmt.Errorf("unknown schedule priority %q", s)
}

// VendorDemand is the aggregated quantity one vendor ships to one location.
type VendorDemand struct {
	VendorName string  `json:"vendor_name"`
	LocationID int64   `json:"location_id"`
	Qty        float64 `json:"qty"`
	DOILeft    float64 `json:"doi_left"`
	SKUCount   int     `json:"sku_count"`
}

type Allocation struct {
	VendorName   string    `json:"vendor_name"`
	LocationID   int64     `json:"location_id"`
	Date         time.Time `json:"allocated_date"`
	AdjustedDate time.Time `json:"adjusted_inbound_date"`
	Qty          float64   `json:"qty"`
	DOILeft      float64   `json:"doi_left"`
}

// Unallocated is a vendor no day of the week could take.
type Unallocated struct {
	VendorName string  `json:"vendor_name"`
	LocationID int64   `json:"location_id"`
	Qty        float64 `json:"qty"`
	Reason     string  `json:"reason"`
}

const (
	ReasonExceedsCapacity = "quantity exceeds the daily capacity of the location"
	ReasonNoInboundDay    = "no allowed inbound day in the planning week"
	ReasonWeekFull        = "no day with enough remaining capacity"
)

type Plan struct {
	WeekStart   time.Time     `json:"week_start"`
	Allocations []Allocation  `json:"allocations"`
	Unallocated []Unallocated `json:"unallocated"`
}

type Scheduler struct {
	weekStart       time.Time
	capacities      map[int64]float64
	defaultCapacity float64
	priority        Priority
	vendors         *domain.VendorBook
	calendar        *calendar.Calendar
}

type Option func(*Scheduler)

// WithCapacities sets the per-location daily caps and the cap for locations not listed.
func WithCapacities(caps map[int64]float64, defaultCapacity float64) Option {
	return func(s *Scheduler) {
		s.capacities = make(map[int64]float64, len(caps))
		for id, c := range caps {
			s.capacities[id] = c
		}
		if defaultCapacity > 0 {
			s.defaultCapacity = defaultCapacity
		}
	}
}

func WithPriority(p Priority) Option {
	return func(s *Scheduler) {
		if p != "" {
			s.priority = p
		}
	}
}

// WithVendors restricts each vendor location to its configured inbound weekdays.
func WithVendors(v *domain.VendorBook) Option {
	return func(s *Scheduler) { s.vendors = v }
}

func WithCalendar(c *calendar.Calendar) Option {
	return func(s *Scheduler) { s.calendar = c }
}

// New plans the Monday to Saturday week that contains asOf.
func New(asOf time.Time, opts ...Option) *Scheduler {
	s := &Scheduler{
		weekStart:       calendar.WeekStart(asOf),
		capacities:      map[int64]float64{},
		defaultCapacity: 165000,
		priority:        PriorityLargestFirst,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) WeekStart() time.Time { return s.weekStart }

func (s *Scheduler) Capacity(locationID int64) float64 {
	if c, ok := s.capacities[locationID]; ok && c > 0 {
		return c
	}
	return s.defaultCapacity
}

// Days lists the candidate delivery days in order.
func (s *Scheduler) Days() []time.Time {
	days := make([]time.Time, 0, deliveryDays)
	for i := 0; i < deliveryDays; i++ {
		days = append(days, s.weekStart.AddDate(0, 0, i))
	}
	return days
}

type dayLoad struct {
	location int64
	date     time.Time
}

// Allocate places each vendor on the earliest open day with room left at its
// location. A placed day is never a Sunday or a holiday for that vendor, so
// ShiftHolidays leaves it in place and the location's daily total stays
// within its cap.
func (s *Scheduler) Allocate(demands []VendorDemand) Plan {
	ordered := s.order(demands)
	plan := Plan{WeekStart: s.weekStart}
	load := make(map[dayLoad]float64)
	days := s.Days()

	for _, d := range ordered {
		qty := d.Qty
		if qty < 0 {
			qty = 0
		}
		limit := s.Capacity(d.LocationID)
		if qty > limit {
			plan.Unallocated = append(plan.Unallocated, Unallocated{VendorName: d.VendorName, LocationID: d.LocationID, Qty: qty, Reason: ReasonExceedsCapacity})
			continue
		}

		loc, hasTerms := s.vendors.Location(d.VendorName, d.LocationID)
		placed, open := false, false
		for _, day := range days {
			if !s.calendar.IsWorkday(day, d.VendorName) {
				continue
			}
			if hasTerms && !loc.AllowsWeekday(day.Weekday()) {
				continue
			}
			open = true
			k := dayLoad{location: d.LocationID, date: day}
			if load[k]+qty > limit {
				continue
			}
			load[k] += qty
			plan.Allocations = append(plan.Allocations, Allocation{
				VendorName:   d.VendorName,
				LocationID:   d.LocationID,
				Date:         day,
				AdjustedDate: day,
				Qty:          qty,
				DOILeft:      d.DOILeft,
			})
			placed = true
			break
		}
		if placed {
			continue
		}
		reason := ReasonWeekFull
		if !open {
			reason = ReasonNoInboundDay
		}
		plan.Unallocated = append(plan.Unallocated, Unallocated{VendorName: d.VendorName, LocationID: d.LocationID, Qty: qty, Reason: reason})
	}
	return plan
}

func (s *Scheduler) order(demands []VendorDemand) []VendorDemand {
	out := append([]VendorDemand(nil), demands...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch s.priority {
		case PriorityLowestDOI:
			if a.DOILeft != b.DOILeft {
				return a.DOILeft < b.DOILeft
			}
		default:
			if a.Qty != b.Qty {
				return a.Qty > b.Qty
			}
		}
		if va, vb := domain.NormalizeVendor(a.VendorName), domain.NormalizeVendor(b.VendorName); va != vb {
			return va < vb
		}
		return a.LocationID < b.LocationID
	})
	return out
}

// ShiftHolidays moves every allocation's adjusted date forward to the next
// Monday to Saturday that is not a holiday for its vendor. Dates already
// valid stay where they are.
func ShiftHolidays(plan Plan, cal *calendar.Calendar) Plan {
	out := plan
	out.Allocations = make([]Allocation, len(plan.Allocations))
	for i, a := range plan.Allocations {
		a.AdjustedDate = cal.NextWorkday(a.Date, a.VendorName)
		out.Allocations[i] = a
	}
	return out
}

// DateFor returns the adjusted inbound date given to a vendor location.
func (p Plan) DateFor(vendor string, locationID int64) (time.Time, bool) {
	key := domain.NormalizeVendor(vendor)
	for _, a := range p.Allocations {
		if a.LocationID == locationID && domain.NormalizeVendor(a.VendorName) == key {
			return a.AdjustedDate, true
		}
	}
	return time.Time{}, false
}

// DailyTotal is the quantity landing at one location on one date.
type DailyTotal struct {
	Date       time.Time `json:"date"`
	LocationID int64     `json:"location_id"`
	Qty        float64   `json:"total_allocated_qty"`
	Vendors    int       `json:"vendors"`
}

// DailySummary totals adjusted-date quantities per date and location.
func (p Plan) DailySummary() []DailyTotal {
	idx := make(map[dayLoad]int)
	var out []DailyTotal
	for _, a := range p.Allocations {
		k := dayLoad{location: a.LocationID, date: a.AdjustedDate}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, DailyTotal{Date: a.AdjustedDate, LocationID: a.LocationID})
		}
		out[i].Qty += a.Qty
		out[i].Vendors++
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out
}
