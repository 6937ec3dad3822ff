// Package calendar answers which dates can take a delivery: Monday to Saturday,
// minus global and vendor-scoped holidays.
package calendar

import (
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// maxShiftDays bounds forward shifting so a pathological holiday table cannot loop forever.
const maxShiftDays = 366

type Calendar struct {
	global map[time.Time]struct{}
	vendor map[string]map[time.Time]struct{}
}

func New(holidays []domain.Holiday) *Calendar {
	c := &Calendar{
		global: make(map[time.Time]struct{}),
		vendor: make(map[string]map[time.Time]struct{}),
	}
	for _, h := range holidays {
		if h.Date.IsZero() {
			continue
		}
		d := domain.DateOnly(h.Date)
		key := domain.NormalizeVendor(h.Vendor)
		if key == "" {
			c.global[d] = struct{}{}
			continue
		}
		if c.vendor[key] == nil {
			c.vendor[key] = make(map[time.Time]struct{})
		}
		c.vendor[key][d] = struct{}{}
	}
	return c
}

// IsGlobalHoliday ignores vendor-scoped entries.
func (c *Calendar) IsGlobalHoliday(date time.Time) bool {
	if c == nil {
		return false
	}
	_, ok := c.global[domain.DateOnly(date)]
	return ok
}

// IsHoliday reports a global holiday or one scoped to vendor.
func (c *Calendar) IsHoliday(date time.Time, vendor string) bool {
	if c.IsGlobalHoliday(date) {
		return true
	}
	if c == nil || vendor == "" {
		return false
	}
	days, ok := c.vendor[domain.NormalizeVendor(vendor)]
	if !ok {
		return false
	}
	_, ok = days[domain.DateOnly(date)]
	return ok
}

// IsWorkday is Monday to Saturday and not a holiday for vendor.
func (c *Calendar) IsWorkday(date time.Time, vendor string) bool {
	return date.Weekday() != time.Sunday && !c.IsHoliday(date, vendor)
}

// NextWorkday moves date forward one day at a time until it is a workday.
// A date that already is one comes back unchanged.
func (c *Calendar) NextWorkday(date time.Time, vendor string) time.Time {
	d := domain.DateOnly(date)
	for i := 0; i < maxShiftDays && !c.IsWorkday(d, vendor); i++ {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	n := len(c.global)
	for _, days := range c.vendor {
		n += len(days)
	}
	return n
}

// WeekStart returns the Monday of the week containing date.
func WeekStart(date time.Time) time.Time {
	d := domain.DateOnly(date)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
