package calendar

import (
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestNextWorkday(t *testing.T) {
	// 2025-06-06 is a Friday, 2025-06-08 a Sunday.
	cal := New([]domain.Holiday{
		{Date: day("2025-06-06")},
		{Date: day("2025-06-07")},
		{Date: day("2025-06-10"), Vendor: "Fresh Farm"},
	})

	tests := []struct {
		name   string
		date   string
		vendor string
		want   string
	}{
		{"valid date stays", "2025-06-05", "", "2025-06-05"},
		{"holiday run then sunday", "2025-06-06", "", "2025-06-09"},
		{"sunday moves to monday", "2025-06-08", "", "2025-06-09"},
		{"vendor holiday shifts that vendor", "2025-06-10", "fresh farm", "2025-06-11"},
		{"vendor holiday ignored for others", "2025-06-10", "Other", "2025-06-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.NextWorkday(day(tt.date), tt.vendor)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.True(t, cal.IsWorkday(got, tt.vendor))
		})
	}
}

func TestNilCalendarOnlySkipsSunday(t *testing.T) {
	var cal *Calendar
	assert.True(t, cal.IsWorkday(day("2025-06-07"), ""))
	assert.False(t, cal.IsWorkday(day("2025-06-08"), ""))
	assert.Equal(t, 0, cal.Len())
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, "2025-06-02", WeekStart(day("2025-06-02")).Format("2006-01-02"))
	assert.Equal(t, "2025-06-02", WeekStart(day("2025-06-05")).Format("2006-01-02"))
	assert.Equal(t, "2025-06-02", WeekStart(day("2025-06-08")).Format("2006-01-02"))
}

func TestLenCountsScopedEntries(t *testing.T) {
	cal := New([]domain.Holiday{{Date: day("2025-06-06")}, {Date: day("2025-06-10"), Vendor: "A"}, {}})
	assert.Equal(t, 2, cal.Len())
	assert.True(t, cal.IsHoliday(day("2025-06-10"), "a"))
	assert.False(t, cal.IsGlobalHoliday(day("2025-06-10")))
}
