package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDemandSeriesFallback(t *testing.T) {
	s := NewDemandSeries(0)
	s.Add(day("2025-06-02"), 10)
	s.Add(day("2025-06-02"), 5)
	s.Add(day("2025-06-04"), 30)

	view := s.WithFallback(7)

	v, ok := view.At(day("2025-06-02"))
	assert.True(t, ok)
	assert.InDelta(t, 15, v, 1e-9)

	v, ok = view.At(day("2025-07-01"))
	assert.False(t, ok)
	assert.InDelta(t, 7, v, 1e-9)

	avg, ok := view.WindowAverage(day("2025-06-01"), 7)
	assert.True(t, ok)
	assert.InDelta(t, 22.5, avg, 1e-9)

	avg, ok = view.WindowAverage(day("2025-08-01"), 7)
	assert.False(t, ok)
	assert.InDelta(t, 7, avg, 1e-9)
}

func TestDemandBookLookupUnknownKey(t *testing.T) {
	book := NewDemandBook()
	book.Add(PositionKey{ProductID: 1, LocationID: 40}, day("2025-06-02"), 12)

	known := book.Lookup(PositionKey{ProductID: 1, LocationID: 40}, 3)
	assert.Equal(t, 1, known.Len())

	unknown := book.Lookup(PositionKey{ProductID: 9, LocationID: 40}, 3)
	v, ok := unknown.At(day("2025-06-02"))
	assert.False(t, ok)
	assert.InDelta(t, 3, v, 1e-9)

	var nilBook *DemandBook
	assert.InDelta(t, 4, nilBook.Lookup(PositionKey{}, 4).Fallback(), 1e-9)
}

func TestMeanStdDev(t *testing.T) {
	mean, std := MeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5, mean, 1e-9)
	assert.InDelta(t, 2, std, 1e-9)

	mean, std = MeanStdDev(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestStockPositionClippedAndOOS(t *testing.T) {
	p := StockPosition{StockWH: -5, OSPOQty: -1, HubStock: 3}.Clipped()
	assert.Zero(t, p.StockWH)
	assert.Zero(t, p.OSPOQty)
	assert.InDelta(t, 3, p.HubStock, 1e-9)
	assert.True(t, p.IsOOS(p.OSPOQty))

	p.OSPOQty = 10
	assert.False(t, p.IsOOS(p.OSPOQty))

	p.OSPOQty = 0
	p.OSRLQty = 4
	assert.True(t, p.IsOOS(p.OSPOQty), "OSRL is ignored when the policy leaves it out")
	assert.False(t, p.IsOOS(p.OSPOQty+p.OSPRQty+p.OSRLQty))
}

func TestCoverageStatus(t *testing.T) {
	tests := []struct {
		name  string
		cycle CycleProjection
		want  CoverageStatus
		label string
	}{
		{"out of stock", CycleProjection{AssumedStock: 0, LandedDOI: 0}, CoverageOutOfStock, "currently out of stock at warehouse"},
		{"needs quantity", CycleProjection{AssumedStock: 40, LandedDOI: 0}, CoverageNeedsQuantity, "needs additional coverage/quantity"},
		{"covered", CycleProjection{AssumedStock: 40, LandedDOI: 2.5}, CoverageCovered, "2.50"},
		{"covered by incoming only", CycleProjection{AssumedStock: 0, LandedDOI: 1}, CoverageCovered, "1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cycle.Status())
			assert.Equal(t, tt.label, tt.cycle.StatusLabel())
		})
	}
}

func TestCycleDerivedGaps(t *testing.T) {
	c := Cycle{OrderDate: day("2025-06-02"), InboundDate: day("2025-06-04"), CoverageDate: day("2025-06-09")}
	assert.Equal(t, 2, c.LeadTimeDays())
	assert.Equal(t, 7, c.CoverageGapDays())
	assert.True(t, c.WellFormed())
}

func TestVendorBookUpsertMergesInboundDays(t *testing.T) {
	book := NewVendorBook()
	book.Upsert(" Fresh  Farm ", VendorLocation{LocationID: 40, InboundDays: []time.Weekday{time.Monday}})
	book.Upsert("FRESH FARM", VendorLocation{LocationID: 40, MOV: decimal.NewFromInt(500000), InboundDays: []time.Weekday{time.Thursday, time.Monday}})

	loc, ok := book.Location("fresh farm", 40)
	require.True(t, ok)
	assert.Equal(t, []time.Weekday{time.Monday, time.Thursday}, loc.InboundDays)
	assert.True(t, loc.MOV.Equal(decimal.NewFromInt(500000)))
	assert.True(t, loc.AllowsWeekday(time.Thursday))
	assert.False(t, loc.AllowsWeekday(time.Tuesday))

	_, ok = book.Location("fresh farm", 772)
	assert.False(t, ok)
	assert.Equal(t, 1, book.Len())
}
