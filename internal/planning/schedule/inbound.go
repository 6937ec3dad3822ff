package schedule

import (
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// InboundCalendar is a product × date grid of expected inbound quantities.
type InboundCalendar struct {
	Dates []time.Time  `json:"dates"`
	Rows  []InboundRow `json:"rows"`
}

type InboundRow struct {
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	LocationID  int64     `json:"location_id"`
	VendorName  string    `json:"primary_vendor_name"`
	Qty         []float64 `json:"qty"`
}

// ExpandInboundCalendar repeats each order's quantity on every date in
// [from, to] that falls on one of the vendor location's inbound weekdays.
// Vendors without inbound days get an all-zero row.
func ExpandInboundCalendar(orders []domain.InboundOrder, vendors *domain.VendorBook, from, to time.Time) InboundCalendar {
	start, end := domain.DateOnly(from), domain.DateOnly(to)
	var cal InboundCalendar
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cal.Dates = append(cal.Dates, d)
	}

	for _, o := range orders {
		if o.ProductID == 0 {
			continue
		}
		row := InboundRow{
			ProductID:   o.ProductID,
			ProductName: o.ProductName,
			LocationID:  o.LocationID,
			VendorName:  o.VendorName,
			Qty:         make([]float64, len(cal.Dates)),
		}
		if loc, ok := vendors.Location(o.VendorName, o.LocationID); ok && len(loc.InboundDays) > 0 {
			for i, d := range cal.Dates {
				if loc.AllowsWeekday(d.Weekday()) {
					row.Qty[i] = o.Qty
				}
			}
		}
		cal.Rows = append(cal.Rows, row)
	}

	sort.SliceStable(cal.Rows, func(i, j int) bool {
		if cal.Rows[i].ProductID != cal.Rows[j].ProductID {
			return cal.Rows[i].ProductID < cal.Rows[j].ProductID
		}
		return cal.Rows[i].LocationID < cal.Rows[j].LocationID
	})
	return cal
}
