package eoq

import (
	"sort"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/shopspring/decimal"
)

// MOVLine is the quantity and unit cost of one item entering the MOV check.
type MOVLine struct {
	VendorName string
	LocationID int64
	Qty        float64
	COGS       float64
}

// ScaledLine is the MOV outcome for the line at the same index.
type ScaledLine struct {
	Qty   float64
	Scale float64
}

// MOVShortfall reports one vendor × location order against its minimum order value.
type MOVShortfall struct {
	VendorName string          `json:"vendor_name"`
	LocationID int64           `json:"location_id"`
	Items      int             `json:"items"`
	OrderValue decimal.Decimal `json:"order_value"`
	MOV        decimal.Decimal `json:"mov"`
	Shortfall  decimal.Decimal `json:"shortfall"`
	ScaleRatio float64         `json:"scale_ratio"`
	Meets      bool            `json:"meets"`
	// Unscalable marks a group with zero order value; there is nothing to scale.
	Unscalable bool `json:"unscalable"`
}

type movGroup struct {
	vendor   string
	location int64
	idx      []int
	total    decimal.Decimal
}

// AdjustForMOV scales every line of a vendor × location group by
// 1 + (MOV - total)/total when the group's order value is below the vendor's
// MOV, which lifts the group to exactly MOV. Groups whose vendor has no MOV
// pass through unchanged and are not reported.
func AdjustForMOV(lines []MOVLine, vendors *domain.VendorBook) ([]ScaledLine, []MOVShortfall) {
	out := make([]ScaledLine, len(lines))
	type groupKey struct {
		vendor   string
		location int64
	}
	groups := make(map[groupKey]*movGroup)
	var keys []groupKey

	for i, l := range lines {
		out[i] = ScaledLine{Qty: l.Qty, Scale: 1}
		key := groupKey{vendor: domain.NormalizeVendor(l.VendorName), location: l.LocationID}
		g, ok := groups[key]
		if !ok {
			g = &movGroup{vendor: l.VendorName, location: l.LocationID, total: decimal.Zero}
			groups[key] = g
			keys = append(keys, key)
		}
		g.idx = append(g.idx, i)
		g.total = g.total.Add(decimal.NewFromFloat(l.Qty).Mul(decimal.NewFromFloat(l.COGS)))
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].vendor != keys[j].vendor {
			return keys[i].vendor < keys[j].vendor
		}
		return keys[i].location < keys[j].location
	})

	var report []MOVShortfall
	for _, key := range keys {
		g := groups[key]
		loc, ok := vendors.Location(g.vendor, g.location)
		if !ok || !loc.MOV.IsPositive() {
			continue
		}

		row := MOVShortfall{
			VendorName: g.vendor,
			LocationID: g.location,
			Items:      len(g.idx),
			OrderValue: g.total.Round(2),
			MOV:        loc.MOV,
			Shortfall:  decimal.Zero,
			Meets:      g.total.GreaterThanOrEqual(loc.MOV),
		}
		if !row.Meets {
			row.Shortfall = loc.MOV.Sub(g.total).Round(2)
			if g.total.IsPositive() {
				ratio := loc.MOV.Sub(g.total).Div(g.total)
				row.ScaleRatio = ratio.InexactFloat64()
				scale := 1 + row.ScaleRatio
				for _, i := range g.idx {
					out[i] = ScaledLine{Qty: lines[i].Qty * scale, Scale: scale}
				}
			} else {
				row.Unscalable = true
			}
		}
		report = append(report, row)
	}
	return out, report
}
