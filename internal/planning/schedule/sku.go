package schedule

import (
	"sort"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// minSalesAvg stands in for a zero sales average when blending DOI.
const minSalesAvg = 0.01

// AggregateSKUs rolls SKU lines up to one demand per vendor × location. The
// quantity is the summed RL qty and DOILeft is Σstock / Σsales.
func AggregateSKUs(lines []domain.SKULine) []VendorDemand {
	type agg struct {
		name              string
		location          int64
		stock, sales, qty float64
		n                 int
	}
	groups := make(map[vendorLocation]*agg)
	var order []vendorLocation
	for _, l := range lines {
		key := skuGroupKey(l.VendorName, l.LocationID)
		g, ok := groups[key]
		if !ok {
			g = &agg{name: l.VendorName, location: l.LocationID}
			groups[key] = g
			order = append(order, key)
		}
		sales := l.SalesAvg
		if sales == 0 {
			sales = minSalesAvg
		}
		g.stock += l.StockWH
		g.sales += sales
		g.qty += l.RLQty
		g.n++
	}

	out := make([]VendorDemand, 0, len(order))
	for _, key := range order {
		g := groups[key]
		doi := 0.0
		if g.sales != 0 {
			doi = g.stock / g.sales
		}
		out = append(out, VendorDemand{
			VendorName: g.name,
			LocationID: g.location,
			Qty:        g.qty,
			DOILeft:    doi,
			SKUCount:   g.n,
		})
	}
	return out
}

// SKUAssignment carries a vendor's scheduled date down to one of its SKUs.
type SKUAssignment struct {
	ProductID           int64     `json:"product_id"`
	VendorName          string    `json:"primary_vendor_name"`
	LocationID          int64     `json:"location_id"`
	RLQty               float64   `json:"rl_qty"`
	AllocatedDate       time.Time `json:"allocated_date"`
	AdjustedInboundDate time.Time `json:"adjusted_inbound_date"`
	Scheduled           bool      `json:"scheduled"`
}

// SKUAssignments fans each allocation out to the vendor's SKU lines. Lines of
// unallocated vendors come back with Scheduled false and zero dates.
func (p Plan) SKUAssignments(lines []domain.SKULine) []SKUAssignment {
	byVendor := make(map[vendorLocation]Allocation, len(p.Allocations))
	for _, a := range p.Allocations {
		byVendor[skuGroupKey(a.VendorName, a.LocationID)] = a
	}

	out := make([]SKUAssignment, 0, len(lines))
	for _, l := range lines {
		row := SKUAssignment{
			ProductID:  l.ProductID,
			VendorName: l.VendorName,
			LocationID: l.LocationID,
			RLQty:      l.RLQty,
		}
		if a, ok := byVendor[skuGroupKey(l.VendorName, l.LocationID)]; ok {
			row.AllocatedDate = a.Date
			row.AdjustedInboundDate = a.AdjustedDate
			row.Scheduled = true
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out
}

type vendorLocation struct {
	vendor   string
	location int64
}

func skuGroupKey(vendor string, locationID int64) vendorLocation {
	return vendorLocation{vendor: domain.NormalizeVendor(vendor), location: locationID}
}
