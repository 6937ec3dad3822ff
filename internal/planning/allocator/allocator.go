// Package allocator splits aggregate demand forecasts across warehouses and
// then across the hubs each warehouse serves.
//
// Warehouse split (fixed ratios, normalised):
//
//	wh_qty = total * ratio / sum(ratios)
//
// Hub split (historical share of confirmed sales orders):
//
//	hub_qty = wh_qty * hub_so / sum(hub_so)
//
// The last entry of every split absorbs float residue so the parts always add
// back up to the whole.
package allocator

import (
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

type WarehouseRatio struct {
	WarehouseID int64   `json:"warehouse_id"`
	Ratio       float64 `json:"ratio"`
}

// CategoryRoute sends a forecast category to one or more warehouses.
type CategoryRoute struct {
	Category string           `json:"category"`
	Shares   []WarehouseRatio `json:"shares"`
}

type WarehouseDemand struct {
	Category    string  `json:"category"`
	WarehouseID int64   `json:"warehouse_id"`
	Qty         float64 `json:"qty"`
}

// Window limits the category forecast to D+From .. D+To relative to AsOf.
// A zero To disables the filter. Undated rows always count.
type Window struct {
	AsOf time.Time
	From int
	To   int
}

func (w Window) contains(date time.Time) bool {
	if w.To <= 0 || date.IsZero() {
		return true
	}
	offset := domain.DaysBetween(w.AsOf, date)
	return offset >= w.From && offset <= w.To
}

// SplitByRatio distributes total over the warehouses in the given order.
func SplitByRatio(total float64, ratios []WarehouseRatio) []WarehouseDemand {
	out := make([]WarehouseDemand, len(ratios))
	var sumRatio float64
	for _, r := range ratios {
		if r.Ratio > 0 {
			sumRatio += r.Ratio
		}
	}
	for i, r := range ratios {
		out[i].WarehouseID = r.WarehouseID
	}
	if sumRatio <= 0 || total == 0 {
		return out
	}

	last := -1
	for i, r := range ratios {
		if r.Ratio > 0 {
			last = i
		}
	}

	var assigned float64
	for i, r := range ratios {
		if r.Ratio <= 0 {
			continue
		}
		if i == last {
			out[i].Qty = total - assigned
			break
		}
		out[i].Qty = total * r.Ratio / sumRatio
		assigned += out[i].Qty
	}
	return out
}

// AllocateCategories sums the forecast per category inside the window and
// splits each category over its routed warehouses. Categories without a route
// are dropped; the returned rows follow route order.
func AllocateCategories(forecasts []domain.CategoryForecast, routes []CategoryRoute, window Window) []WarehouseDemand {
	totals := make(map[string]float64)
	for _, f := range forecasts {
		if !window.contains(f.Date) {
			continue
		}
		totals[normalizeCategory(f.Category)] += f.Qty
	}

	var out []WarehouseDemand
	for _, route := range routes {
		total := totals[normalizeCategory(route.Category)]
		for _, wd := range SplitByRatio(total, route.Shares) {
			wd.Category = route.Category
			out = append(out, wd)
		}
	}
	return out
}

// TotalsByWarehouse folds category rows into one quantity per warehouse.
func TotalsByWarehouse(rows []WarehouseDemand) map[int64]float64 {
	out := make(map[int64]float64)
	for _, r := range rows {
		out[r.WarehouseID] += r.Qty
	}
	return out
}

// HubDemand is the per-hub outcome of the split plus the sales-order comparison.
type HubDemand struct {
	WarehouseID   int64   `json:"wh_id"`
	HubID         int64   `json:"hub_id"`
	HubName       string  `json:"hub_name,omitempty"`
	HistoricalQty float64 `json:"qty_so_final"`
	Share         float64 `json:"share"`
	ForecastQty   float64 `json:"forecast_based_so"`
	FinalSOQty    float64 `json:"final_so_qty"`
	HubStock      float64 `json:"hub_stock"`
	Coverage      float64 `json:"coverage"`
	EvenSplit     bool    `json:"even_split"`
}

// SplitToHubs distributes whQty over hubs by historical order share. With no
// history at all the quantity is split evenly; with no hubs nothing is assigned.
func SplitToHubs(warehouseID int64, whQty float64, hubs []domain.HubHistory) []HubDemand {
	merged := mergeHubs(hubs)
	out := make([]HubDemand, len(merged))
	if len(merged) == 0 {
		return out
	}

	var total float64
	for _, h := range merged {
		total += h.QtySOFinal
	}
	even := total <= 0

	var assigned float64
	for i, h := range merged {
		d := HubDemand{
			WarehouseID:   warehouseID,
			HubID:         h.HubID,
			HistoricalQty: h.QtySOFinal,
			HubStock:      h.HubQty + h.HubInTransit,
			EvenSplit:     even,
		}
		if even {
			d.Share = 1 / float64(len(merged))
		} else {
			d.Share = h.QtySOFinal / total
		}
		if i == len(merged)-1 {
			d.ForecastQty = whQty - assigned
		} else {
			d.ForecastQty = whQty * d.Share
			assigned += d.ForecastQty
		}
		d.FinalSOQty = max(d.HistoricalQty, d.ForecastQty)
		d.Coverage = d.HubStock - d.FinalSOQty
		out[i] = d
	}
	return out
}

// HubFilter drops hubs and warehouses that are not planned.
type HubFilter struct {
	ExcludedHubs       []int64
	ExcludedWarehouses []int64
}

func (f HubFilter) keep(h domain.HubHistory) bool {
	for _, id := range f.ExcludedHubs {
		if h.HubID == id {
			return false
		}
	}
	for _, id := range f.ExcludedWarehouses {
		if h.WarehouseID == id {
			return false
		}
	}
	return true
}

// AllocateHubs splits every warehouse's demand over its hubs. Warehouses that
// appear only in the history still get rows, with zero forecast, so their
// final SO falls back to the SQL estimate. Rows are ordered by warehouse then hub.
func AllocateHubs(whQty map[int64]float64, history []domain.HubHistory, filter HubFilter) []HubDemand {
	byWH := make(map[int64][]domain.HubHistory)
	for _, h := range history {
		if !filter.keep(h) {
			continue
		}
		byWH[h.WarehouseID] = append(byWH[h.WarehouseID], h)
	}

	ids := make([]int64, 0, len(byWH))
	for id := range byWH {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []HubDemand
	for _, id := range ids {
		out = append(out, SplitToHubs(id, whQty[id], byWH[id])...)
	}
	return out
}

func mergeHubs(hubs []domain.HubHistory) []domain.HubHistory {
	byID := make(map[int64]domain.HubHistory, len(hubs))
	for _, h := range hubs {
		cur := byID[h.HubID]
		cur.WarehouseID = h.WarehouseID
		cur.HubID = h.HubID
		cur.QtySOFinal += max(0, h.QtySOFinal)
		cur.HubQty += max(0, h.HubQty)
		cur.HubInTransit += max(0, h.HubInTransit)
		byID[h.HubID] = cur
	}
	out := make([]domain.HubHistory, 0, len(byID))
	for _, h := range byID {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HubID < out[j].HubID })
	return out
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
