package ingest

import (
	"strconv"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
)

// PositionsTable renders stock positions loaded from a database back into a
// stock table, so they flow through the same decode and fingerprint path as
// an uploaded sheet. A date column is emitted only when some position carries
// that date; a blank cell would otherwise be read as a malformed value.
func PositionsTable(positions []domain.StockPosition) *Table {
	dates := []struct {
		name string
		get  func(domain.StockPosition) time.Time
	}{
		{"order_date", func(p domain.StockPosition) time.Time { return p.OrderDate }},
		{"inbound_date", func(p domain.StockPosition) time.Time { return p.InboundDate }},
		{"coverage_date", func(p domain.StockPosition) time.Time { return p.CoverageDate }},
	}
	var withDates []int
	for i, d := range dates {
		for _, p := range positions {
			if !d.get(p).IsZero() {
				withDates = append(withDates, i)
				break
			}
		}
	}

	t := &Table{
		Name: string(KindStock),
		Header: []string{
			"product_id", "product_name", "location_id", "primary_vendor_name", "stock_wh",
			"ospo_qty", "osrl_qty", "ospr_qty", "hub_qty", "hub_in_transit",
			"reorder_point", "max_qty", "order_multiplier", "avg_sales_final", "doi_policy",
		},
		Rows: make([][]string, 0, len(positions)),
	}
	for _, i := range withDates {
		t.Header = append(t.Header, dates[i].name)
	}
	for _, p := range positions {
		row := []string{
			formatInt(p.ProductID), p.ProductName, formatInt(p.LocationID), p.VendorName, formatFloat(p.StockWH),
			formatFloat(p.OSPOQty), formatFloat(p.OSRLQty), formatFloat(p.OSPRQty), formatFloat(p.HubStock), formatFloat(p.HubInTransit),
			formatFloat(p.ReorderPoint), formatFloat(p.MaxQty), formatFloat(p.OrderMultiplier), formatFloat(p.AvgDailySales), formatFloat(p.DOIPolicy),
		}
		for _, i := range withDates {
			row = append(row, formatDate(dates[i].get(p)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// HubHistoryTable is the estimated_so counterpart of PositionsTable.
func HubHistoryTable(rows []domain.HubHistory) *Table {
	t := &Table{
		Name:   string(KindEstimatedSO),
		Header: []string{"wh_id", "hub_id", "qty_so_final", "hub_qty", "hub_in_transit"},
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, h := range rows {
		t.Rows = append(t.Rows, []string{
			formatInt(h.WarehouseID), formatInt(h.HubID), formatFloat(h.QtySOFinal),
			formatFloat(h.HubQty), formatFloat(h.HubInTransit),
		})
	}
	return t
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
