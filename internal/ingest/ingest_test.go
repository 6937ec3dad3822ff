package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var asOf = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func mustCSV(t *testing.T, name, body string) *Table {
	t.Helper()
	tbl, err := ReadCSV(name, strings.NewReader(body))
	require.NoError(t, err)
	return tbl
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Stock WH", "stockwh"},
		{" stock_wh ", "stockwh"},
		{"Max. Daily-Sales", "maxdailysales"},
		{"Sum of hub_qty", "sumofhubqty"},
		{"wh/id", "whid"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeColumnName(tt.in))
		})
	}
}

func TestLoadPositionsWithAliasesAndRepairs(t *testing.T) {
	tbl := mustCSV(t, "stock.csv", "\ufeffProduct ID,WH_ID,Primary Vendor Name,Stock,Quantity PO,Sales Avg,order_date,coverage_date\n"+
		"1,40,Fresh Farm,\"1,200\",300,12.5,2025-06-02,09/06/2025\n"+
		"2,772,Acme,abc,-5,3,not a date,\n"+
		",,,,,,,\n")

	positions, repairs, err := LoadPositions(tbl, Options{AsOf: asOf, MalformedDateOffsetDays: 14})
	require.NoError(t, err)
	require.Len(t, positions, 2)

	p := positions[0]
	assert.Equal(t, int64(1), p.ProductID)
	assert.Equal(t, int64(40), p.LocationID)
	assert.Equal(t, "Fresh Farm", p.VendorName)
	assert.Equal(t, 1200.0, p.StockWH)
	assert.Equal(t, 300.0, p.OSPOQty)
	assert.Equal(t, 12.5, p.AvgDailySales)
	assert.Equal(t, asOf, p.OrderDate)
	assert.Equal(t, asOf.AddDate(0, 0, 7), p.CoverageDate)
	assert.True(t, p.InboundDate.IsZero(), "absent column leaves the date for the engine to derive")

	q := positions[1]
	assert.Zero(t, q.StockWH)
	assert.Zero(t, q.OSPOQty, "negative quantities are clipped")
	assert.Equal(t, asOf.AddDate(0, 0, 14), q.OrderDate)
	assert.Equal(t, asOf.AddDate(0, 0, 14), q.CoverageDate)

	require.Len(t, repairs, 3)
	assert.Equal(t, domain.Repair{Table: "stock", Row: 3, Column: "stock_wh", Raw: "abc", Default: "0"}, repairs[0])
	assert.Equal(t, "order_date", repairs[1].Column)
	assert.Equal(t, "2025-06-16", repairs[1].Default)
	assert.Equal(t, "coverage_date", repairs[2].Column)
}

func TestSchemaMismatch(t *testing.T) {
	tbl := mustCSV(t, "stock.csv", "product_id,qty\n1,2\n")
	_, _, err := LoadPositions(tbl, Options{AsOf: asOf})

	var mismatch *domain.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"location_id", "stock_wh"}, mismatch.Missing)

	_, _, err = LoadVendors(nil)
	var missing *domain.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "vendor", missing.Table)
}

func TestLoadVendorsMergesInboundDays(t *testing.T) {
	tbl := mustCSV(t, "vendor.csv", "primary_vendor_name,location_id,mov,JI,inbound_day\n"+
		"Fresh Farm,40,\"1,500,000\",3,Mon\n"+
		"fresh  farm,40,,,Thu\n"+
		"Acme,772,0,2,\"Senin, Rabu\"\n"+
		"Bad,772,0,2,someday\n")

	book, repairs, err := LoadVendors(tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, book.Len())

	loc, ok := book.Location("FRESH FARM", 40)
	require.True(t, ok)
	assert.Equal(t, "1500000", loc.MOV.String())
	assert.Equal(t, 3, loc.LeadTimeDays)
	assert.Equal(t, []time.Weekday{time.Monday, time.Thursday}, loc.InboundDays)

	acme, _ := book.Location("acme", 772)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, acme.InboundDays)

	require.Len(t, repairs, 1)
	assert.Equal(t, "inbound_day", repairs[0].Column)
}

func TestLoadDemandAndHolidays(t *testing.T) {
	demand := mustCSV(t, "demand.csv", "product_id,location_id,date_key,demand\n1,40,2025-06-02,10\n1,40,2025-06-02,5\n1,40,oops,7\n")
	book, repairs, err := LoadDemand(demand)
	require.NoError(t, err)
	assert.Len(t, repairs, 1)
	v, ok := book.Lookup(domain.PositionKey{ProductID: 1, LocationID: 40}, 0).At(asOf)
	assert.True(t, ok)
	assert.Equal(t, 15.0, v)

	holidays := mustCSV(t, "holiday.csv", "tgl_holiday,vendor\n2025-06-06,\n45811,Acme\n")
	hs, _, err := LoadHolidays(holidays)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC), hs[0].Date)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), hs[1].Date)
	assert.Equal(t, "Acme", hs[1].Vendor)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"wh_id", "hub_id", "Sum of qty_so_final", "Sum of hub_qty"},
		{40, 98, 120.5, 10},
		{40, 121, 79.5, 0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Read("estimated so.xlsx", buf)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	history, _, err := LoadHubHistory(tbl)
	require.NoError(t, err)
	assert.Equal(t, domain.HubHistory{WarehouseID: 40, HubID: 98, QtySOFinal: 120.5, HubQty: 10}, history[0])
}

func TestReadRejectsUnknownExtension(t *testing.T) {
	_, err := Read("plan.pdf", strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseReportsIssuesPerTable(t *testing.T) {
	tables := map[Kind]*Table{
		KindStock:   mustCSV(t, "stock.csv", "product_id,location_id,stock_wh\n1,40,10\n"),
		KindVendor:  mustCSV(t, "vendor.csv", "vendor,foo\nA,1\n"),
		KindHoliday: mustCSV(t, "holiday.csv", "tgl_holiday\n2025-06-06\n"),
	}
	parsed, err := Parse(context.Background(), tables, Options{AsOf: asOf, MalformedDateOffsetDays: 14})
	require.NoError(t, err)

	assert.True(t, parsed.Has(KindStock))
	assert.True(t, parsed.Has(KindHoliday))
	assert.False(t, parsed.Has(KindVendor))
	assert.False(t, parsed.Has(KindDemand))
	require.Len(t, parsed.Issues, 1)
	assert.Equal(t, domain.IssueSchemaMismatch, parsed.Issues[0].Kind)
	assert.Equal(t, []string{"location_id"}, parsed.Issues[0].Missing)
	assert.Len(t, parsed.Positions, 1)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Estimated-SO")
	require.NoError(t, err)
	assert.Equal(t, KindEstimatedSO, k)
	_, err = ParseKind("orders")
	assert.Error(t, err)
}
