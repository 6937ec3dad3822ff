package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/eoq"
	"github.com/andresuchdata/autopo-py/planner-go/internal/planning/schedule"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func sampleResult() *service.Result {
	return &service.Result{
		Projections: []domain.Projection{{
			ProductID:  1,
			LocationID: 40,
			VendorName: "Acme",
			Cycles: []domain.CycleProjection{
				{Cycle: domain.Cycle{Index: 0, OrderDate: monday}, AvgDailyDemand: 100, AssumedStock: 500, ReplenishmentQty: 1234.5, LandedDOI: 3},
				{Cycle: domain.Cycle{Index: 1, OrderDate: monday.AddDate(0, 0, 7)}, AvgDailyDemand: 100},
			},
		}},
		MOV: []eoq.MOVShortfall{{
			VendorName: "Acme", LocationID: 40, Items: 2,
			OrderValue: decimal.NewFromInt(2000), MOV: decimal.NewFromInt(3000), Shortfall: decimal.NewFromInt(1000), ScaleRatio: 1.5,
		}},
		Schedule: &schedule.Plan{
			WeekStart:   monday,
			Allocations: []schedule.Allocation{{VendorName: "Acme", LocationID: 40, Date: monday, AdjustedDate: monday, Qty: 1234.5}},
		},
		InboundCalendar: &schedule.InboundCalendar{
			Dates: []time.Time{monday, monday.AddDate(0, 0, 1)},
			Rows:  []schedule.InboundRow{{ProductID: 1, ProductName: "Milk", LocationID: 40, VendorName: "Acme", Qty: []float64{12, 0}}},
		},
	}
}

func TestFromResultSkipsEmptySections(t *testing.T) {
	sheets := FromResult(sampleResult(), config.DefaultPlanning())

	got := make([]string, len(sheets))
	for i, s := range sheets {
		got[i] = s.Name
		for _, row := range s.Rows {
			assert.Len(t, row, len(s.Header), "sheet %s", s.Name)
		}
	}
	assert.Equal(t, []string{TableProjection, TableMOV, TableSchedule, TableInboundCalendar}, got)

	proj, err := Select(sheets, TableProjection)
	require.NoError(t, err)
	assert.Len(t, proj.Rows, 2, "one row per cycle")
	assert.Equal(t, "KOS - WH Kosambi", proj.Rows[0][3])

	cal, err := Select(sheets, TableInboundCalendar)
	require.NoError(t, err)
	assert.Equal(t, []string{"02-Jun-2025", "03-Jun-2025"}, cal.Header[4:])

	_, err = Select(sheets, TableEOQ)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	sheet := ScheduleSheet(*sampleResult().Schedule, noNames{})

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"plain", Options{}, "Acme,40,,2025-06-02,2025-06-02,1234.5,0"},
		{"indonesian", Options{IndonesianNumbers: true}, "Acme,40,,2025-06-02,2025-06-02,\"1.234,50\",0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, sheet, tt.opts))
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 2)
			assert.Equal(t, strings.Join(sheet.Header, ","), lines[0])
			assert.Equal(t, tt.want, lines[1])
		})
	}
}

func TestWriteCSVRendersDecimals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, MOVSheet(sampleResult().MOV), Options{}))
	assert.Contains(t, buf.String(), "Acme,40,2,2000,3000,1000,1.5,false,false")
}

func TestWriteXLSX(t *testing.T) {
	sheets := FromResult(sampleResult(), nil)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sheets, Options{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TableProjection, TableMOV, TableSchedule, TableInboundCalendar}, f.GetSheetList())

	rows, err := f.GetRows(TableInboundCalendar)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "02-Jun-2025", rows[0][4])
	assert.Equal(t, []string{"1", "Milk", "40", "Acme", "12", "0"}, rows[1])

	assert.Error(t, WriteXLSX(&buf, nil, Options{}))
}
