package ingest

import (
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionsTableDecodesBack(t *testing.T) {
	inbound := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	in := []domain.StockPosition{
		{ProductID: 7, ProductName: "Rice 5kg", LocationID: 40, WarehouseID: 40, VendorName: "ACME", StockWH: 12.5, OSPOQty: 3, AvgDailySales: 1.25, InboundDate: inbound},
		{ProductID: 8, LocationID: 661, WarehouseID: 661, StockWH: 0},
	}

	tbl := PositionsTable(in)
	assert.NotContains(t, tbl.Header, "order_date")
	assert.Contains(t, tbl.Header, "inbound_date")

	out, repairs, err := LoadPositions(tbl, Options{AsOf: inbound})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0], out[0])
	assert.Len(t, repairs, 1, "second row has a blank inbound_date")
}

func TestHubHistoryTableDecodesBack(t *testing.T) {
	in := []domain.HubHistory{{WarehouseID: 40, HubID: 98, QtySOFinal: 120.5, HubQty: 10, HubInTransit: 2}}

	out, repairs, err := LoadHubHistory(HubHistoryTable(in))
	require.NoError(t, err)
	assert.Empty(t, repairs)
	assert.Equal(t, in, out)
}
