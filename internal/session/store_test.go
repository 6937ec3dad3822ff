package session

import (
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockTable() *ingest.Table {
	return &ingest.Table{
		Name:   "stock.csv",
		Header: []string{"product_id", "location_id", "stock_wh"},
		Rows:   [][]string{{"1", "40", "10"}, {"2", "40", "0"}},
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore(time.Hour)
	s := store.Create()
	require.NotEmpty(t, s.ID)
	assert.Len(t, s.Missing(), len(ingest.Kinds))

	s, err := store.Put(s.ID, ingest.KindStock, "stock.csv", stockTable())
	require.NoError(t, err)
	require.Len(t, s.Uploads, 1)
	assert.Equal(t, 2, s.Uploads[0].Rows)
	assert.NotContains(t, s.Missing(), ingest.KindStock)

	_, err = store.Put(s.ID, ingest.KindHoliday, "holiday.csv", &ingest.Table{Header: []string{"tgl_holiday"}})
	require.NoError(t, err)
	got, err := store.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, []ingest.Kind{ingest.KindStock, ingest.KindHoliday}, []ingest.Kind{got.Uploads[0].Kind, got.Uploads[1].Kind})

	got, err = store.Remove(s.ID, ingest.KindStock)
	require.NoError(t, err)
	assert.Contains(t, got.Missing(), ingest.KindStock)

	require.NoError(t, store.Delete(s.ID))
	_, err = store.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(s.ID), ErrNotFound)
}

func TestSnapshotIsDetached(t *testing.T) {
	store := NewStore(0)
	s := store.Create()
	s.Tables[ingest.KindStock] = stockTable()

	got, err := store.Get(s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tables)
}

func TestSweepDropsIdleSessions(t *testing.T) {
	now := time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC)
	store := NewStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	old := store.Create()
	now = now.Add(20 * time.Minute)
	fresh := store.Create()
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, store.Sweep())
	_, err := store.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
