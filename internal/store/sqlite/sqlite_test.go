package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droneflow/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "trade.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestUpsertRowsInsertsAndUpdates(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	row := model.Row{
		Flow: model.FlowExport, YYYYMM: "202401", AreaCode: "103", HS10: "8806.92.00.00",
		AreaName: "103_大韓民国", Country: "South Korea",
		Units: 12, Kilograms: 34.5, ValueKYen: 3400,
		USGroup: "Group 1", NATOClass: "Class I", MTOW: "250g–7kg",
	}
	require.NoError(t, store.UpsertRows(ctx, []model.Row{row}))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM trade_rows`).Scan(&count))
	assert.Equal(t, 1, count)

	// Same key again with a corrected value updates in place.
	row.Units = 15
	require.NoError(t, store.UpsertRows(ctx, []model.Row{row}))

	var units float64
	require.NoError(t, store.db.QueryRow(
		`SELECT units FROM trade_rows WHERE flow = ? AND yyyymm = ? AND area_code = ? AND hs10 = ?`,
		string(row.Flow), row.YYYYMM, row.AreaCode, row.HS10,
	).Scan(&units))
	assert.Equal(t, 15.0, units)

	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM trade_rows`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUpsertRowsEmptyIsNoop(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.UpsertRows(context.Background(), nil))
}
