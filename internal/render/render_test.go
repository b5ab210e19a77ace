package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droneflow/internal/aggregate"
	"droneflow/internal/model"
)

func sampleRows() []model.Row {
	return []model.Row{
		{Flow: model.FlowExport, YYYYMM: "202401", Year: 2024, Month: 1, Country: "South Korea", HS10: "8806.92.00.00", USGroup: "Group 1", NATOClass: "Class I", MTOW: "250g–7kg", Units: 12, ValueKYen: 3400},
		{Flow: model.FlowExport, YYYYMM: "202404", Year: 2024, Month: 4, Country: "United States", HS10: "8806.92.00.00", USGroup: "Group 1", NATOClass: "Class I", MTOW: "250g–7kg", Units: 4, ValueKYen: 900},
	}
}

func TestStackedBarEmptyTable(t *testing.T) {
	r := New(t.TempDir(), nil)

	err := r.StackedBar(&aggregate.Table{}, "t", "y", "empty.png")
	assert.ErrorIs(t, err, ErrEmptyTable)

	zero := aggregate.Pivot([]model.Row{{Year: 2024, Month: 1, Country: "A"}}, aggregate.Quarter, aggregate.MetricUnits)
	err = r.StackedBar(zero, "t", "y", "zero.png")
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestStackedBarWritesFile(t *testing.T) {
	dir := t.TempDir()
	rows := sampleRows()
	r := New(dir, rows)

	table := aggregate.Pivot(rows, aggregate.Quarter, aggregate.MetricUnits)
	err := r.StackedBar(table, "Total Drone Exports by Country – All", "Number of Drones Exported", "JP_01_Counts_total_All.png")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "JP_01_Counts_total_All.png"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSuiteProducesFixedChartSet(t *testing.T) {
	dir := t.TempDir()
	rows := sampleRows()
	r := New(dir, rows)

	written, skipped := r.Suite(rows, os.Stderr)
	assert.Equal(t, 0, skipped)
	// Per subset: 4 totals + 4 charts × (1 hs10 + 1 US_Group + 1 NATO_Class)
	// + 4 half-year charts = 20; two subsets.
	assert.Equal(t, 40, written)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 40)

	_, err = os.Stat(filepath.Join(dir, "JP_02_Percent_total_Exclude_re-export.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "JP_05_Value_Total_Yen_All.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "JP_01_Counts_hs10_All_8806920000.png"))
	assert.NoError(t, err)
}

func TestSuiteEmptyInputSkipsEverything(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, nil)

	written, skipped := r.Suite(nil, os.Stderr)
	assert.Equal(t, 0, written)
	// Totals and half-year charts are still attempted and skipped; with no
	// rows there are no category values to iterate.
	assert.Equal(t, 16, skipped)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "8806920000", CleanName("8806.92.00.00"))
	assert.Equal(t, "Group_4_5", CleanName("Group 4/5"))
	assert.Equal(t, "Class_I", CleanName("Class I"))
	assert.Equal(t, "Unknown", CleanName("  "))
	assert.Equal(t, "ab", CleanName("a?*b"))
}
