package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droneflow/internal/model"
)

func TestFormatHS10(t *testing.T) {
	code, err := FormatHS10("880692000")
	require.NoError(t, err)
	assert.Equal(t, "8806.92.00.00", code)

	code, err = FormatHS10(" 880610000 ")
	require.NoError(t, err)
	assert.Equal(t, "8806.10.00.00", code)

	_, err = FormatHS10("8806920")
	assert.Error(t, err)

	_, err = FormatHS10("880692abc")
	assert.Error(t, err)

	// Right shape, wrong family.
	_, err = FormatHS10("880792000")
	assert.Error(t, err)
}

func TestRecordsSkipsMalformedCode(t *testing.T) {
	records := []model.RawRecord{
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "12"},
		{Year: 2024, Month: 2, HSCode: "880610000", AreaCode: "304", AreaName: "304_米国", Variable: model.VarUnits, Value: "3"},
		{Year: 2024, Month: 1, HSCode: "999999999", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "7"},
	}

	result := Records(records, model.FlowExport)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, 1, result.Skipped)
}

func TestRecordsEmitsOnlyFamilyCodes(t *testing.T) {
	records := []model.RawRecord{
		{Year: 2024, Month: 1, HSCode: "880610000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "1"},
		{Year: 2024, Month: 3, HSCode: "880699000", AreaCode: "105", AreaName: "105_中華人民共和国", Variable: model.VarThousandYen, Value: "250"},
		{Year: 2024, Month: 4, HSCode: "847120000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "9"},
	}

	result := Records(records, model.FlowExport)
	require.NotEmpty(t, result.Rows)
	for _, row := range result.Rows {
		assert.True(t, strings.HasPrefix(row.HS10, model.HSFamily+"."), "code %s outside family", row.HS10)
		assert.Len(t, strings.Split(row.HS10, "."), 4)
	}
}

func TestRecordsPivotsVariablesIntoOneRow(t *testing.T) {
	records := []model.RawRecord{
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "12"},
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarKilograms, Value: "34.5"},
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarThousandYen, Value: "678"},
	}

	result := Records(records, model.FlowImport)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 0, result.Skipped)

	row := result.Rows[0]
	assert.Equal(t, model.FlowImport, row.Flow)
	assert.Equal(t, "202401", row.YYYYMM)
	assert.Equal(t, "8806.92.00.00", row.HS10)
	assert.Equal(t, 12.0, row.Units)
	assert.Equal(t, 34.5, row.Kilograms)
	assert.Equal(t, 678.0, row.ValueKYen)
}

func TestRecordsSkipsBlankAndNonNumericCells(t *testing.T) {
	records := []model.RawRecord{
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "-"},
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarKilograms, Value: ""},
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarThousandYen, Value: "n/a"},
	}

	result := Records(records, model.FlowExport)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 3, result.Skipped)
}

func TestRecordsFirstCellWins(t *testing.T) {
	records := []model.RawRecord{
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "12"},
		{Year: 2024, Month: 1, HSCode: "880692000", AreaCode: "103", AreaName: "103_大韓民国", Variable: model.VarUnits, Value: "99"},
	}

	result := Records(records, model.FlowExport)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 12.0, result.Rows[0].Units)
}

func TestRecordsSortedOutput(t *testing.T) {
	records := []model.RawRecord{
		{Year: 2024, Month: 2, HSCode: "880692000", AreaCode: "103", AreaName: "a", Variable: model.VarUnits, Value: "1"},
		{Year: 2024, Month: 1, HSCode: "880699000", AreaCode: "105", AreaName: "b", Variable: model.VarUnits, Value: "1"},
		{Year: 2024, Month: 1, HSCode: "880610000", AreaCode: "103", AreaName: "a", Variable: model.VarUnits, Value: "1"},
	}

	result := Records(records, model.FlowExport)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "202401", result.Rows[0].YYYYMM)
	assert.Equal(t, "103", result.Rows[0].AreaCode)
	assert.Equal(t, "202401", result.Rows[1].YYYYMM)
	assert.Equal(t, "105", result.Rows[1].AreaCode)
	assert.Equal(t, "202402", result.Rows[2].YYYYMM)
}
