package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"droneflow/internal/model"
)

func TestRowSetsCategories(t *testing.T) {
	row := Row(model.Row{HS10: "8806.92.00.00", AreaName: "103_大韓民国"})

	assert.Equal(t, "Group 1", row.USGroup)
	assert.Equal(t, "Class I", row.NATOClass)
	assert.Equal(t, "250g–7kg", row.MTOW)
	assert.Equal(t, "South Korea", row.Country)
	assert.False(t, row.IsReexport)
}

func TestRowIsIdempotent(t *testing.T) {
	row := Row(model.Row{HS10: "8806.24.00.00", AreaName: "304_米国", Units: 5, ValueKYen: 1200})
	again := Row(row)
	assert.Equal(t, row, again)
}

func TestUnmatchedCodeIsUnclassified(t *testing.T) {
	categories := Lookup("8806.77.00.00")
	assert.Equal(t, Unclassified, categories.USGroup)
	assert.Equal(t, Unclassified, categories.NATOClass)
	assert.Equal(t, Unclassified, categories.MTOW)
}

func TestRowsCountsUnclassified(t *testing.T) {
	rows := []model.Row{
		{HS10: "8806.10.00.00", AreaName: "103_大韓民国"},
		{HS10: "8806.77.00.00", AreaName: "304_米国"},
		{HS10: "8806.78.00.00", AreaName: "304_米国"},
	}

	classified, unclassified := Rows(rows)
	assert.Len(t, classified, 3)
	assert.Equal(t, 2, unclassified)
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "South Korea", CountryName("103_大韓民国"))
	assert.Equal(t, "United States", CountryName("304_米国"))
	assert.Equal(t, "China", CountryName("105_中華人民共和国"))
	// Unknown names pass through untranslated, prefix stripped.
	assert.Equal(t, "モルドバ", CountryName("999_モルドバ"))
	// No code prefix at all.
	assert.Equal(t, "Vietnam", CountryName("ベトナム"))
}

func TestRowForcesReexportFalse(t *testing.T) {
	row := Row(model.Row{HS10: "8806.10.00.00", AreaName: "103_大韓民国", IsReexport: true})
	assert.False(t, row.IsReexport)
}
