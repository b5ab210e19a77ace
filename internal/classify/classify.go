// Package classify enriches normalized rows with category fields derived
// from static lookup tables.
package classify

import (
	"strings"

	"droneflow/internal/model"
)

// Unclassified is assigned when a product code has no category mapping, so
// aggregation still totals correctly with incomplete lookup coverage.
const Unclassified = "Unclassified"

// Categories are the derived fields for one dotted product code.
type Categories struct {
	USGroup   string
	NATOClass string
	MTOW      string
}

// hs10Categories maps each code in the 8806 family to its US group, NATO
// class and maximum-takeoff-weight band.
var hs10Categories = map[string]Categories{
	"8806.10.00.00": {"Group 5", "Class III", "Passenger UAV"},
	"8806.21.00.00": {"Group 1", "Class I", "≤250g"},
	"8806.22.00.00": {"Group 1", "Class I", "250g–7kg"},
	"8806.23.00.00": {"Group 2", "Class I", "7kg–25kg"},
	"8806.24.00.00": {"Group 3", "Class II", "25kg–150kg"},
	"8806.29.00.00": {"Group 4/5", "Class III", ">150kg"},
	"8806.91.00.00": {"Group 1", "Class I", "≤250g"},
	"8806.92.00.00": {"Group 1", "Class I", "250g–7kg"},
	"8806.93.00.00": {"Group 2", "Class I", "7kg–25kg"},
	"8806.94.00.00": {"Group 3", "Class II", "25kg–150kg"},
	"8806.99.00.00": {"Group 4/5", "Class III", ">150kg"},
}

// countryNames translates the Japanese partner-country names used by the
// customs tables. Unlisted names pass through untranslated.
var countryNames = map[string]string{
	"大韓民国":     "South Korea",
	"中華人民共和国":   "China",
	"中国":       "China",
	"ベトナム":     "Vietnam",
	"マレーシア":    "Malaysia",
	"インド":      "India",
	"インドネシア":   "Indonesia",
	"タイ":       "Thailand",
	"米国":       "United States",
	"アメリカ合衆国":  "United States",
	"イギリス":     "United Kingdom",
	"英国":       "United Kingdom",
	"フランス":     "France",
	"ドイツ":      "Germany",
	"台湾":       "Taiwan",
	"フィリピン":    "Philippines",
	"シンガポール":   "Singapore",
	"オランダ":     "The Netherlands",
	"スペイン":     "Spain",
	"エジプト":     "Egypt",
	"オーストラリア":  "Australia",
	"モンゴル":     "Mongolia",
	"香港":       "Hong Kong",
	"ウクライナ":    "Ukraine",
	"ブラジル":     "Brazil",
	"スイス":      "Switzerland",
	"イタリア":     "Italy",
	"カナダ":      "Canada",
	"コロンビア":    "Colombia",
	"チリ":       "Chile",
	"アルゼンチン":   "Argentina",
	"南アフリカ共和国": "South Africa",
	"ザンビア":     "Zambia",
	"サウジアラビア":  "Saudi Arabia",
}

// Row returns the row with category fields filled in. Applying it to an
// already-classified row yields the same fields.
func Row(r model.Row) model.Row {
	categories := Lookup(r.HS10)
	r.USGroup = categories.USGroup
	r.NATOClass = categories.NATOClass
	r.MTOW = categories.MTOW
	r.Country = CountryName(r.AreaName)
	// The source tables carry no re-export flag.
	r.IsReexport = false
	return r
}

// Rows classifies every row and reports how many fell back to Unclassified.
func Rows(rows []model.Row) ([]model.Row, int) {
	classified := make([]model.Row, len(rows))
	unclassified := 0
	for i, r := range rows {
		classified[i] = Row(r)
		if classified[i].USGroup == Unclassified {
			unclassified++
		}
	}
	return classified, unclassified
}

// Lookup returns the categories for a dotted product code, or Unclassified
// values when the code has no mapping.
func Lookup(hs10 string) Categories {
	if categories, ok := hs10Categories[hs10]; ok {
		return categories
	}
	return Categories{USGroup: Unclassified, NATOClass: Unclassified, MTOW: Unclassified}
}

// CountryName derives the English country name from an area name of the
// form "103_大韓民国": the numeric prefix is stripped, then the Japanese
// name is translated when known.
func CountryName(areaName string) string {
	name := areaName
	if _, after, ok := strings.Cut(areaName, "_"); ok {
		name = after
	}
	if english, ok := countryNames[name]; ok {
		return english
	}
	return name
}
