// Package normalize reshapes raw variable-level cells into canonical
// monthly rows.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"droneflow/internal/model"
)

// Result carries the emitted rows plus the count of cells dropped by
// row-level validation. Skips are non-fatal; the controller reports them.
type Result struct {
	Rows    []model.Row
	Skipped int
}

// Records pivots a raw cell batch into one row per (month, area, product
// code), tagging each row with the flow. A cell is skipped, and counted,
// when its product code is outside the 8806 family or malformed, its value
// is blank ("-" marks no trade in the source tables), or its value is not
// numeric.
func Records(records []model.RawRecord, flow model.Flow) Result {
	type key struct {
		yyyymm   string
		areaCode string
		hs10     string
	}

	var result Result
	index := make(map[key]int)
	seen := make(map[key]map[model.Variable]bool)

	for _, record := range records {
		hs10, err := FormatHS10(record.HSCode)
		if err != nil {
			result.Skipped++
			continue
		}
		if record.Year == 0 || record.Month < 1 || record.Month > 12 {
			result.Skipped++
			continue
		}
		value, ok := parseCellValue(record.Value)
		if !ok {
			result.Skipped++
			continue
		}

		k := key{
			yyyymm:   fmt.Sprintf("%04d%02d", record.Year, record.Month),
			areaCode: record.AreaCode,
			hs10:     hs10,
		}
		i, ok := index[k]
		if !ok {
			result.Rows = append(result.Rows, model.Row{
				Flow:     flow,
				YYYYMM:   k.yyyymm,
				Year:     record.Year,
				Month:    record.Month,
				AreaCode: record.AreaCode,
				AreaName: record.AreaName,
				HS10:     hs10,
			})
			i = len(result.Rows) - 1
			index[k] = i
			seen[k] = make(map[model.Variable]bool)
		}

		// First cell wins when the source repeats a variable.
		if seen[k][record.Variable] {
			continue
		}
		seen[k][record.Variable] = true
		switch record.Variable {
		case model.VarUnits:
			result.Rows[i].Units = value
		case model.VarKilograms:
			result.Rows[i].Kilograms = value
		case model.VarThousandYen:
			result.Rows[i].ValueKYen = value
		}
	}

	sort.Slice(result.Rows, func(i, j int) bool {
		a, b := result.Rows[i], result.Rows[j]
		if a.YYYYMM != b.YYYYMM {
			return a.YYYYMM < b.YYYYMM
		}
		if a.AreaCode != b.AreaCode {
			return a.AreaCode < b.AreaCode
		}
		return a.HS10 < b.HS10
	})
	return result
}

// FormatHS10 converts a nine-digit customs code such as "880692000" into
// the dotted four-segment form "8806.92.00.00". Codes of the wrong length
// or outside the 8806 family are rejected.
func FormatHS10(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if len(code) != 9 || !isDigits(code) {
		return "", fmt.Errorf("normalize: unexpected product code %q", raw)
	}
	if !strings.HasPrefix(code, model.HSFamily) {
		return "", fmt.Errorf("normalize: product code %q outside family %s", raw, model.HSFamily)
	}
	return code[0:4] + "." + code[4:6] + "." + code[6:8] + ".00", nil
}

func parseCellValue(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "-" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
