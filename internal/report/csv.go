// Package report writes the CSV and workbook snapshots of the pipeline.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"droneflow/internal/model"
)

// monthlyHeader is the schema of the per-flow raw snapshot.
var monthlyHeader = []string{
	"yyyymm", "year", "month", "area_code", "area_name", "hs10", "NO", "KG", "Yen_thousand",
}

// cleanedHeader is the canonical cleaned schema. The "Quanity" and "K JPY"
// spellings are kept verbatim; downstream sheets key on them.
var cleanedHeader = []string{
	"qtr", "period", "country", "hs10", "US_Group", "NATO_Class", "MTOW", "Quanity", "K JPY", "is_reexport",
}

// WriteMonthlyCSV writes one flow's rows in the raw monthly schema.
func WriteMonthlyCSV(path string, rows []model.Row) error {
	return writeCSV(path, monthlyHeader, len(rows), func(i int) []string {
		return monthlyRecord(rows[i])
	})
}

// WriteCombinedCSV writes the merged export+import rows with a leading
// flow column.
func WriteCombinedCSV(path string, rows []model.Row) error {
	header := append([]string{"flow"}, monthlyHeader...)
	return writeCSV(path, header, len(rows), func(i int) []string {
		return append([]string{string(rows[i].Flow)}, monthlyRecord(rows[i])...)
	})
}

// WriteCleanedCSV writes classified rows in the cleaned canonical schema.
func WriteCleanedCSV(path string, rows []model.Row) error {
	return writeCSV(path, cleanedHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.Qtr(),
			r.Half(),
			r.Country,
			r.HS10,
			r.USGroup,
			r.NATOClass,
			r.MTOW,
			formatNumber(r.Units),
			formatNumber(r.ValueKYen),
			strconv.FormatBool(r.IsReexport),
		}
	})
}

func monthlyRecord(r model.Row) []string {
	return []string{
		r.YYYYMM,
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
		r.AreaCode,
		r.AreaName,
		r.HS10,
		formatNumber(r.Units),
		formatNumber(r.Kilograms),
		formatNumber(r.ValueKYen),
	}
}

func writeCSV(path string, header []string, n int, record func(int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		file.Close()
		return fmt.Errorf("report: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			file.Close()
			return fmt.Errorf("report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return fmt.Errorf("report: %w", err)
	}
	return file.Close()
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
