// Package aggregate builds period×country pivot tables and percentage
// shares from classified rows.
package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"droneflow/internal/model"
)

// Metric selects which measure a pivot sums.
type Metric int

const (
	MetricUnits Metric = iota
	MetricValue
)

// Category names a derived grouping column.
type Category string

const (
	CategoryHS10      Category = "hs10"
	CategoryUSGroup   Category = "US_Group"
	CategoryNATOClass Category = "NATO_Class"
)

// Categories lists every grouping the renderer iterates over.
var Categories = []Category{CategoryHS10, CategoryUSGroup, CategoryNATOClass}

// PeriodFunc maps a row to its period label. Quarter buckets rows by
// calendar quarter, Half by half-year; half-year totals are sums of the
// monthly rows, never a separate query.
type PeriodFunc func(model.Row) string

func Quarter(r model.Row) string { return r.Qtr() }
func Half(r model.Row) string    { return r.Half() }

// Table is a period×country pivot. Periods are chronological, countries
// ordered by descending column total (ties alphabetical). Cells[i][j] is
// the sum for Periods[i] and Countries[j].
type Table struct {
	Periods   []string
	Countries []string
	Cells     [][]float64
}

// Pivot sums the metric by (period, country) over the given rows.
func Pivot(rows []model.Row, periodOf PeriodFunc, metric Metric) *Table {
	sums := make(map[string]map[string]float64)
	for _, r := range rows {
		period := periodOf(r)
		if sums[period] == nil {
			sums[period] = make(map[string]float64)
		}
		sums[period][r.Country] += metricValue(r, metric)
	}

	periods := make([]string, 0, len(sums))
	for period := range sums {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periodSortKey(periods[i]) < periodSortKey(periods[j])
	})

	totals := make(map[string]float64)
	for _, byCountry := range sums {
		for country, value := range byCountry {
			totals[country] += value
		}
	}
	countries := make([]string, 0, len(totals))
	for country := range totals {
		countries = append(countries, country)
	}
	sort.Slice(countries, func(i, j int) bool {
		if totals[countries[i]] != totals[countries[j]] {
			return totals[countries[i]] > totals[countries[j]]
		}
		return countries[i] < countries[j]
	})

	cells := make([][]float64, len(periods))
	for i, period := range periods {
		cells[i] = make([]float64, len(countries))
		for j, country := range countries {
			cells[i][j] = sums[period][country]
		}
	}
	return &Table{Periods: periods, Countries: countries, Cells: cells}
}

// PercentOfPeriodTotal returns a new table whose cells are each country's
// share of its period total, in percent. Shares of a period sum to 100
// within floating-point tolerance; an all-zero period stays all zero.
func (t *Table) PercentOfPeriodTotal() *Table {
	out := &Table{
		Periods:   append([]string(nil), t.Periods...),
		Countries: append([]string(nil), t.Countries...),
		Cells:     make([][]float64, len(t.Cells)),
	}
	for i, row := range t.Cells {
		out.Cells[i] = make([]float64, len(row))
		total := 0.0
		for _, value := range row {
			total += value
		}
		if total == 0 {
			continue
		}
		for j, value := range row {
			out.Cells[i][j] = value / total * 100
		}
	}
	return out
}

// Empty reports whether the table holds no nonzero cell.
func (t *Table) Empty() bool {
	for _, row := range t.Cells {
		for _, value := range row {
			if value != 0 {
				return false
			}
		}
	}
	return true
}

// Values returns the distinct non-empty values of a category column, in the
// order first seen.
func Values(rows []model.Row, category Category) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, r := range rows {
		value := Value(r, category)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		values = append(values, value)
	}
	return values
}

// Value reads a category column off a row.
func Value(r model.Row, category Category) string {
	switch category {
	case CategoryHS10:
		return r.HS10
	case CategoryUSGroup:
		return r.USGroup
	case CategoryNATOClass:
		return r.NATOClass
	default:
		return ""
	}
}

// Filter returns the rows matching a category value; an empty value keeps
// every row.
func Filter(rows []model.Row, category Category, value string) []model.Row {
	if value == "" {
		return rows
	}
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if Value(r, category) == value {
			out = append(out, r)
		}
	}
	return out
}

// ExcludeReexport drops re-export rows. The flag is constant false for this
// dataset, so today this is the identity; the subset exists so chart output
// keeps its shape.
func ExcludeReexport(rows []model.Row) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if !r.IsReexport {
			out = append(out, r)
		}
	}
	return out
}

func metricValue(r model.Row, metric Metric) float64 {
	if metric == MetricValue {
		return r.ValueKYen
	}
	return r.Units
}

// periodSortKey orders labels of the form "2024 Q1" or "2024 H2"
// chronologically.
func periodSortKey(label string) int {
	yearPart, bucketPart, ok := strings.Cut(label, " ")
	if !ok || len(bucketPart) < 2 {
		return 0
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(bucketPart[1:])
	if err != nil {
		return 0
	}
	return year*10 + n
}
