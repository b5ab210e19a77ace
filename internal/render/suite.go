package render

import (
	"fmt"
	"io"

	"droneflow/internal/aggregate"
	"droneflow/internal/model"
)

// Suite produces the full fixed chart set from classified export rows:
//
//	01 counts by quarter        02 count share by quarter
//	03 value by quarter         04 value share by quarter
//	05 units/value by half-year 06 unit/value share by half-year
//
// Charts 01–04 are drawn for the top-level total and once per category
// value; 05/06 for the top-level total. Everything is drawn for the All
// and Exclude_re-export subsets. A chart whose input is empty is skipped
// and counted, not fatal for the run.
func (r *Renderer) Suite(rows []model.Row, errw io.Writer) (written, skipped int) {
	subsets := []struct {
		suffix string
		rows   []model.Row
	}{
		{"All", rows},
		{"Exclude_re-export", aggregate.ExcludeReexport(rows)},
	}

	for _, subset := range subsets {
		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Quarter, aggregate.MetricUnits), false,
			fmt.Sprintf("Total Drone Exports by Country – %s", subset.suffix),
			"Number of Drones Exported",
			fmt.Sprintf("JP_01_Counts_total_%s.png", subset.suffix))
		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Quarter, aggregate.MetricUnits), true,
			fmt.Sprintf("Total Export Share by Country – %s", subset.suffix),
			"Percentage of Quarter Total (%)",
			fmt.Sprintf("JP_02_Percent_total_%s.png", subset.suffix))
		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Quarter, aggregate.MetricValue), false,
			fmt.Sprintf("Total Export Value by Country – %s", subset.suffix),
			"Value (K JPY)",
			fmt.Sprintf("JP_03_Value_%s.png", subset.suffix))
		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Quarter, aggregate.MetricValue), true,
			fmt.Sprintf("Value Share by Country – %s", subset.suffix),
			"Percentage of Quarter Value (%)",
			fmt.Sprintf("JP_04_ValuePct_%s.png", subset.suffix))

		for _, category := range aggregate.Categories {
			for _, value := range aggregate.Values(subset.rows, category) {
				catRows := aggregate.Filter(subset.rows, category, value)
				annotated := annotateTitle(category, value, rows)
				clean := CleanName(value)

				written, skipped = r.chart(written, skipped, errw,
					aggregate.Pivot(catRows, aggregate.Quarter, aggregate.MetricUnits), false,
					fmt.Sprintf("Drone Exports by Country for %s – %s%s", value, subset.suffix, annotated),
					"Number of Drones Exported",
					fmt.Sprintf("JP_01_Counts_%s_%s_%s.png", category, subset.suffix, clean))
				written, skipped = r.chart(written, skipped, errw,
					aggregate.Pivot(catRows, aggregate.Quarter, aggregate.MetricUnits), true,
					fmt.Sprintf("Export Share by Country for %s – %s%s", value, subset.suffix, annotated),
					"Percentage of Quarter Total (%)",
					fmt.Sprintf("JP_02_Percent_%s_%s_%s.png", category, subset.suffix, clean))
				written, skipped = r.chart(written, skipped, errw,
					aggregate.Pivot(catRows, aggregate.Quarter, aggregate.MetricValue), false,
					fmt.Sprintf("Export Value by Country for %s – %s%s", value, subset.suffix, annotated),
					"Value (K JPY)",
					fmt.Sprintf("JP_03_Value_%s_%s_%s.png", category, subset.suffix, clean))
				written, skipped = r.chart(written, skipped, errw,
					aggregate.Pivot(catRows, aggregate.Quarter, aggregate.MetricValue), true,
					fmt.Sprintf("Value Share for %s – %s%s", value, subset.suffix, annotated),
					"Percentage of Quarter Value (%)",
					fmt.Sprintf("JP_04_ValuePct_%s_%s_%s.png", category, subset.suffix, clean))
			}
		}

		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Half, aggregate.MetricUnits), false,
			fmt.Sprintf("Total Export Units by Period – %s", subset.suffix),
			"Units (NO)",
			fmt.Sprintf("JP_05_Value_Total_%s.png", subset.suffix))
		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Half, aggregate.MetricValue), false,
			fmt.Sprintf("Total Export Value by Period – %s", subset.suffix),
			"Value (K JPY)",
			fmt.Sprintf("JP_05_Value_Total_Yen_%s.png", subset.suffix))
		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Half, aggregate.MetricUnits), true,
			fmt.Sprintf("Unit Share by Period – %s", subset.suffix),
			"Percentage Share (%)",
			fmt.Sprintf("JP_06_ValuePct_Total_%s.png", subset.suffix))
		written, skipped = r.chart(written, skipped, errw,
			aggregate.Pivot(subset.rows, aggregate.Half, aggregate.MetricValue), true,
			fmt.Sprintf("Value Share by Period – %s", subset.suffix),
			"Percentage Share (%)",
			fmt.Sprintf("JP_06_ValuePct_Total_Yen_%s.png", subset.suffix))
	}
	return written, skipped
}

func (r *Renderer) chart(written, skipped int, errw io.Writer, t *aggregate.Table, percent bool, title, ylabel, filename string) (int, int) {
	if percent {
		t = t.PercentOfPeriodTotal()
	}
	if err := r.StackedBar(t, title, ylabel, filename); err != nil {
		fmt.Fprintf(errw, "skip chart %s: %v\n", filename, err)
		return written, skipped + 1
	}
	return written + 1, skipped
}

// annotateTitle appends the weight band when charting a single product
// code, matching the title convention of the existing report decks.
func annotateTitle(category aggregate.Category, value string, rows []model.Row) string {
	if category != aggregate.CategoryHS10 {
		return ""
	}
	mtow := ""
	for _, r := range rows {
		if r.HS10 != value || r.MTOW == "" {
			continue
		}
		if mtow == "" {
			mtow = r.MTOW
		} else if mtow != r.MTOW {
			return ""
		}
	}
	if mtow == "" {
		return ""
	}
	return fmt.Sprintf(" (MTOW: %s)", mtow)
}
