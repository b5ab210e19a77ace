package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"droneflow/internal/aggregate"
	"droneflow/internal/model"
)

// WriteWorkbook writes a summary workbook: the cleaned rows plus quarterly
// unit and value pivots with countries as columns.
func WriteWorkbook(path string, rows []model.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	const cleanedSheet = "Cleaned"
	f.SetSheetName("Sheet1", cleanedSheet)

	for i, header := range cleanedHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		f.SetCellValue(cleanedSheet, col+"1", header)
		f.SetColWidth(cleanedSheet, col, col, 16)
	}
	for i, r := range rows {
		row := i + 2
		f.SetCellValue(cleanedSheet, fmt.Sprintf("A%d", row), r.Qtr())
		f.SetCellValue(cleanedSheet, fmt.Sprintf("B%d", row), r.Half())
		f.SetCellValue(cleanedSheet, fmt.Sprintf("C%d", row), r.Country)
		f.SetCellValue(cleanedSheet, fmt.Sprintf("D%d", row), r.HS10)
		f.SetCellValue(cleanedSheet, fmt.Sprintf("E%d", row), r.USGroup)
		f.SetCellValue(cleanedSheet, fmt.Sprintf("F%d", row), r.NATOClass)
		f.SetCellValue(cleanedSheet, fmt.Sprintf("G%d", row), r.MTOW)
		f.SetCellValue(cleanedSheet, fmt.Sprintf("H%d", row), r.Units)
		f.SetCellValue(cleanedSheet, fmt.Sprintf("I%d", row), r.ValueKYen)
		f.SetCellValue(cleanedSheet, fmt.Sprintf("J%d", row), r.IsReexport)
	}

	if err := writePivotSheet(f, "Quarter_Units", aggregate.Pivot(rows, aggregate.Quarter, aggregate.MetricUnits)); err != nil {
		return err
	}
	if err := writePivotSheet(f, "Quarter_Value", aggregate.Pivot(rows, aggregate.Quarter, aggregate.MetricValue)); err != nil {
		return err
	}
	if err := writePivotSheet(f, "Period_Unit_Share", aggregate.Pivot(rows, aggregate.Half, aggregate.MetricUnits).PercentOfPeriodTotal()); err != nil {
		return err
	}
	if err := writePivotSheet(f, "Period_Value_Share", aggregate.Pivot(rows, aggregate.Half, aggregate.MetricValue).PercentOfPeriodTotal()); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func writePivotSheet(f *excelize.File, sheet string, t *aggregate.Table) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	f.SetCellValue(sheet, "A1", "period")
	for j, country := range t.Countries {
		cell, err := excelize.CoordinatesToCellName(j+2, 1)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		f.SetCellValue(sheet, cell, country)
	}
	for i, period := range t.Periods {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		f.SetCellValue(sheet, cell, period)
		for j := range t.Countries {
			cell, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			f.SetCellValue(sheet, cell, t.Cells[i][j])
		}
	}
	return nil
}
