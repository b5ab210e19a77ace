package model

import "fmt"

type Flow string

const (
	FlowExport Flow = "export"
	FlowImport Flow = "import"
)

// Variable identifies which measure a raw statistics cell carries.
type Variable string

const (
	VarUnits       Variable = "NO"
	VarKilograms   Variable = "KG"
	VarThousandYen Variable = "YEN"
)

// HSFamily is the top-level product family this pipeline operates on
// (unmanned aircraft). Rows outside the family are dropped, never kept
// with an empty code.
const HSFamily = "8806"

// RawRecord is one variable-level cell as returned by the statistics API:
// a single (month, area, product code, variable) observation. Value is the
// raw cell text; blank and "-" cells are resolved by the normalizer.
type RawRecord struct {
	Year     int
	Month    int
	HSCode   string // nine-digit code as delivered, e.g. "880692000"
	AreaCode string
	AreaName string // as delivered, e.g. "103_大韓民国"
	Variable Variable
	Value    string
}

// Row is the canonical monthly observation. The normalizer creates it from
// raw cells, the classifier enriches it exactly once, and the aggregator and
// renderer treat it as read-only.
type Row struct {
	Flow     Flow
	YYYYMM   string
	Year     int
	Month    int
	AreaCode string
	AreaName string
	HS10     string // dotted four-segment code, e.g. "8806.92.00.00"

	Units     float64 // number of aircraft
	Kilograms float64
	ValueKYen float64 // thousands of yen

	// Set by the classifier.
	Country   string
	USGroup   string
	NATOClass string
	MTOW      string

	// IsReexport is constant false: the source table carries no re-export
	// flag. The field is kept explicit so outputs retain the column and the
	// Exclude_re-export chart subset keeps its shape.
	IsReexport bool
}

// Qtr returns the quarter label used as the chart index, e.g. "2024 Q1".
func (r Row) Qtr() string {
	return fmt.Sprintf("%04d Q%d", r.Year, (r.Month-1)/3+1)
}

// Half returns the half-year bucket, e.g. "2024 H1". Months 1-6 fall in H1.
func (r Row) Half() string {
	half := 1
	if r.Month > 6 {
		half = 2
	}
	return fmt.Sprintf("%04d H%d", r.Year, half)
}
