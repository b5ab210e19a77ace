// Package pipeline sequences the fetch → normalize → classify → snapshot →
// aggregate → render run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"droneflow/internal/classify"
	"droneflow/internal/model"
	"droneflow/internal/normalize"
	"droneflow/internal/render"
	"droneflow/internal/report"
	"droneflow/internal/store"
)

// Fetcher is the slice of the statistics client the pipeline needs.
type Fetcher interface {
	FetchRange(ctx context.Context, flow model.Flow, years []int) ([]model.RawRecord, error)
}

type Config struct {
	OutDir  string
	Years   []int
	Verbose bool
}

// Summary is the run report printed at the end: how much was fetched, how
// many cells failed row validation, how many rows had no category mapping,
// and the chart outcome.
type Summary struct {
	Fetched      map[model.Flow]int
	Rows         map[model.Flow]int
	Skipped      int
	Unclassified int
	ChartsOK     int
	ChartsSkip   int
}

// Run executes the full batch. It fails fast when a fetch errors or a flow
// normalizes to zero usable rows; row-level skips and per-chart failures
// are reported and survived. Outputs already written stay on disk.
func Run(ctx context.Context, fetcher Fetcher, st store.Store, cfg Config, errw io.Writer) (*Summary, error) {
	if errw == nil {
		errw = os.Stderr
	}
	if len(cfg.Years) == 0 {
		return nil, errors.New("pipeline: no years configured")
	}
	plotDir := filepath.Join(cfg.OutDir, "plot")
	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	summary := &Summary{
		Fetched: make(map[model.Flow]int),
		Rows:    make(map[model.Flow]int),
	}

	byFlow := make(map[model.Flow][]model.Row)
	for _, flow := range []model.Flow{model.FlowExport, model.FlowImport} {
		records, err := fetcher.FetchRange(ctx, flow, cfg.Years)
		if err != nil {
			return nil, fmt.Errorf("pipeline: fetch %s: %w", flow, err)
		}
		summary.Fetched[flow] = len(records)

		result := normalize.Records(records, flow)
		summary.Skipped += result.Skipped
		if len(result.Rows) == 0 {
			return nil, fmt.Errorf("pipeline: %s yielded no usable rows (%d skipped)", flow, result.Skipped)
		}
		summary.Rows[flow] = len(result.Rows)
		byFlow[flow] = result.Rows

		path := filepath.Join(cfg.OutDir, fmt.Sprintf("jp_8806_%s_by_country_month.csv", flow))
		if err := report.WriteMonthlyCSV(path, result.Rows); err != nil {
			return nil, err
		}
		if cfg.Verbose {
			fmt.Fprintf(errw, "%s: fetched=%d rows=%d skipped=%d\n", flow, len(records), len(result.Rows), result.Skipped)
		}
	}

	merged := Merge(byFlow[model.FlowExport], byFlow[model.FlowImport])
	classified, unclassified := classify.Rows(merged)
	summary.Unclassified = unclassified

	if err := report.WriteCombinedCSV(filepath.Join(cfg.OutDir, "jp_8806_combined_by_country_month.csv"), classified); err != nil {
		return nil, err
	}

	cleaned := flowRows(classified, model.FlowExport)
	if err := report.WriteCleanedCSV(filepath.Join(cfg.OutDir, "JP_cleaned_export_by_hs10.csv"), cleaned); err != nil {
		return nil, err
	}
	if err := report.WriteWorkbook(filepath.Join(cfg.OutDir, "JP_summary.xlsx"), cleaned); err != nil {
		return nil, err
	}

	if err := st.UpsertRows(ctx, classified); err != nil {
		return nil, fmt.Errorf("pipeline: store: %w", err)
	}

	renderer := render.New(plotDir, cleaned)
	summary.ChartsOK, summary.ChartsSkip = renderer.Suite(cleaned, errw)

	return summary, nil
}

// Merge concatenates the per-flow batches. Rows keep their flow tag; the
// merged length is always the sum of the inputs.
func Merge(batches ...[]model.Row) []model.Row {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	merged := make([]model.Row, 0, total)
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	return merged
}

func flowRows(rows []model.Row, flow model.Flow) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if r.Flow == flow {
			out = append(out, r)
		}
	}
	return out
}
