package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"droneflow/internal/estat"
	"droneflow/internal/model"
	"droneflow/internal/pipeline"
	"droneflow/internal/store"
	"droneflow/internal/store/sqlite"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		run(nil)
		return
	}

	switch args[0] {
	case "run":
		run(args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	outDir := fs.String("out", "out", "output directory for CSVs, workbook and charts")
	years := fs.String("years", "2022,2023,2024,2025", "comma-separated calendar years to fetch")
	dbPath := fs.String("db", "", "sqlite snapshot path (empty disables persistence)")
	verbose := fs.Bool("verbose", false, "print per-flow fetch details")
	fs.Parse(args)

	if err := runPipeline(*outDir, *years, *dbPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "droneflow run failed:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: droneflow [run [options]]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "with no arguments the full pipeline runs with defaults")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -out      output directory (default: out)")
	fmt.Fprintln(os.Stderr, "  -years    comma-separated years (default: 2022,2023,2024,2025)")
	fmt.Fprintln(os.Stderr, "  -db       sqlite snapshot path (default: disabled)")
	fmt.Fprintln(os.Stderr, "  -verbose  print per-flow fetch details")
}

func runPipeline(outDir, yearsCSV, dbPath string, verbose bool) error {
	years, err := parseYears(yearsCSV)
	if err != nil {
		return err
	}

	client, err := estat.New()
	if err != nil {
		return err
	}

	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	summary, err := pipeline.Run(ctx, client, st, pipeline.Config{
		OutDir:  outDir,
		Years:   years,
		Verbose: verbose,
	}, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("droneflow run complete (export rows=%d import rows=%d skipped=%d unclassified=%d)\n",
		summary.Rows[model.FlowExport], summary.Rows[model.FlowImport],
		summary.Skipped, summary.Unclassified,
	)
	fmt.Printf("charts written=%d skipped=%d\n", summary.ChartsOK, summary.ChartsSkip)
	return nil
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

func parseYears(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	years := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		year, err := strconv.Atoi(part)
		if err != nil || year < 1900 || year > 2999 {
			return nil, fmt.Errorf("invalid year: %s", part)
		}
		years = append(years, year)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no years provided")
	}
	return years, nil
}
