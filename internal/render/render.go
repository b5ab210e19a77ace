// Package render draws stacked bar charts from aggregated tables.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"droneflow/internal/aggregate"
	"droneflow/internal/model"
)

// ErrEmptyTable marks a chart whose aggregated input holds no data. The
// failure is fatal for that chart only; callers skip it and continue.
var ErrEmptyTable = errors.New("render: empty table")

// palette mirrors the tab20 colors so the same country keeps its color
// across every chart.
var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xae, G: 0xc7, B: 0xe8, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0xff, G: 0xbb, B: 0x78, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0x98, G: 0xdf, B: 0x8a, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0xff, G: 0x98, B: 0x96, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0xc5, G: 0xb0, B: 0xd5, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	color.RGBA{R: 0xc4, G: 0x9c, B: 0x94, A: 0xff},
	color.RGBA{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	color.RGBA{R: 0xf7, G: 0xb6, B: 0xd2, A: 0xff},
	color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	color.RGBA{R: 0xc7, G: 0xc7, B: 0xc7, A: 0xff},
	color.RGBA{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	color.RGBA{R: 0xdb, G: 0xdb, B: 0x8d, A: 0xff},
	color.RGBA{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
	color.RGBA{R: 0x9e, G: 0xda, B: 0xe5, A: 0xff},
}

var fallbackColor = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}

// Renderer writes chart PNGs into a directory, keeping a stable
// country→color assignment across all of them.
type Renderer struct {
	dir    string
	colors map[string]color.Color
}

// New builds a renderer for the output directory. Colors are assigned from
// the sorted distinct countries so every chart colors a country the same.
func New(dir string, rows []model.Row) *Renderer {
	countries := make(map[string]bool)
	for _, r := range rows {
		if r.Country != "" {
			countries[r.Country] = true
		}
	}
	sorted := make([]string, 0, len(countries))
	for country := range countries {
		sorted = append(sorted, country)
	}
	sort.Strings(sorted)

	colors := make(map[string]color.Color, len(sorted))
	for i, country := range sorted {
		colors[country] = palette[i%len(palette)]
	}
	return &Renderer{dir: dir, colors: colors}
}

// StackedBar draws one stacked bar chart and saves it as filename inside
// the renderer's directory. Countries whose column totals are zero are not
// drawn. An all-zero table returns ErrEmptyTable.
func (r *Renderer) StackedBar(t *aggregate.Table, title, ylabel, filename string) error {
	if t == nil || len(t.Periods) == 0 || t.Empty() {
		return ErrEmptyTable
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.X.Label.Text = "Quarter/Period"

	var prev *plotter.BarChart
	for j, country := range t.Countries {
		total := 0.0
		values := make(plotter.Values, len(t.Periods))
		for i := range t.Periods {
			values[i] = t.Cells[i][j]
			total += t.Cells[i][j]
		}
		if total == 0 {
			continue
		}

		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return fmt.Errorf("render: %s: %w", filename, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		if c, ok := r.colors[country]; ok {
			bars.Color = c
		} else {
			bars.Color = fallbackColor
		}
		if prev != nil {
			bars.StackOn(prev)
		}
		p.Add(bars)
		p.Legend.Add(country, bars)
		prev = bars
	}

	p.NominalX(t.Periods...)
	p.Legend.Top = true
	p.Legend.Left = false

	outPath := filepath.Join(r.dir, filename)
	if err := p.Save(12*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return fmt.Errorf("render: %s: %w", filename, err)
	}
	return nil
}

// CleanName makes a category value safe for use in a filename.
func CleanName(value string) string {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ":", "_")
	var b strings.Builder
	for _, ch := range s {
		if strings.ContainsRune(`<>"|?*`, ch) {
			continue
		}
		b.WriteRune(ch)
	}
	if b.Len() == 0 {
		return "Unknown"
	}
	return b.String()
}
