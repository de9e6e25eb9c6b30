package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// ErrNothingToChart is returned when no row in the report has a value.
var ErrNothingToChart = errors.New("no valued holdings to chart")

// RenderAllocationChart renders a PNG bar chart of each holding's current
// value. Holdings without a quote are left out. Returns raw PNG bytes.
func RenderAllocationChart(r *models.Report, code string) ([]byte, error) {
	if r == nil {
		return nil, ErrNothingToChart
	}

	var (
		bars []chart.Value
		top  float64
	)
	for _, v := range r.Valuations {
		if !v.Value.Valid {
			continue
		}
		f := v.Value.Decimal.InexactFloat64()
		bars = append(bars, chart.Value{
			Label: v.Symbol,
			Value: f,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2563eb"), // blue-600
				StrokeColor: drawing.ColorFromHex("1d4ed8"), // blue-700
				StrokeWidth: 1,
			},
		})
		if f > top {
			top = f
		}
	}
	if len(bars) == 0 || top <= 0 {
		return nil, ErrNothingToChart
	}

	graph := chart.BarChart{
		Title:  "Holdings by Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth:     60,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			// a fixed floor keeps a single bar from collapsing the range
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return FormatMoney(decimal.NewFromFloat(f).Round(0), code)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
