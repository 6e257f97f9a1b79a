package services

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"atlas/internal/core"
)

var ErrNoRevenue = errors.New("no revenue to chart")

// RenderRevenueChart draws one bar per month present in the series.
func RenderRevenueChart(months []core.MonthRevenue) ([]byte, error) {
	if len(months) == 0 {
		return nil, ErrNoRevenue
	}

	bars := make([]chart.Value, len(months))
	maxValue := 0.0
	for i, m := range months {
		v := m.Revenue.Float()
		bars[i] = chart.Value{
			Label: m.Month,
			Value: v,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("f1641e"),
				StrokeColor: drawing.ColorFromHex("f1641e"),
			},
		}
		if v > maxValue {
			maxValue = v
		}
	}

	if maxValue == 0 {
		maxValue = 1
	}

	graph := chart.BarChart{
		Title:    "Monthly Revenue",
		Width:    900,
		Height:   400,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return core.FormatCurrency(core.FromFloat(f))
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
