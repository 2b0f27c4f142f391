package calculator

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/nivesh/internal/models"
)

// RenderSIPChart renders a projection as a PNG with two series: value
// (indigo solid) and amount invested (gray dashed).
func RenderSIPChart(p models.SIPProjection) ([]byte, error) {
	if len(p.Years) < 2 {
		return nil, fmt.Errorf("need at least 2 years, got %d", len(p.Years))
	}

	xs := make([]float64, len(p.Years))
	value := make([]float64, len(p.Years))
	invested := make([]float64, len(p.Years))
	for i, y := range p.Years {
		xs[i] = float64(y.Year)
		value[i] = y.Value
		invested[i] = y.Invested
	}

	graph := chart.Chart{
		Title:  "SIP Projection",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("Year %.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{ValueFormatter: rupeeLakhs},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Value",
				Style:   chart.Style{StrokeColor: drawing.ColorFromHex("4f46e5"), StrokeWidth: 2.5},
				XValues: xs,
				YValues: value,
			},
			chart.ContinuousSeries{
				Name: "Invested",
				Style: chart.Style{
					StrokeColor:     drawing.ColorFromHex("9ca3af"),
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{5.0, 3.0},
				},
				XValues: xs,
				YValues: invested,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return render(graph)
}

// RenderNAVChart renders the most recent days of a NAV series as a PNG.
// The series is stored most-recent-first and plotted oldest-first.
func RenderNAVChart(h *models.NavHistory, days int) ([]byte, error) {
	if h == nil || len(h.Points) < 2 {
		return nil, fmt.Errorf("need at least 2 NAV points: %w", models.ErrDataUnavailable)
	}
	pts := h.Points
	if days > 1 && len(pts) > days {
		pts = pts[:days]
	}

	xs := make([]time.Time, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		j := len(pts) - 1 - i
		xs[j] = p.Date
		ys[j] = p.NAV
	}

	title := h.Meta.SchemeName
	if title == "" {
		title = "Scheme " + h.SchemeCode
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "NAV",
				Style:   chart.Style{StrokeColor: drawing.ColorFromHex("2563eb"), StrokeWidth: 2},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	return render(graph)
}

func rupeeLakhs(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1fL", f/100000)
	}
	return ""
}

func render(graph chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
