package charting

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"prodstat/analytics"
)

// Generator renders report data as PNG images.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// maxParetoBars keeps the bar chart readable; the tail past this point
// is the long tail by definition.
const maxParetoBars = 12

var shiftPalette = []drawing.Color{
	drawing.ColorFromHex("2980b9"),
	drawing.ColorFromHex("e74c3c"),
	drawing.ColorFromHex("27ae60"),
	drawing.ColorFromHex("f39c12"),
	drawing.ColorFromHex("8e44ad"),
}

// GeneratePareto renders ranked loss causes as a bar chart, highest
// first, truncated to the top causes.
func (g *Generator) GeneratePareto(title, yLabel string, entries []analytics.ParetoEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no data for pareto chart")
	}
	if len(entries) > maxParetoBars {
		entries = entries[:maxParetoBars]
	}

	bars := make([]chart.Value, 0, len(entries))
	for _, e := range entries {
		bars = append(bars, chart.Value{
			Label: e.Category,
			Value: e.Magnitude,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2980b9"),
				StrokeColor: drawing.ColorFromHex("2980b9"),
			},
		})
	}

	graph := chart.BarChart{
		Title:  title,
		Width:  900,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth: 40,
		YAxis: chart.YAxis{
			Name: yLabel,
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	err := graph.Render(chart.PNG, buffer)
	return buffer.Bytes(), err
}

// GenerateTrend renders a (date, shift) matrix as one time series per
// shift number.
func (g *Generator) GenerateTrend(title, yLabel string, buckets analytics.Buckets) ([]byte, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("no data for trend chart")
	}

	dates := make([]string, 0, len(buckets))
	shiftSet := make(map[int]bool)
	for date, row := range buckets {
		dates = append(dates, date)
		for shift := range row {
			shiftSet[shift] = true
		}
	}
	sort.Strings(dates)

	shiftNumbers := make([]int, 0, len(shiftSet))
	for n := range shiftSet {
		shiftNumbers = append(shiftNumbers, n)
	}
	sort.Ints(shiftNumbers)

	series := make([]chart.Series, 0, len(shiftNumbers))
	for i, shift := range shiftNumbers {
		ts := chart.TimeSeries{
			Name: fmt.Sprintf("Shift %d", shift),
			Style: chart.Style{
				StrokeColor: shiftPalette[i%len(shiftPalette)],
				StrokeWidth: 2,
			},
		}
		for _, date := range dates {
			v, ok := buckets[date][shift]
			if !ok {
				continue
			}
			t, err := time.Parse("2006-01-02", date)
			if err != nil {
				continue
			}
			ts.XValues = append(ts.XValues, t)
			ts.YValues = append(ts.YValues, v)
		}
		if len(ts.XValues) > 0 {
			series = append(series, ts)
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no plottable points for trend chart")
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name: "Date",
		},
		YAxis: chart.YAxis{
			Name: yLabel,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	buffer := bytes.NewBuffer([]byte{})
	err := graph.Render(chart.PNG, buffer)
	return buffer.Bytes(), err
}
