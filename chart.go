package retailsql

import "math"

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ChartSpec names the result columns a bar chart plots and how its axes are labelled
type ChartSpec struct {
	Title  string
	X      string
	Y      string
	XLabel string
	YLabel string
}

// ChartPoint is one bar
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarChart is a single-series bar chart over a query result
type BarChart struct {
	Title  string       `json:"title"`
	XAxis  string       `json:"x_axis"`
	YAxis  string       `json:"y_axis"`
	Color  string       `json:"color"`
	Points []ChartPoint `json:"points"`
}

// Bar is the geometry of one horizontal bar, scaled to a drawing width
type Bar struct {
	ChartPoint
	Index int
	Width float64
	Color string
}

// BuildChart produces a BarChart from a result. It returns nil when the result is empty
// or lacks one of the columns, so a failed query never draws a chart.
func BuildChart(spec ChartSpec, result *Result) *BarChart {
	if result == nil || result.Empty() {
		return nil
	}
	labels := result.Strings(spec.X)
	values := result.Float64s(spec.Y)
	if labels == nil || values == nil {
		return nil
	}

	xAxis := spec.XLabel
	if xAxis == "" {
		xAxis = spec.X
	}
	yAxis := spec.YLabel
	if yAxis == "" {
		yAxis = spec.Y
	}

	points := make([]ChartPoint, 0, len(labels))
	for i, label := range labels {
		points = append(points, ChartPoint{Label: label, Value: RoundTo2(values[i])})
	}
	return &BarChart{
		Title:  spec.Title,
		XAxis:  xAxis,
		YAxis:  yAxis,
		Color:  defaultColors[0],
		Points: points,
	}
}

// Max returns the largest value, or 0 for an empty chart
func (c *BarChart) Max() float64 {
	m := 0.0
	for _, p := range c.Points {
		m = math.Max(m, p.Value)
	}
	return m
}

// Bars scales every point to width; negative values are drawn as empty bars
func (c *BarChart) Bars(width float64) []Bar {
	maxValue := c.Max()
	bars := make([]Bar, len(c.Points))
	for i, p := range c.Points {
		w := 0.0
		if maxValue > 0 && p.Value > 0 {
			w = RoundTo2(p.Value / maxValue * width)
		}
		bars[i] = Bar{ChartPoint: p, Index: i, Width: w, Color: defaultColors[i%len(defaultColors)]}
	}
	return bars
}

// RoundTo2 rounds to two decimal places
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
