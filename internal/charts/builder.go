package charts

import (
	"fmt"

	"github.com/safety-tracker/backend/internal/analytics"
	"github.com/safety-tracker/backend/internal/dataset"
)

// TreemapRoot is the synthetic root node label. Clicking it in the UI clears
// the occupation predicate.
const TreemapRoot = "US Market"

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Config is an opaque, render-ready chart description. The engine guarantees
// the table shapes feeding it; the frontend interprets the rest.
type Config struct {
	ChartType  string   `json:"chartType"`
	Title      string   `json:"title"`
	XAxis      string   `json:"xAxis,omitempty"`
	YAxis      string   `json:"yAxis,omitempty"`
	Series     []Series `json:"series"`
	Colors     []string `json:"colors,omitempty"`
	ShowLegend bool     `json:"showLegend"`
	Empty      bool     `json:"empty,omitempty"`
}

// Series is one data series in a chart.
type Series struct {
	Name   string  `json:"name"`
	Data   []Point `json:"data"`
	Color  string  `json:"color,omitempty"`
	Parent string  `json:"parent,omitempty"`
}

// Point is a single data point. Secondary carries the y value for scatter
// points and the hover text for map locations.
type Point struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Secondary float64 `json:"secondary,omitempty"`
	Text      string  `json:"text,omitempty"`
}

// BuildRadar renders the scaled KPI profile of a state against the
// dataset-wide mean.
func BuildRadar(table analytics.RadarTable) *Config {
	config := &Config{
		ChartType:  "radar",
		Title:      fmt.Sprintf("Safety profile: %s", dataset.StateName(table.StateCode)),
		ShowLegend: true,
		Empty:      len(table.Rows) == 0,
	}

	state := Series{Name: dataset.StateName(table.StateCode)}
	mean := Series{Name: "All states mean"}
	for _, row := range table.Rows {
		state.Data = append(state.Data, Point{Label: row.Label, Value: row.ScaledValue, Secondary: row.Value})
		mean.Data = append(mean.Data, Point{Label: row.Label, Value: row.ScaledMeanValue, Secondary: row.MeanValue})
	}
	config.Series = []Series{state, mean}
	config.Colors = assignColors(2)
	return config
}

// BuildMap renders the per-state choropleth for the selected KPI.
func BuildMap(table analytics.StateTable, selectedState string) *Config {
	config := &Config{
		ChartType: "choropleth",
		Title:     fmt.Sprintf("%s by state", table.KPI.Label()),
		Empty:     len(table.Rows) == 0,
	}

	series := Series{Name: table.KPI.Label()}
	for _, row := range table.Rows {
		series.Data = append(series.Data, Point{
			Label: row.StateCode,
			Value: row.KPIValue,
			Text: fmt.Sprintf("%s: %d incidents, injury density %.4f",
				dataset.StateName(row.StateCode), row.CaseCount, row.InjuryDensity),
		})
	}
	config.Series = []Series{series}
	return config
}

// BuildTreemap renders the occupation breakdown. Leaves sit under their
// level-1 category, which sits under the synthetic root.
func BuildTreemap(table analytics.TreemapTable) *Config {
	config := &Config{
		ChartType: "treemap",
		Title: fmt.Sprintf("%s by occupation: %s",
			table.KPI.Label(), dataset.StateName(table.StateCode)),
		Empty: len(table.Rows) == 0,
	}

	for _, row := range table.Rows {
		config.Series = append(config.Series, Series{
			Name:   row.OccupationDetail,
			Parent: row.OccupationMajor,
			Data: []Point{{
				Label:     row.OccupationDetail,
				Value:     float64(row.Count),
				Secondary: row.Metric,
			}},
		})
	}
	return config
}

// BuildScatter renders industries by mean work-start time (x) and mean
// incident time (y), sized by incident count.
func BuildScatter(table analytics.ScatterTable) *Config {
	config := &Config{
		ChartType: "scatter",
		Title:     fmt.Sprintf("Incident timing by industry: %s", dataset.StateName(table.StateCode)),
		XAxis:     "Mean time started work",
		YAxis:     "Mean time of incident",
		Empty:     len(table.Rows) == 0,
	}

	series := Series{Name: "Industries"}
	for _, row := range table.Rows {
		series.Data = append(series.Data, Point{
			Label:     row.Industry,
			Value:     row.MeanStartTime,
			Secondary: row.MeanIncidentTime,
			Text: fmt.Sprintf("%s: %d incidents, started %s, occurred %s (%s)",
				row.Industry, row.CaseCount, row.MeanStartTimeLabel, row.MeanIncidentTimeLabel, row.EstablishmentType),
		})
	}
	config.Series = []Series{series}
	return config
}

// BuildStackedBar renders outcome rows as stacked establishment-type
// proportions.
func BuildStackedBar(table analytics.StackedBarTable) *Config {
	config := &Config{
		ChartType:  "stacked_bar",
		Title:      fmt.Sprintf("Outcomes by establishment type: %s", dataset.StateName(table.StateCode)),
		XAxis:      "Share of incidents",
		YAxis:      "Incident outcome",
		ShowLegend: true,
		Empty:      len(table.Rows) == 0,
	}

	for i, est := range table.EstablishmentTypes {
		series := Series{Name: est, Color: defaultColors[i%len(defaultColors)]}
		for _, row := range table.Rows {
			series.Data = append(series.Data, Point{Label: row.Outcome, Value: row.Proportions[i]})
		}
		config.Series = append(config.Series, series)
	}
	return config
}

// BuildSplom renders the scatter-matrix panel over the per-state aggregates,
// highlighting the selected state.
func BuildSplom(table analytics.StateTable, selectedState string) *Config {
	config := &Config{
		ChartType: "splom",
		Title:     "State aggregates",
		Empty:     len(table.Rows) == 0,
	}

	dims := []struct {
		name  string
		value func(analytics.StateRow) float64
	}{
		{"Incident count", func(r analytics.StateRow) float64 { return float64(r.CaseCount) }},
		{"Mean employees", func(r analytics.StateRow) float64 { return r.AvgEmployees }},
		{"Mean hours worked", func(r analytics.StateRow) float64 { return r.AvgHoursWorked }},
		{"Injury density", func(r analytics.StateRow) float64 { return r.InjuryDensity }},
		{table.KPI.Label(), func(r analytics.StateRow) float64 { return r.KPIValue }},
	}

	for _, dim := range dims {
		series := Series{Name: dim.name}
		for _, row := range table.Rows {
			p := Point{Label: row.StateCode, Value: dim.value(row)}
			if row.StateCode == selectedState {
				p.Text = "selected"
			}
			series.Data = append(series.Data, p)
		}
		config.Series = append(config.Series, series)
	}
	return config
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := range colors {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
