package dashboard

import "strconv"

// Event types accepted by the coordinator.
const (
	EventMapClick        = "map_click"
	EventRadarClick      = "radar_click"
	EventScatterRelayout = "scatter_relayout"
	EventBarClick        = "bar_click"
	EventTreemapClick    = "treemap_click"
	EventSetDates        = "set_dates"
	EventSetTypes        = "set_incident_types"
	EventSetKPI          = "set_kpi"
	EventSetState        = "set_state"
)

// ClickPoint mirrors the chart click payload fields the coordinator reads.
// Which field is populated depends on the chart: Location for the map, Theta
// for radar axes, Y for bar rows, Label/Parent for treemap nodes.
type ClickPoint struct {
	Location string `json:"location,omitempty"`
	Theta    string `json:"theta,omitempty"`
	Y        string `json:"y,omitempty"`
	Label    string `json:"label,omitempty"`
	Parent   string `json:"parent,omitempty"`
}

// Relayout is a zoom/pan payload: axis range keys plus an autosize marker on
// pure resizes.
type Relayout map[string]interface{}

// Range extracts an axis bound. Values may arrive as JSON numbers or
// strings.
func (r Relayout) Range(key string) (float64, bool) {
	raw, ok := r[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Autosize reports whether the payload is a pure resize, which must not
// trigger recomputation.
func (r Relayout) Autosize() bool {
	_, ok := r["autosize"]
	return ok
}

// Event is one user interaction delivered to the coordinator.
type Event struct {
	Type          string       `json:"type"`
	Points        []ClickPoint `json:"points,omitempty"`
	Relayout      Relayout     `json:"relayout,omitempty"`
	StartDate     string       `json:"start_date,omitempty"`
	EndDate       string       `json:"end_date,omitempty"`
	IncidentTypes []string     `json:"incident_types,omitempty"`
	KPI           string       `json:"kpi,omitempty"`
	State         string       `json:"state,omitempty"`
}
