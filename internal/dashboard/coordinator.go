package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/safety-tracker/backend/internal/analytics"
	"github.com/safety-tracker/backend/internal/charts"
	"github.com/safety-tracker/backend/internal/dataset"
	appmetrics "github.com/safety-tracker/backend/internal/metrics"
)

// ViewCache memoizes prepared chart configs. A nil cache disables
// memoization; a failing cache degrades to recomputation.
type ViewCache interface {
	Get(ctx context.Context, key string, v interface{}) bool
	Set(ctx context.Context, key string, v interface{})
}

// Session is the request-scoped cross-filter state of one dashboard user.
// Never shared between connections: concurrent sessions filter
// independently against the same immutable dataset.
type Session struct {
	StartDate     time.Time
	EndDate       time.Time
	IncidentTypes []string
	SelectedState string
	SelectedKPI   analytics.KPI
	LastOutcome   string
}

// State is the session snapshot exposed to the UI layer so controls can
// reflect the current filters.
type State struct {
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	IncidentTypes   []string `json:"incident_types"`
	SelectedState   string   `json:"selected_state"`
	SelectedKPI     string   `json:"selected_kpi"`
	SelectedOutcome string   `json:"selected_outcome,omitempty"`
}

// Update carries the charts a trigger recomputed. Fields the trigger does
// not feed stay nil so the UI leaves those charts untouched.
type Update struct {
	Radar   *charts.Config `json:"radar,omitempty"`
	Map     *charts.Config `json:"map,omitempty"`
	Splom   *charts.Config `json:"splom,omitempty"`
	Scatter *charts.Config `json:"scatter,omitempty"`
	Treemap *charts.Config `json:"treemap,omitempty"`
	Bar     *charts.Config `json:"bar,omitempty"`
	NoData  bool           `json:"no_data,omitempty"`
	Session State          `json:"session"`
}

// Coordinator resolves chart interactions into the next consistent set of
// views. It holds only immutable shared state; all mutable state lives in
// the per-request Session.
type Coordinator struct {
	store *dataset.Store
	cache ViewCache
}

func New(store *dataset.Store, cache ViewCache) *Coordinator {
	return &Coordinator{store: store, cache: cache}
}

// NewSession returns the initial filter state: full date range, no type
// filter, first state, incident rate.
func (c *Coordinator) NewSession() Session {
	start, end := c.store.Bounds()
	sess := Session{StartDate: start, EndDate: end, SelectedKPI: analytics.KPIIncidentRate}
	if states := c.store.StateCodes(); len(states) > 0 {
		sess.SelectedState = states[0]
	}
	return sess
}

func (c *Coordinator) snapshot(sess *Session) State {
	return State{
		StartDate:       sess.StartDate.Format("2006-01-02"),
		EndDate:         sess.EndDate.Format("2006-01-02"),
		IncidentTypes:   sess.IncidentTypes,
		SelectedState:   sess.SelectedState,
		SelectedKPI:     sess.SelectedKPI.Key(),
		SelectedOutcome: sess.LastOutcome,
	}
}

// Apply resolves one event against the session. Malformed payloads (no
// points, unknown labels) are no-ops, never errors; only contract
// violations like unparsable dates return an error.
func (c *Coordinator) Apply(ctx context.Context, sess *Session, ev Event) (*Update, error) {
	appmetrics.EventsTotal.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case EventMapClick:
		if len(ev.Points) == 0 || ev.Points[0].Location == "" {
			return c.noop(sess), nil
		}
		clicked := ev.Points[0].Location
		if clicked == sess.SelectedState {
			return c.noop(sess), nil
		}
		sess.SelectedState = clicked
		return c.rebuildAll(ctx, sess), nil

	case EventRadarClick:
		if len(ev.Points) == 0 {
			return c.noop(sess), nil
		}
		kpi, ok := analytics.KPIFromLabel(ev.Points[0].Theta)
		if !ok || kpi == sess.SelectedKPI {
			return c.noop(sess), nil
		}
		sess.SelectedKPI = kpi
		return c.rebuildAll(ctx, sess), nil

	case EventScatterRelayout:
		if len(ev.Relayout) == 0 || ev.Relayout.Autosize() {
			return c.noop(sess), nil
		}
		frame, scope := c.timeWindowFrame(ctx, sess, ev.Relayout)
		update := c.noop(sess)
		update.Treemap = c.treemapConfig(ctx, sess, frame, scope)
		update.Bar = c.barConfig(ctx, sess, frame, scope)
		return update, nil

	case EventBarClick:
		if len(ev.Points) == 0 || ev.Points[0].Y == "" {
			return c.noop(sess), nil
		}
		outcome := ev.Points[0].Y
		frame := c.baseFilter(ctx, sess)
		scope := ""
		if outcome == sess.LastOutcome {
			// Same bar clicked twice: the outcome predicate toggles off.
			sess.LastOutcome = ""
		} else {
			sess.LastOutcome = outcome
			frame = frame.Where(analytics.OutcomeIs(outcome))
			scope = "outcome=" + outcome
		}
		update := c.noop(sess)
		update.Treemap = c.treemapConfig(ctx, sess, frame, scope)
		update.Scatter = c.scatterConfig(ctx, sess, frame, scope)
		return update, nil

	case EventTreemapClick:
		if len(ev.Points) == 0 {
			return c.noop(sess), nil
		}
		label, parent := ev.Points[0].Label, ev.Points[0].Parent
		frame := c.baseFilter(ctx, sess)
		scope := ""
		if parent != "" && parent != charts.TreemapRoot {
			frame = frame.Where(analytics.OccupationIs(parent, label))
			scope = "soc=" + parent + "/" + label
		} else if label != charts.TreemapRoot && label != "" {
			frame = frame.Where(analytics.OccupationIs(label, ""))
			scope = "soc=" + label
		}
		update := c.noop(sess)
		update.Bar = c.barConfig(ctx, sess, frame, scope)
		update.Scatter = c.scatterConfig(ctx, sess, frame, scope)
		return update, nil

	case EventSetDates:
		start, err := time.Parse("2006-01-02", ev.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date %q: %w", ev.StartDate, err)
		}
		end, err := time.Parse("2006-01-02", ev.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date %q: %w", ev.EndDate, err)
		}
		sess.StartDate, sess.EndDate = start, end
		return c.rebuildAll(ctx, sess), nil

	case EventSetTypes:
		sess.IncidentTypes = ev.IncidentTypes
		return c.rebuildAll(ctx, sess), nil

	case EventSetKPI:
		kpi, ok := analytics.KPIFromKey(ev.KPI)
		if !ok || kpi == sess.SelectedKPI {
			return c.noop(sess), nil
		}
		sess.SelectedKPI = kpi
		return c.rebuildAll(ctx, sess), nil

	case EventSetState:
		if ev.State == "" || ev.State == sess.SelectedState || !c.knownState(ev.State) {
			return c.noop(sess), nil
		}
		sess.SelectedState = ev.State
		return c.rebuildAll(ctx, sess), nil
	}

	return c.noop(sess), nil
}

func (c *Coordinator) knownState(state string) bool {
	for _, s := range c.store.StateCodes() {
		if s == state {
			return true
		}
	}
	return false
}

func (c *Coordinator) noop(sess *Session) *Update {
	return &Update{Session: c.snapshot(sess)}
}

func (c *Coordinator) baseFilter(ctx context.Context, sess *Session) analytics.Frame {
	return c.store.Filter(sess.StartDate, sess.EndDate, sess.IncidentTypes)
}

// timeWindowFrame intersects the base filter with the scatter zoom's
// time-of-day windows on both axes.
func (c *Coordinator) timeWindowFrame(ctx context.Context, sess *Session, relayout Relayout) (analytics.Frame, string) {
	frame := c.baseFilter(ctx, sess)
	var parts []string

	if xMin, okMin := relayout.Range("xaxis.range[0]"); okMin {
		if xMax, okMax := relayout.Range("xaxis.range[1]"); okMax {
			frame = frame.Where(analytics.StartedWorkBetween(xMin, xMax))
			parts = append(parts, fmt.Sprintf("x=%.4f-%.4f", xMin, xMax))
		}
	}
	if yMin, okMin := relayout.Range("yaxis.range[0]"); okMin {
		if yMax, okMax := relayout.Range("yaxis.range[1]"); okMax {
			frame = frame.Where(analytics.IncidentTimeBetween(yMin, yMax))
			parts = append(parts, fmt.Sprintf("y=%.4f-%.4f", yMin, yMax))
		}
	}
	return frame, strings.Join(parts, ",")
}

// RebuildAll recomputes both tab contents: radar, map and splom for the
// state view, scatter, treemap and bar for the metric view. An empty
// filtered set yields an explicit no-data update.
func (c *Coordinator) RebuildAll(ctx context.Context, sess *Session) *Update {
	return c.rebuildAll(ctx, sess)
}

func (c *Coordinator) rebuildAll(ctx context.Context, sess *Session) *Update {
	frame := c.baseFilter(ctx, sess)
	update := c.noop(sess)
	if frame.Len() == 0 {
		update.NoData = true
		return update
	}

	update.Radar = c.radarConfig(ctx, sess, frame)
	stateTable := c.stateTable(ctx, sess, frame)
	update.Map = charts.BuildMap(stateTable, sess.SelectedState)
	update.Splom = charts.BuildSplom(stateTable, sess.SelectedState)
	update.Scatter = c.scatterConfig(ctx, sess, frame, "")
	update.Treemap = c.treemapConfig(ctx, sess, frame, "")
	update.Bar = c.barConfig(ctx, sess, frame, "")
	return update
}

// Per-chart entry points for the REST surface. Each computes only its own
// view from the session's base filter.

func (c *Coordinator) Radar(ctx context.Context, sess *Session) *charts.Config {
	return c.radarConfig(ctx, sess, c.baseFilter(ctx, sess))
}

func (c *Coordinator) Map(ctx context.Context, sess *Session) *charts.Config {
	return charts.BuildMap(c.stateTable(ctx, sess, c.baseFilter(ctx, sess)), sess.SelectedState)
}

func (c *Coordinator) Splom(ctx context.Context, sess *Session) *charts.Config {
	return charts.BuildSplom(c.stateTable(ctx, sess, c.baseFilter(ctx, sess)), sess.SelectedState)
}

func (c *Coordinator) Scatter(ctx context.Context, sess *Session) *charts.Config {
	return c.scatterConfig(ctx, sess, c.baseFilter(ctx, sess), "")
}

func (c *Coordinator) Treemap(ctx context.Context, sess *Session) *charts.Config {
	return c.treemapConfig(ctx, sess, c.baseFilter(ctx, sess), "")
}

func (c *Coordinator) Bar(ctx context.Context, sess *Session) *charts.Config {
	return c.barConfig(ctx, sess, c.baseFilter(ctx, sess), "")
}

// cacheKey identifies a preparer invocation by its full input tuple. The
// scope string captures any transient predicate applied on top of the base
// filter.
func (c *Coordinator) cacheKey(view string, sess *Session, scope string, extra ...string) string {
	parts := []string{
		view,
		sess.StartDate.Format("2006-01-02"),
		sess.EndDate.Format("2006-01-02"),
		strings.Join(sess.IncidentTypes, ","),
		scope,
	}
	parts = append(parts, extra...)
	return strings.Join(parts, "|")
}

func (c *Coordinator) memoize(ctx context.Context, key string, compute func() *charts.Config) *charts.Config {
	if c.cache != nil {
		var cached charts.Config
		if c.cache.Get(ctx, key, &cached) {
			return &cached
		}
	}
	config := compute()
	if c.cache != nil && config != nil {
		c.cache.Set(ctx, key, config)
	}
	return config
}

func (c *Coordinator) radarConfig(ctx context.Context, sess *Session, frame analytics.Frame) *charts.Config {
	key := c.cacheKey("radar", sess, "", sess.SelectedState)
	return c.memoize(ctx, key, func() *charts.Config {
		defer observe("radar")()
		return charts.BuildRadar(analytics.PrepareRadar(frame, sess.SelectedState, c.store.Composite(), c.store.Stats()))
	})
}

func (c *Coordinator) stateTable(ctx context.Context, sess *Session, frame analytics.Frame) analytics.StateTable {
	defer observe("state_map")()
	return analytics.PrepareStateMap(frame, sess.SelectedKPI)
}

func (c *Coordinator) scatterConfig(ctx context.Context, sess *Session, frame analytics.Frame, scope string) *charts.Config {
	key := c.cacheKey("scatter", sess, scope, sess.SelectedState)
	return c.memoize(ctx, key, func() *charts.Config {
		defer observe("scatter")()
		return charts.BuildScatter(analytics.PrepareScatter(frame, sess.SelectedState))
	})
}

func (c *Coordinator) treemapConfig(ctx context.Context, sess *Session, frame analytics.Frame, scope string) *charts.Config {
	key := c.cacheKey("treemap", sess, scope, sess.SelectedState, sess.SelectedKPI.Key())
	return c.memoize(ctx, key, func() *charts.Config {
		defer observe("treemap")()
		return charts.BuildTreemap(analytics.PrepareTreemap(frame, sess.SelectedState, sess.SelectedKPI))
	})
}

func (c *Coordinator) barConfig(ctx context.Context, sess *Session, frame analytics.Frame, scope string) *charts.Config {
	key := c.cacheKey("bar", sess, scope, sess.SelectedState)
	return c.memoize(ctx, key, func() *charts.Config {
		defer observe("stacked_bar")()
		return charts.BuildStackedBar(analytics.PrepareStackedBar(frame, sess.SelectedState))
	})
}

func observe(view string) func() {
	timer := prometheus.NewTimer(appmetrics.ViewDuration.WithLabelValues(view))
	return func() { timer.ObserveDuration() }
}
