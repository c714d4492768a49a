package analytics

import "sort"

// KPI is the closed set of safety metrics. Using an enum instead of a
// string-keyed dispatch table means a missing metric is a compile error, not
// a silent nil lookup.
type KPI int

const (
	KPIIncidentRate KPI = iota
	KPIFatalityRate
	KPILostWorkdayRate
	KPIWorkforceExposure
	KPIDangerScore
	numKPIs
)

// Danger score weights are fixed domain constants.
const (
	weightIncidentRate      = 2.38
	weightFatalityRate      = 3.33
	weightLostWorkdayRate   = 0.37
	weightWorkforceExposure = 1.4
)

// AllKPIs returns the metrics in radar-axis order.
func AllKPIs() []KPI {
	return []KPI{KPIIncidentRate, KPIFatalityRate, KPILostWorkdayRate, KPIWorkforceExposure, KPIDangerScore}
}

// Key returns the machine-readable metric name.
func (k KPI) Key() string {
	switch k {
	case KPIIncidentRate:
		return "incident_rate"
	case KPIFatalityRate:
		return "fatality_rate"
	case KPILostWorkdayRate:
		return "lost_workday_rate"
	case KPIWorkforceExposure:
		return "workforce_exposure"
	case KPIDangerScore:
		return "danger_score"
	}
	return "unknown"
}

// Label returns the human-readable metric name shown in dropdowns and on
// radar axes.
func (k KPI) Label() string {
	switch k {
	case KPIIncidentRate:
		return "Incident Rate"
	case KPIFatalityRate:
		return "Fatality Rate"
	case KPILostWorkdayRate:
		return "Lost Workday Rate"
	case KPIWorkforceExposure:
		return "Workforce Exposure"
	case KPIDangerScore:
		return "Danger Score"
	}
	return "Unknown"
}

// KPIFromKey resolves a machine-readable name. Unknown keys report ok=false
// so callers can treat them as "no change".
func KPIFromKey(key string) (KPI, bool) {
	for _, k := range AllKPIs() {
		if k.Key() == key {
			return k, true
		}
	}
	return 0, false
}

// KPIFromLabel resolves a display label, used for reverse lookup on radar
// axis clicks.
func KPIFromLabel(label string) (KPI, bool) {
	for _, k := range AllKPIs() {
		if k.Label() == label {
			return k, true
		}
	}
	return 0, false
}

// Dimension is an optional secondary grouping column alongside the mandatory
// state grouping.
type Dimension int

const (
	DimNone Dimension = iota
	DimIncidentType
	DimEstablishment
	DimOutcome
	DimOccupationMajor
	DimOccupationDetail
	DimIndustry
)

// Key returns the dataset column name of the dimension.
func (d Dimension) Key() string {
	switch d {
	case DimIncidentType:
		return "type_of_incident"
	case DimEstablishment:
		return "establishment_type"
	case DimOutcome:
		return "incident_outcome"
	case DimOccupationMajor:
		return "soc_description_1"
	case DimOccupationDetail:
		return "soc_description_2"
	case DimIndustry:
		return "naics_description_5"
	}
	return ""
}

// Of extracts the dimension value from a record. DimNone yields "".
func (d Dimension) Of(rec Incident) string {
	switch d {
	case DimIncidentType:
		return rec.TypeOfIncident
	case DimEstablishment:
		return rec.EstablishmentType
	case DimOutcome:
		return rec.IncidentOutcome
	case DimOccupationMajor:
		return rec.SOCDescription1
	case DimOccupationDetail:
		return rec.SOCDescription2
	case DimIndustry:
		return rec.NAICSDescription5
	}
	return ""
}

// MetricRow is one grouped result: a state (plus optional secondary value)
// and the derived metric value.
type MetricRow struct {
	StateCode string
	Secondary string
	Value     float64
}

// MetricTable is the output of a metric computation, one row per unique
// grouping key, sorted by (state, secondary).
type MetricTable struct {
	KPI  KPI
	Dim  Dimension
	Rows []MetricRow
}

// Lookup returns the value for a state when the table is grouped by state
// only.
func (t MetricTable) Lookup(state string) (float64, bool) {
	for _, row := range t.Rows {
		if row.StateCode == state && row.Secondary == "" {
			return row.Value, true
		}
	}
	return 0, false
}

// Compute evaluates the metric over an already-filtered frame, grouped by
// state and the optional secondary dimension.
func (k KPI) Compute(f Frame, dim Dimension) MetricTable {
	switch k {
	case KPIIncidentRate:
		return incidentRate(f, dim)
	case KPIFatalityRate:
		return fatalityRate(f, dim)
	case KPILostWorkdayRate:
		return lostWorkdayRate(f, dim)
	case KPIWorkforceExposure:
		return workforceExposure(f, dim)
	case KPIDangerScore:
		return ComputeComposite(f, dim).metricTable(KPIDangerScore)
	}
	return MetricTable{KPI: k, Dim: dim}
}

type groupKey struct {
	state     string
	secondary string
}

// injuryGroup accumulates incident-level sums for one grouping key.
type injuryGroup struct {
	caseCount int
	deaths    float64
	lostDays  float64
}

// groupInjuries aggregates every row (no deduplication: these are
// incident-level fields).
func groupInjuries(f Frame, dim Dimension) (map[groupKey]*injuryGroup, []groupKey) {
	groups := make(map[groupKey]*injuryGroup)
	for _, rec := range f.Records {
		key := groupKey{state: rec.StateCode, secondary: dim.Of(rec)}
		g := groups[key]
		if g == nil {
			g = &injuryGroup{}
			groups[key] = g
		}
		g.caseCount++
		g.deaths += float64(rec.Death)
		g.lostDays += rec.DAFWDaysAway + rec.DJTRDaysTransfer
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].state != keys[j].state {
			return keys[i].state < keys[j].state
		}
		return keys[i].secondary < keys[j].secondary
	})
	return groups, keys
}

// companySums sums a company-level field per grouping key after collapsing
// duplicate (state, company) rows down to their first occurrence. The
// deduplication happens before the secondary grouping so a company's total is
// never split across categories it appears in more than once.
func companySums(f Frame, dim Dimension, field func(Incident) float64) map[groupKey]float64 {
	seen := make(map[groupKey]bool, len(f.Records))
	sums := make(map[groupKey]float64)
	for _, rec := range f.Records {
		companyID := groupKey{state: rec.StateCode, secondary: rec.CompanyName}
		if seen[companyID] {
			continue
		}
		seen[companyID] = true
		key := groupKey{state: rec.StateCode, secondary: dim.Of(rec)}
		sums[key] += field(rec)
	}
	return sums
}

func incidentRate(f Frame, dim Dimension) MetricTable {
	groups, keys := groupInjuries(f, dim)
	hours := companySums(f, dim, func(rec Incident) float64 { return rec.TotalHoursWorked })

	table := MetricTable{KPI: KPIIncidentRate, Dim: dim, Rows: make([]MetricRow, 0, len(keys))}
	for _, key := range keys {
		var rate float64
		if h := hours[key]; h > 0 {
			rate = float64(groups[key].caseCount) / h * 1e5
		}
		table.Rows = append(table.Rows, MetricRow{StateCode: key.state, Secondary: key.secondary, Value: rate})
	}
	return table
}

func fatalityRate(f Frame, dim Dimension) MetricTable {
	groups, keys := groupInjuries(f, dim)

	table := MetricTable{KPI: KPIFatalityRate, Dim: dim, Rows: make([]MetricRow, 0, len(keys))}
	for _, key := range keys {
		g := groups[key]
		var rate float64
		if g.caseCount > 0 {
			rate = g.deaths / float64(g.caseCount) * 1e4
		}
		table.Rows = append(table.Rows, MetricRow{StateCode: key.state, Secondary: key.secondary, Value: rate})
	}
	return table
}

func lostWorkdayRate(f Frame, dim Dimension) MetricTable {
	groups, keys := groupInjuries(f, dim)

	table := MetricTable{KPI: KPILostWorkdayRate, Dim: dim, Rows: make([]MetricRow, 0, len(keys))}
	for _, key := range keys {
		g := groups[key]
		var rate float64
		if g.caseCount > 0 {
			rate = g.lostDays / float64(g.caseCount)
		}
		table.Rows = append(table.Rows, MetricRow{StateCode: key.state, Secondary: key.secondary, Value: rate})
	}
	return table
}

func workforceExposure(f Frame, dim Dimension) MetricTable {
	groups, keys := groupInjuries(f, dim)
	employees := companySums(f, dim, func(rec Incident) float64 { return rec.AnnualAverageEmployees })

	table := MetricTable{KPI: KPIWorkforceExposure, Dim: dim, Rows: make([]MetricRow, 0, len(keys))}
	for _, key := range keys {
		var rate float64
		if e := employees[key]; groups[key].caseCount > 0 && e > 0 {
			rate = float64(groups[key].caseCount) / e * 1e2
		}
		table.Rows = append(table.Rows, MetricRow{StateCode: key.state, Secondary: key.secondary, Value: rate})
	}
	return table
}

// CompositeRow carries all four rates plus the weighted danger score for one
// grouping key.
type CompositeRow struct {
	StateCode         string
	Secondary         string
	IncidentRate      float64
	FatalityRate      float64
	LostWorkdayRate   float64
	WorkforceExposure float64
	DangerScore       float64
}

// Metric returns the row's value for a KPI.
func (r CompositeRow) Metric(k KPI) float64 {
	switch k {
	case KPIIncidentRate:
		return r.IncidentRate
	case KPIFatalityRate:
		return r.FatalityRate
	case KPILostWorkdayRate:
		return r.LostWorkdayRate
	case KPIWorkforceExposure:
		return r.WorkforceExposure
	case KPIDangerScore:
		return r.DangerScore
	}
	return 0
}

// CompositeTable joins the four metric tables on their grouping key.
type CompositeTable struct {
	Dim  Dimension
	Rows []CompositeRow
}

// Lookup returns the composite row for a state when grouped by state only.
func (t CompositeTable) Lookup(state string) (CompositeRow, bool) {
	for _, row := range t.Rows {
		if row.StateCode == state && row.Secondary == "" {
			return row, true
		}
	}
	return CompositeRow{}, false
}

func (t CompositeTable) metricTable(k KPI) MetricTable {
	table := MetricTable{KPI: k, Dim: t.Dim, Rows: make([]MetricRow, 0, len(t.Rows))}
	for _, row := range t.Rows {
		table.Rows = append(table.Rows, MetricRow{StateCode: row.StateCode, Secondary: row.Secondary, Value: row.Metric(k)})
	}
	return table
}

// ComputeComposite evaluates all four rates and the danger score per grouping
// key. The incident-rate table drives the key set; the other metrics are
// left-joined onto it.
func ComputeComposite(f Frame, dim Dimension) CompositeTable {
	base := incidentRate(f, dim)
	fatality := indexByKey(fatalityRate(f, dim))
	lost := indexByKey(lostWorkdayRate(f, dim))
	exposure := indexByKey(workforceExposure(f, dim))

	table := CompositeTable{Dim: dim, Rows: make([]CompositeRow, 0, len(base.Rows))}
	for _, row := range base.Rows {
		key := groupKey{state: row.StateCode, secondary: row.Secondary}
		cr := CompositeRow{
			StateCode:         row.StateCode,
			Secondary:         row.Secondary,
			IncidentRate:      row.Value,
			FatalityRate:      fatality[key],
			LostWorkdayRate:   lost[key],
			WorkforceExposure: exposure[key],
		}
		cr.DangerScore = weightIncidentRate*cr.IncidentRate +
			weightFatalityRate*cr.FatalityRate +
			weightLostWorkdayRate*cr.LostWorkdayRate +
			weightWorkforceExposure*cr.WorkforceExposure
		table.Rows = append(table.Rows, cr)
	}
	return table
}

func indexByKey(t MetricTable) map[groupKey]float64 {
	idx := make(map[groupKey]float64, len(t.Rows))
	for _, row := range t.Rows {
		idx[groupKey{state: row.StateCode, secondary: row.Secondary}] = row.Value
	}
	return idx
}
