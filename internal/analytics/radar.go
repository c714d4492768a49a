package analytics

// RadarRow is one radar axis: a KPI with its raw and scaled value for the
// selected state, plus the raw and scaled mean across all states in the
// current view.
type RadarRow struct {
	KPI             KPI
	Label           string
	Value           float64
	ScaledValue     float64
	MeanValue       float64
	ScaledMeanValue float64
}

// RadarTable is the prepared radar chart data for one state. Zero rows means
// the state has no records in the current view.
type RadarTable struct {
	StateCode string
	Rows      []RadarRow
}

// PrepareRadar builds the radar table for a state. When the frame is the
// canonical base dataset the precomputed composite table is reused instead of
// recomputing it. Means are taken over the states of the current view;
// scaling always uses the immutable global statistics.
func PrepareRadar(f Frame, state string, precomputed CompositeTable, stats GlobalStats) RadarTable {
	composite := precomputed
	if !f.Canonical {
		composite = ComputeComposite(f, DimNone)
	}

	stateRow, ok := composite.Lookup(state)
	if !ok {
		return RadarTable{StateCode: state}
	}

	n := float64(len(composite.Rows))
	table := RadarTable{StateCode: state, Rows: make([]RadarRow, 0, len(AllKPIs()))}
	for _, k := range AllKPIs() {
		var mean float64
		for _, row := range composite.Rows {
			mean += row.Metric(k)
		}
		mean /= n

		value := stateRow.Metric(k)
		table.Rows = append(table.Rows, RadarRow{
			KPI:             k,
			Label:           k.Label(),
			Value:           value,
			ScaledValue:     stats.Scale(k, value),
			MeanValue:       mean,
			ScaledMeanValue: stats.Scale(k, mean),
		})
	}
	return table
}
