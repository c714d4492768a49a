package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalStatsScaling(t *testing.T) {
	table := CompositeTable{Rows: []CompositeRow{
		{StateCode: "CA", IncidentRate: 1},
		{StateCode: "NY", IncidentRate: 3},
		{StateCode: "TX", IncidentRate: 2},
	}}
	stats := NewGlobalStats(table)

	assert.InDelta(t, 1, stats.Min[KPIIncidentRate], 1e-9)
	assert.InDelta(t, 3, stats.Max[KPIIncidentRate], 1e-9)
	assert.InDelta(t, 2, stats.Mean[KPIIncidentRate], 1e-9)

	assert.InDelta(t, 0, stats.Scale(KPIIncidentRate, 1), 1e-9)
	assert.InDelta(t, 0.5, stats.Scale(KPIIncidentRate, 2), 1e-9)
	assert.InDelta(t, 1, stats.Scale(KPIIncidentRate, 3), 1e-9)
}

func TestGlobalStatsDegenerateRange(t *testing.T) {
	table := CompositeTable{Rows: []CompositeRow{
		{StateCode: "CA", IncidentRate: 5},
	}}
	stats := NewGlobalStats(table)

	// A single state collapses the range; scaling stays defined.
	assert.Zero(t, stats.Scale(KPIIncidentRate, 5))
	assert.Zero(t, stats.Scale(KPIIncidentRate, 7))
}

func TestGlobalStatsEmptyTable(t *testing.T) {
	stats := NewGlobalStats(CompositeTable{})
	require.Zero(t, stats.Max[KPIDangerScore])
	assert.Zero(t, stats.Scale(KPIDangerScore, 1))
}
