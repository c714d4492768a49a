package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func clock(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// fixtureRecords is a small hand-computed dataset: two CA companies (one with
// two incidents), a TX company with zero reported hours and a NY company with
// zero reported employees.
func fixtureRecords() []Incident {
	return []Incident{
		{
			StateCode: "CA", CompanyName: "Acme Manufacturing",
			DateOfIncident: day("2020-03-01"), TypeOfIncident: "Fall",
			TimeStartedWork: clock("06:00"), TimeOfIncident: clock("10:30"),
			EstablishmentType: "Factory", IncidentOutcome: "Days away",
			SOCDescription1: "Production", SOCDescription2: "Assemblers",
			NAICSDescription5: "Machinery Mfg",
			Death:             1, DAFWDaysAway: 10, DJTRDaysTransfer: 5,
			CaseNumber:             "CA-1",
			AnnualAverageEmployees: 100, TotalHoursWorked: 200000,
		},
		{
			StateCode: "CA", CompanyName: "Acme Manufacturing",
			DateOfIncident: day("2020-06-15"), TypeOfIncident: "Burn",
			TimeStartedWork: clock("08:00"), TimeOfIncident: clock("14:00"),
			EstablishmentType: "Factory", IncidentOutcome: "Job transfer",
			SOCDescription1: "Production", SOCDescription2: "Welders",
			NAICSDescription5: "Machinery Mfg",
			Death:             0, DAFWDaysAway: 2, DJTRDaysTransfer: 0,
			CaseNumber:             "CA-2",
			AnnualAverageEmployees: 100, TotalHoursWorked: 200000,
		},
		{
			StateCode: "CA", CompanyName: "Beta Logistics",
			DateOfIncident: day("2020-09-10"), TypeOfIncident: "Fall",
			TimeStartedWork: clock("07:00"), TimeOfIncident: clock("09:00"),
			EstablishmentType: "Warehouse", IncidentOutcome: "Days away",
			SOCDescription1: "Transportation", SOCDescription2: "Drivers",
			NAICSDescription5: "Freight Trucking",
			Death:             0, DAFWDaysAway: 0, DJTRDaysTransfer: 3,
			CaseNumber:             "CA-3",
			AnnualAverageEmployees: 50, TotalHoursWorked: 100000,
		},
		{
			StateCode: "TX", CompanyName: "Lone Star Drilling",
			DateOfIncident: day("2020-05-20"), TypeOfIncident: "Struck by object",
			TimeStartedWork: clock("05:30"), TimeOfIncident: clock("11:15"),
			EstablishmentType: "Oil Field", IncidentOutcome: "Days away",
			SOCDescription1: "Extraction", SOCDescription2: "Roustabouts",
			NAICSDescription5: "Drilling Oil Wells",
			Death:             0, DAFWDaysAway: 7, DJTRDaysTransfer: 0,
			CaseNumber:             "TX-1",
			AnnualAverageEmployees: 0, TotalHoursWorked: 0,
		},
		{
			StateCode: "NY", CompanyName: "Empire Foods",
			DateOfIncident: day("2020-07-04"), TypeOfIncident: "Fall",
			TimeStartedWork: clock("09:00"), TimeOfIncident: clock("16:45"),
			EstablishmentType: "Kitchen", IncidentOutcome: "Job transfer",
			SOCDescription1: "Food Preparation", SOCDescription2: "Cooks",
			NAICSDescription5: "Restaurants",
			Death:             0, DAFWDaysAway: 1, DJTRDaysTransfer: 1,
			CaseNumber:             "NY-1",
			AnnualAverageEmployees: 0, TotalHoursWorked: 50000,
		},
	}
}

func fixtureFrame() Frame {
	return NewBaseFrame(fixtureRecords())
}

func TestIncidentRatePerState(t *testing.T) {
	table := KPIIncidentRate.Compute(fixtureFrame(), DimNone)

	// Acme's hours count once despite two incident rows.
	ca, ok := table.Lookup("CA")
	require.True(t, ok)
	assert.InDelta(t, 3.0/300000*1e5, ca, 1e-9)

	ny, ok := table.Lookup("NY")
	require.True(t, ok)
	assert.InDelta(t, 1.0/50000*1e5, ny, 1e-9)

	// Zero hours never divides: the rate is zero, not NaN or Inf.
	tx, ok := table.Lookup("TX")
	require.True(t, ok)
	assert.Zero(t, tx)
}

func TestIncidentRateWithTypeFilter(t *testing.T) {
	frame := fixtureFrame().Filter(day("2020-01-01"), day("2020-12-31"), []string{"Fall"})
	table := KPIIncidentRate.Compute(frame, DimNone)

	// Both CA companies keep a Fall row, so both hour totals survive the
	// filter while only two cases remain.
	ca, ok := table.Lookup("CA")
	require.True(t, ok)
	assert.InDelta(t, 2.0/300000*1e5, ca, 1e-9)

	_, ok = table.Lookup("TX")
	assert.False(t, ok, "TX has no Fall incidents")
}

func TestFatalityRate(t *testing.T) {
	table := KPIFatalityRate.Compute(fixtureFrame(), DimNone)

	ca, ok := table.Lookup("CA")
	require.True(t, ok)
	assert.InDelta(t, 1.0/3*1e4, ca, 1e-9)

	tx, ok := table.Lookup("TX")
	require.True(t, ok)
	assert.Zero(t, tx)
}

func TestLostWorkdayRate(t *testing.T) {
	table := KPILostWorkdayRate.Compute(fixtureFrame(), DimNone)

	ca, ok := table.Lookup("CA")
	require.True(t, ok)
	assert.InDelta(t, 20.0/3, ca, 1e-9)
}

func TestWorkforceExposure(t *testing.T) {
	table := KPIWorkforceExposure.Compute(fixtureFrame(), DimNone)

	ca, ok := table.Lookup("CA")
	require.True(t, ok)
	assert.InDelta(t, 3.0/150*1e2, ca, 1e-9)

	// Zero employees yields zero exposure, not a division blowup.
	ny, ok := table.Lookup("NY")
	require.True(t, ok)
	assert.Zero(t, ny)
}

func TestDangerScoreComposition(t *testing.T) {
	composite := ComputeComposite(fixtureFrame(), DimNone)

	ca, ok := composite.Lookup("CA")
	require.True(t, ok)

	expected := 2.38*ca.IncidentRate +
		3.33*ca.FatalityRate +
		0.37*ca.LostWorkdayRate +
		1.4*ca.WorkforceExposure
	assert.InDelta(t, expected, ca.DangerScore, 1e-9)
}

func TestAllMetricsFiniteAndNonNegative(t *testing.T) {
	frame := fixtureFrame()
	for _, k := range AllKPIs() {
		table := k.Compute(frame, DimNone)
		require.NotEmpty(t, table.Rows, k.Key())
		for _, row := range table.Rows {
			assert.False(t, math.IsNaN(row.Value), "%s %s", k.Key(), row.StateCode)
			assert.False(t, math.IsInf(row.Value, 0), "%s %s", k.Key(), row.StateCode)
			assert.GreaterOrEqual(t, row.Value, 0.0, "%s %s", k.Key(), row.StateCode)
		}
	}
}

func TestCompanyDedupPrecedesSecondaryGrouping(t *testing.T) {
	table := KPIIncidentRate.Compute(fixtureFrame(), DimIncidentType)

	byKey := make(map[[2]string]float64)
	for _, row := range table.Rows {
		byKey[[2]string{row.StateCode, row.Secondary}] = row.Value
	}

	// Acme's hours land on its first row's group (Fall); the Burn group sees
	// two cases' worth of hours nowhere and rates to zero.
	assert.InDelta(t, 2.0/300000*1e5, byKey[[2]string{"CA", "Fall"}], 1e-9)
	assert.Zero(t, byKey[[2]string{"CA", "Burn"}])
}

func TestMetricRowsSortedByStateThenSecondary(t *testing.T) {
	table := KPIIncidentRate.Compute(fixtureFrame(), DimIncidentType)

	for i := 1; i < len(table.Rows); i++ {
		prev, cur := table.Rows[i-1], table.Rows[i]
		ordered := prev.StateCode < cur.StateCode ||
			(prev.StateCode == cur.StateCode && prev.Secondary < cur.Secondary)
		assert.True(t, ordered, "rows out of order at %d", i)
	}
}

func TestEmptyFrameYieldsEmptyTables(t *testing.T) {
	empty := fixtureFrame().Filter(day("2030-01-01"), day("2030-12-31"), nil)
	require.Zero(t, empty.Len())

	for _, k := range AllKPIs() {
		assert.Empty(t, k.Compute(empty, DimNone).Rows, k.Key())
	}
}

func TestKPILookupByKeyAndLabel(t *testing.T) {
	for _, k := range AllKPIs() {
		byKey, ok := KPIFromKey(k.Key())
		require.True(t, ok)
		assert.Equal(t, k, byKey)

		byLabel, ok := KPIFromLabel(k.Label())
		require.True(t, ok)
		assert.Equal(t, k, byLabel)
	}

	_, ok := KPIFromKey("severity_index")
	assert.False(t, ok)
	_, ok = KPIFromLabel("Severity Index")
	assert.False(t, ok)
}
