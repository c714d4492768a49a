package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safety-tracker/backend/internal/analytics"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func storeRecords() []analytics.Incident {
	return []analytics.Incident{
		{StateCode: "TX", CompanyName: "Lone Star Drilling", DateOfIncident: day("2020-05-20"),
			TypeOfIncident: "Struck by object", AnnualAverageEmployees: 80, TotalHoursWorked: 160000},
		{StateCode: "CA", CompanyName: "Acme Manufacturing", DateOfIncident: day("2020-03-01"),
			TypeOfIncident: "Fall", AnnualAverageEmployees: 100, TotalHoursWorked: 200000},
		{StateCode: "CA", CompanyName: "Acme Manufacturing", DateOfIncident: day("2020-09-10"),
			TypeOfIncident: "Burn", AnnualAverageEmployees: 100, TotalHoursWorked: 200000},
	}
}

func TestNewStore(t *testing.T) {
	store, err := New(storeRecords())
	require.NoError(t, err)

	assert.Equal(t, []string{"CA", "TX"}, store.StateCodes())
	assert.Equal(t, []string{"Burn", "Fall", "Struck by object"}, store.IncidentTypes())

	start, end := store.Bounds()
	assert.Equal(t, day("2020-03-01"), start)
	assert.Equal(t, day("2020-09-10"), end)

	assert.True(t, store.Base().Canonical)
	assert.Len(t, store.Composite().Rows, 2)
}

func TestNewStoreRejectsEmptyDataset(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestStoreFilter(t *testing.T) {
	store, err := New(storeRecords())
	require.NoError(t, err)

	full := store.Filter(day("2020-03-01"), day("2020-09-10"), nil)
	assert.True(t, full.Canonical)

	falls := store.Filter(day("2020-01-01"), day("2020-12-31"), []string{"Fall"})
	assert.False(t, falls.Canonical)
	assert.Equal(t, 1, falls.Len())
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load("data.parquet")
	assert.Error(t, err)
}

func TestStateName(t *testing.T) {
	assert.Equal(t, "California", StateName("CA"))
	assert.Equal(t, "District of Columbia", StateName("DC"))
	assert.Equal(t, "XX", StateName("XX"))
}
