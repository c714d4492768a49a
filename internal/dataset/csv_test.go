package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvHeader = "state_code,company_name,date_of_incident,type_of_incident," +
	"time_started_work,time_of_incident,establishment_type,incident_outcome," +
	"soc_description_1,soc_description_2,naics_description_5,death," +
	"dafw_num_away,djtr_num_tr,case_number,annual_average_employees,total_hours_worked"

const csvRow = "CA,Acme Manufacturing,2020-03-01,Fall,06:00,10:30,Factory,Days away," +
	"Production,Assemblers,Machinery Mfg,1,10,5,CA-1,100,200000"

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(csvHeader + "\n" + csvRow + "\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "CA", rec.StateCode)
	assert.Equal(t, "Acme Manufacturing", rec.CompanyName)
	assert.Equal(t, "Fall", rec.TypeOfIncident)
	assert.Equal(t, "06:00", rec.TimeStartedWork.String())
	assert.Equal(t, "10:30", rec.TimeOfIncident.String())
	assert.Equal(t, 1, rec.Death)
	assert.InDelta(t, 10, rec.DAFWDaysAway, 1e-9)
	assert.InDelta(t, 5, rec.DJTRDaysTransfer, 1e-9)
	assert.InDelta(t, 100, rec.AnnualAverageEmployees, 1e-9)
	assert.InDelta(t, 200000, rec.TotalHoursWorked, 1e-9)
}

func TestParseCSVIgnoresExtraColumns(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(csvHeader + ",notes\n" + csvRow + ",follow up\n"))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParseCSVMissingColumnIsSchemaMismatch(t *testing.T) {
	header := strings.Replace(csvHeader, "total_hours_worked", "hours", 1)
	_, err := ParseCSV(strings.NewReader(header + "\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema mismatch")
	assert.Contains(t, err.Error(), "total_hours_worked")
}

func TestParseCSVBadRowReportsLine(t *testing.T) {
	bad := strings.Replace(csvRow, "2020-03-01", "March 1st", 1)
	_, err := ParseCSV(strings.NewReader(csvHeader + "\n" + csvRow + "\n" + bad + "\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
