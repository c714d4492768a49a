package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/safety-tracker/backend/internal/analytics"
)

// The exact column set the record source must provide. Missing columns are a
// schema mismatch and fail the load; extra columns are ignored.
var requiredColumns = []string{
	"state_code",
	"company_name",
	"date_of_incident",
	"type_of_incident",
	"time_started_work",
	"time_of_incident",
	"establishment_type",
	"incident_outcome",
	"soc_description_1",
	"soc_description_2",
	"naics_description_5",
	"death",
	"dafw_num_away",
	"djtr_num_tr",
	"case_number",
	"annual_average_employees",
	"total_hours_worked",
}

// LoadCSV reads incident records from a CSV file with a header row.
func LoadCSV(path string) ([]analytics.Incident, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	return ParseCSV(file)
}

// ParseCSV parses incident records from CSV data, validating the schema
// against the required column set.
func ParseCSV(r io.Reader) ([]analytics.Incident, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("schema mismatch: missing column %q", name)
		}
	}

	var records []analytics.Incident
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		line++

		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, index map[string]int) (analytics.Incident, error) {
	field := func(name string) string { return row[index[name]] }

	date, err := time.Parse("2006-01-02", field("date_of_incident"))
	if err != nil {
		return analytics.Incident{}, fmt.Errorf("invalid date_of_incident: %w", err)
	}

	started, err := analytics.ParseTimeOfDay(field("time_started_work"))
	if err != nil {
		return analytics.Incident{}, fmt.Errorf("invalid time_started_work: %w", err)
	}
	occurred, err := analytics.ParseTimeOfDay(field("time_of_incident"))
	if err != nil {
		return analytics.Incident{}, fmt.Errorf("invalid time_of_incident: %w", err)
	}

	death, err := strconv.Atoi(field("death"))
	if err != nil {
		return analytics.Incident{}, fmt.Errorf("invalid death flag: %w", err)
	}

	numbers := make(map[string]float64, 4)
	for _, name := range []string{"dafw_num_away", "djtr_num_tr", "annual_average_employees", "total_hours_worked"} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return analytics.Incident{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		numbers[name] = v
	}

	return analytics.Incident{
		StateCode:              field("state_code"),
		CompanyName:            field("company_name"),
		DateOfIncident:         date,
		TypeOfIncident:         field("type_of_incident"),
		TimeStartedWork:        started,
		TimeOfIncident:         occurred,
		EstablishmentType:      field("establishment_type"),
		IncidentOutcome:        field("incident_outcome"),
		SOCDescription1:        field("soc_description_1"),
		SOCDescription2:        field("soc_description_2"),
		NAICSDescription5:      field("naics_description_5"),
		Death:                  death,
		DAFWDaysAway:           numbers["dafw_num_away"],
		DJTRDaysTransfer:       numbers["djtr_num_tr"],
		CaseNumber:             field("case_number"),
		AnnualAverageEmployees: numbers["annual_average_employees"],
		TotalHoursWorked:       numbers["total_hours_worked"],
	}, nil
}
