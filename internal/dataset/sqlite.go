package dataset

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/safety-tracker/backend/internal/analytics"
)

// LoadSQLite reads incident records from the incidents table of a
// preprocessed SQLite dataset. A missing table or column surfaces as a load
// error.
func LoadSQLite(path string) ([]analytics.Incident, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf("SELECT %s FROM incidents", strings.Join(requiredColumns, ", "))
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("schema mismatch: %w", err)
	}
	defer rows.Close()

	var records []analytics.Incident
	for rows.Next() {
		var (
			rec                        analytics.Incident
			dateStr, startStr, timeStr string
		)
		err := rows.Scan(
			&rec.StateCode,
			&rec.CompanyName,
			&dateStr,
			&rec.TypeOfIncident,
			&startStr,
			&timeStr,
			&rec.EstablishmentType,
			&rec.IncidentOutcome,
			&rec.SOCDescription1,
			&rec.SOCDescription2,
			&rec.NAICSDescription5,
			&rec.Death,
			&rec.DAFWDaysAway,
			&rec.DJTRDaysTransfer,
			&rec.CaseNumber,
			&rec.AnnualAverageEmployees,
			&rec.TotalHoursWorked,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}

		rec.DateOfIncident, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid date_of_incident %q: %w", dateStr, err)
		}
		rec.TimeStartedWork, err = analytics.ParseTimeOfDay(startStr)
		if err != nil {
			return nil, err
		}
		rec.TimeOfIncident, err = analytics.ParseTimeOfDay(timeStr)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incidents: %w", err)
	}

	return records, nil
}
