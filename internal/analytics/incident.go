package analytics

import (
	"fmt"
	"time"
)

// Incident is a single workplace injury record. Company-level fields
// (AnnualAverageEmployees, TotalHoursWorked) repeat on every incident row of
// the same company and must be deduplicated by (StateCode, CompanyName)
// before summing.
type Incident struct {
	StateCode              string
	CompanyName            string
	DateOfIncident         time.Time
	TypeOfIncident         string
	TimeStartedWork        TimeOfDay
	TimeOfIncident         TimeOfDay
	EstablishmentType      string
	IncidentOutcome        string
	SOCDescription1        string
	SOCDescription2        string
	NAICSDescription5      string
	Death                  int
	DAFWDaysAway           float64
	DJTRDaysTransfer       float64
	CaseNumber             string
	AnnualAverageEmployees float64
	TotalHoursWorked       float64
}

// TimeOfDay is a clock time stored as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" clock time.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// Hours returns the time as a fractional hour (e.g. 07:30 -> 7.5), the form
// used for scatter-axis range filtering.
func (t TimeOfDay) Hours() float64 {
	return float64(t) / 60
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Frame is a record set flowing through the engine. Canonical is true only
// for the unfiltered base dataset; preparers use it to take precomputed
// fast paths instead of relying on slice identity.
type Frame struct {
	Records   []Incident
	Canonical bool

	baseStart time.Time
	baseEnd   time.Time
}

// NewBaseFrame wraps the full dataset as the canonical frame and records its
// date bounds for the filter short-circuit.
func NewBaseFrame(records []Incident) Frame {
	f := Frame{Records: records, Canonical: true}
	for i, rec := range records {
		if i == 0 || rec.DateOfIncident.Before(f.baseStart) {
			f.baseStart = rec.DateOfIncident
		}
		if i == 0 || rec.DateOfIncident.After(f.baseEnd) {
			f.baseEnd = rec.DateOfIncident
		}
	}
	return f
}

func (f Frame) Len() int { return len(f.Records) }

// BaseBounds returns the earliest and latest incident date of the base
// dataset the frame derives from.
func (f Frame) BaseBounds() (start, end time.Time) {
	return f.baseStart, f.baseEnd
}

// Filter keeps records with start <= DateOfIncident <= end and, when types is
// non-empty, TypeOfIncident in types. When the range equals the base bounds
// and no types are given, the canonical frame is returned unchanged so
// callers can memoize on the Canonical flag. Order-preserving; an empty
// result is valid.
func (f Frame) Filter(start, end time.Time, types []string) Frame {
	if f.Canonical && start.Equal(f.baseStart) && end.Equal(f.baseEnd) && len(types) == 0 {
		return f
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	kept := make([]Incident, 0, len(f.Records))
	for _, rec := range f.Records {
		if rec.DateOfIncident.Before(start) || rec.DateOfIncident.After(end) {
			continue
		}
		if len(typeSet) > 0 && !typeSet[rec.TypeOfIncident] {
			continue
		}
		kept = append(kept, rec)
	}

	return Frame{Records: kept, baseStart: f.baseStart, baseEnd: f.baseEnd}
}

// Where applies a conjunctive row predicate. The result is never canonical.
func (f Frame) Where(pred func(Incident) bool) Frame {
	kept := make([]Incident, 0, len(f.Records))
	for _, rec := range f.Records {
		if pred(rec) {
			kept = append(kept, rec)
		}
	}
	return Frame{Records: kept, baseStart: f.baseStart, baseEnd: f.baseEnd}
}

// Predicate constructors for the cross-filter selections.

func StateIs(state string) func(Incident) bool {
	return func(rec Incident) bool { return rec.StateCode == state }
}

func OutcomeIs(outcome string) func(Incident) bool {
	return func(rec Incident) bool { return rec.IncidentOutcome == outcome }
}

// OccupationIs matches a level-1 occupation category and, when detail is
// non-empty, the level-2 category as well.
func OccupationIs(major, detail string) func(Incident) bool {
	return func(rec Incident) bool {
		if rec.SOCDescription1 != major {
			return false
		}
		return detail == "" || rec.SOCDescription2 == detail
	}
}

// StartedWorkBetween keeps records whose work start time falls inside the
// inclusive fractional-hour window.
func StartedWorkBetween(minHours, maxHours float64) func(Incident) bool {
	return func(rec Incident) bool {
		h := rec.TimeStartedWork.Hours()
		return h >= minHours && h <= maxHours
	}
}

// IncidentTimeBetween keeps records whose incident time falls inside the
// inclusive fractional-hour window.
func IncidentTimeBetween(minHours, maxHours float64) func(Incident) bool {
	return func(rec Incident) bool {
		h := rec.TimeOfIncident.Hours()
		return h >= minHours && h <= maxHours
	}
}
