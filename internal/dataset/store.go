package dataset

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/safety-tracker/backend/internal/analytics"
	"github.com/safety-tracker/backend/pkg/logger"
)

// Store holds the immutable base dataset and everything precomputed from it:
// distinct incident types and state codes, the full-dataset composite metric
// table, and the global statistic set. Safe to share across concurrent
// requests without locking.
type Store struct {
	base          analytics.Frame
	incidentTypes []string
	stateCodes    []string
	composite     analytics.CompositeTable
	stats         analytics.GlobalStats
}

// Load reads the dataset from a CSV file or a SQLite database, chosen by
// file extension.
func Load(path string) (*Store, error) {
	var (
		records []analytics.Incident
		err     error
	)
	switch filepath.Ext(path) {
	case ".csv":
		records, err = LoadCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		records, err = LoadSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", path)
	}
	if err != nil {
		return nil, err
	}
	return New(records)
}

// New builds a store from loaded records and precomputes the global
// statistics.
func New(records []analytics.Incident) (*Store, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	s := &Store{base: analytics.NewBaseFrame(records)}
	s.incidentTypes = distinct(records, func(rec analytics.Incident) string { return rec.TypeOfIncident })
	s.stateCodes = distinct(records, func(rec analytics.Incident) string { return rec.StateCode })
	s.composite = analytics.ComputeComposite(s.base, analytics.DimNone)
	s.stats = analytics.NewGlobalStats(s.composite)

	start, end := s.base.BaseBounds()
	logger.Info("Dataset loaded",
		zap.Int("records", len(records)),
		zap.Int("states", len(s.stateCodes)),
		zap.Int("incident_types", len(s.incidentTypes)),
		zap.Time("first_incident", start),
		zap.Time("last_incident", end),
	)
	return s, nil
}

func distinct(records []analytics.Incident, value func(analytics.Incident) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, rec := range records {
		v := value(rec)
		if v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

// Base returns the canonical unfiltered frame.
func (s *Store) Base() analytics.Frame { return s.base }

// IncidentTypes returns the sorted distinct incident types.
func (s *Store) IncidentTypes() []string { return s.incidentTypes }

// StateCodes returns the sorted distinct state codes.
func (s *Store) StateCodes() []string { return s.stateCodes }

// Bounds returns the earliest and latest incident date.
func (s *Store) Bounds() (start, end time.Time) { return s.base.BaseBounds() }

// Composite returns the precomputed full-dataset composite metric table.
func (s *Store) Composite() analytics.CompositeTable { return s.composite }

// Stats returns the global statistic set.
func (s *Store) Stats() analytics.GlobalStats { return s.stats }

// Filter narrows the base dataset by date range and incident types.
func (s *Store) Filter(start, end time.Time, types []string) analytics.Frame {
	return s.base.Filter(start, end, types)
}
