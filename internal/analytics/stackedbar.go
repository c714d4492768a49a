package analytics

import "sort"

// Establishment types excluded from the stacked bar chart.
const (
	estNotStated    = "Not Stated"
	estInvalidEntry = "Invalid Entry"
)

// StackedBarRow is one incident outcome with its share per establishment
// type, parallel to StackedBarTable.EstablishmentTypes. Proportions sum to 1
// for any outcome with at least one record.
type StackedBarRow struct {
	Outcome     string
	Proportions []float64
}

// StackedBarTable cross-tabulates incident outcome against establishment
// type for one state, normalized to proportions within each outcome.
type StackedBarTable struct {
	StateCode          string
	EstablishmentTypes []string
	Rows               []StackedBarRow
}

// PrepareStackedBar counts a state's incidents by outcome and establishment
// type, excluding unusable establishment entries, and normalizes each
// outcome's counts to proportions. A zero row sum yields zero proportions,
// never NaN.
func PrepareStackedBar(f Frame, state string) StackedBarTable {
	counts := make(map[string]map[string]int)
	estSet := make(map[string]bool)

	for _, rec := range f.Records {
		if rec.StateCode != state {
			continue
		}
		if rec.EstablishmentType == estNotStated || rec.EstablishmentType == estInvalidEntry {
			continue
		}
		byEst := counts[rec.IncidentOutcome]
		if byEst == nil {
			byEst = make(map[string]int)
			counts[rec.IncidentOutcome] = byEst
		}
		byEst[rec.EstablishmentType]++
		estSet[rec.EstablishmentType] = true
	}

	establishments := make([]string, 0, len(estSet))
	for est := range estSet {
		establishments = append(establishments, est)
	}
	sort.Strings(establishments)

	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	table := StackedBarTable{
		StateCode:          state,
		EstablishmentTypes: establishments,
		Rows:               make([]StackedBarRow, 0, len(outcomes)),
	}
	for _, outcome := range outcomes {
		row := StackedBarRow{Outcome: outcome, Proportions: make([]float64, len(establishments))}
		var total int
		for _, count := range counts[outcome] {
			total += count
		}
		if total > 0 {
			for i, est := range establishments {
				row.Proportions[i] = float64(counts[outcome][est]) / float64(total)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
