package analytics

import "sort"

// ScatterRow is one detailed industry category within a state: incident
// count, mean work-start and incident clock times, and the most frequent
// establishment type. Times carry both the fractional-hour form used for
// range filtering and a HH:MM label for display.
type ScatterRow struct {
	Industry              string
	CaseCount             int
	MeanStartTime         float64
	MeanIncidentTime      float64
	MeanStartTimeLabel    string
	MeanIncidentTimeLabel string
	EstablishmentType     string
}

// ScatterTable is the prepared scatter plot data for one state, sorted by
// industry.
type ScatterTable struct {
	StateCode string
	Rows      []ScatterRow
}

// PrepareScatter groups a state's records by detailed industry category.
// Mean times are absolute times of day, not elapsed durations; ties for the
// modal establishment type resolve to the lexicographically smallest value.
func PrepareScatter(f Frame, state string) ScatterTable {
	type industryAgg struct {
		cases        int
		startMinutes float64
		incMinutes   float64
		estCounts    map[string]int
	}

	groups := make(map[string]*industryAgg)
	for _, rec := range f.Records {
		if rec.StateCode != state {
			continue
		}
		g := groups[rec.NAICSDescription5]
		if g == nil {
			g = &industryAgg{estCounts: make(map[string]int)}
			groups[rec.NAICSDescription5] = g
		}
		g.cases++
		g.startMinutes += float64(rec.TimeStartedWork)
		g.incMinutes += float64(rec.TimeOfIncident)
		g.estCounts[rec.EstablishmentType]++
	}

	industries := make([]string, 0, len(groups))
	for industry := range groups {
		industries = append(industries, industry)
	}
	sort.Strings(industries)

	table := ScatterTable{StateCode: state, Rows: make([]ScatterRow, 0, len(industries))}
	for _, industry := range industries {
		g := groups[industry]
		meanStart := g.startMinutes / float64(g.cases)
		meanInc := g.incMinutes / float64(g.cases)

		table.Rows = append(table.Rows, ScatterRow{
			Industry:              industry,
			CaseCount:             g.cases,
			MeanStartTime:         meanStart / 60,
			MeanIncidentTime:      meanInc / 60,
			MeanStartTimeLabel:    TimeOfDay(meanStart).String(),
			MeanIncidentTimeLabel: TimeOfDay(meanInc).String(),
			EstablishmentType:     modalValue(g.estCounts),
		})
	}
	return table
}

func modalValue(counts map[string]int) string {
	var best string
	bestCount := -1
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best = value
			bestCount = count
		}
	}
	return best
}
