package analytics

import "sort"

// Level-1 occupation categories excluded from the treemap.
const (
	occInsufficientInfo = "Insufficient info"
	occNotAssigned      = "Not assigned"
)

// TreemapRow is one (major, detail) occupation leaf with its row count and
// the selected KPI recomputed over exactly that group's rows.
type TreemapRow struct {
	OccupationMajor  string
	OccupationDetail string
	Count            int
	Metric           float64
}

// TreemapTable is the prepared occupation breakdown for one state.
type TreemapTable struct {
	StateCode string
	KPI       KPI
	Rows      []TreemapRow
}

// PrepareTreemap restricts the frame to a state, drops rows whose level-1
// occupation category carries no information, groups by (level-1, level-2)
// occupation, and evaluates the KPI per group. The metric runs over the
// group's rows only, so company deduplication is scoped to the group and a
// company's hours are never counted against categories it does not belong
// to.
func PrepareTreemap(f Frame, state string, kpi KPI) TreemapTable {
	type occKey struct{ major, detail string }

	groups := make(map[occKey][]Incident)
	for _, rec := range f.Records {
		if rec.StateCode != state {
			continue
		}
		if rec.SOCDescription1 == occInsufficientInfo || rec.SOCDescription1 == occNotAssigned {
			continue
		}
		key := occKey{major: rec.SOCDescription1, detail: rec.SOCDescription2}
		groups[key] = append(groups[key], rec)
	}

	keys := make([]occKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].major != keys[j].major {
			return keys[i].major < keys[j].major
		}
		return keys[i].detail < keys[j].detail
	})

	table := TreemapTable{StateCode: state, KPI: kpi, Rows: make([]TreemapRow, 0, len(keys))}
	for _, key := range keys {
		rows := groups[key]
		metric, _ := kpi.Compute(Frame{Records: rows}, DimNone).Lookup(state)
		table.Rows = append(table.Rows, TreemapRow{
			OccupationMajor:  key.major,
			OccupationDetail: key.detail,
			Count:            len(rows),
			Metric:           metric,
		})
	}
	return table
}
