package analytics

import "sort"

// StateRow aggregates one state for the choropleth map and the scatter
// matrix: company-level means/sums over deduplicated companies, injury-level
// means over all rows, and the requested KPI value.
type StateRow struct {
	StateCode       string
	AvgEmployees    float64
	TotalEmployees  float64
	AvgHoursWorked  float64
	AvgDaysAway     float64
	AvgDaysTransfer float64
	AvgDeaths       float64
	CaseCount       int
	InjuryDensity   float64
	KPIValue        float64
}

// StateTable is the prepared per-state map data, sorted by state code.
type StateTable struct {
	KPI  KPI
	Rows []StateRow
}

// PrepareStateMap aggregates the frame per state and joins the requested
// KPI's metric table. InjuryDensity is incident count over the deduplicated
// employee sum, 0 when the sum is not positive.
func PrepareStateMap(f Frame, kpi KPI) StateTable {
	type companyAgg struct {
		companies int
		employees float64
		hours     float64
	}
	type injuryAgg struct {
		cases    int
		daysAway float64
		daysTr   float64
		deaths   float64
	}

	companies := make(map[string]*companyAgg)
	injuries := make(map[string]*injuryAgg)
	seen := make(map[groupKey]bool, len(f.Records))

	for _, rec := range f.Records {
		inj := injuries[rec.StateCode]
		if inj == nil {
			inj = &injuryAgg{}
			injuries[rec.StateCode] = inj
		}
		inj.cases++
		inj.daysAway += rec.DAFWDaysAway
		inj.daysTr += rec.DJTRDaysTransfer
		inj.deaths += float64(rec.Death)

		companyID := groupKey{state: rec.StateCode, secondary: rec.CompanyName}
		if seen[companyID] {
			continue
		}
		seen[companyID] = true
		comp := companies[rec.StateCode]
		if comp == nil {
			comp = &companyAgg{}
			companies[rec.StateCode] = comp
		}
		comp.companies++
		comp.employees += rec.AnnualAverageEmployees
		comp.hours += rec.TotalHoursWorked
	}

	metric := indexByKey(kpi.Compute(f, DimNone))

	states := make([]string, 0, len(injuries))
	for state := range injuries {
		states = append(states, state)
	}
	sort.Strings(states)

	table := StateTable{KPI: kpi, Rows: make([]StateRow, 0, len(states))}
	for _, state := range states {
		inj := injuries[state]
		comp := companies[state]

		row := StateRow{
			StateCode:       state,
			AvgDaysAway:     inj.daysAway / float64(inj.cases),
			AvgDaysTransfer: inj.daysTr / float64(inj.cases),
			AvgDeaths:       inj.deaths / float64(inj.cases),
			CaseCount:       inj.cases,
			KPIValue:        metric[groupKey{state: state}],
		}
		if comp != nil && comp.companies > 0 {
			row.AvgEmployees = comp.employees / float64(comp.companies)
			row.TotalEmployees = comp.employees
			row.AvgHoursWorked = comp.hours / float64(comp.companies)
		}
		if row.TotalEmployees > 0 {
			row.InjuryDensity = float64(inj.cases) / row.TotalEmployees
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
