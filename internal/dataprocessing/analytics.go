package dataprocessing

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// GroupAverage is the mean salary of one group
type GroupAverage struct {
	Name    string
	Count   int
	Average float64
}

// EthnicityBreakdown compares genders within one ethnicity
type EthnicityBreakdown struct {
	Ethnicity string
	ByGender  []GroupAverage
	// Spread is the highest minus the lowest gender average
	Spread  float64
	Highest GroupAverage
}

// Insights are the salary highlights quoted in the report email
type Insights struct {
	Employees    int
	MeanSalary   float64
	MedianSalary float64
	ByGender     []GroupAverage
	GenderGap    float64
	GapLeader    string
	ByEthnicity  []EthnicityBreakdown
	ByDepartment []GroupAverage
	ByBusiness   []GroupAverage
	TopBusiness  GroupAverage
	LowBusiness  GroupAverage
}

// ComputeInsights summarises Annual Salary by gender, ethnicity, department
// and business unit. Rows without a numeric salary are skipped.
func ComputeInsights(t *Table) *Insights {
	salaryIdx := t.ColumnIndex(ColAnnualSalary)
	in := &Insights{Employees: t.Len()}
	if salaryIdx < 0 {
		return in
	}

	col := func(name string) int { return t.ColumnIndex(name) }
	genderIdx, ethIdx, deptIdx, buIdx := col(ColGender), col(ColEthnicity), col(ColDepartment), col(ColBusinessUnit)

	var all []float64
	byGender := map[string][]float64{}
	byDept := map[string][]float64{}
	byBU := map[string][]float64{}
	byEth := map[string]map[string][]float64{}

	for _, row := range t.Rows {
		salary, ok := row[salaryIdx].Float()
		if !ok {
			continue
		}
		all = append(all, salary)

		gender := cellLabel(row, genderIdx)
		byGender[gender] = append(byGender[gender], salary)
		byDept[cellLabel(row, deptIdx)] = append(byDept[cellLabel(row, deptIdx)], salary)
		byBU[cellLabel(row, buIdx)] = append(byBU[cellLabel(row, buIdx)], salary)

		eth := cellLabel(row, ethIdx)
		if byEth[eth] == nil {
			byEth[eth] = map[string][]float64{}
		}
		byEth[eth][gender] = append(byEth[eth][gender], salary)
	}

	if len(all) == 0 {
		return in
	}
	in.MeanSalary, _ = stats.Mean(all)
	in.MedianSalary, _ = stats.Median(all)

	in.ByGender = averages(byGender)
	if len(in.ByGender) >= 2 {
		ranked := append([]GroupAverage(nil), in.ByGender...)
		sortByAverage(ranked)
		in.GapLeader = ranked[0].Name
		in.GenderGap = ranked[0].Average - ranked[len(ranked)-1].Average
	}

	for _, eth := range sortedMapKeys(byEth) {
		b := EthnicityBreakdown{Ethnicity: eth, ByGender: averages(byEth[eth])}
		ranked := append([]GroupAverage(nil), b.ByGender...)
		sortByAverage(ranked)
		b.Highest = ranked[0]
		b.Spread = ranked[0].Average - ranked[len(ranked)-1].Average
		in.ByEthnicity = append(in.ByEthnicity, b)
	}

	in.ByDepartment = averages(byDept)
	sortByAverage(in.ByDepartment)

	in.ByBusiness = averages(byBU)
	sortByAverage(in.ByBusiness)
	in.TopBusiness = in.ByBusiness[0]
	in.LowBusiness = in.ByBusiness[len(in.ByBusiness)-1]

	return in
}

func averages(groups map[string][]float64) []GroupAverage {
	out := make([]GroupAverage, 0, len(groups))
	for _, name := range sortedMapKeys(groups) {
		mean, _ := stats.Mean(groups[name])
		out = append(out, GroupAverage{Name: name, Count: len(groups[name]), Average: mean})
	}
	return out
}

// sortByAverage orders highest first, ties by name
func sortByAverage(groups []GroupAverage) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Average != groups[j].Average {
			return groups[i].Average > groups[j].Average
		}
		return groups[i].Name < groups[j].Name
	})
}

func cellLabel(row []Value, idx int) string {
	if idx < 0 {
		return BlankLabel
	}
	return label(row[idx])
}

func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
