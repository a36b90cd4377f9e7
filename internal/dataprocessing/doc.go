// Package dataprocessing turns the downloaded employee workbook into report
// data.
//
// LoadWorkbook reads the first sheet into a Table of typed Values. Clean
// deduplicates and normalises it, Filter selects active or exited employees
// under the retirement age, and BuildPivot averages Annual Salary by Business
// Unit and Department. ComputeInsights derives the salary highlights quoted in
// the report email.
//
//	table, err := dataprocessing.LoadWorkbook(path)
//	if err != nil {
//	    return err
//	}
//	filtered, err := dataprocessing.Filter(dataprocessing.Clean(table), dataprocessing.FilterActive)
//	if err != nil {
//	    return err
//	}
//	pivot, err := dataprocessing.BuildPivot(filtered, dataprocessing.DefaultPivotSpec())
//
// Every function returns a new Table and leaves its input untouched.
package dataprocessing
