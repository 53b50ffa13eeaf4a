// Package dataprocessing holds the tabular model behind the dashboard and the
// reshaping operations the views are built from.
//
// # Data model
//
// A Table is a rectangular frame of float64 cells keyed by row labels, with
// string attribute columns carried alongside each row. Zillow research files
// load as region×month tables: the row label is RegionName, identifying
// fields such as RegionID, State or StateCodeFIPS become attributes, and each
// "YYYY-MM-DD" (or "YYYY-MM") header becomes a value column. Empty cells are
// NaN.
//
// # Operations
//
// Every operation returns a new Table and leaves its receiver untouched, so
// base tables can be shared read-only between concurrent requests:
//
//	t, err := dataprocessing.ReadRegionCSV(r, dataprocessing.ParseOptions{Name: "state_zhvi"})
//	yearly, err := t.Transpose().GroupRowsByYear()   // year×region means
//	means, err := t.YearMean(2021)                    // one mean per region
//	logged, nonPositive, err := t.Log()               // 0 gives -Inf, negatives NaN
//	joined, err := price.Join(rent)                   // inner join on row label
//
// # Error Handling
//
// Parse errors name the line and column that failed. Lookups of unknown
// columns or attributes return ErrColumnNotFound; a year with no month
// columns returns ErrYearNotFound.
package dataprocessing
