// Package shared holds helpers used across the dashboard packages that do not
// belong to any single layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - fixture builders for Zillow-style region CSV files and county GeoJSON
//   - helpers that write fixtures to disk or serve them over httptest
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    sources := testutil.WriteFixtureFiles(t, t.TempDir())
//	    // build the component under test with logger and sources
//	    testutil.AssertNoErrors(t, logs)
//	}
//
// Nothing in this package is imported by production code.
package shared
