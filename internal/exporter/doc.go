// Package exporter writes view tables as CSV or XLSX.
//
// CSVWriter streams a table to any io.Writer, optionally prefixed with a
// UTF-8 BOM so Excel detects the encoding. XLSXWriter produces a single
// sheet workbook through excelize. WriteFile resolves a file name inside the
// configured exports directory and dispatches on the format.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths)
//	path, err := w.WriteFile(exporter.FormatXLSX, "histogram.xlsx", view.Table)
package exporter
