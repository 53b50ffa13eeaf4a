package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/dataprocessing"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes tables as CSV and resolves export files under the
// configured exports directory
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
	xlsx   *XLSXWriter
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths, logger: slog.Default(), xlsx: NewXLSXWriter()}
}

// WithLogger sets the logger used for file exports
func (w *CSVWriter) WithLogger(logger *slog.Logger) *CSVWriter {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Header returns the export header: index name, attributes, value columns
func Header(t *dataprocessing.Table) []string {
	header := make([]string, 0, 1+len(t.AttrNames)+len(t.Columns))
	header = append(header, t.IndexName)
	header = append(header, t.AttrNames...)
	return append(header, t.Columns...)
}

// Records renders every row in header order
func Records(t *dataprocessing.Table) [][]string {
	records := make([][]string, t.NumRows())
	for i := range records {
		record := make([]string, 0, 1+len(t.AttrNames)+len(t.Columns))
		record = append(record, t.Index[i])
		for a := range t.AttrNames {
			record = append(record, t.Attrs[a][i])
		}
		for _, v := range t.Values[i] {
			record = append(record, formatFloat(v))
		}
		records[i] = record
	}
	return records
}

// WriteTable writes t to out as CSV
func (w *CSVWriter) WriteTable(out io.Writer, t *dataprocessing.Table, options WriteOptions) error {
	if t == nil {
		return fmt.Errorf("no table to export")
	}
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(Header(t)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range Records(t) {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile exports t into the exports directory and returns the full path
func (w *CSVWriter) WriteFile(format Format, name string, t *dataprocessing.Table) (string, error) {
	fullPath := w.resolvePath(name)

	w.logger.Info("Writing export file",
		slog.String("format", string(format)),
		slog.String("file_path", name),
		slog.String("full_path", fullPath),
		slog.Int("record_count", t.NumRows()))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	switch format {
	case FormatXLSX:
		err = w.xlsx.WriteTable(file, t)
	case FormatCSV:
		err = w.WriteTable(file, t, WriteOptions{BOMPrefix: true})
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", err
	}
	return fullPath, file.Close()
}

// resolvePath keeps absolute paths and places bare names in the exports dir
func (w *CSVWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) || w.paths == nil {
		return name
	}
	return w.paths.ExportPath(name)
}
