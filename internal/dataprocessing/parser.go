package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// DefaultIndexColumn is the Zillow column that labels each region
const DefaultIndexColumn = "RegionName"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoMonthColumns is returned when a CSV carries no month-labelled columns
var ErrNoMonthColumns = errors.New("no month columns")

// ParseOptions controls how a region CSV is read
type ParseOptions struct {
	// Name is the table name, usually the dataset ID
	Name string
	// IndexColumn labels rows. Defaults to RegionName.
	IndexColumn string
	Logger      *slog.Logger
}

// ReadRegionCSV reads a Zillow wide-format region CSV. Month headers become
// value columns in file order; every other header becomes an attribute.
func ReadRegionCSV(r io.Reader, opts ParseOptions) (*Table, error) {
	if opts.IndexColumn == "" {
		opts.IndexColumn = DefaultIndexColumn
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opts.Name, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file", opts.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", opts.Name, err)
	}

	indexCol := -1
	var monthCols, attrCols []int
	table := &Table{Name: opts.Name, IndexName: opts.IndexColumn}
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		if _, ok := ParseMonthLabel(h); ok {
			monthCols = append(monthCols, i)
			table.Columns = append(table.Columns, h)
			continue
		}
		if h == opts.IndexColumn {
			indexCol = i
		}
		attrCols = append(attrCols, i)
		table.AttrNames = append(table.AttrNames, h)
	}
	if indexCol < 0 {
		return nil, fmt.Errorf("%s: %w: %q", opts.Name, ErrColumnNotFound, opts.IndexColumn)
	}
	if len(monthCols) == 0 {
		return nil, fmt.Errorf("%s: %w", opts.Name, ErrNoMonthColumns)
	}
	table.Attrs = make([][]string, len(attrCols))

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", opts.Name, line, err)
		}

		row := make([]float64, len(monthCols))
		for k, col := range monthCols {
			v, err := parseCell(record[col])
			if err != nil {
				return nil, fmt.Errorf("%s: line %d column %s: %w", opts.Name, line, header[col], err)
			}
			row[k] = v
		}

		table.Index = append(table.Index, strings.TrimSpace(record[indexCol]))
		table.Values = append(table.Values, row)
		for a, col := range attrCols {
			table.Attrs[a] = append(table.Attrs[a], strings.TrimSpace(record[col]))
		}
	}

	logger.Debug("region csv parsed",
		slog.String("table", opts.Name),
		slog.Int("rows", table.NumRows()),
		slog.Int("months", len(monthCols)),
		slog.Int("attributes", len(attrCols)))

	return table, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
