package exporter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wdpkr/zillowdata/internal/dataprocessing"
)

// maxSheetName is Excel's limit on worksheet name length
const maxSheetName = 31

// XLSXWriter writes a table as a single sheet workbook
type XLSXWriter struct{}

// NewXLSXWriter creates a new XLSX writer
func NewXLSXWriter() *XLSXWriter { return &XLSXWriter{} }

// SheetName turns a table name into a valid worksheet name
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet1"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

// WriteTable writes t to out. Values are numeric cells; missing values are
// left blank.
func (x *XLSXWriter) WriteTable(out io.Writer, t *dataprocessing.Table) error {
	if t == nil {
		return fmt.Errorf("no table to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := Header(t)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, 0, len(header))
		row = append(row, t.Index[i])
		for a := range t.AttrNames {
			row = append(row, t.Attrs[a][i])
		}
		for _, v := range t.Values[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.Write(out)
}
