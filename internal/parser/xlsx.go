package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/trendloom/internal/dataset"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse reads the selected sheet. Cells are read raw so that dates stored as
// serial numbers in the time column can be converted to canonical timestamps.
func (xlsxParser) Parse(name string, r io.Reader, opt Options) (*dataset.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &dataset.RawTable{}, nil
	}
	header := rows[0]
	body := padRows(rows[1:], len(header))

	for j, h := range header {
		if strings.TrimSpace(h) != dataset.TimeColumn {
			continue
		}
		for _, row := range body {
			row[j] = serialToTimestamp(row[j])
		}
	}
	return &dataset.RawTable{Header: header, Rows: body}, nil
}

func pickSheet(f *excelize.File, opt Options) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found. Available sheets: %s", opt.SheetName, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
	}
	return sheets[idx-1], nil
}

// serialToTimestamp converts an Excel serial date to the canonical layout.
// Text values are returned unchanged for the validator to judge.
func serialToTimestamp(v string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Round(time.Second).Format(dataset.TimestampLayout)
}
