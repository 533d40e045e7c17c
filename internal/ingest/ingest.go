package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/divyyeahhhhh/autocampaign/internal/domain"
)

// Sentinel errors for tabular ingestion.
var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrNoHeaders       = errors.New("no header row detected")
	ErrNoDataRows      = errors.New("file contains a header but no data rows")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// MaxAdvisoryRows is the documented per-campaign row guidance. It is advisory
// only: larger files are accepted in full, callers may warn.
const MaxAdvisoryRows = 10

// Parse reads raw file bytes and produces an UploadedDataset. The declared
// file name selects the parser (csv, xls or xlsx). Parsing is replace-or-fail:
// on any error no dataset is returned, so a previously ingested dataset is
// never corrupted by a bad upload.
func Parse(fileName string, data []byte) (*domain.UploadedDataset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		rows []domain.RowRecord
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		rows, err = parseCSV(bytes.NewReader(data))
	case ".xlsx":
		rows, err = parseXLSX(data)
	case ".xls":
		rows, err = parseXLS(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, err
	}

	return &domain.UploadedDataset{
		FileName: fileName,
		RowCount: len(rows),
		Rows:     rows,
	}, nil
}

// parseCSV reads header + data rows from CSV content. Ragged rows are
// tolerated: short rows leave trailing columns unset, long rows drop the
// extra cells.
func parseCSV(r io.Reader) ([]domain.RowRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = normalizeHeader(header)
	if len(header) == 0 {
		return nil, ErrNoHeaders
	}

	var rows []domain.RowRecord
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		if isBlankRow(record) {
			continue
		}
		rows = append(rows, recordToRow(header, record))
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// parseXLSX reads the first sheet of an xlsx workbook.
func parseXLSX(data []byte) ([]domain.RowRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsFromCells(all)
}

// parseXLS reads the first sheet of a legacy BIFF workbook.
func parseXLS(data []byte) ([]domain.RowRecord, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open legacy workbook: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	all := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			all = append(all, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		all = append(all, cells)
	}
	return rowsFromCells(all)
}

// rowsFromCells converts a sheet's cell grid, header row first, into row
// records.
func rowsFromCells(all [][]string) ([]domain.RowRecord, error) {
	if len(all) == 0 {
		return nil, ErrEmptyFile
	}
	header := normalizeHeader(all[0])
	if len(header) == 0 {
		return nil, ErrNoHeaders
	}
	var rows []domain.RowRecord
	for _, record := range all[1:] {
		if isBlankRow(record) {
			continue
		}
		rows = append(rows, recordToRow(header, record))
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// normalizeHeader trims header cells in place, positions preserved: a blank
// header cell stays a blank slot so later columns keep their index. Returns
// nil when no cell carries a name.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	named := 0
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			// Strip UTF-8 BOM from exported files
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		out[i] = h
		if h != "" {
			named++
		}
	}
	if named == 0 {
		return nil
	}
	return out
}

func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// recordToRow maps cells to column names by position. Columns without a
// header name are dropped, never shifted into a neighbor.
func recordToRow(header, record []string) domain.RowRecord {
	row := make(domain.RowRecord, len(header))
	for i, col := range header {
		if col == "" {
			continue
		}
		if i < len(record) {
			row[col] = strings.TrimSpace(record[i])
		}
	}
	return row
}
