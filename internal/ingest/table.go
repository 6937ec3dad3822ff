// Package ingest turns uploaded CSV and XLSX sheets into typed planner records.
// Columns are matched by normalized name against alias lists, so "Stock WH",
// "stock_wh" and "STOCK-WH" all bind to the same field.
package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Table is a header row plus string cells, whatever the source format.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Read picks the reader from the file name's extension.
func Read(name string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(name, r)
	case ".csv", ".txt", "":
		return ReadCSV(name, r)
	default:
		return nil, errors.Errorf("unsupported file extension %s for %s", filepath.Ext(name), name)
	}
}

func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return Read(filepath.Base(path), f)
}

// ReadCSV reads a comma separated sheet. A UTF-8 BOM on the header is dropped
// and rows may be shorter than the header.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &Table{Name: name}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read header of %s", name)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Name: name, Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read row %d of %s", len(t.Rows)+2, name)
		}
		if blankRecord(record) {
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(name string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open xlsx %s", name)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Errorf("xlsx %s has no sheets", name)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rows from sheet %s", sheet)
	}
	defer rows.Close()

	t := &Table{Name: name}
	first := true
	for rows.Next() {
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read row from %s", name)
		}
		if first {
			t.Header = record
			first = false
			continue
		}
		if blankRecord(record) {
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	if err := rows.Error(); err != nil {
		return nil, errors.Wrapf(err, "error iterating rows in %s", name)
	}
	return t, nil
}

// ReadBytes is Read over an in-memory upload.
func ReadBytes(name string, data []byte) (*Table, error) {
	return Read(name, bytes.NewReader(data))
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
