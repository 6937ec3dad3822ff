package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/pkg/numfmt"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	dateLayout      = "2006-01-02"
	defaultDecimals = 2
)

// Options controls cell rendering. IndonesianNumbers applies to CSV only;
// workbook cells stay numeric so spreadsheets can still sum them.
type Options struct {
	IndonesianNumbers bool
	Decimals          int
}

func (o Options) decimals() int {
	if o.Decimals <= 0 {
		return defaultDecimals
	}
	return o.Decimals
}

func (o Options) text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if o.IndonesianNumbers {
			return numfmt.FormatID(x, o.decimals())
		}
		return strconv.FormatFloat(numfmt.Round(x, o.decimals()), 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(dateLayout)
	case decimal.Decimal:
		if o.IndonesianNumbers {
			return numfmt.FormatID(x.InexactFloat64(), o.decimals())
		}
		return x.Round(int32(o.decimals())).String()
	default:
		return fmt.Sprint(x)
	}
}

func (o Options) cell(v any) any {
	switch x := v.(type) {
	case float64:
		return numfmt.Round(x, o.decimals())
	case decimal.Decimal:
		return x.Round(int32(o.decimals())).InexactFloat64()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(dateLayout)
	default:
		return v
	}
}

// WriteCSV writes one sheet with its header row.
func WriteCSV(w io.Writer, s Sheet, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header); err != nil {
		return fmt.Errorf("failed to write csv header for %s: %w", s.Name, err)
	}
	record := make([]string, len(s.Header))
	for i, row := range s.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, opts.text(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d for %s: %w", i+1, s.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes every sheet into one workbook, streaming rows.
func WriteXLSX(w io.Writer, sheets []Sheet, opts Options) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return fmt.Errorf("failed to rename sheet to %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.Name, err)
		}
		if err := writeSheet(f, s, opts); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Sheet, opts Options) error {
	sw, err := f.NewStreamWriter(s.Name)
	if err != nil {
		return fmt.Errorf("failed to open stream writer for %s: %w", s.Name, err)
	}

	header := make([]interface{}, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", s.Name, err)
	}

	for i, row := range s.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = opts.cell(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d for %s: %w", i+1, s.Name, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", s.Name, err)
	}
	return nil
}
