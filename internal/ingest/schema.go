package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Column is one semantic field and the header spellings that may carry it.
type Column struct {
	Name     string
	Aliases  []string
	Required bool
}

type Schema struct {
	Table   string
	Columns []Column
}

// Binding maps a schema onto a concrete header.
type Binding struct {
	schema Schema
	index  map[string]int
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// Bind resolves every column of s against t's header. A missing required
// column yields a *domain.SchemaMismatchError listing all of them.
func (s Schema) Bind(t *Table) (*Binding, error) {
	positions := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := normalizeColumnName(h)
		if _, dup := positions[key]; !dup && key != "" {
			positions[key] = i
		}
	}

	b := &Binding{schema: s, index: make(map[string]int, len(s.Columns))}
	var missing []string
	for _, c := range s.Columns {
		idx := -1
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			if i, ok := positions[normalizeColumnName(name)]; ok {
				idx = i
				break
			}
		}
		if idx < 0 && c.Required {
			missing = append(missing, c.Name)
		}
		b.index[c.Name] = idx
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaMismatchError{Table: s.Table, Missing: missing}
	}
	return b, nil
}

// Has reports whether the column was found in the header.
func (b *Binding) Has(column string) bool {
	i, ok := b.index[column]
	return ok && i >= 0
}

// Row reads one record through the binding and collects the repairs made
// while coercing its cells.
type Row struct {
	b       *Binding
	number  int
	record  []string
	repairs *[]domain.Repair
}

func (b *Binding) Row(number int, record []string, repairs *[]domain.Repair) Row {
	return Row{b: b, number: number, record: record, repairs: repairs}
}

func (r Row) raw(column string) string {
	i, ok := r.b.index[column]
	if !ok || i < 0 || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r Row) repair(column, raw, def string) {
	if r.repairs == nil {
		return
	}
	*r.repairs = append(*r.repairs, domain.Repair{
		Table:   r.b.schema.Table,
		Row:     r.number,
		Column:  column,
		Raw:     raw,
		Default: def,
	})
}

func (r Row) String(column string) string {
	return r.raw(column)
}

// Float parses a numeric cell. Thousands commas are stripped; blanks are 0
// and unparseable text becomes 0 with a repair recorded.
func (r Row) Float(column string) float64 {
	v := r.raw(column)
	if v == "" {
		return 0
	}
	f, ok := parseNumber(v)
	if !ok {
		r.repair(column, v, "0")
		return 0
	}
	return f
}

func (r Row) Int(column string) int64 {
	return int64(r.Float(column))
}

// Date parses a date cell. A blank or unreadable cell becomes fallback and is
// recorded as a repair; an absent column yields the zero time.
func (r Row) Date(column string, fallback time.Time) time.Time {
	if !r.b.Has(column) {
		return time.Time{}
	}
	v := r.raw(column)
	if d, ok := parseDate(v); ok {
		return d
	}
	r.repair(column, v, fallback.Format("2006-01-02"))
	return fallback
}

func parseNumber(v string) (float64, bool) {
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"20060102",
}

// parseDate accepts the layouts planners export plus Excel serial numbers.
func parseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return domain.DateOnly(t), true
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return domain.DateOnly(t), true
		}
	}
	return time.Time{}, false
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday, "minggu": time.Sunday,
	"mon": time.Monday, "monday": time.Monday, "senin": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday, "selasa": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "rabu": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday, "kamis": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "jumat": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "sabtu": time.Saturday,
}

// parseWeekdays reads "Mon", "Mon, Thu" or "senin/kamis".
func parseWeekdays(v string) ([]time.Weekday, bool) {
	fields := strings.FieldsFunc(strings.ToLower(v), func(r rune) bool {
		return r == ',' || r == '/' || r == ';' || r == ' ' || r == '|'
	})
	var out []time.Weekday
	for _, f := range fields {
		d, ok := weekdayNames[strings.Trim(f, "'\".")]
		if !ok {
			return nil, false
		}
		out = append(out, d)
	}
	return out, len(out) > 0
}
