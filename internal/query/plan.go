package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/sensor"
)

// Table names a reading table.
type Table string

const (
	RawTable       Table = "rawdata"
	ConvertedTable Table = "data"
)

const (
	ColumnDeviceID = "deviceID"
	ColumnCreated  = "created"
)

// TimeFormat is the text layout of the created column. Whole seconds drop
// the fraction so stored values and bounds compare lexically.
const TimeFormat = "2006-01-02 15:04:05.999999999"

// FormatTime renders t in the created column layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// Window keeps the most recent rows of a selection. A zero Limit is
// unlimited.
type Window struct {
	Limit  uint64
	Offset uint64
}

// Selection is the first stage of a plan: which rows of which device, and
// optionally a window over them counted from the newest.
type Selection struct {
	Table    Table
	Columns  []string
	DeviceID uint64
	After    Bound
	Before   Bound
	Window   *Window
}

// Plan is a selection followed by an ascending order on created.
type Plan struct {
	Selection Selection
}

// Columns returns every selectable column: created followed by the channels.
func Columns() []string {
	cols := make([]string, 0, sensor.NumChannels+1)
	cols = append(cols, ColumnCreated)
	for _, c := range sensor.Channels() {
		cols = append(cols, c.Name())
	}
	return cols
}

// Build validates a request and produces its plan. An empty or "*"
// selector selects every column, otherwise the named column and created.
func Build(table Table, selector, deviceID string, opts Options) (Plan, error) {
	cols, err := selectColumns(selector)
	if err != nil {
		return Plan{}, err
	}

	id, err := ParseDeviceID(deviceID)
	if err != nil {
		return Plan{}, err
	}

	offset, err := opts.EffectiveOffset()
	if err != nil {
		return Plan{}, err
	}

	sel := Selection{
		Table:    table,
		Columns:  cols,
		DeviceID: id,
		After:    opts.After,
		Before:   opts.Before,
	}
	if opts.Limit > 0 || offset > 0 {
		sel.Window = &Window{Limit: opts.Limit, Offset: offset}
	}

	return Plan{Selection: sel}, nil
}

func selectColumns(selector string) ([]string, error) {
	switch selector {
	case "", "*":
		return Columns(), nil
	case ColumnCreated:
		return []string{ColumnCreated}, nil
	case ColumnDeviceID:
		return []string{ColumnDeviceID, ColumnCreated}, nil
	}

	if _, ok := sensor.Lookup(selector); !ok {
		return nil, errors.New().WithMessage(errors.ErrInvalidChannel,
			"Invalid data type '"+selector+"'")
	}

	return []string{selector, ColumnCreated}, nil
}

// SQL renders the plan as a parameterised SQLite statement. Device IDs are
// bound as their int64 bit pattern, matching how they are stored.
func (p Plan) SQL() (string, []any) {
	s := p.Selection

	quoted := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		quoted[i] = quote(c)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(" FROM ")
	b.WriteString(quote(string(s.Table)))
	b.WriteString(" WHERE ")
	b.WriteString(quote(ColumnDeviceID))
	b.WriteString(" = ?")

	args := []any{int64(s.DeviceID)}

	if s.After.Set {
		b.WriteString(" AND " + quote(ColumnCreated) + comparator(">", s.After.Inclusive))
		args = append(args, FormatTime(s.After.Time))
	}
	if s.Before.Set {
		b.WriteString(" AND " + quote(ColumnCreated) + comparator("<", s.Before.Inclusive))
		args = append(args, FormatTime(s.Before.Time))
	}

	if s.Window == nil {
		b.WriteString(" ORDER BY " + quote(ColumnCreated) + " ASC")
		return b.String(), args
	}

	b.WriteString(" ORDER BY " + quote(ColumnCreated) + " DESC LIMIT ? OFFSET ?")
	limit := int64(-1)
	if s.Window.Limit > 0 {
		limit = clamp(s.Window.Limit)
	}
	args = append(args, limit, clamp(s.Window.Offset))

	return "SELECT * FROM (" + b.String() + ") AS windowed ORDER BY " +
		quote(ColumnCreated) + " ASC", args
}

func comparator(op string, inclusive bool) string {
	if inclusive {
		return " " + op + "= ?"
	}
	return " " + op + " ?"
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func clamp(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// Apply evaluates the plan over full rows of the plan's table. It returns
// projected copies ordered by created ascending.
func (p Plan) Apply(rows []Row) []Row {
	s := p.Selection

	matched := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.DeviceID() != s.DeviceID {
			continue
		}
		created := r.Created()
		if s.After.Set && !after(created, s.After) {
			continue
		}
		if s.Before.Set && !before(created, s.Before) {
			continue
		}
		matched = append(matched, r)
	}

	if s.Window != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Created().After(matched[j].Created())
		})
		matched = window(matched, *s.Window)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Created().Before(matched[j].Created())
	})

	out := make([]Row, len(matched))
	for i, r := range matched {
		out[i] = r.Project(s.Columns)
	}
	return out
}

func after(t time.Time, b Bound) bool {
	return t.After(b.Time) || (b.Inclusive && t.Equal(b.Time))
}

func before(t time.Time, b Bound) bool {
	return t.Before(b.Time) || (b.Inclusive && t.Equal(b.Time))
}

func window(rows []Row, w Window) []Row {
	n := uint64(len(rows))
	if w.Offset >= n {
		return nil
	}
	rows = rows[w.Offset:]
	if w.Limit > 0 && w.Limit < uint64(len(rows)) {
		rows = rows[:w.Limit]
	}
	return rows
}
