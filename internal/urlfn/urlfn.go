// Package urlfn implements the URL-builder's closed set of piece
// functions (spec §4.8): substitute a runtime variable, produce a count
// range, produce a date piece, produce a date range. IDs >= 100 dispatch
// to a host extension, mirroring internal/linkfn's contract.
package urlfn

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	FuncVariable = iota
	FuncCountRange
	FuncDatePiece
	FuncDateRange

	MaxBuiltinID = FuncDateRange
)

// ExtensionBase is the first id dispatched to a host extension.
const ExtensionBase = 100

// DatePieceKind selects how FuncDatePiece/FuncDateRange render a date.
type DatePieceKind int

const (
	DateAsOffset DatePieceKind = iota
	DateAsEpoch
	DateAsWeekday
)

// Vars is the resolved runtime-variable table a FuncVariable call reads
// from (spec §4.8 "substitute a named runtime variable (string;
// comma-joined for lists/dicts)").
type Vars map[string]any

// Extension is a host-supplied URL piece function for ids >= ExtensionBase.
type Extension func(id int, args []any) (string, error)

// Dispatcher evaluates both built-in and extension URL-piece functions.
type Dispatcher struct {
	Vars      Vars
	Anchor    time.Time
	Weekdays  []string
	Extension Extension
}

// Call evaluates URL piece function id against args, returning the
// rendered string fragment.
func (d Dispatcher) Call(id int, args []any) (string, error) {
	if id >= ExtensionBase {
		if d.Extension == nil {
			return "", fmt.Errorf("urlfn: no extension registered for id %d", id)
		}
		return d.Extension(id, args)
	}
	switch id {
	case FuncVariable:
		return d.variable(args)
	case FuncCountRange:
		return d.countRange(args)
	case FuncDatePiece:
		return d.datePiece(args)
	case FuncDateRange:
		return d.dateRange(args)
	default:
		return "", fmt.Errorf("urlfn: unknown builtin id %d", id)
	}
}

func (d Dispatcher) variable(args []any) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	name, _ := args[0].(string)
	v, ok := d.Vars[name]
	if !ok {
		return "", nil
	}
	switch val := v.(type) {
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ","), nil
	case map[string]any:
		parts := make([]string, 0, len(val))
		for k := range val {
			parts = append(parts, k)
		}
		return strings.Join(parts, ","), nil
	default:
		return fmt.Sprint(val), nil
	}
}

// countRange produces `cnt_offset*cnt+1 ... +cnt` joined by splitter (spec
// §4.8 "produce a count range"). args: cnt, cntOffset, splitter.
func (d Dispatcher) countRange(args []any) (string, error) {
	if len(args) < 3 {
		return "", nil
	}
	cnt := toInt(args[0])
	offset := toInt(args[1])
	splitter, _ := args[2].(string)

	start := offset*cnt + 1
	end := start + cnt - 1
	if cnt <= 0 {
		return "", nil
	}
	parts := make([]string, 0, cnt)
	for i := start; i <= end; i++ {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, splitter), nil
}

// datePiece renders a single date piece at anchor+offset days (args:
// offsetDays, kind, format).
func (d Dispatcher) datePiece(args []any) (string, error) {
	if len(args) < 2 {
		return "", nil
	}
	offset := toInt(args[0])
	kind := DatePieceKind(toInt(args[1]))
	format := "2006-01-02"
	if len(args) > 2 {
		if f, ok := args[2].(string); ok && f != "" {
			format = f
		}
	}
	date := d.Anchor.AddDate(0, 0, offset)
	return d.renderDate(date, kind, format), nil
}

// dateRange renders every date from anchor+fromOffset to anchor+toOffset,
// joined by splitter.
func (d Dispatcher) dateRange(args []any) (string, error) {
	if len(args) < 4 {
		return "", nil
	}
	from := toInt(args[0])
	to := toInt(args[1])
	kind := DatePieceKind(toInt(args[2]))
	splitter, _ := args[3].(string)
	format := "2006-01-02"
	if len(args) > 4 {
		if f, ok := args[4].(string); ok && f != "" {
			format = f
		}
	}

	step := 1
	if to < from {
		step = -1
	}
	var parts []string
	for i := from; ; i += step {
		parts = append(parts, d.renderDate(d.Anchor.AddDate(0, 0, i), kind, format))
		if i == to {
			break
		}
	}
	return strings.Join(parts, splitter), nil
}

func (d Dispatcher) renderDate(date time.Time, kind DatePieceKind, format string) string {
	switch kind {
	case DateAsEpoch:
		return strconv.FormatInt(date.Unix(), 10)
	case DateAsWeekday:
		wd := int(date.Weekday())
		if wd < len(d.Weekdays) && d.Weekdays[wd] != "" {
			return d.Weekdays[wd]
		}
		return date.Weekday().String()
	default:
		return date.Format(format)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
