package value

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mibar/dtxtract/internal/compile"
)

// splitBy splits s on sep, treating sep as a regular expression when it
// compiles as one and falling back to a literal split otherwise.
func splitBy(s, sep string) []string {
	if sep == "" {
		return []string{s}
	}
	if re, err := regexp.Compile(sep); err == nil {
		return re.Split(s, -1)
	}
	return strings.Split(s, sep)
}

// CoerceType applies a single type coercion (spec §4.5). Every tag has a
// type-specific fallback on failure — 0 for numeric targets, the input
// unchanged for most string-origin conversions. A failed coercion raises
// no warning, neither here nor in internal/extract. dt supplies spec-root date/time defaults a TypeOp's own
// fields may override; current resolves relative-weekday lookups and
// seeds the year/month/day a partial date falls back to.
func CoerceType(v any, t *compile.TypeOp, dt compile.DateTimeConfig, current *CurrentDate) any {
	switch t.Kind {
	case compile.TypeInt:
		return toInt(v)
	case compile.TypeFloat:
		f, _ := toFloat(v)
		return f
	case compile.TypeBool:
		return toBool(v)
	case compile.TypeTimestamp:
		return toTimestamp(v, t)
	case compile.TypeDateTimeString:
		return toDateTimeString(v, t, dt)
	case compile.TypeTime:
		return toClockTime(v, t, dt)
	case compile.TypeTimeDelta:
		return toTimeDelta(v)
	case compile.TypeDate:
		return toDate(v, t, dt, current)
	case compile.TypeDateStamp:
		return toDateStamp(v, t)
	case compile.TypeRelativeWeekday:
		return toRelativeWeekday(v, current)
	case compile.TypeLowerASCII:
		return lowerASCII(toString(v))
	case compile.TypeStrList:
		return toStrList(v, t, dt)
	case compile.TypeListIdentity:
		return v
	case compile.TypeLower:
		return strings.ToLower(toString(v))
	case compile.TypeUpper:
		return strings.ToUpper(toString(v))
	case compile.TypeCapitalize:
		return strings.Title(strings.ToLower(toString(v))) //nolint:staticcheck // matches CalcCaseChange's naive title-case
	default:
		return toString(v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0
			}
			return int(f)
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "yes", "on":
			return true
		}
		return false
	case int:
		return b != 0
	case float64:
		return b != 0
	default:
		return false
	}
}

// toTimestamp divides the raw value by the type-op's multiplier (default
// 1) and treats the result as epoch seconds (spec §4.5 "timestamp").
func toTimestamp(v any, t *compile.TypeOp) any {
	f, ok := toFloat(v)
	if !ok {
		return v
	}
	mult := t.Multiplier
	if mult == 0 {
		mult = 1
	}
	return time.Unix(int64(f/float64(mult)), 0).UTC()
}

// toDateTimeString parses v against the type-op's layout, falling back to
// dt.DateTimeString, in the configured timezone (spec §4.5
// "datetime-string").
func toDateTimeString(v any, t *compile.TypeOp, dt compile.DateTimeConfig) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	layout := t.Layout
	if layout == "" {
		layout = dt.DateTimeString
	}
	if layout == "" {
		return v
	}
	parsed, err := time.ParseInLocation(layout, s, loadLocation(dt.Timezone))
	if err != nil {
		return v
	}
	return parsed.UTC()
}

func loadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// toClockTime splits v on the configured splitter into hour/minute/second
// components, stripping a trailing AM/PM marker under a 12-hour clock
// (spec §4.5 "time"). Missing components default to zero. The result is a
// duration since midnight, this package's stand-in for a bare wall-clock
// value.
func toClockTime(v any, t *compile.TypeOp, dt compile.DateTimeConfig) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	splitter := t.Splitter
	if splitter == "" {
		splitter = dt.TimeSplitter
	}
	if splitter == "" {
		splitter = ":"
	}
	s = stripAMPM(s, dt.TimeType)
	parts := splitBy(s, splitter)

	var h, m, sec int
	if len(parts) > 0 {
		h = toInt(strings.TrimSpace(parts[0]))
	}
	if len(parts) > 1 {
		m = toInt(strings.TrimSpace(parts[1]))
	}
	if len(parts) > 2 {
		sec = toInt(strings.TrimSpace(parts[2]))
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

// stripAMPM removes a trailing am/pm marker under a 12-hour clock
// (timeType == 1); 24-hour clocks pass s through unchanged.
func stripAMPM(s string, timeType int) string {
	if timeType != 1 {
		return s
	}
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	if strings.HasSuffix(lower, "am") || strings.HasSuffix(lower, "pm") {
		return strings.TrimSpace(trimmed[:len(trimmed)-2])
	}
	return trimmed
}

// toTimeDelta interprets v as a whole number of seconds (spec §4.5
// "timedelta").
func toTimeDelta(v any) any {
	return time.Duration(toInt(v)) * time.Second
}

// toDate splits v on the configured splitter and assigns each piece to a
// day/month/year component per the configured field order, falling back
// to current's anchor date for any component the value doesn't supply
// (spec §4.5 "date"). A non-numeric piece is looked up in the configured
// month-name table.
func toDate(v any, t *compile.TypeOp, dt compile.DateTimeConfig, current *CurrentDate) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	splitter := t.Splitter
	if splitter == "" {
		splitter = dt.DateSplitter
	}
	seq := t.Sequence
	if len(seq) == 0 {
		seq = dt.DateSequence
	}
	months := t.MonthNames
	if len(months) == 0 {
		months = dt.MonthNames
	}

	anchor := time.Now().UTC()
	if current != nil {
		anchor = current.Anchor()
	}
	year, month, day := anchor.Year(), int(anchor.Month()), anchor.Day()

	parts := splitBy(s, splitter)
	for i, raw := range parts {
		if i >= len(seq) {
			break
		}
		raw = strings.TrimSpace(raw)
		n, err := strconv.Atoi(raw)
		if err != nil {
			idx := indexOfFold(months, raw)
			if idx < 0 {
				continue
			}
			n = idx + 1
		}
		switch strings.ToLower(seq[i]) {
		case "d":
			day = n
		case "m":
			month = n
		case "y":
			year = n
		}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// toDateStamp treats v as epoch seconds (divided by the configured
// multiplier, default 1) and truncates to the calendar day (spec §4.5
// "date-stamp").
func toDateStamp(v any, t *compile.TypeOp) any {
	f, ok := toFloat(v)
	if !ok {
		return v
	}
	mult := t.Multiplier
	if mult == 0 {
		mult = 1
	}
	tm := time.Unix(int64(f/float64(mult)), 0).UTC()
	return time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, time.UTC)
}

// toRelativeWeekday looks up a lowercased weekday/relative-offset name in
// current's precomputed map (spec §4.5 "relative-weekday"), falling back
// to the input unchanged on a miss or when no CurrentDate is wired.
func toRelativeWeekday(v any, current *CurrentDate) any {
	s, ok := v.(string)
	if !ok || current == nil {
		return v
	}
	if t, ok := current.RelativeWeekday(strings.ToLower(strings.TrimSpace(s))); ok {
		return t
	}
	return v
}

// lowerASCII lowercases, replaces spaces/slashes with underscores, drops a
// small punctuation set, folds Latin-1 accented letters to their ASCII
// equivalents, and encodes the rest to ASCII with "?" for residual
// non-ASCII runes (spec §4.5 "lower-ascii").
func lowerASCII(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "_", "/", "_").Replace(s)
	s = strings.NewReplacer("!", "", "(", "", ")", "", ",", "").Replace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x80:
			b.WriteRune(r)
		default:
			if folded, ok := asciiFoldTable[r]; ok {
				b.WriteRune(folded)
			} else {
				b.WriteByte('?')
			}
		}
	}
	return b.String()
}

// toStrList splits v on the configured splitter into a list of strings
// (spec §4.5 "split-into-list"), optionally dropping empty pieces.
func toStrList(v any, t *compile.TypeOp, dt compile.DateTimeConfig) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	splitter := t.Splitter
	if splitter == "" {
		splitter = dt.StrListSplitter
	}
	parts := splitBy(s, splitter)
	if !t.DropEmpty {
		return parts
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func indexOfFold(list []string, s string) int {
	target := strings.ToLower(strings.TrimSpace(s))
	for i, m := range list {
		if strings.ToLower(m) == target {
			return i
		}
	}
	return -1
}
