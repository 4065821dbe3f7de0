package value

import "time"

// CurrentDate is the engine's current-date anchor, overridable by the
// caller, plus a relative-weekday lookup that Recompute builds from it
// (spec §4.5 "Current-date maintenance").
type CurrentDate struct {
	anchor           time.Time
	relativeWeekdays map[string]time.Time
}

// NewCurrentDate returns a CurrentDate anchored at anchor (truncated to the
// day) with no relative-weekday entries computed yet.
func NewCurrentDate(anchor time.Time) *CurrentDate {
	cd := &CurrentDate{}
	cd.Set(anchor)
	return cd
}

// Set replaces the anchor and clears the relative-weekday map. It does not
// rebuild the map: lookups find nothing until Recompute is called again.
func (cd *CurrentDate) Set(anchor time.Time) {
	cd.anchor = truncateToDay(anchor)
	cd.relativeWeekdays = nil
}

// Anchor returns the current anchor date.
func (cd *CurrentDate) Anchor() time.Time { return cd.anchor }

// Recompute rebuilds the relative-weekday map from offsets (named offset ->
// integer day delta from the anchor, spec-configured) and weekday names
// (pinned to the next occurrence at or after the anchor's weekday).
func (cd *CurrentDate) Recompute(offsets map[string]int, weekdayNames []string) {
	m := make(map[string]time.Time, len(offsets)+len(weekdayNames))
	for name, off := range offsets {
		m[name] = cd.anchor.AddDate(0, 0, off)
	}
	for i, name := range weekdayNames {
		if name == "" {
			continue
		}
		target := time.Weekday(i % 7)
		delta := (int(target) - int(cd.anchor.Weekday()) + 7) % 7
		m[name] = cd.anchor.AddDate(0, 0, delta)
	}
	cd.relativeWeekdays = m
}

// RelativeWeekday looks up a lowercased weekday/relative-offset name
// (spec §4.5 "relative-weekday: lookup a lowercased weekday name in the
// spec's relative-weekday map").
func (cd *CurrentDate) RelativeWeekday(name string) (time.Time, bool) {
	t, ok := cd.relativeWeekdays[name]
	return t, ok
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
