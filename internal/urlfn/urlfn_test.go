package urlfn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableSubstitutesString(t *testing.T) {
	d := Dispatcher{Vars: Vars{"channel": "bbc1"}}
	v, err := d.Call(FuncVariable, []any{"channel"})
	require.NoError(t, err)
	assert.Equal(t, "bbc1", v)
}

func TestVariableJoinsList(t *testing.T) {
	d := Dispatcher{Vars: Vars{"ids": []any{1, 2, 3}}}
	v, err := d.Call(FuncVariable, []any{"ids"})
	require.NoError(t, err)
	assert.Equal(t, "1,2,3", v)
}

func TestCountRangeProducesOffsetSequence(t *testing.T) {
	d := Dispatcher{}
	v, err := d.Call(FuncCountRange, []any{3, 1, ","})
	require.NoError(t, err)
	assert.Equal(t, "4,5,6", v)
}

func TestDatePieceAsOffset(t *testing.T) {
	d := Dispatcher{Anchor: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	v, err := d.Call(FuncDatePiece, []any{1, int(DateAsOffset), "2006-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-02", v)
}

func TestDatePieceAsWeekday(t *testing.T) {
	d := Dispatcher{
		Anchor:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), // Saturday
		Weekdays: []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"},
	}
	v, err := d.Call(FuncDatePiece, []any{0, int(DateAsWeekday)})
	require.NoError(t, err)
	assert.Equal(t, "sat", v)
}

func TestDateRangeJoinsEachDay(t *testing.T) {
	d := Dispatcher{Anchor: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	v, err := d.Call(FuncDateRange, []any{0, 2, int(DateAsOffset), "|", "2006-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01|2026-08-02|2026-08-03", v)
}
