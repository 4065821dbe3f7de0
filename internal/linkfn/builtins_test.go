package linkfn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFnStripPrefixAndSuffix(t *testing.T) {
	v, err := callBuiltin(FuncStrip, []any{"S01E02.mkv", "S01", ".mkv"})
	require.NoError(t, err)
	assert.Equal(t, "E02", v)
}

func TestFnConcat(t *testing.T) {
	v, _ := callBuiltin(FuncConcat, []any{"a", "b", 3})
	assert.Equal(t, "ab3", v)
}

func TestFnSplitProject(t *testing.T) {
	v, err := callBuiltin(FuncSplitProject, []any{"a/b/c", "/", 1})
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestFnCombineDateTimeRollsOverMidnight(t *testing.T) {
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v, err := callBuiltin(FuncCombineDateTime, []any{date, "25:30"})
	require.NoError(t, err)
	combined := v.(time.Time)
	assert.Equal(t, "2026-08-02 01:30", combined.Format("2006-01-02 15:04"))
}

func TestFnSubstringBranch(t *testing.T) {
	v, _ := callBuiltin(FuncSubstringBranch, []any{"hello world", "world", "yes", "no"})
	assert.Equal(t, "yes", v)
}

func TestFnLongestNonEmpty(t *testing.T) {
	v := fnLongestNonEmpty([]any{"a", "abc", "ab"})
	assert.Equal(t, "abc", v)
}

func TestFnFirstNonEmpty(t *testing.T) {
	v := fnFirstNonEmpty([]any{"", "", "third"})
	assert.Equal(t, "third", v)
}

func TestFnLookupParallelLists(t *testing.T) {
	v, err := callBuiltin(FuncLookupParallelLists, []any{"b", []any{"a", "b", "c"}, []any{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestDispatcherRemapsExtensionResult(t *testing.T) {
	d := Dispatcher{Extension: func(id int, args []any) (any, int, []any, error) {
		return nil, FuncConcat, []any{"x", "y"}, nil
	}}
	v, err := d.Call(ExtensionBase, nil)
	require.NoError(t, err)
	assert.Equal(t, "xy", v)
}
