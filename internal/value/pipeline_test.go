package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/tree"
)

func noopResolve(ref compile.ValueRef) (any, bool) {
	if ref.Kind == compile.RefLiteral {
		return ref.Literal, true
	}
	return nil, false
}

func buildOneElement(text string) (*tree.Tree, tree.NodeID) {
	b := tree.NewBuilder(tree.KindElement)
	id := b.AddChild(b.Root())
	n := b.Node(id)
	n.Element = tree.ElementData{Tag: "p", Text: text}
	t := b.Build()
	return t, id
}

func TestExtractTextSource(t *testing.T) {
	tr, id := buildOneElement("hello world")
	vd := &compile.ValueDef{Source: compile.SourceText}
	v, err := Extract(tr, id, vd, tree.NewLinkEnv(), nil, noopResolve, compile.DateTimeConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)
}

func TestExtractAppliesCalcRightStrip(t *testing.T) {
	tr, id := buildOneElement("  12,5 kg ")
	vd := &compile.ValueDef{
		Source: compile.SourceText,
		Calc: []compile.CalcOp{
			{Kind: compile.CalcRightStrip, StripText: "kg"},
			{Kind: compile.CalcRegexSubstituteList, SubPairs: []compile.RegexSub{{Pattern: ",", Replacement: "."}}},
		},
		Type: &compile.TypeOp{Kind: compile.TypeFloat},
	}
	v, err := Extract(tr, id, vd, tree.NewLinkEnv(), nil, noopResolve, compile.DateTimeConfig{}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, v, 0.0001)
}

func TestExtractAppliesCalcLeftStrip(t *testing.T) {
	tr, id := buildOneElement("  USD 99 ")
	vd := &compile.ValueDef{
		Source: compile.SourceText,
		Calc:   []compile.CalcOp{{Kind: compile.CalcLeftStrip, StripText: "usd"}},
	}
	v, err := Extract(tr, id, vd, tree.NewLinkEnv(), nil, noopResolve, compile.DateTimeConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "99", v)
}

func TestExtractDefaultAppliesOnEmpty(t *testing.T) {
	tr, id := buildOneElement("")
	vd := &compile.ValueDef{
		Source:  compile.SourceText,
		Default: &compile.DefaultDef{Value: compile.ValueRef{Kind: compile.RefLiteral, Literal: "fallback"}},
	}
	v, err := Extract(tr, id, vd, tree.NewLinkEnv(), nil, noopResolve, compile.DateTimeConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestExtractTypeIntCoercion(t *testing.T) {
	tr, id := buildOneElement("42")
	vd := &compile.ValueDef{Source: compile.SourceText, Type: &compile.TypeOp{Kind: compile.TypeInt}}
	v, err := Extract(tr, id, vd, tree.NewLinkEnv(), nil, noopResolve, compile.DateTimeConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestExtractTypeRelativeWeekdayCoercion(t *testing.T) {
	tr, id := buildOneElement("tomorrow")
	vd := &compile.ValueDef{Source: compile.SourceText, Type: &compile.TypeOp{Kind: compile.TypeRelativeWeekday}}
	cd := NewCurrentDate(mustParseDate("2026-08-01"))
	cd.Recompute(map[string]int{"tomorrow": 1}, nil)
	v, err := Extract(tr, id, vd, tree.NewLinkEnv(), nil, noopResolve, compile.DateTimeConfig{}, cd)
	require.NoError(t, err)
	got, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, "2026-08-02", got.Format("2006-01-02"))
}

func TestExtractMembershipFilterRejectsValue(t *testing.T) {
	tr, id := buildOneElement("blocked")
	vd := &compile.ValueDef{
		Source:           compile.SourceText,
		IsMemberOfFilter: true,
		PathValueName:    "genre",
	}
	filters := map[string][]compile.ValueRef{
		"genre": {{Kind: compile.RefLiteral, Literal: "drama"}},
	}
	_, err := Extract(tr, id, vd, tree.NewLinkEnv(), filters, noopResolve, compile.DateTimeConfig{}, nil)
	require.Error(t, err)
	_, isFiltered := err.(Filtered)
	assert.True(t, isFiltered)
}

func TestExtractMembershipFilterAllowsKnownValue(t *testing.T) {
	tr, id := buildOneElement("drama")
	vd := &compile.ValueDef{
		Source:           compile.SourceText,
		IsMemberOfFilter: true,
		PathValueName:    "genre",
	}
	filters := map[string][]compile.ValueRef{
		"genre": {{Kind: compile.RefLiteral, Literal: "drama"}},
	}
	v, err := Extract(tr, id, vd, tree.NewLinkEnv(), filters, noopResolve, compile.DateTimeConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "drama", v)
}

func TestInclusiveTextExcludesSubtree(t *testing.T) {
	b := tree.NewBuilder(tree.KindElement)
	root := b.Root()
	p := b.AddChild(root)
	b.Node(p).Element = tree.ElementData{Tag: "p", Text: "start "}
	span := b.AddChild(p)
	b.Node(span).Element = tree.ElementData{Tag: "span", Text: "middle", Tail: " end"}
	skip := b.AddChild(p)
	b.Node(skip).Element = tree.ElementData{Tag: "script", Text: "ignored"}
	tr := b.Build()

	got := inclusiveText(tr, p, []string{"script"}, nil, 0)
	assert.Equal(t, "start middle end", got)
}

// TestInclusiveTextDepthAndExcludeKeepsExcludedTail matches spec.md's
// worked example: an excluded node's own text is dropped but its tail
// still contributes, and descent stops past the configured depth.
func TestInclusiveTextDepthAndExcludeKeepsExcludedTail(t *testing.T) {
	b := tree.NewBuilder(tree.KindElement)
	root := b.Root()
	p := b.AddChild(root)
	b.Node(p).Element = tree.ElementData{Tag: "p", Text: "hi "}
	script := b.AddChild(p)
	b.Node(script).Element = tree.ElementData{Tag: "script", Text: "bad", Tail: " there"}
	i := b.AddChild(p)
	b.Node(i).Element = tree.ElementData{Tag: "i", Text: "!"}
	tr := b.Build()

	got := inclusiveText(tr, p, []string{"script"}, nil, 2)
	assert.Equal(t, "hi there !", got)
}

func TestInclusiveTextIncludeRestrictsToNamedTags(t *testing.T) {
	b := tree.NewBuilder(tree.KindElement)
	root := b.Root()
	p := b.AddChild(root)
	b.Node(p).Element = tree.ElementData{Tag: "p", Text: "lead "}
	strong := b.AddChild(p)
	b.Node(strong).Element = tree.ElementData{Tag: "strong", Text: "bold"}
	em := b.AddChild(p)
	b.Node(em).Element = tree.ElementData{Tag: "em", Text: "skip-me"}
	tr := b.Build()

	got := inclusiveText(tr, p, nil, []string{"strong"}, 0)
	assert.Equal(t, "lead bold", got)
}

func TestRelativeWeekdayRecompute(t *testing.T) {
	cd := NewCurrentDate(mustParseDate("2026-08-01")) // a Saturday
	cd.Recompute(map[string]int{"tomorrow": 1}, []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"})
	tomorrow, ok := cd.RelativeWeekday("tomorrow")
	require.True(t, ok)
	assert.Equal(t, "2026-08-02", tomorrow.Format("2006-01-02"))

	sat, ok := cd.RelativeWeekday("saturday")
	require.True(t, ok)
	assert.Equal(t, "2026-08-01", sat.Format("2006-01-02"))
}

func mustParseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
