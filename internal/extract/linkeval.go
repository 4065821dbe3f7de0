package extract

import (
	"regexp"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/linkfn"
	"github.com/mibar/dtxtract/internal/value"
)

// evalLinkDef evaluates a compiled link-function definition against a
// record's appended-value list (spec §4.6 step 4 "Variable references
// index into the record's appended-value list; function calls
// recursively compute their args and invoke the link function").
func evalLinkDef(ld compile.LinkDef, vars []any, disp linkfn.Dispatcher) (any, error) {
	if ld.FuncID < 0 {
		return resolveVarRef(ld.Args[0], vars), nil
	}
	args, err := evalLinkArgs(ld, vars, disp)
	if err != nil {
		return nil, err
	}
	return disp.Call(ld.FuncID, args)
}

// evalLinkArgs resolves ld's args in order, substituting a nested call's
// result wherever compile.CompileLinkDef left a NestedResultMarker
// sentinel (internal/compile/linkdef.go).
func evalLinkArgs(ld compile.LinkDef, vars []any, disp linkfn.Dispatcher) ([]any, error) {
	args := make([]any, len(ld.Args))
	for i, a := range ld.Args {
		if idx, ok := a.Literal.(compile.NestedResultMarker); ok {
			v, err := evalLinkDef(ld.Nested[int(idx)], vars, disp)
			if err != nil {
				return nil, err
			}
			args[i] = v
			continue
		}
		args[i] = resolveVarRef(a, vars)
	}
	return args, nil
}

// resolveVarRef resolves a link-def's ValueRef against the record's
// variable list: a literal passes through, a link reference indexes into
// vars by position with optional delta arithmetic on a numeric value.
func resolveVarRef(ref compile.ValueRef, vars []any) any {
	if ref.Kind == compile.RefLiteral {
		return ref.Literal
	}
	if ref.LinkID < 0 || ref.LinkID >= len(vars) {
		return nil
	}
	v := vars[ref.LinkID]
	if ref.Delta == 0 {
		return v
	}
	if f, ok := toFloat(v); ok {
		return f + float64(ref.Delta)
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// applyLinkPostValue runs a link-def's post-value bounds checking (spec
// §4.6 step 4 "Regex, type, calc, and min/max length checks apply
// post-value; values failing bounds are replaced by the link-def's
// default or dropped"). The bool result is false when the value must be
// dropped from the record (no default configured).
func applyLinkPostValue(ld compile.LinkDef, v any, vars []any, dt compile.DateTimeConfig, current *value.CurrentDate) (any, bool) {
	for _, op := range ld.Calc {
		v = value.ApplyCalc(v, op)
	}
	if ld.Regex != "" && !regexMatches(v, ld.Regex) {
		return linkDefaultOrDrop(ld, vars)
	}
	if ld.Type != nil {
		v = value.CoerceType(v, ld.Type, dt, current)
	}
	if !lengthWithinBounds(v, ld) {
		return linkDefaultOrDrop(ld, vars)
	}
	return v, true
}

func linkDefaultOrDrop(ld compile.LinkDef, vars []any) (any, bool) {
	if ld.Default == nil {
		return nil, false
	}
	return resolveVarRef(*ld.Default, vars), true
}

// regexMatches applies ld's regex to a string value only; non-string
// values and an uncompilable pattern both pass through unchecked.
func regexMatches(v any, pattern string) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return true
	}
	return re.MatchString(s)
}

func lengthWithinBounds(v any, ld compile.LinkDef) bool {
	if !ld.HasMaxLen && !ld.HasMinLen {
		return true
	}
	n := lengthOf(v)
	if ld.HasMaxLen && n > ld.MaxLen {
		return false
	}
	if ld.HasMinLen && n < ld.MinLen {
		return false
	}
	return true
}

func lengthOf(v any) int {
	switch x := v.(type) {
	case string:
		return len([]rune(x))
	case []any:
		return len(x)
	case []string:
		return len(x)
	default:
		return 0
	}
}
