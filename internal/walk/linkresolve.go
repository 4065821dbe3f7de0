package walk

import (
	"strconv"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/tree"
)

// resolveRef resolves a predicate/value payload (spec §4.3 "Link
// resolution inside predicates"): a literal passes through unchanged; a
// link reference is looked up in env.values, with plus/min arithmetic
// applied when the stored value is numeric. An unresolved link id is
// recoverable — the caller treats a false ok as "predicate fails", not a
// walk abort.
func resolveRef(ref compile.ValueRef, env *tree.LinkEnv, warn func(string)) (any, bool) {
	if ref.Kind == compile.RefLiteral {
		return ref.Literal, true
	}
	v, ok := env.Value(ref.LinkID)
	if !ok {
		if warn != nil {
			warn("link " + strconv.Itoa(ref.LinkID) + " not yet stored")
		}
		return nil, false
	}
	if ref.Delta == 0 {
		return v, true
	}
	n, ok := toNumber(v)
	if !ok {
		return v, true
	}
	return n + float64(ref.Delta), true
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// compareOrdered reports a<b for the ordered comparison an index/next/
// previous assertion needs, coercing both sides to numbers first, falling
// back to string comparison for non-numeric link values.
func compareOrdered(a, b any) int {
	if af, aok := toNumber(a); aok {
		if bf, bok := toNumber(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := toStr(a), toStr(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return strconv.FormatFloat(func() float64 { f, _ := toNumber(v); return f }(), 'f', -1, 64)
}
