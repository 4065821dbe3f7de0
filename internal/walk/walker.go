// Package walk implements the tree matcher: walk(start, compiled_path, env)
// -> results (spec §4.3). Node-defs are processed left-to-right, honoring
// each kind's semantics (selector / node-link storage / name capture /
// value capture) and accumulating one Result per successful terminal.
package walk

import (
	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/tree"
	"github.com/mibar/dtxtract/internal/value"
)

// Result is one terminal produced by a walk: either a plain (node, value)
// pair, or — when the path passed through a name-capture node-def — a
// named group wrapping the results produced by the remainder of the path
// (spec §4.3 "wrap the subsequently produced results under that name (one
// level of grouping in the output)"). Grouping nests naturally: a path
// with two name-captures in sequence produces a Result whose Group holds
// another named Result.
type Result struct {
	Node     tree.NodeID
	HasValue bool
	Value    any

	// Filtered marks a leaf produced by a value-capture whose membership
	// filter rejected the value (spec §4.4 stage 6, §4.6 "abort the
	// record (skip, do not emit)"). internal/extract checks this to drop
	// the enclosing record rather than treating the branch as empty.
	Filtered bool

	Name  string
	Group []Result
}

// Deps bundles the collaborators Walk needs to run the value pipeline
// (spec §4.4) without internal/walk importing internal/extract, which
// would create an import cycle (extract is what constructs a Walker).
type Deps struct {
	ValueFilters map[string][]compile.ValueRef
	// DateTime and Current feed the value pipeline's type-coercion stage
	// (spec §4.5): spec-root date/time defaults and the engine's
	// current-date anchor for relative-weekday lookups.
	DateTime compile.DateTimeConfig
	Current  *value.CurrentDate
	// Warn reports a recoverable predicate-resolution failure (spec §4.3
	// "Resolving an id that is not present in env.values is recoverable:
	// the predicate fails ... and a warning of severity parse is
	// emitted"). Nil is a valid no-op sink.
	Warn func(message string)
}

// Walker runs repeated walks over one Tree sharing the same Deps.
type Walker struct {
	Tree *tree.Tree
	Deps Deps
}

// New returns a Walker over t.
func New(t *tree.Tree, deps Deps) *Walker {
	return &Walker{Tree: t, Deps: deps}
}

// Walk runs path starting at start, seeded with env (the caller owns env's
// lifetime; node-def kinds that store links or values write into env
// directly, so the caller's env is mutated, matching the spec's environment
// being shared, mutable, per-walk state).
func (w *Walker) Walk(start tree.NodeID, path compile.PathDef, env *tree.LinkEnv) []Result {
	return w.walkSteps(start, path.Nodes, env)
}

func (w *Walker) walkSteps(cur tree.NodeID, nodes []compile.NodeDef, env *tree.LinkEnv) []Result {
	if len(nodes) == 0 {
		return []Result{{Node: cur}}
	}

	nd := nodes[0]
	rest := nodes[1:]

	switch nd.Kind {
	case compile.KindNodeSelector:
		return w.walkSelector(cur, nd.Selector, rest, env)

	case compile.KindNodeLinkStorage:
		env.SetNode(nd.LinkID, cur)
		return w.walkSteps(cur, rest, env)

	case compile.KindNameCapture:
		v, err := w.extractValue(cur, nd.Value, env)
		nested := w.walkSteps(cur, rest, env)
		return []Result{{
			Node:     cur,
			Name:     nd.Value.CaptureName,
			Group:    nested,
			Value:    v,
			HasValue: err == nil,
		}}

	case compile.KindValueCapture:
		v, err := w.extractValue(cur, nd.Value, env)
		if _, filtered := err.(value.Filtered); filtered {
			return []Result{{Node: cur, Filtered: true}}
		}
		if nd.Value.StoresLinkValue {
			env.SetValue(nd.Value.LinkID, v)
		}
		if nd.Value.EmitsPathValue {
			return []Result{{Node: cur, Value: v, HasValue: err == nil}}
		}
		return w.walkSteps(cur, rest, env)

	default:
		return nil
	}
}

func (w *Walker) extractValue(cur tree.NodeID, vd *compile.ValueDef, env *tree.LinkEnv) (any, error) {
	resolve := func(ref compile.ValueRef) (any, bool) {
		return resolveRef(ref, env, w.Deps.Warn)
	}
	return value.Extract(w.Tree, cur, vd, env, w.Deps.ValueFilters, resolve, w.Deps.DateTime, w.Deps.Current)
}
