package walk

import (
	"strings"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/tree"
)

// walkSelector gathers candidates per sel's relative-path mode (or the
// current node's children when none is set), filters them through every
// predicate the selector carries, and recurses into rest for each
// surviving candidate, honoring only-one/last (spec §4.3 execution model
// step 1).
func (w *Walker) walkSelector(cur tree.NodeID, sel *compile.Selector, rest []compile.NodeDef, env *tree.LinkEnv) []Result {
	candidates := w.candidates(cur, sel, env)

	var out []Result
	for _, c := range candidates {
		if !w.matches(c, sel, env) {
			continue
		}
		out = append(out, w.walkSteps(c, rest, env)...)
		if sel.OnlyOne {
			break
		}
	}
	return out
}

func (w *Walker) candidates(cur tree.NodeID, sel *compile.Selector, env *tree.LinkEnv) []tree.NodeID {
	n := w.Tree.Node(cur)

	var ids []tree.NodeID
	switch sel.Relative {
	case compile.RelParent:
		if p, ok := n.Parent(); ok {
			ids = []tree.NodeID{p}
		}
	case compile.RelRoot:
		ids = []tree.NodeID{w.Tree.Root()}
	case compile.RelSavedLink:
		if target, ok := env.Node(sel.SavedLink); ok {
			ids = []tree.NodeID{target}
		}
	default: // RelNone and RelAllChildren both iterate the current node's children
		ids = append(ids, n.Children()...)
	}

	if sel.Last {
		reversed := make([]tree.NodeID, len(ids))
		for i, id := range ids {
			reversed[len(ids)-1-i] = id
		}
		return reversed
	}
	return ids
}

// matches applies every predicate encoded in sel's bitfield, short-
// circuiting on the first failure (spec §4.3 "Multi-predicate conjunctions
// short-circuit on first failure").
func (w *Walker) matches(id tree.NodeID, sel *compile.Selector, env *tree.LinkEnv) bool {
	n := w.Tree.Node(id)

	if sel.Bits&compile.SelByTag != 0 && !w.matchValueRef(*sel.Tag, n.Element.Tag, env) {
		return false
	}
	if sel.Bits&compile.SelByTagsSet != 0 && !w.matchValueRefSet(sel.TagsSet, n.Element.Tag, env) {
		return false
	}
	if sel.Bits&compile.SelByKey != 0 && !w.matchValueRef(*sel.Key, n.Keyed.Key, env) {
		return false
	}
	if sel.Bits&compile.SelByKeysSet != 0 && !w.matchValueRefSet(sel.KeysSet, n.Keyed.Key, env) {
		return false
	}
	if sel.Bits&compile.SelByText != 0 && !w.matchValueRef(*sel.Text, strings.ToLower(n.Element.Text), env) {
		return false
	}
	if sel.Bits&compile.SelByTail != 0 && !w.matchValueRef(*sel.Tail, strings.ToLower(n.Element.Tail), env) {
		return false
	}
	if sel.Bits&compile.SelByIndex != 0 && !w.matchIndex(n, sel.Index, env) {
		return false
	}
	if sel.Bits&compile.SelByAttrs != 0 && !w.matchConjunctionSet(sel.Attrs, attrLookup(n), env) {
		return false
	}
	if sel.Bits&compile.SelByNotAttrs != 0 && w.matchConjunctionSet(sel.NotAttrs, attrLookup(n), env) {
		return false
	}
	if sel.Bits&compile.SelByChildKeys != 0 && !w.matchConjunctionSet(sel.ChildKeys, childKeyLookup(w.Tree, n), env) {
		return false
	}
	if sel.Bits&compile.SelByNotChildKeys != 0 && w.matchConjunctionSet(sel.NotChildKeys, childKeyLookup(w.Tree, n), env) {
		return false
	}
	return true
}

func (w *Walker) matchValueRef(ref compile.ValueRef, actual any, env *tree.LinkEnv) bool {
	expected, ok := resolveRef(ref, env, w.Deps.Warn)
	if !ok {
		return false
	}
	return equalFold(expected, actual)
}

func (w *Walker) matchValueRefSet(refs []compile.ValueRef, actual any, env *tree.LinkEnv) bool {
	for _, ref := range refs {
		if w.matchValueRef(ref, actual, env) {
			return true
		}
	}
	return false
}

func equalFold(expected, actual any) bool {
	es, eok := expected.(string)
	as, aok := actual.(string)
	if eok && aok {
		return strings.EqualFold(es, as)
	}
	return expected == actual
}

func (w *Walker) matchIndex(n *tree.Node, idx *compile.IndexAssertion, env *tree.LinkEnv) bool {
	expected, ok := resolveRef(idx.Value, env, w.Deps.Warn)
	if !ok {
		return false
	}
	target, ok := toNumber(expected)
	if !ok {
		return false
	}
	actual := float64(n.Index()) + float64(idx.Delta)
	switch {
	case idx.Next:
		return actual > target
	case idx.Prev:
		return actual < target
	default:
		return actual == target
	}
}

// matchConjunctionSet evaluates a disjunction of conjunctions, short-
// circuiting at the first satisfied conjunction (spec §4.3 "the first
// matching conjunction wins").
func (w *Walker) matchConjunctionSet(set []compile.Conjunction, lookup func(name string) ([]string, bool), env *tree.LinkEnv) bool {
	if len(set) == 0 {
		return true
	}
	for _, conj := range set {
		if w.matchConjunction(conj, lookup, env) {
			return true
		}
	}
	return false
}

func (w *Walker) matchConjunction(conj compile.Conjunction, lookup func(name string) ([]string, bool), env *tree.LinkEnv) bool {
	for _, term := range conj.Terms {
		values, present := lookup(term.Name)
		ok := w.matchTerm(term, values, present, env)
		if term.Negate {
			ok = !ok
		}
		if !ok {
			return false
		}
	}
	return true
}

func (w *Walker) matchTerm(term compile.Term, values []string, present bool, env *tree.LinkEnv) bool {
	if term.Presence {
		return present
	}
	if !present {
		return false
	}
	for _, ref := range term.Values {
		expected, ok := resolveRef(ref, env, w.Deps.Warn)
		if !ok {
			continue
		}
		es, _ := expected.(string)
		for _, v := range values {
			if strings.EqualFold(es, v) {
				return true
			}
		}
	}
	return len(term.Values) == 0 // empty Values + no presence flag: treated as "present" check
}

func attrLookup(n *tree.Node) func(name string) ([]string, bool) {
	return func(name string) ([]string, bool) {
		if n.Element.Attrs == nil {
			return nil, false
		}
		v, ok := n.Element.Attrs.Get(name)
		if !ok {
			return nil, false
		}
		return []string{v}, true
	}
}

func childKeyLookup(t *tree.Tree, n *tree.Node) func(name string) ([]string, bool) {
	keys := make(map[string]bool, len(n.Children()))
	for _, c := range n.Children() {
		if k, ok := t.Node(c).Keyed.Key.(string); ok {
			keys[k] = true
		}
	}
	return func(name string) ([]string, bool) {
		if keys[name] {
			return []string{name}, true
		}
		return nil, false
	}
}
