// Package value implements extract_value (spec §4.4): reading a raw value
// off a matched node and running it through the calc/default/type/
// membership-filter pipeline.
package value

import (
	"strings"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/tree"
)

// Filtered is the sentinel extract_value returns (as the second result) to
// signal the enclosing record should be dropped (spec §4.4 stage 6
// "Membership filter ... replace with a sentinel that signals the
// enclosing record to be dropped").
type Filtered struct{ Field string }

func (f Filtered) Error() string { return "value filtered out: " + f.Field }

// Extract computes node's value per vd, returning the filtered sentinel as
// an error when a membership filter rejects it. dt and current supply the
// spec-root date/time defaults and current-date anchor the type-coercion
// stage consults (spec §4.5).
func Extract(t *tree.Tree, n tree.NodeID, vd *compile.ValueDef, env *tree.LinkEnv, filters map[string][]compile.ValueRef, resolveRef func(compile.ValueRef) (any, bool), dt compile.DateTimeConfig, current *CurrentDate) (any, error) {
	v := sourceValue(t, n, vd, resolveRef)

	for _, op := range vd.Calc {
		v = ApplyCalc(v, op)
	}

	if isNull(v) && vd.Default != nil {
		if dv, ok := resolveRef(vd.Default.Value); ok {
			v = dv
		}
	}

	if vd.Type != nil {
		v = CoerceType(v, vd.Type, dt, current)
	}

	if s, ok := v.(string); ok {
		v = cleanString(s)
	}

	if vd.IsMemberOfFilter {
		allowed := filters[vd.PathValueName]
		if !membershipAllows(v, allowed, resolveRef) {
			return nil, Filtered{Field: vd.PathValueName}
		}
	}

	return v, nil
}

func sourceValue(t *tree.Tree, id tree.NodeID, vd *compile.ValueDef, resolveRef func(compile.ValueRef) (any, bool)) any {
	n := t.Node(id)
	switch vd.Source {
	case compile.SourceText:
		return n.Element.Text
	case compile.SourceTail:
		return n.Element.Tail
	case compile.SourceTag:
		return n.Element.Tag
	case compile.SourceKey:
		return n.Keyed.Key
	case compile.SourceScalar:
		return n.Keyed.Value
	case compile.SourceAttr:
		if vd.AttrName == nil {
			return nil
		}
		name, ok := resolveRef(*vd.AttrName)
		if !ok {
			return nil
		}
		nameStr, _ := name.(string)
		if n.Element.Attrs == nil {
			return nil
		}
		val, present := n.Element.Attrs.Get(nameStr)
		if !present {
			return nil
		}
		return val
	case compile.SourceInclusiveText:
		return inclusiveText(t, id, vd.InclusiveTextExclude, vd.InclusiveTextInclude, vd.InclusiveTextDepth)
	case compile.SourceIndex:
		return n.Index()
	case compile.SourceLiteral:
		return vd.Literal
	case compile.SourcePresence:
		return true
	default:
		return nil
	}
}

// inclusiveText concatenates this node's text plus the text/tail of every
// descendant, whitespace-normalized to single spaces, skipping any subtree
// rooted at a tag named in exclude (spec §4.4 stage 2). include, when
// non-empty, additionally restricts descent to tags named in it. depth
// bounds how many levels of descendants contribute text (0 means
// unbounded); a skipped node's own tail still contributes, since the tail
// sits at the excluded node's position in its parent rather than inside
// the excluded subtree.
func inclusiveText(t *tree.Tree, id tree.NodeID, exclude, include []string, depth int) string {
	excluded := toLowerSet(exclude)
	included := toLowerSet(include)

	var parts []string
	var walk func(cur tree.NodeID, level int)
	walk = func(cur tree.NodeID, level int) {
		n := t.Node(cur)
		tag := strings.ToLower(n.Element.Tag)
		skip := excluded[tag] || (len(included) > 0 && !included[tag])
		if !skip {
			if n.Element.Text != "" {
				parts = append(parts, n.Element.Text)
			}
			if depth == 0 || level < depth {
				for _, c := range n.Children() {
					walk(c, level+1)
				}
			}
		}
		if n.Element.Tail != "" {
			parts = append(parts, n.Element.Tail)
		}
	}
	for _, c := range t.Node(id).Children() {
		walk(c, 1)
	}
	root := t.Node(id)
	all := append([]string{root.Element.Text}, parts...)
	return normalizeWhitespace(strings.Join(all, " "))
}

func toLowerSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, s := range list {
		m[strings.ToLower(s)] = true
	}
	return m
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// cleanString applies the pipeline's always-on string cleanup (spec §4.4:
// "Strings returned from the pipeline are HTML-entity-decoded (once) and
// stripped of embedded \r\n"). Entity decoding already happened once in
// internal/htmlbuild when the node's text/tail/attr was first built, so
// only the \r\n strip remains here — decoding twice would corrupt a
// literal "&amp;" typed by a caller-supplied literal value-def.
func cleanString(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

func membershipAllows(v any, allowed []compile.ValueRef, resolveRef func(compile.ValueRef) (any, bool)) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, ref := range allowed {
		rv, ok := resolveRef(ref)
		if ok && rv == v {
			return true
		}
	}
	return false
}
