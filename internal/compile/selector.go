package compile

// compileValueRef compiles a predicate/value payload into a ValueRef. Per
// spec §4.3 "Link resolution inside predicates", the payload is either a
// literal or an object naming an earlier-stored link id, optionally with
// `plus`/`min` integer arithmetic or a `next`/`previous` comparison mode.
func compileValueRef(v any, reg *Registry) ValueRef {
	m, ok := asMap(v)
	if !ok {
		return ValueRef{Kind: RefLiteral, Literal: v}
	}
	linkRaw, hasLink := m["link"]
	if !hasLink {
		return ValueRef{Kind: RefLiteral, Literal: v}
	}
	id, _ := asInt(linkRaw)
	reg.RequireValueLink(id)

	delta := 0
	if p, ok := asInt(m["plus"]); ok {
		delta += p
	}
	if mn, ok := asInt(m["min"]); ok {
		delta -= mn
	}

	kind := RefLinkPlain
	if next, ok := asBool(m["next"]); ok && next {
		kind = RefLinkNext
	} else if prev, ok := asBool(m["previous"]); ok && prev {
		kind = RefLinkPrevious
	} else if delta > 0 {
		kind = RefLinkPlus
	} else if delta < 0 {
		kind = RefLinkMinus
	}

	return ValueRef{Kind: kind, LinkID: id, Delta: delta}
}

// compileValueRefList compiles a list payload, or a single value treated as
// a one-element list, into a slice of ValueRefs (used for "in-set"
// predicates like tags/keys sets).
func compileValueRefList(v any, reg *Registry) []ValueRef {
	l, ok := asList(v)
	if !ok {
		return []ValueRef{compileValueRef(v, reg)}
	}
	out := make([]ValueRef, 0, len(l))
	for _, e := range l {
		out = append(out, compileValueRef(e, reg))
	}
	return out
}

// compileConjunctionSet compiles an "attrs"/"childkeys"-shaped payload: a
// single mapping (one conjunction) or a list of mappings (a disjunction of
// conjunctions), per spec §4.3.
func compileConjunctionSet(v any, reg *Registry) []Conjunction {
	if l, ok := asList(v); ok {
		out := make([]Conjunction, 0, len(l))
		for _, e := range l {
			out = append(out, compileConjunction(e, reg))
		}
		return out
	}
	return []Conjunction{compileConjunction(v, reg)}
}

func compileConjunction(v any, reg *Registry) Conjunction {
	m, ok := asMap(v)
	if !ok {
		return Conjunction{}
	}
	var terms []Term
	for name, val := range m {
		terms = append(terms, compileTerm(name, val, reg))
	}
	return Conjunction{Terms: terms}
}

func compileTerm(name string, v any, reg *Registry) Term {
	if v == nil {
		return Term{Name: name, Presence: true}
	}
	if m, ok := asMap(v); ok {
		if notV, hasNot := m["not"]; hasNot {
			return Term{Name: name, Negate: true, Values: compileValueRefList(notV, reg)}
		}
		if vv, hasValue := m["value"]; hasValue {
			if vv == nil {
				return Term{Name: name, Presence: true}
			}
			return Term{Name: name, Values: compileValueRefList(vv, reg)}
		}
	}
	return Term{Name: name, Values: compileValueRefList(v, reg)}
}

// compileIndexAssertion compiles an "index" directive payload.
func compileIndexAssertion(v any, reg *Registry) *IndexAssertion {
	m, ok := asMap(v)
	if !ok {
		return &IndexAssertion{Value: compileValueRef(v, reg)}
	}
	idx := &IndexAssertion{}
	if val, ok := m["value"]; ok {
		idx.Value = compileValueRef(val, reg)
	} else {
		idx.Value = compileValueRef(v, reg)
	}
	if next, ok := asBool(m["next"]); ok {
		idx.Next = next
	}
	if prev, ok := asBool(m["previous"]); ok {
		idx.Prev = prev
	}
	if calc, ok := asMap(m["calc"]); ok {
		plus, _ := asInt(calc["plus"])
		minV, _ := asInt(calc["min"])
		idx.Delta = plus - minV
	}
	return idx
}

// compileSelector compiles a node-def's selector payload: the relative
// navigation mode (if any) plus every predicate present, recording which
// bits were set in Selector.Bits.
func compileSelector(m raw, reg *Registry) *Selector {
	sel := &Selector{}

	if ov, ok := asBool(m["only-one"]); ok {
		sel.OnlyOne = ov
	}
	if lv, ok := asBool(m["last"]); ok {
		sel.Last = lv
	}

	switch {
	case hasFlag(m, "all-children"):
		sel.Relative = RelAllChildren
		sel.Bits |= SelByRelative
	case hasFlag(m, "parent"):
		sel.Relative = RelParent
		sel.Bits |= SelByRelative
	case hasFlag(m, "root"):
		sel.Relative = RelRoot
		sel.Bits |= SelByRelative
	case m["saved-link"] != nil:
		id, _ := asInt(m["saved-link"])
		reg.RequireNodeLink(id)
		sel.Relative = RelSavedLink
		sel.SavedLink = id
		sel.Bits |= SelByRelative
	}

	if v, ok := m["key"]; ok {
		reg.RequireTreeKind("json")
		ref := compileValueRef(v, reg)
		sel.Key = &ref
		sel.Bits |= SelByKey
	}
	if v, ok := m["keys"]; ok {
		reg.RequireTreeKind("json")
		sel.KeysSet = compileValueRefList(v, reg)
		sel.Bits |= SelByKeysSet
	}
	if v, ok := m["tag"]; ok {
		reg.RequireTreeKind("html")
		ref := compileValueRef(v, reg)
		sel.Tag = &ref
		sel.Bits |= SelByTag
	}
	if v, ok := m["tags"]; ok {
		reg.RequireTreeKind("html")
		sel.TagsSet = compileValueRefList(v, reg)
		sel.Bits |= SelByTagsSet
	}
	if v, ok := m["index"]; ok {
		sel.Index = compileIndexAssertion(v, reg)
		sel.Bits |= SelByIndex
	}
	if v, ok := m["text"]; ok {
		reg.RequireTreeKind("html")
		ref := compileValueRef(v, reg)
		sel.Text = &ref
		sel.Bits |= SelByText
	}
	if v, ok := m["tail"]; ok {
		reg.RequireTreeKind("html")
		ref := compileValueRef(v, reg)
		sel.Tail = &ref
		sel.Bits |= SelByTail
	}
	if v, ok := m["childkeys"]; ok {
		reg.RequireTreeKind("json")
		sel.ChildKeys = compileConjunctionSet(v, reg)
		sel.Bits |= SelByChildKeys
	}
	if v, ok := m["notchildkeys"]; ok {
		reg.RequireTreeKind("json")
		sel.NotChildKeys = compileConjunctionSet(v, reg)
		sel.Bits |= SelByNotChildKeys
	}
	if v, ok := m["attrs"]; ok {
		reg.RequireTreeKind("html")
		sel.Attrs = compileConjunctionSet(v, reg)
		sel.Bits |= SelByAttrs
	}
	if v, ok := m["notattrs"]; ok {
		reg.RequireTreeKind("html")
		sel.NotAttrs = compileConjunctionSet(v, reg)
		sel.Bits |= SelByNotAttrs
	}

	return sel
}

func hasFlag(m raw, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, ok := asBool(v)
	return !ok || b // a bare truthy presence (e.g. "all-children": true) or any non-bool marker counts
}
