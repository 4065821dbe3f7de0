package compile

import "strings"

// compileValueDef compiles a raw value-def (spec §4.4 "extract_value") into
// a ValueDef, recording Flags the way PopulatedSlots would derive them.
func compileValueDef(m raw, reg *Registry) *ValueDef {
	vd := &ValueDef{}

	if ov, ok := asBool(m["only-one"]); ok {
		vd.OnlyOne = ov
	}
	if lv, ok := asBool(m["last"]); ok {
		vd.Last = lv
	}

	vd.Source = compileSourceKind(m, reg)
	switch vd.Source {
	case SourceInclusiveText:
		vd.InclusiveTextExclude = stringList(m["exclude"])
		vd.InclusiveTextInclude = stringList(m["include"])
		if depth, ok := asInt(m["depth"]); ok {
			vd.InclusiveTextDepth = depth
		}
	case SourceAttr:
		ref := compileValueRef(m["attr"], reg)
		vd.AttrName = &ref
	case SourceLiteral:
		vd.Literal = m["value"]
	}

	if calcRaw, ok := asList(m["calc"]); ok {
		for _, c := range calcRaw {
			if cm, ok := asMap(c); ok {
				vd.Calc = append(vd.Calc, compileCalcOp(cm))
			}
		}
	}

	if typeRaw, ok := m["type"]; ok {
		vd.Type = compileTypeOp(typeRaw)
	}

	if defRaw, ok := asMap(m["default"]); ok {
		if dv, ok := defRaw["value"]; ok {
			ref := compileValueRef(dv, reg)
			vd.Default = &DefaultDef{Value: ref}
		}
	}

	if linkID, ok := asInt(m["link"]); ok {
		vd.StoresLinkValue = true
		vd.LinkID = linkID
		reg.DeclareValueLink(linkID)
	}

	if name, ok := asString(m["path-value"]); ok {
		vd.EmitsPathValue = true
		vd.PathValueName = name
	}

	if filterRaw, ok := m["member-of"]; ok {
		vd.IsMemberOfFilter = true
		vd.MembershipFilter = compileValueRefList(filterRaw, reg)
	}

	return vd
}

func compileSourceKind(m raw, reg *Registry) SourceKind {
	switch {
	case hasFlag(m, "text"):
		reg.RequireTreeKind("html")
		return SourceText
	case hasFlag(m, "tail"):
		reg.RequireTreeKind("html")
		return SourceTail
	case hasFlag(m, "tag"):
		reg.RequireTreeKind("html")
		return SourceTag
	case hasFlag(m, "key"):
		reg.RequireTreeKind("json")
		return SourceKey
	case hasFlag(m, "scalar"):
		reg.RequireTreeKind("json")
		return SourceScalar
	case m["attr"] != nil:
		reg.RequireTreeKind("html")
		return SourceAttr
	case hasFlag(m, "inclusive-text"):
		reg.RequireTreeKind("html")
		return SourceInclusiveText
	case hasFlag(m, "index"):
		return SourceIndex
	case hasFlag(m, "presence"):
		return SourcePresence
	case m["value"] != nil:
		return SourceLiteral
	default:
		return SourceText
	}
}

// compileCalcOp compiles one calc-pipeline stage. The recognized raw keys
// are the closed nine-op set (spec §3, §4.4): "case", "ascii-fold",
// "lstrip"/"rstrip", "sub" (regex-substitute list), "split-list",
// "multiply", "divide", "enum".
func compileCalcOp(m raw) CalcOp {
	switch {
	case m["case"] != nil:
		cs, _ := asString(m["case"])
		trim, _ := asBool(m["trim"])
		return CalcOp{Kind: CalcCaseChange, CaseMode: caseModeFromName(cs), Trim: trim}
	case m["ascii-fold"] != nil:
		fm, _ := asMap(m["ascii-fold"])
		pat, _ := asString(fm["pattern"])
		repl, _ := asString(fm["replacement"])
		residual, _ := asString(fm["residual"])
		if residual == "" {
			residual = "?"
		}
		return CalcOp{Kind: CalcASCIIFold, FoldPattern: pat, FoldReplacement: repl, FoldResidual: residual}
	case m["lstrip"] != nil:
		s, _ := asString(m["lstrip"])
		return CalcOp{Kind: CalcLeftStrip, StripText: s}
	case m["rstrip"] != nil:
		s, _ := asString(m["rstrip"])
		return CalcOp{Kind: CalcRightStrip, StripText: s}
	case m["sub"] != nil:
		return CalcOp{Kind: CalcRegexSubstituteList, SubPairs: compileRegexSubList(m["sub"])}
	case m["split-list"] != nil:
		return CalcOp{Kind: CalcSplitList, SplitDefs: compileSplitDefList(m["split-list"])}
	case m["enum"] != nil:
		em, _ := asMap(m["enum"])
		lookup := make(map[string]any, len(em))
		for k, v := range em {
			lookup[k] = v
		}
		return CalcOp{Kind: CalcEnumReplace, EnumLookup: lookup}
	case m["multiply"] != nil:
		f, _ := asFloat(m["multiply"])
		return CalcOp{Kind: CalcMultiply, Operand: f}
	case m["divide"] != nil:
		f, _ := asFloat(m["divide"])
		return CalcOp{Kind: CalcDivide, Operand: f}
	default:
		return CalcOp{}
	}
}

// compileRegexSubList compiles "sub"'s pairs-of-pattern/replacement list,
// applied in declaration order (spec §4.4 "regex-substitute list").
func compileRegexSubList(v any) []RegexSub {
	list, ok := asList(v)
	if !ok {
		return nil
	}
	out := make([]RegexSub, 0, len(list))
	for _, e := range list {
		em, ok := asMap(e)
		if !ok {
			continue
		}
		pat, _ := asString(em["pattern"])
		repl, _ := asString(em["replacement"])
		out = append(out, RegexSub{Pattern: pat, Replacement: repl})
	}
	return out
}

// compileSplitDefList compiles "split-list"'s chained split steps; a bare
// map is treated as a single-step chain.
func compileSplitDefList(v any) []SplitDef {
	if em, ok := asMap(v); ok {
		return []SplitDef{compileSplitDef(em)}
	}
	list, ok := asList(v)
	if !ok {
		return nil
	}
	out := make([]SplitDef, 0, len(list))
	for _, e := range list {
		if em, ok := asMap(e); ok {
			out = append(out, compileSplitDef(em))
		}
	}
	return out
}

func compileSplitDef(m raw) SplitDef {
	sep, _ := asString(m["sep"])
	listAll, _ := asBool(m["list-all"])
	def := SplitDef{Separator: sep, ListAll: listAll}
	if idx, ok := asInt(m["index"]); ok {
		def.Indexes = []int{idx}
		return def
	}
	if idxList, ok := asList(m["index"]); ok {
		for _, e := range idxList {
			if n, ok := asInt(e); ok {
				def.Indexes = append(def.Indexes, n)
			}
		}
	}
	return def
}

func caseModeFromName(s string) CaseChangeMode {
	switch strings.ToLower(s) {
	case "upper":
		return CaseUpper
	case "capitalize":
		return CaseCapitalize
	default:
		return CaseLower
	}
}

func compileTypeOp(v any) *TypeOp {
	if name, ok := asString(v); ok {
		return &TypeOp{Kind: typeKindFromName(name)}
	}
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	name, _ := asString(m["name"])
	op := &TypeOp{Kind: typeKindFromName(name)}
	op.Layout, _ = asString(m["layout"])
	if mult, ok := asInt(m["multiplier"]); ok {
		op.Multiplier = mult
	}
	op.Splitter, _ = asString(m["splitter"])
	op.Sequence = stringList(m["sequence"])
	op.MonthNames = stringList(m["month-names"])
	op.DropEmpty, _ = asBool(m["drop-empty"])
	return op
}

// typeKindFromName maps a type-stage directive name to its TypeOpKind.
// Every tag of the closed seventeen-tag set (spec §3) gets its own kind —
// "date", "date-stamp", and "relative-weekday" are distinct coercions with
// distinct fallback behavior (spec §4.5) and must not collapse together.
func typeKindFromName(name string) TypeOpKind {
	switch strings.ToLower(name) {
	case "int", "integer":
		return TypeInt
	case "float":
		return TypeFloat
	case "bool", "boolean":
		return TypeBool
	case "timestamp":
		return TypeTimestamp
	case "datetime-string", "datetimestring":
		return TypeDateTimeString
	case "time":
		return TypeTime
	case "timedelta":
		return TypeTimeDelta
	case "date":
		return TypeDate
	case "date-stamp", "datestamp":
		return TypeDateStamp
	case "relative-weekday":
		return TypeRelativeWeekday
	case "lower-ascii":
		return TypeLowerASCII
	case "split-into-list", "str-list":
		return TypeStrList
	case "list-identity", "list":
		return TypeListIdentity
	case "lower":
		return TypeLower
	case "upper":
		return TypeUpper
	case "capitalize":
		return TypeCapitalize
	default:
		return TypeString
	}
}
