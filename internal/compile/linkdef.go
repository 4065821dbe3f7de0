package compile

// MaxBuiltinFuncID is the highest reserved built-in link/URL function id
// (spec §4.7 "A closed set of numeric function IDs (0-12)"); ids at or
// above 100 dispatch to a host extension (spec §4.2 "IDs >= 100 are
// reserved for host extensions and pass through untouched").
const (
	MaxBuiltinFuncID  = 12
	ExtensionFuncBase = 100
)

// CompileLinkDef compiles one entry of the spec's `values` map (field name
// to link-def) recursively: a leaf is either a variable index into the
// owning iter block's value-defs, or a literal; nested calls become
// LinkDef values in Nested, feeding their result back as an argument (spec
// §4.2 "Compile link-function definitions recursively").
func CompileLinkDef(v any, varCount int, reg *Registry) LinkDef {
	m, ok := asMap(v)
	if !ok {
		// Bare leaf: a variable index or literal, modeled as FuncID -1
		// with a single literal/variable ValueRef that evaluation returns
		// directly, calling no function.
		return LinkDef{FuncID: -1, Args: []ValueRef{compileLeafRef(v, varCount, reg)}}
	}

	funcID, hasFunc := asInt(m["func"])
	var ld LinkDef
	if !hasFunc {
		ld = LinkDef{FuncID: -1, Args: []ValueRef{compileLeafRef(v, varCount, reg)}}
	} else {
		if funcID > MaxBuiltinFuncID && funcID < ExtensionFuncBase {
			reg.fail(StatusInvalidLinkDef, "unknown builtin link function id")
		}

		ld = LinkDef{FuncID: funcID}
		argsRaw, _ := asList(m["args"])
		for _, a := range argsRaw {
			if am, ok := asMap(a); ok {
				if _, nested := am["func"]; nested {
					nestedDef := CompileLinkDef(a, varCount, reg)
					ld.Nested = append(ld.Nested, nestedDef)
					ld.Args = append(ld.Args, ValueRef{Kind: RefLiteral, Literal: NestedResultMarker(len(ld.Nested) - 1)})
					continue
				}
			}
			ld.Args = append(ld.Args, compileLeafRef(a, varCount, reg))
		}
	}

	compileLinkPostValue(&ld, m, varCount, reg)
	return ld
}

// compileLinkPostValue parses the link-def tuple's optional trailing slots
// — default, regex, type, calc-pipeline, max, min (spec §4.2 "(kind,
// payload, [default, regex, type, calc-pipeline, max, min])", §4.6 step 4)
// — shared by both the function-call and bare-leaf forms.
func compileLinkPostValue(ld *LinkDef, m raw, varCount int, reg *Registry) {
	if defRaw, ok := m["default"]; ok {
		ref := compileLeafRef(defRaw, varCount, reg)
		ld.Default = &ref
	}
	if pattern, ok := asString(m["regex"]); ok {
		ld.Regex = pattern
	}
	if typeRaw, ok := m["type"]; ok {
		ld.Type = compileTypeOp(typeRaw)
	}
	if calcRaw, ok := asList(m["calc"]); ok {
		for _, c := range calcRaw {
			if cm, ok := asMap(c); ok {
				ld.Calc = append(ld.Calc, compileCalcOp(cm))
			}
		}
	}
	if maxV, ok := asInt(m["max"]); ok {
		ld.MaxLen = maxV
		ld.HasMaxLen = true
	}
	if minV, ok := asInt(m["min"]); ok {
		ld.MinLen = minV
		ld.HasMinLen = true
	}
}

// NestedResultMarker is the sentinel Literal a link-def arg carries when
// its actual value comes from a nested LinkDef's result rather than a
// variable/literal; internal/extract substitutes the real value during
// evaluation by matching the index back into LinkDef.Nested.
type NestedResultMarker int

func compileLeafRef(v any, varCount int, reg *Registry) ValueRef {
	if m, ok := asMap(v); ok {
		if varIdx, ok := asInt(m["var"]); ok {
			if varIdx < 0 || varIdx >= varCount {
				reg.fail(StatusInvalidLinkDef, "variable index out of range for owning iter block")
			}
			return ValueRef{Kind: RefLinkPlain, LinkID: varIdx}
		}
	}
	return ValueRef{Kind: RefLiteral, Literal: v}
}
