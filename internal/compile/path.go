package compile

// CompilePath compiles an ordered list of raw node-defs into a PathDef,
// threading a single Registry through every step so link visibility is
// enforced left-to-right across the whole path (spec §4.2).
func CompilePath(steps []any, reg *Registry) PathDef {
	pd := PathDef{}
	for _, s := range steps {
		m, ok := asMap(s)
		if !ok {
			continue
		}
		pd.Nodes = append(pd.Nodes, compileNodeDef(m, reg))
	}
	return pd
}

func compileNodeDef(m raw, reg *Registry) NodeDef {
	nd := NodeDef{}

	switch {
	case m["store-node-link"] != nil:
		id, _ := asInt(m["store-node-link"])
		nd.Kind = KindNodeLinkStorage
		nd.LinkID = id
		reg.DeclareNodeLink(id)

	case m["name-capture"] != nil:
		nd.Kind = KindNameCapture
		vd := compileValueDef(m, reg)
		vd.CaptureName, _ = asString(m["name-capture"])
		nd.Value = vd

	case m["value"] != nil && isValueCaptureShape(m):
		nd.Kind = KindValueCapture
		sub, _ := asMap(m["value"])
		nd.Value = compileValueDef(sub, reg)

	default:
		nd.Kind = KindNodeSelector
		nd.Selector = compileSelector(m, reg)
	}

	nd.Flags = PopulatedSlots(nd)
	return nd
}

// isValueCaptureShape distinguishes a value-capture step ({"value": {...
// value-def fields ...}}) from a node-selector step that happens to carry
// a literal "value" predicate payload of its own (e.g. text/attr
// equality); value-capture's "value" payload is always an object.
func isValueCaptureShape(m raw) bool {
	_, ok := asMap(m["value"])
	return ok
}
