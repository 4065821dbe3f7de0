package compile

// IterBlock is one entry of the spec's `data.iter` list: a key-path plus
// the value-defs evaluated against each key-node it yields (spec §4.6
// "Iterate key-paths").
type IterBlock struct {
	KeyPath   PathDef
	ValueDefs []PathDef
}

// DateTimeConfig holds the spec-root date/time defaults individual type
// coercions may override (spec §4.2 "Resolve defaults for date/time
// formatting").
type DateTimeConfig struct {
	Timezone        string
	DateTimeString  string
	DateSequence    []string
	DateSplitter    string
	TimeSplitter    string
	TimeType        int // 0 = 24h, 1 = 12h
	MonthNames      []string
	Weekdays        []string
	RelativeWeekdays map[string]int
	StrListSplitter string
	ItemRangeSplitter string
	DateRangeSplitter string
}

// URLConfig holds the directives the URL builder consumes (spec §4.8,
// §6 "url", "url-header"/"accept-header", "url-data", "url-date-*").
type URLConfig struct {
	Pieces        []any // raw URL-piece directives, opaque to the matcher
	Header        map[string]string
	AcceptHeader  string
	Data          raw
	DateType      int // 0 = offset/formatted, 1 = epoch, 2 = weekday
	DateFormat    string
	DateMultiplier int
	Weekdays      []string
	RelativeWeekdays map[string]int
}

// Spec is the fully compiled extraction spec (spec §4.2, §6 "Compiled
// spec format"). Output also carries sort directives, URL-building
// directives, and extension hooks, which are opaque to the matcher and
// consumed by internal/extract.
type Spec struct {
	Version  int
	TreeKind string

	InitPath PathDef
	Iter     []IterBlock
	Values   map[string]LinkDef

	DateTime DateTimeConfig
	URL      URLConfig

	ValueFilters  map[string][]ValueRef
	EmptyValues   []string
	AutocloseTags []string
	TextReplace   []TextReplaceDirective
	UnquoteHTML   []string
	EncloseWithHTMLTag string
	Encoding      string

	DefaultItemCount int

	Status      StatusBits
	Diagnostics []Diagnostic
}

// TextReplaceDirective is a raw caller-requested substitution
// (spec §6 "text_replace"); internal/htmlbuild compiles the pattern.
type TextReplaceDirective struct {
	Pattern     string
	Replacement string
}

// Compile lowers a raw, JSON-decoded spec document into a Spec plus an
// accumulated error bitmask (spec §4.2 "Input: a raw map. Output: a
// compiled spec plus an error bitmask. Pure, deterministic.").
func Compile(doc raw) (*Spec, StatusBits) {
	reg := NewRegistry()
	sp := &Spec{Version: DTVersion}

	if fmtV, ok := asString(doc["data-format"]); ok {
		reg.treeKind = fmtV // read directly: data-format seeds, directives still force/conflict-check afterward
	}

	if initRaw, ok := asList(doc["init-path"]); ok {
		sp.InitPath = CompilePath(initRaw, reg)
	}

	if dataRaw, ok := asMap(doc["data"]); ok {
		sp.Iter = compileIterBlocks(dataRaw, reg)
	}

	sp.Values = make(map[string]LinkDef)
	if valuesRaw, ok := asMap(doc["values"]); ok {
		varCount := maxValueDefCount(sp.Iter)
		for name, v := range valuesRaw {
			sp.Values[name] = CompileLinkDef(v, varCount, reg)
		}
	}

	sp.DateTime = compileDateTimeConfig(doc)
	sp.URL = compileURLConfig(doc)

	sp.ValueFilters = make(map[string][]ValueRef)
	if filtersRaw, ok := asMap(doc["value-filters"]); ok {
		for name, v := range filtersRaw {
			sp.ValueFilters[name] = compileValueRefList(v, reg)
		}
	}

	sp.EmptyValues = stringList(doc["empty-values"])
	sp.AutocloseTags = stringList(doc["autoclose-tags"])
	sp.EncloseWithHTMLTag, _ = asString(doc["enclose-with-html-tag"])
	sp.Encoding, _ = asString(doc["encoding"])
	sp.UnquoteHTML = stringList(doc["unquote_html"])

	if trRaw, ok := asList(doc["text_replace"]); ok {
		for _, e := range trRaw {
			if em, ok := asMap(e); ok {
				pat, _ := asString(em["pattern"])
				repl, _ := asString(em["replacement"])
				sp.TextReplace = append(sp.TextReplace, TextReplaceDirective{Pattern: pat, Replacement: repl})
			}
		}
	}

	if n, ok := asInt(doc["default-item-count"]); ok {
		sp.DefaultItemCount = n
	}

	if reg.TreeKind() != "" {
		sp.TreeKind = reg.TreeKind()
	}

	sp.Status = reg.Status()
	sp.Diagnostics = reg.Diagnostics()
	if !reg.OK() {
		sp.Status = sp.Status.SetFatal(StatusInvalidDataDef)
	}
	return sp, sp.Status
}

func compileIterBlocks(dataRaw raw, reg *Registry) []IterBlock {
	var blocksRaw []any
	if iterRaw, ok := asList(dataRaw["iter"]); ok {
		blocksRaw = iterRaw
	} else {
		blocksRaw = []any{dataRaw} // single "data" block shorthand, spec §6
	}

	blocks := make([]IterBlock, 0, len(blocksRaw))
	for _, b := range blocksRaw {
		bm, ok := asMap(b)
		if !ok {
			continue
		}
		blk := IterBlock{}
		if kp, ok := asList(bm["key-path"]); ok {
			blk.KeyPath = CompilePath(kp, reg)
		}
		if vds, ok := asList(bm["value-defs"]); ok {
			for _, vd := range vds {
				if vdSteps, ok := asList(vd); ok {
					blk.ValueDefs = append(blk.ValueDefs, CompilePath(vdSteps, reg))
				}
			}
		}
		blocks = append(blocks, blk)
	}
	return blocks
}

// maxValueDefCount bounds link-def variable indices: the extractor builds
// each record's variable list as [key-value, value-def-0, value-def-1,
// ...] (spec §4.6 "build an initial record [key-value], then for each
// value-def ... append"), so the index space is one wider than the
// iter block with the most value-defs.
func maxValueDefCount(iter []IterBlock) int {
	max := 0
	for _, b := range iter {
		if n := len(b.ValueDefs) + 1; n > max {
			max = n
		}
	}
	return max
}

func compileDateTimeConfig(doc raw) DateTimeConfig {
	dt := DateTimeConfig{
		Timezone:          strOr(doc["timezone"], "UTC"),
		DateTimeString:    strOr(doc["datetimestring"], "%Y-%m-%d %H:%M:%S"),
		DateSequence:      stringList(doc["date-sequence"]),
		DateSplitter:      strOr(doc["date-splitter"], "-"),
		TimeSplitter:      strOr(doc["time-splitter"], ":"),
		MonthNames:        stringList(doc["month-names"]),
		Weekdays:          stringList(doc["weekdays"]),
		StrListSplitter:   strOr(doc["str-list-splitter"], ","),
		ItemRangeSplitter: strOr(doc["item-range-splitter"], ","),
		DateRangeSplitter: strOr(doc["date-range-splitter"], ","),
	}
	if tt, ok := asInt(doc["time-type"]); ok {
		dt.TimeType = tt
	}
	dt.RelativeWeekdays = compileRelativeWeekdayOffsets(doc["relative-weekdays"])
	return dt
}

func compileRelativeWeekdayOffsets(v any) map[string]int {
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	out := make(map[string]int, len(m))
	for name, off := range m {
		if n, ok := asInt(off); ok {
			out[name] = n
		}
	}
	return out
}

func compileURLConfig(doc raw) URLConfig {
	u := URLConfig{
		AcceptHeader: strOr(doc["accept-header"], ""),
	}
	if pieces, ok := asList(doc["url"]); ok {
		u.Pieces = pieces
	}
	if hdr, ok := asMap(doc["url-header"]); ok {
		u.Header = make(map[string]string, len(hdr))
		for k, v := range hdr {
			if s, ok := asString(v); ok {
				u.Header[k] = s
			}
		}
	}
	if data, ok := asMap(doc["url-data"]); ok {
		u.Data = data
	}
	if dt, ok := asInt(doc["url-date-type"]); ok {
		u.DateType = dt
	}
	u.DateFormat = strOr(doc["url-date-format"], "")
	if mult, ok := asInt(doc["url-date-multiplier"]); ok {
		u.DateMultiplier = mult
	} else {
		u.DateMultiplier = 1
	}
	u.Weekdays = stringList(doc["url-weekdays"])
	u.RelativeWeekdays = compileRelativeWeekdayOffsets(doc["url-relative-weekdays"])
	return u
}

func strOr(v any, def string) string {
	if s, ok := asString(v); ok {
		return s
	}
	return def
}
