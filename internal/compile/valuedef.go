package compile

// ValueDef is the compiled form of a value-capture step: how to read a
// value out of a matched node and put it through the pipeline (spec §4.4
// "extract_value").
type ValueDef struct {
	OnlyOne bool
	Last    bool

	// CaptureName is set on a name-capture node-def only: the field label
	// later results are grouped under (spec §4.3 "wrap the subsequently
	// produced results under that name").
	CaptureName string

	Source SourceKind
	// AttrName names the attribute to read when Source == SourceAttr; the
	// name itself may be link-resolved (spec §4.4 "element attribute (by
	// name, name may be a link)").
	AttrName *ValueRef
	// InclusiveText lists the child tags whose text/tail should be folded
	// into the value when Source == SourceInclusiveText (spec §4.4
	// "inclusive-text": "the text of this node plus the text and tail of
	// every descendant, except ones listed for exclusion"). Depth bounds
	// the recursion (0 means unbounded); Include, when non-empty, keeps
	// only descendants whose tag is named in it, applied before Exclude.
	InclusiveTextExclude []string
	InclusiveTextInclude []string
	InclusiveTextDepth   int

	Calc    []CalcOp
	Type    *TypeOp
	Default *DefaultDef

	StoresLinkValue  bool // this value is additionally stored under LinkID for later ValueRefs
	LinkID           int
	EmitsPathValue   bool // this value contributes a field to the record under PathValueName
	PathValueName    string
	IsMemberOfFilter bool // this value is checked against a MembershipFilter before being kept
	MembershipFilter []ValueRef

	Literal any // populated iff Source == SourceLiteral
}

// SourceKind selects where a ValueDef reads its raw value from.
type SourceKind int

const (
	SourceText SourceKind = iota
	SourceTail
	SourceTag
	SourceKey
	SourceAttr
	SourceInclusiveText
	SourceIndex
	SourceLiteral
	SourcePresence
	// SourceScalar is "keyed-node value" (spec §4.4 stage 1): a JSON
	// scalar leaf's own value, as opposed to SourceKey (its parent's
	// addressing of it).
	SourceScalar
)

// DefaultDef supplies a fallback value applied when the pipeline up to
// this point produced nothing (spec §4.4 "default").
type DefaultDef struct {
	Value ValueRef
}

// CalcOpKind tags a CalcOp's operation. The set is closed at nine members
// (spec §3, §4.4): it mirrors the source's calc_value dispatch exactly, no
// more and no less.
type CalcOpKind int

const (
	CalcCaseChange CalcOpKind = iota
	CalcASCIIFold
	CalcLeftStrip
	CalcRightStrip
	CalcRegexSubstituteList
	CalcSplitList
	CalcMultiply
	CalcDivide
	CalcEnumReplace
)

// CaseChangeMode selects a CalcCaseChange stage's transform.
type CaseChangeMode int

const (
	CaseLower CaseChangeMode = iota
	CaseUpper
	CaseCapitalize
)

// RegexSub is one pattern/replacement pair of a CalcRegexSubstituteList
// stage, applied in declaration order (spec §4.4 "regex-substitute list").
type RegexSub struct {
	Pattern     string
	Replacement string
}

// SplitDef is one split step of a CalcSplitList stage. ListAll keeps every
// piece as a list; otherwise Indexes names which split pieces to keep,
// joining all but the first onto the first with Separator coerced to a
// single space when Separator is whitespace (spec §4.4 "split list").
type SplitDef struct {
	Separator string
	ListAll   bool
	Indexes   []int
}

// CalcOp is one stage of a value's calc pipeline (spec §4.4 "calc"); stages
// run in order, each consuming the previous stage's output.
type CalcOp struct {
	Kind CalcOpKind

	CaseMode CaseChangeMode // CalcCaseChange
	Trim     bool           // CalcCaseChange: trim before changing case

	FoldPattern     string // CalcASCIIFold: regex applied before folding
	FoldReplacement string // CalcASCIIFold
	FoldResidual    string // CalcASCIIFold: replacement char for residual non-ASCII bytes

	StripText string // CalcLeftStrip / CalcRightStrip: case-insensitive exact match to remove

	SubPairs []RegexSub // CalcRegexSubstituteList

	SplitDefs []SplitDef // CalcSplitList

	Operand float64 // CalcMultiply / CalcDivide

	EnumLookup map[string]any // CalcEnumReplace: trimmed-lower input -> replacement
}

// TypeOpKind names a type-coercion target. The set matches spec §3's
// closed seventeen-tag list exactly.
type TypeOpKind int

const (
	TypeString TypeOpKind = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeTimestamp
	TypeDateTimeString
	TypeTime
	TypeTimeDelta
	TypeDate
	TypeDateStamp
	TypeRelativeWeekday
	TypeLowerASCII
	TypeStrList
	TypeListIdentity
	TypeLower
	TypeUpper
	TypeCapitalize
)

// TypeOp is the compiled form of a value's "type" stage (spec §4.4 "type",
// §4.5). Fields left zero fall back to the spec-root DateTimeConfig
// default for the same concern.
type TypeOp struct {
	Kind TypeOpKind

	Layout     string   // TypeDateTimeString: parse layout, overrides DateTimeConfig.DateTimeString
	Multiplier int       // TypeTimestamp / TypeDateStamp: divisor applied before converting to seconds
	Splitter   string    // TypeTime / TypeDate / TypeStrList: field separator override
	Sequence   []string  // TypeDate: field order override ("d"/"m"/"y" per split piece)
	MonthNames []string  // TypeDate: textual month-name table override
	DropEmpty  bool      // TypeStrList: drop empty pieces after splitting
}

// LinkDef is a compiled link function invocation: a named transform over
// one or more ValueRefs, evaluated against the current LinkEnv (spec §4.5
// "Link functions"). The trailing Default/Regex/Type/Calc/Min/Max slots
// implement the tuple's post-value bounds checking (spec §4.2, §4.6 step
// 4): once the raw value is computed, a regex or length failure replaces
// it with Default (if set) or drops the field.
type LinkDef struct {
	FuncID int
	Args   []ValueRef
	// Nested holds link defs whose result feeds back in as an argument to
	// this one, supporting the source's recursively-nested link calls.
	Nested []LinkDef

	Default *ValueRef
	Regex   string
	Type    *TypeOp
	Calc    []CalcOp

	MaxLen    int
	HasMaxLen bool
	MinLen    int
	HasMinLen bool
}
