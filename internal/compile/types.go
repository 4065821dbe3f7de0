// Package compile lowers a raw, human-authored extraction spec into the
// compact compiled form the matcher and value pipeline consume (spec §4.2
// "Spec compiler"). The compiled form is expressed as a sum type per
// category (NodeDef, Selector, ValueRef, CalcOp, TypeOp, LinkDef) per the
// design note in spec §9, rather than the source's raw bitfield/tuple
// encoding; each still exposes a Bits method recording which optional
// slots are populated, satisfying the round-trip property in spec §8.
package compile

// Flags is the modifier bitfield shared by every NodeDef (spec §3: "each
// node-def's first slot is a bitfield combining a kind group ... with
// modifier flags").
type Flags uint16

const (
	FlagOnlyOne Flags = 1 << iota
	FlagLast
	FlagHasCalc
	FlagHasType
	FlagHasDefault
	FlagStoresLinkValue
	FlagEmitsPathValue
	FlagIsMemberOfFilter
)

// NodeDefKind is the kind-group half of a NodeDef's bitfield.
type NodeDefKind int

const (
	KindNodeSelector NodeDefKind = iota
	KindNodeLinkStorage
	KindNameCapture
	KindValueCapture
)

// NodeDef is a single step in a PathDef.
type NodeDef struct {
	Kind  NodeDefKind
	Flags Flags

	Selector *Selector // populated iff Kind == KindNodeSelector
	LinkID   int        // populated iff Kind == KindNodeLinkStorage, or FlagStoresLinkValue is set
	Value    *ValueDef  // populated iff Kind == KindNameCapture or KindValueCapture
}

// Bits returns the populated-slot bitfield for nd, combining the kind
// group (bits 0-1) with the modifier flags (bits 2+). Shifting it right
// by two recovers exactly the Flags PopulatedSlots derives, which is the
// round-trip property spec §8 requires.
func (nd NodeDef) Bits() uint32 {
	return uint32(nd.Kind) | uint32(nd.Flags)<<2
}

// PopulatedSlots derives the Flags that should be set for nd by inspecting
// which optional fields are actually populated, independent of whatever
// nd.Flags currently holds. Compile-time code sets nd.Flags from this so
// Bits() and PopulatedSlots never disagree; tests assert exactly that.
func PopulatedSlots(nd NodeDef) Flags {
	var f Flags
	if nd.Value != nil {
		if nd.Value.OnlyOne {
			f |= FlagOnlyOne
		}
		if nd.Value.Last {
			f |= FlagLast
		}
		if len(nd.Value.Calc) > 0 {
			f |= FlagHasCalc
		}
		if nd.Value.Type != nil {
			f |= FlagHasType
		}
		if nd.Value.Default != nil {
			f |= FlagHasDefault
		}
		if nd.Value.StoresLinkValue {
			f |= FlagStoresLinkValue
		}
		if nd.Value.EmitsPathValue {
			f |= FlagEmitsPathValue
		}
		if nd.Value.IsMemberOfFilter {
			f |= FlagIsMemberOfFilter
		}
	}
	if nd.Selector != nil {
		if nd.Selector.OnlyOne {
			f |= FlagOnlyOne
		}
		if nd.Selector.Last {
			f |= FlagLast
		}
	}
	return f
}

// PathDef is an ordered sequence of node-defs (spec §3 "Path definition").
type PathDef struct {
	Nodes []NodeDef
}

// RelativePath names a navigation relative to the current node, used by a
// Selector instead of child-predicate matching.
type RelativePath int

const (
	RelNone RelativePath = iota
	RelAllChildren
	RelParent
	RelRoot
	RelSavedLink
)

// SelectorBits is the secondary bitfield selecting which predicates apply
// to a NodeSelector (spec §3).
type SelectorBits uint32

const (
	SelByKey SelectorBits = 1 << iota
	SelByKeysSet
	SelByTag
	SelByTagsSet
	SelByIndex
	SelByText
	SelByTail
	SelByChildKeys
	SelByNotChildKeys
	SelByAttrs
	SelByNotAttrs
	SelByRelative
)

// Selector is a NodeDef's node-selector payload: a set of predicates that
// must all hold for a candidate node to match, plus how to pick candidates.
type Selector struct {
	Bits SelectorBits

	OnlyOne bool
	Last    bool

	Relative   RelativePath
	SavedLink  int // populated iff Relative == RelSavedLink

	Key      *ValueRef   // SelByKey
	KeysSet  []ValueRef  // SelByKeysSet
	Tag      *ValueRef   // SelByTag
	TagsSet  []ValueRef  // SelByTagsSet
	Index    *IndexAssertion
	Text     *ValueRef // SelByText
	Tail     *ValueRef // SelByTail
	ChildKeys    []Conjunction // SelByChildKeys, disjunction of conjunctions over child key sets
	NotChildKeys []Conjunction // SelByNotChildKeys
	Attrs        []Conjunction // SelByAttrs, disjunction of attribute conjunctions
	NotAttrs     []Conjunction // SelByNotAttrs
}

// IndexAssertion matches a candidate's sibling index.
type IndexAssertion struct {
	Value ValueRef
	Next  bool // "greater than" instead of "equal"
	Prev  bool // "less than" instead of "equal"
	Delta int  // calc.plus - calc.min, applied before comparison
}

// Conjunction is one AND-clause of a disjunction-of-conjunctions predicate
// (spec §4.3 "attrs"/"childkeys": "a disjunction of conjunctions").
type Conjunction struct {
	Terms []Term
}

// Term is one attribute-name/child-key assertion inside a Conjunction.
type Term struct {
	Name     string
	Values   []ValueRef // allowed values; empty + Presence means "present, any value"
	Negate   bool       // {not: [...]}
	Presence bool       // {value: null} — attribute present, any value
}

// ValueRefKind tags a ValueRef's payload.
type ValueRefKind int

const (
	RefLiteral ValueRefKind = iota
	RefLinkPlain
	RefLinkPlus
	RefLinkMinus
	RefLinkNext
	RefLinkPrevious
)

// ValueRef is `(kind, payload, delta)` from spec §3: a predicate payload
// that is either a literal or a reference to an earlier-stored link value.
type ValueRef struct {
	Kind    ValueRefKind
	Literal any
	LinkID  int
	Delta   int
}
