package compile

import "fmt"

// StatusBits is the stable error/status bitmask threaded through compiling,
// tree-building, and extraction (spec §6 "Error taxonomy"). Fatal codes
// occupy bits 0-3 and are mutually exclusive (the shell overwrites the
// fatal slot on set); non-fatal flags from bit 4 up accumulate with
// bitwise OR.
type StatusBits uint32

const fatalMask StatusBits = 0xF

const (
	StatusOK StatusBits = iota
	StatusURLError
	StatusTimeoutError
	StatusHTTPError
	StatusJSONError
	StatusEmpty
	StatusIncompleteRead
	StatusInvalidStartNode
	StatusInvalidDataDef
	StatusInvalidDataSet
	StatusNoData
	StatusUnknownError
)

const (
	StatusSortFailed StatusBits = 1 << (4 + iota)
	StatusUnquoteFailed
	StatusTextReplaceFailed
	StatusTimeZoneFailed
	StatusCurrentDateFailed
	StatusInvalidValueLink
	StatusInvalidNodeLink
	StatusInvalidPathDef
	StatusInvalidLinkDef
)

// SetFatal overwrites the fatal slot (bits 0-3) of s, leaving accumulated
// non-fatal flags untouched.
func (s StatusBits) SetFatal(code StatusBits) StatusBits {
	return (s &^ fatalMask) | (code & fatalMask)
}

// Fatal returns the current fatal code.
func (s StatusBits) Fatal() StatusBits {
	return s & fatalMask
}

// Add accumulates a non-fatal flag into s.
func (s StatusBits) Add(flag StatusBits) StatusBits {
	return s | (flag &^ fatalMask)
}

// IsFatal reports whether s carries any fatal code other than OK.
func (s StatusBits) IsFatal() bool {
	return s.Fatal() != StatusOK
}

// Diagnostic is a single compile-time problem: either a hard error (caller
// should treat the compile as failed) or informational.
type Diagnostic struct {
	Status  StatusBits
	Message string
}

func (d Diagnostic) Error() string { return d.Message }

// Registry tracks the left-to-right dataflow discipline a path compile
// must respect: a link id is only a valid ValueRef target once the
// node-def that stores it has actually been compiled (spec §4.2
// "Maintain two ordered registries ... known_value_links and
// known_node_links. A reference to a link id that is not yet known is a
// hard error"). This mirrors the teacher's trie finalize() pass, which
// tracks which transitions have actually been merged into the automaton
// before anything downstream is allowed to reference them.
type Registry struct {
	knownValueLinks map[int]bool
	knownNodeLinks  map[int]bool

	treeKind   string // "html" or "json", first writer wins
	diagnostics []Diagnostic
	status      StatusBits
}

// NewRegistry returns an empty Registry ready to compile a single path.
func NewRegistry() *Registry {
	return &Registry{
		knownValueLinks: make(map[int]bool),
		knownNodeLinks:  make(map[int]bool),
	}
}

// DeclareValueLink records that link id is now a valid target for a
// RefLinkPlain/Plus/Minus/Next/Previous ValueRef appearing later in the
// same path.
func (r *Registry) DeclareValueLink(id int) {
	r.knownValueLinks[id] = true
}

// DeclareNodeLink records that node-link id is now resolvable by a later
// RelSavedLink Selector.
func (r *Registry) DeclareNodeLink(id int) {
	r.knownNodeLinks[id] = true
}

// RequireValueLink checks that id was declared by an earlier node-def,
// recording StatusInvalidValueLink and a Diagnostic otherwise.
func (r *Registry) RequireValueLink(id int) bool {
	if r.knownValueLinks[id] {
		return true
	}
	r.fail(StatusInvalidValueLink, fmt.Sprintf("value link %d referenced before it is stored", id))
	return false
}

// RequireNodeLink checks that id was declared by an earlier node-def,
// recording StatusInvalidNodeLink and a Diagnostic otherwise.
func (r *Registry) RequireNodeLink(id int) bool {
	if r.knownNodeLinks[id] {
		return true
	}
	r.fail(StatusInvalidNodeLink, fmt.Sprintf("node link %d referenced before it is stored", id))
	return false
}

// RequireTreeKind records that a directive exclusive to kind was seen.
// Conflicting calls within one compile record StatusInvalidPathDef.
func (r *Registry) RequireTreeKind(kind string) bool {
	if r.treeKind == "" {
		r.treeKind = kind
		return true
	}
	if r.treeKind != kind {
		r.fail(StatusInvalidPathDef, fmt.Sprintf("directive requires tree kind %q but %q was already established", kind, r.treeKind))
		return false
	}
	return true
}

// TreeKind returns the tree kind established by directives seen so far,
// or "" if none forced a kind yet.
func (r *Registry) TreeKind() string { return r.treeKind }

func (r *Registry) fail(bit StatusBits, msg string) {
	r.status = r.status.Add(bit)
	r.diagnostics = append(r.diagnostics, Diagnostic{Status: bit, Message: msg})
}

// Status returns the accumulated non-fatal bitmask.
func (r *Registry) Status() StatusBits { return r.status }

// Diagnostics returns every recorded Diagnostic, in the order encountered.
func (r *Registry) Diagnostics() []Diagnostic { return r.diagnostics }

// OK reports whether compiling with this registry hit zero diagnostics.
func (r *Registry) OK() bool { return len(r.diagnostics) == 0 }
