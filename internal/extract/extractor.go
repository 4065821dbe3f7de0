// Package extract implements the extractor/linker (spec §4.6): it
// orchestrates a full extraction over one compiled spec and tree, walking
// key-paths to enumerate records, evaluating value-defs per record, and
// running the link stage to produce the final named fields.
package extract

import (
	"sort"
	"sync"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/linkfn"
	"github.com/mibar/dtxtract/internal/tree"
	"github.com/mibar/dtxtract/internal/value"
	"github.com/mibar/dtxtract/internal/walk"
	"github.com/mibar/dtxtract/internal/warn"
)

// Options configures one Extract call.
type Options struct {
	// CallerID tags warnings emitted during this call (spec §5 "filters
	// ... are shared across all engine instances keyed by a caller id").
	CallerID string
	Progress ProgressSink
	Cancel   *CancelFlag
	// DefaultItemCount seeds a synthetic key-path iteration count when a
	// block's key-path resolves to nothing (DataTreeGrab.py's
	// DATAtree.get_data, spec §4.6 supplemented). When zero, the spec's
	// default-item-count key applies.
	DefaultItemCount int
}

// Extractor orchestrates extraction of one compiled spec against one
// tree. It carries an internal mutex guarding its mutable state (spec §5
// "each top-level object ... carries an internal mutex guarding its
// mutable state ... recursive acquisition must be supported"); Extract is
// safe to call repeatedly, and the dispatched link/calc functions never
// call back into Extract, so a single non-reentrant mutex suffices.
type Extractor struct {
	mu sync.Mutex

	Tree *tree.Tree
	Spec *compile.Spec

	Warn    *warn.Registry
	Current *value.CurrentDate
	LinkFn  linkfn.Dispatcher

	// fieldOrder is sp.Values' keys sorted once at construction time.
	// compile.Spec.Values is a Go map, so ranging over it directly would
	// make record field order (and thus JSON-encoded output) vary run to
	// run; this is the stable order Extract uses instead (spec §8
	// "record output must stay byte-identical across runs").
	fieldOrder []string
}

// New returns an Extractor ready to run Extract against t under sp. current
// has its relative-weekday map recomputed from sp's configured offsets and
// weekday names (spec §4.5 "Current-date maintenance ... on change, the
// relative-weekday map recomputes"), so a caller-supplied anchor always
// resolves against this spec's own configuration.
func New(t *tree.Tree, sp *compile.Spec, warnings *warn.Registry, current *value.CurrentDate, fn linkfn.Dispatcher) *Extractor {
	names := make([]string, 0, len(sp.Values))
	for name := range sp.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	if current != nil {
		current.Recompute(sp.DateTime.RelativeWeekdays, sp.DateTime.Weekdays)
	}
	return &Extractor{Tree: t, Spec: sp, Warn: warnings, Current: current, LinkFn: fn, fieldOrder: names}
}

// Extract runs the full extraction pipeline (spec §4.6 steps 1-4),
// returning the produced records and whether the call returned early
// because opts.Cancel was observed (spec §5 "the extractor returns early
// with a 'quitting' status code" — modeled here as a plain bool rather
// than folding into compile.StatusBits, since cancellation is a caller
// decision, not a data/spec error).
func (ex *Extractor) Extract(opts Options) ([]*Record, bool) {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	start := ex.findStart(opts.CallerID)
	w := walk.New(ex.Tree, ex.deps(opts.CallerID))

	var records []*Record
	processed := 0

	for _, block := range ex.Spec.Iter {
		keyEnv := tree.NewLinkEnv()
		keyLeaves, _ := flattenResults(w.Walk(start, block.KeyPath, keyEnv))

		total := len(keyLeaves)
		itemCount := opts.DefaultItemCount
		if itemCount == 0 {
			itemCount = ex.Spec.DefaultItemCount
		}
		if total == 0 && itemCount > 0 {
			total = itemCount
		}

		for i := 0; i < total; i++ {
			if opts.Cancel != nil && opts.Cancel.Requested() {
				return records, true
			}

			keyNode := start
			var keyValue any
			snap := tree.NewLinkEnv()
			if i < len(keyLeaves) {
				keyNode = keyLeaves[i].Node
				keyValue = keyLeaves[i].Value
				snap = keyEnv.Snapshot()
			}

			rec, ok := ex.buildRecord(w, block, keyNode, keyValue, snap, opts.CallerID)
			if ok {
				records = append(records, rec)
			}

			processed++
			if opts.Progress != nil {
				opts.Progress.Publish(Progress{Processed: processed, Total: total})
			}
		}
	}

	return records, false
}

// findStart walks the spec's init-path from the root and returns the
// first result's node, falling back to the root with a non-fatal warning
// when the path matches nothing (spec §4.6 step 1).
func (ex *Extractor) findStart(callerID string) tree.NodeID {
	w := walk.New(ex.Tree, ex.deps(callerID))
	leaves, _ := flattenResults(w.Walk(ex.Tree.Root(), ex.Spec.InitPath, tree.NewLinkEnv()))
	if len(leaves) > 0 {
		return leaves[0].Node
	}
	ex.warnf(callerID, warn.CategoryParse, warn.SeverityInvalidData, "init-path matched nothing; falling back to root")
	return ex.Tree.Root()
}

// buildRecord evaluates every value-def in block against keyNode, then
// runs the link stage, following spec §4.6 steps 2-4. The bool result is
// false when a value-def's pipeline emitted the filtered sentinel and the
// record must be dropped.
func (ex *Extractor) buildRecord(w *walk.Walker, block compile.IterBlock, keyNode tree.NodeID, keyValue any, snap *tree.LinkEnv, callerID string) (*Record, bool) {
	vars := []any{keyValue}

	for _, vd := range block.ValueDefs {
		origin := ex.valueOrigin(keyNode, vd)
		leaves, filtered := flattenResults(w.Walk(origin, vd, snap))
		if filtered {
			return nil, false
		}
		var v any
		if len(leaves) > 0 {
			v = leaves[0].Value
		}
		vars = append(vars, v)
	}

	rec := NewRecord()
	for _, name := range ex.fieldOrder {
		ld := ex.Spec.Values[name]
		v, err := evalLinkDef(ld, vars, ex.LinkFn)
		if err != nil {
			ex.warnf(callerID, warn.CategoryCalc, warn.SeverityInvalidData, "link function "+name+": "+err.Error())
			continue
		}
		v, keep := applyLinkPostValue(ld, v, vars, ex.Spec.DateTime, ex.Current)
		if !keep {
			continue
		}
		rec.Set(name, v)
	}
	return rec, true
}

// valueOrigin picks the node a value-def's walk starts from (spec §4.6
// step 3, spec.md:143 "For JSON inputs, the origin is the key-node's
// parent ...; for HTML, the origin is the key-node itself"). A value-def
// overrides the default by opening with an explicit parent/root/saved-link
// node-def, which is passed the key-node (or its computed origin) as its
// own "current" node so its relative-path candidate logic
// (internal/walk.candidates) computes the override directly; "parent" is
// how an HTML value-def reaches the containing element when the key-node
// is itself a leaf field rather than a container.
func (ex *Extractor) valueOrigin(keyNode tree.NodeID, vd compile.PathDef) tree.NodeID {
	if ex.Tree.Kind() != tree.KindKeyed {
		return keyNode
	}
	if parent, ok := ex.Tree.Node(keyNode).Parent(); ok {
		return parent
	}
	return keyNode
}

func (ex *Extractor) deps(callerID string) walk.Deps {
	return walk.Deps{
		ValueFilters: ex.Spec.ValueFilters,
		DateTime:     ex.Spec.DateTime,
		Current:      ex.Current,
		Warn: func(msg string) {
			ex.warnf(callerID, warn.CategoryParse, warn.SeverityInvalidData, msg)
		},
	}
}

func (ex *Extractor) warnf(callerID string, category warn.Category, severity warn.Severity, msg string) {
	if ex.Warn == nil {
		return
	}
	ex.Warn.Emit(warn.Warning{CallerID: callerID, Category: category, Severity: severity, Message: msg})
}

// flattenResults collects the terminal (leaf) results of a walk, recursing
// through name-capture groups, and reports whether any branch carried a
// membership-filter rejection (spec §4.6 "If any value-def's pipeline
// emits the 'filtered' sentinel, abort the record").
func flattenResults(results []walk.Result) ([]walk.Result, bool) {
	var out []walk.Result
	for _, r := range results {
		if r.Filtered {
			return nil, true
		}
		if r.Group != nil {
			leaves, filtered := flattenResults(r.Group)
			if filtered {
				return nil, true
			}
			out = append(out, leaves...)
			continue
		}
		out = append(out, r)
	}
	return out, false
}
