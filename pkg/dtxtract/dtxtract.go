// Package dtxtract is the public facade over the extraction engine:
// compile a raw spec document, build a tree from HTML or JSON input, and
// run the extractor/linker to produce records.
//
// Basic usage:
//
//	spec, err := dtxtract.CompileSpec(specDoc)
//	tree, err := dtxtract.BuildTree("html", input, dtxtract.BuildOptions{})
//	records, err := dtxtract.Extract(tree, spec, dtxtract.Options{}, nil, nil, nil)
//
// Fluent API:
//
//	records, err := dtxtract.From(input).Format("html").Spec(specDoc).Extract()
package dtxtract

import (
	"fmt"
	"regexp"
	"time"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/extract"
	"github.com/mibar/dtxtract/internal/htmlbuild"
	"github.com/mibar/dtxtract/internal/jsonbuild"
	"github.com/mibar/dtxtract/internal/linkfn"
	"github.com/mibar/dtxtract/internal/tree"
	"github.com/mibar/dtxtract/internal/urlbuild"
	"github.com/mibar/dtxtract/internal/urlfn"
	"github.com/mibar/dtxtract/internal/value"
	"github.com/mibar/dtxtract/internal/warn"
)

type (
	// Spec is a fully compiled extraction spec, ready to run against a Tree.
	Spec = compile.Spec
	// Tree is a built HTML or JSON document, ready to extract from.
	Tree = tree.Tree
	// Record is one extracted result: an ordered map of named fields.
	Record = extract.Record
	// Options configures one Extract call.
	Options = extract.Options
	// Progress is a (processed, total) tuple published per key-node.
	Progress = extract.Progress
	// ProgressSink receives Progress updates during extraction.
	ProgressSink = extract.ProgressSink
	// ChannelProgressSink adapts a bounded channel to ProgressSink.
	ChannelProgressSink = extract.ChannelProgressSink
	// CancelFlag is the cooperative cancellation flag checked between
	// key-node iterations.
	CancelFlag = extract.CancelFlag
	// StatusBits is the compiler's stable error/status bitmask.
	StatusBits = compile.StatusBits
	// Diagnostic is a single compile-time problem recorded while compiling
	// a Spec.
	Diagnostic = compile.Diagnostic
	// WarnRegistry routes accepted warnings to a Sink under filter rules.
	WarnRegistry = warn.Registry
	// WarnSink receives accepted warnings.
	WarnSink = warn.Sink
	// Warning is one emitted diagnostic produced during extraction.
	Warning = warn.Warning
	// LinkExtension is a host-supplied link function for ids >= 100.
	LinkExtension = linkfn.Extension
	// URLExtension is a host-supplied URL-piece function for ids >= 100.
	URLExtension = urlfn.Extension
	// CurrentDate is the engine's current-date anchor for date/time
	// type coercions and relative-weekday lookups.
	CurrentDate = value.CurrentDate
	// URLRequest is the synthesized outgoing request the URL builder
	// describes: a method, URL, and headers, never dispatched (spec §1
	// Non-goals "the engine exposes 'build request' outputs").
	URLRequest = urlbuild.Request
)

// CompileSpec lowers a raw, JSON-decoded spec document into a Spec. The
// returned error is non-nil exactly when the compiled Spec's Status is
// fatal (spec §4.2 "Pure, deterministic" compile, spec §6 error taxonomy);
// a non-fatal Spec is still returned alongside a nil error so callers can
// inspect sp.Diagnostics for warnings-grade issues.
func CompileSpec(doc map[string]any) (*Spec, error) {
	sp, status := compile.Compile(doc)
	if status.IsFatal() {
		return sp, fmt.Errorf("dtxtract: spec compile failed: %v", sp.Diagnostics)
	}
	return sp, nil
}

// BuildOptions configures tree construction from raw input.
type BuildOptions struct {
	// TextReplace substitutions run, in order, before HTML tokenizing.
	TextReplace []htmlbuild.TextReplace
	// AutoCloseSeed names tags treated as self-closing before the HTML
	// pre-scan runs.
	AutoCloseSeed []string
	// Unquote patterns have embedded markup-like text protected from the
	// HTML tokenizer (e.g. a JSON blob inside a <script> tag).
	Unquote []*regexp.Regexp
	// JSONSort applies stable sort directives to JSON array nodes as the
	// tree is built.
	JSONSort []jsonbuild.SortDirective
}

// BuildTree parses input as format ("html" or "json") into a Tree.
func BuildTree(format string, input []byte, opts BuildOptions) (*Tree, error) {
	switch format {
	case "json":
		return jsonbuild.Build(input, opts.JSONSort)
	case "html":
		return htmlbuild.Build(input, htmlbuild.Options{
			AutoCloseSeed: opts.AutoCloseSeed,
			TextReplace:   opts.TextReplace,
			Unquote:       opts.Unquote,
		})
	default:
		return nil, fmt.Errorf("dtxtract: unknown format %q (want \"html\" or \"json\")", format)
	}
}

// NewWarnRegistry returns a WarnRegistry delivering accepted warnings to
// sink. A nil sink is valid and simply discards every warning. Callers
// that need filter rules (warn.Registry.SetFilter) applied before
// extraction begins should build the registry this way and pass it to
// Extract, rather than a bare sink.
func NewWarnRegistry(sink WarnSink) *WarnRegistry {
	return warn.NewRegistry(sink)
}

// Extract runs the full extractor/linker pipeline against t under sp,
// wiring the built-in link and URL function dispatch tables. reg may be
// nil to discard warnings. Returns the produced records and an error only
// when extraction was cancelled via opts.Cancel (spec §5 "the extractor
// returns early with a 'quitting' status").
func Extract(t *Tree, sp *Spec, opts Options, reg *WarnRegistry, current *CurrentDate, linkExt LinkExtension) ([]*Record, error) {
	ex := extract.New(t, sp, reg, current, linkfn.Dispatcher{Extension: linkExt})
	records, quit := ex.Extract(opts)
	if quit {
		return records, fmt.Errorf("dtxtract: extraction cancelled")
	}
	return records, nil
}

// BuildURL runs sp's URL builder alone against the given runtime
// variables and current-date anchor, without walking any tree (spec §4.8,
// SPEC_FULL §3.3 "runs the URL builder only").
func BuildURL(sp *Spec, vars map[string]any, anchor time.Time, ext URLExtension) (*URLRequest, error) {
	disp := urlbuild.NewDispatcher(sp.URL, urlfn.Vars(vars), anchor, urlfn.Extension(ext))
	return urlbuild.Build(sp.URL, disp)
}
