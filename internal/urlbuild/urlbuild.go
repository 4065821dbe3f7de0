// Package urlbuild compiles a spec's raw URL directives (spec §4.8, §6
// "url", "url-header"/"accept-header", "url-data") into a Request, and
// renders that Request against a runtime variable table.
//
// compile.URLConfig.Pieces is left raw ("opaque to the matcher") because
// the matcher never evaluates it; this package is the consumer, following
// the same raw-map-to-sum-type shape compile.CompileLinkDef uses for the
// `values` map: `{"func": <id>, "args": [...]}` for a function call, a
// bare string for a literal fragment.
package urlbuild

import (
	"fmt"
	"strings"
	"time"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/urlfn"
)

// Piece is one compiled element of a URL: either a literal fragment or a
// call to a closed-set or extension URL-builder function (spec §4.8).
type Piece struct {
	Literal string
	IsFunc  bool
	FuncID  int
	Args    []any
}

// Request is the synthesized outgoing request a compiled URLConfig
// describes: a method, a URL, and headers, never dispatched by this
// package (spec §1 Non-goals "the engine exposes 'build request'
// outputs" rather than performing the HTTP transaction itself).
type Request struct {
	Method       string
	URL          string
	Headers      map[string]string
	AcceptHeader string
	Data         map[string]any
}

// CompilePieces lowers raw URL-piece directives into Pieces. Unrecognized
// entries are dropped rather than treated as fatal, mirroring how
// CompileLinkDef degrades on shapes it doesn't understand elsewhere in
// the compiler.
func CompilePieces(rawPieces []any) []Piece {
	pieces := make([]Piece, 0, len(rawPieces))
	for _, p := range rawPieces {
		switch v := p.(type) {
		case string:
			pieces = append(pieces, Piece{Literal: v})
		case map[string]any:
			id, ok := toInt(v["func"])
			if !ok {
				continue
			}
			args, _ := v["args"].([]any)
			pieces = append(pieces, Piece{IsFunc: true, FuncID: id, Args: args})
		}
	}
	return pieces
}

// Build renders cfg's pieces and headers into a Request, evaluating
// function pieces against disp. disp.Vars/Anchor/Weekdays/Extension must
// already be populated by the caller (see NewDispatcher).
func Build(cfg compile.URLConfig, disp urlfn.Dispatcher) (*Request, error) {
	var b strings.Builder
	for _, piece := range CompilePieces(cfg.Pieces) {
		if !piece.IsFunc {
			b.WriteString(piece.Literal)
			continue
		}
		frag, err := disp.Call(piece.FuncID, piece.Args)
		if err != nil {
			return nil, fmt.Errorf("urlbuild: piece %d: %w", piece.FuncID, err)
		}
		b.WriteString(frag)
	}

	req := &Request{
		Method:       "GET",
		URL:          b.String(),
		Headers:      cfg.Header,
		AcceptHeader: cfg.AcceptHeader,
		Data:         cfg.Data,
	}
	if len(req.Data) > 0 {
		req.Method = "POST"
	}
	return req, nil
}

// NewDispatcher builds the urlfn.Dispatcher cfg's date-piece functions
// need: the weekday name table and the current-date anchor, with ext
// wired in for ids >= urlfn.ExtensionBase (spec §4.8 "IDs >= 100 dispatch
// to a host extension").
func NewDispatcher(cfg compile.URLConfig, vars urlfn.Vars, anchor time.Time, ext urlfn.Extension) urlfn.Dispatcher {
	return urlfn.Dispatcher{
		Vars:      vars,
		Anchor:    anchor,
		Weekdays:  cfg.Weekdays,
		Extension: ext,
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
