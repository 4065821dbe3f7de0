// Package htmlbuild adapts an HTML document into the uniform tree.Tree the
// matcher walks (spec §4.1 "HTML builder"): a two-pass tokenizer with
// implicit-close heuristics tolerant of the malformed markup real-world
// scrapes produce.
package htmlbuild

import (
	"html"
	"regexp"
	"strings"

	"github.com/mibar/dtxtract/internal/set"
	"github.com/mibar/dtxtract/internal/tree"
)

// TextReplace is a caller-supplied regex substitution applied to the raw
// source before tokenizing.
type TextReplace struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Options configures the HTML builder.
type Options struct {
	// AutoCloseSeed names tags to treat as self-closing before the
	// pre-scan runs; the pre-scan only ever adds to this set.
	AutoCloseSeed []string
	// TextReplace substitutions run, in order, before tokenizing.
	TextReplace []TextReplace
	// Unquote patterns have their first capture group's `"`, `<`, `>`
	// escaped before tokenizing, protecting embedded markup-like text
	// (e.g. a JSON blob inside a <script> tag) from being mistaken for
	// tags.
	Unquote []*regexp.Regexp
}

// Build parses raw HTML and constructs a Tree. The tokenizer degrades
// malformed input to text rather than failing, so the returned error is
// always nil; nil or empty input yields a tree holding only the root.
func Build(input []byte, opts Options) (*tree.Tree, error) {
	src := string(input)

	for _, tr := range opts.TextReplace {
		src = tr.Pattern.ReplaceAllString(src, tr.Replacement)
	}
	for _, re := range opts.Unquote {
		src = applyUnquote(src, re)
	}

	toks := tokenize(src)
	toks = recoverUnclosed(toks)
	autoClose := autoCloseSet(toks, opts.AutoCloseSeed)

	return feed(toks, autoClose), nil
}

func feed(toks []token, autoClose set.Set[string]) *tree.Tree {
	b := tree.NewBuilder(tree.KindElement)
	stack := []tree.NodeID{b.Root()}
	lastClosed := tree.NoNode

	cur := func() tree.NodeID { return stack[len(stack)-1] }

	attach := func(raw string) {
		if raw == "" {
			return
		}
		decoded := html.UnescapeString(raw)
		if lastClosed != tree.NoNode {
			n := b.Node(lastClosed)
			n.Element.Tail += decoded
			return
		}
		n := b.Node(cur())
		n.Element.Text += decoded
	}

	open := func(tag string, attrs *tree.Attrs) tree.NodeID {
		id := b.AddChild(cur())
		n := b.Node(id)
		n.Element = tree.ElementData{Tag: tag, Attrs: attrs}
		return id
	}

	closeThrough := func(idx int) {
		for len(stack)-1 >= idx {
			lastClosed = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	}

	for _, t := range toks {
		switch t.kind {
		case tokenText:
			attach(t.text)

		case tokenOpen:
			id := open(t.tag, t.attrs)
			if autoClose.Has(t.tag) {
				lastClosed = id
				continue
			}
			stack = append(stack, id)
			lastClosed = tree.NoNode

		case tokenSelfClose:
			id := open(t.tag, t.attrs)
			lastClosed = id

		case tokenClose:
			matchIdx := -1
			for k := len(stack) - 1; k >= 1; k-- {
				if b.Node(stack[k]).Element.Tag == t.tag {
					matchIdx = k
					break
				}
			}
			if matchIdx == -1 {
				continue // stray close tag with no matching open, ignore
			}
			closeThrough(matchIdx)
		}
	}

	return b.Build()
}

// applyUnquote escapes `"`, `<`, `>` within re's first capture group across
// every match in src, leaving the rest of src untouched.
func applyUnquote(src string, re *regexp.Regexp) string {
	idxs := re.FindAllStringSubmatchIndex(src, -1)
	if idxs == nil {
		return src
	}
	var b strings.Builder
	last := 0
	for _, m := range idxs {
		if len(m) < 4 || m[2] < 0 {
			continue
		}
		gs, ge := m[2], m[3]
		b.WriteString(src[last:gs])
		b.WriteString(escapeQuotesAndAngles(src[gs:ge]))
		last = ge
	}
	b.WriteString(src[last:])
	return b.String()
}

func escapeQuotesAndAngles(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
