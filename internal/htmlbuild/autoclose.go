package htmlbuild

import "github.com/mibar/dtxtract/internal/set"

// voidElements are always self-closing regardless of what the pre-scan
// finds, the way no browser waits for a "</br>". The pre-scan (below) only
// ever extends this seed set, never removes from it (spec §4.1).
var voidElements = []string{
	"area", "base", "br", "col", "embed", "hr", "img",
	"input", "link", "meta", "param", "source", "track", "wbr",
}

// recoverableTags are closed synthetically if opened but never closed, to
// tolerate truncated fetches (spec §4.1 "a fixed recovery pass").
var recoverableTags = []string{"body", "html", "xml"}

// autoCloseSet computes the set of tags that should be treated as
// self-closing: callers' seed plus any tag with opens/self-closes but zero
// matching closes anywhere in the token stream. Idempotent: running the
// scan again over a token stream already rewritten with this set produces
// the same set (spec §8 "auto-close set is idempotent"), since closeCount
// only ever decreases never increases when nothing changes upstream.
func autoCloseSet(toks []token, seed []string) set.Set[string] {
	s := set.New(append([]string(nil), voidElements...)...)
	s.Add(seed...)

	opens := make(map[string]int)
	closes := make(map[string]int)
	for _, t := range toks {
		switch t.kind {
		case tokenOpen, tokenSelfClose:
			opens[t.tag]++
		case tokenClose:
			closes[t.tag]++
		}
	}
	for tag, n := range opens {
		if n > 0 && closes[tag] == 0 {
			s.Add(tag)
		}
	}
	return s
}

// recoverUnclosed appends synthetic close tokens for any of recoverableTags
// that were opened but never closed.
func recoverUnclosed(toks []token) []token {
	opens := make(map[string]int)
	closes := make(map[string]int)
	for _, t := range toks {
		switch t.kind {
		case tokenOpen:
			opens[t.tag]++
		case tokenClose:
			closes[t.tag]++
		}
	}
	var extra []token
	for _, tag := range recoverableTags {
		if opens[tag] > 0 && closes[tag] == 0 {
			extra = append(extra, token{kind: tokenClose, tag: tag})
		}
	}
	if extra == nil {
		return toks
	}
	return append(append([]token(nil), toks...), extra...)
}
