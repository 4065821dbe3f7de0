package htmlbuild

import (
	"html"
	"regexp"
	"strings"

	"github.com/mibar/dtxtract/internal/tree"
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenOpen
	tokenClose
	tokenSelfClose
)

type token struct {
	kind  tokenKind
	tag   string // lowercased; set for open/close/self-close
	attrs *tree.Attrs
	text  string // raw, undecoded; set for text tokens
}

var attrRe = regexp.MustCompile(`([a-zA-Z_:][-a-zA-Z0-9_:.]*)(?:\s*=\s*("([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+)))?`)

// tokenize performs a single left-to-right scan of src, splitting it into
// text runs and tag tokens. Comments, doctypes, and processing
// instructions ("<!...>", "<?...>") are dropped. Unterminated tags at end
// of input degrade to text, tolerating truncated fetches.
func tokenize(src string) []token {
	var toks []token
	var textBuf strings.Builder
	flush := func() {
		if textBuf.Len() > 0 {
			toks = append(toks, token{kind: tokenText, text: textBuf.String()})
			textBuf.Reset()
		}
	}

	i := 0
	for i < len(src) {
		if src[i] != '<' {
			textBuf.WriteByte(src[i])
			i++
			continue
		}

		j := i + 1
		var inQuote byte
		for j < len(src) {
			c := src[j]
			if inQuote != 0 {
				if c == inQuote {
					inQuote = 0
				}
			} else if c == '"' || c == '\'' {
				inQuote = c
			} else if c == '>' {
				break
			}
			j++
		}
		if j >= len(src) {
			textBuf.WriteString(src[i:])
			break
		}

		raw := src[i+1 : j]
		i = j + 1

		if strings.HasPrefix(raw, "!") || strings.HasPrefix(raw, "?") {
			continue // comment / doctype / processing instruction
		}

		flush()

		if strings.HasPrefix(raw, "/") {
			name := extractTagName(raw[1:])
			if name != "" {
				toks = append(toks, token{kind: tokenClose, tag: strings.ToLower(name)})
			}
			continue
		}

		trimmed := strings.TrimSpace(raw)
		selfClose := strings.HasSuffix(trimmed, "/")
		body := raw
		if selfClose {
			body = strings.TrimSuffix(trimmed, "/")
		}

		name := extractTagName(body)
		if name == "" {
			continue
		}
		attrsRaw := body[len(name):]
		attrs := parseAttrs(attrsRaw)

		kind := tokenOpen
		if selfClose {
			kind = tokenSelfClose
		}
		toks = append(toks, token{kind: kind, tag: strings.ToLower(name), attrs: attrs})
	}
	flush()
	return toks
}

func extractTagName(s string) string {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' {
			break
		}
		i++
	}
	return s[:i]
}

// parseAttrs parses an attribute list (the tail of a tag after its name)
// into an ordered map, with class and id promoted first per spec §3.
func parseAttrs(raw string) *tree.Attrs {
	a := tree.NewAttrs()
	for _, m := range attrRe.FindAllStringSubmatch(raw, -1) {
		name := strings.ToLower(m[1])
		if name == "" {
			continue
		}
		value := m[3]
		if m[4] != "" {
			value = m[4]
		} else if m[5] != "" {
			value = m[5]
		}
		a.Set(name, html.UnescapeString(value))
	}
	a.Promote("id")
	a.Promote("class")
	return a
}
