package value

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mibar/dtxtract/internal/compile"
)

var asciiFoldTable = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ñ': 'n', 'ç': 'c', 'ý': 'y',
	'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A', 'Å': 'A',
	'È': 'E', 'É': 'E', 'Ê': 'E', 'Ë': 'E',
	'Ì': 'I', 'Í': 'I', 'Î': 'I', 'Ï': 'I',
	'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'Ù': 'U', 'Ú': 'U', 'Û': 'U', 'Ü': 'U',
	'Ñ': 'N', 'Ç': 'C', 'Ý': 'Y',
}

// whitespaceSeparators names the split separators the source coerces to a
// single-space join character when concatenating split-list pieces back
// together (spec §4.4 "separators drawn from a small whitespace set
// coerce the join char to a space").
var whitespaceSeparators = map[string]bool{
	" ": true, `\s`: true, `\t`: true, `\n`: true, `\r`: true, `\f`: true, `\v`: true,
}

// ApplyCalc runs one compiled calc-pipeline stage (spec §4.4 "calc pipeline",
// the closed nine-op set of spec §3). Exported for reuse by the link stage's
// post-value calc pipeline (internal/extract/linkeval.go).
func ApplyCalc(v any, op compile.CalcOp) any {
	switch op.Kind {
	case compile.CalcCaseChange:
		s := toString(v)
		if op.Trim {
			s = strings.TrimSpace(s)
		}
		switch op.CaseMode {
		case compile.CaseUpper:
			return strings.ToUpper(s)
		case compile.CaseCapitalize:
			return strings.Title(strings.ToLower(s)) //nolint:staticcheck // matches the source's naive title-case, not a locale-aware one
		default:
			return strings.ToLower(s)
		}

	case compile.CalcASCIIFold:
		return asciiFold(toString(v), op)

	case compile.CalcLeftStrip:
		return stripPrefixCI(toString(v), op.StripText)

	case compile.CalcRightStrip:
		return stripSuffixCI(toString(v), op.StripText)

	case compile.CalcRegexSubstituteList:
		return regexSubstituteList(toString(v), op.SubPairs)

	case compile.CalcSplitList:
		return splitList(toString(v), op.SplitDefs)

	case compile.CalcMultiply:
		f, _ := toFloat(v)
		return f * op.Operand

	case compile.CalcDivide:
		f, _ := toFloat(v)
		if op.Operand == 0 {
			return 0.0
		}
		return f / op.Operand

	case compile.CalcEnumReplace:
		key := strings.ToLower(strings.TrimSpace(toString(v)))
		repl, ok := op.EnumLookup[key]
		if !ok {
			return nil
		}
		return repl

	default:
		return v
	}
}

// stripPrefixCI removes prefix from s's start when it matches
// case-insensitively, after trimming surrounding whitespace (spec §4.4
// "left-strip: case-insensitive exact prefix removal").
func stripPrefixCI(s, prefix string) string {
	trimmed := strings.TrimSpace(s)
	if prefix == "" || len(trimmed) < len(prefix) {
		return trimmed
	}
	if strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return strings.TrimSpace(trimmed[len(prefix):])
	}
	return trimmed
}

// stripSuffixCI is stripPrefixCI's mirror for "right-strip".
func stripSuffixCI(s, suffix string) string {
	trimmed := strings.TrimSpace(s)
	if suffix == "" || len(trimmed) < len(suffix) {
		return trimmed
	}
	if strings.EqualFold(trimmed[len(trimmed)-len(suffix):], suffix) {
		return strings.TrimSpace(trimmed[:len(trimmed)-len(suffix)])
	}
	return trimmed
}

// regexSubstituteList applies each pattern/replacement pair in order,
// trimming after every substitution (spec §4.4 "regex-substitute list").
// An uncompilable pattern is skipped rather than aborting the pipeline.
func regexSubstituteList(s string, pairs []compile.RegexSub) string {
	for _, p := range pairs {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		s = strings.TrimSpace(re.ReplaceAllString(s, p.Replacement))
	}
	return s
}

// splitList runs a chain of split steps (spec §4.4 "split list"). Each
// step either keeps every piece as a list (ListAll) or keeps the pieces
// named by Indexes, joining all but the first onto the first with the
// separator (coerced to a single space when the separator is whitespace).
func splitList(s string, defs []compile.SplitDef) any {
	var v any = s
	for _, def := range defs {
		input, ok := v.(string)
		if !ok {
			return v
		}
		fillChar := def.Separator
		if whitespaceSeparators[def.Separator] {
			fillChar = " "
			input = strings.TrimSpace(input)
		}
		re, err := regexp.Compile(def.Separator)
		if err != nil {
			continue
		}
		parts := re.Split(input, -1)

		if def.ListAll {
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			v = out
			continue
		}
		if len(def.Indexes) == 0 {
			continue
		}
		primary := resolveSplitIndex(def.Indexes[0], len(parts))
		if primary < 0 {
			continue
		}
		out := parts[primary]
		for _, raw := range def.Indexes[1:] {
			idx := resolveSplitIndex(raw, len(parts))
			if idx < 0 {
				continue
			}
			out = out + fillChar + parts[idx]
		}
		v = out
	}
	return v
}

// resolveSplitIndex supports negative indexing from the end of parts,
// returning -1 when the index is out of range.
func resolveSplitIndex(idx, n int) int {
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return -1
	}
	return idx
}

func asciiFold(s string, op compile.CalcOp) string {
	if op.FoldPattern != "" {
		if re, err := regexp.Compile(op.FoldPattern); err == nil {
			s = re.ReplaceAllString(s, op.FoldReplacement)
		}
	}
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		if folded, ok := asciiFoldTable[r]; ok {
			b.WriteRune(folded)
			continue
		}
		if op.FoldResidual != "" {
			b.WriteString(op.FoldResidual)
		}
	}
	return b.String()
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
