// Package jsonbuild adapts a JSON document into the uniform tree.Tree the
// matcher walks (spec §4.1 "JSON builder"), preserving object-key
// declaration order (needed by the matcher's "all-children" iteration and
// by the determinism property in spec §8).
package jsonbuild

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mibar/dtxtract/internal/tree"
)

// RootKey is the synthetic key assigned to the tree root, following the
// teacher's JSONPath "$" root symbol.
const RootKey = "$"

// SortDirective stably sorts a list node's children by one or more child
// keys (spec §4.1 "a structural pre-pass applies caller-requested sort
// directives"). Path addresses the list node from the root using JSON
// object keys; Keys names up to three child keys (primary, secondary,
// tertiary) to sort by.
type SortDirective struct {
	Path []string
	Keys []string
}

// Build parses raw JSON and constructs a Tree, applying sort directives to
// any list node the directives address. Failures are reported as a single
// error with no partial tree observable (spec §4.1).
func Build(raw []byte, sorts []SortDirective) (*tree.Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	b := tree.NewBuilder(tree.KindKeyed)
	if err := decodeValue(dec, b, b.Root(), RootKey); err != nil {
		return nil, fmt.Errorf("jsonbuild: %w", err)
	}

	t := b.Build()
	applySorts(t, sorts)
	return t, nil
}

// decodeValue reads the next JSON value from dec and fills the node at id,
// recursively creating children for objects and arrays in declaration
// order.
func decodeValue(dec *json.Decoder, b *tree.Builder, id tree.NodeID, key any) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := b.Node(id)
			n.Keyed = tree.KeyedData{Key: key, Kind: tree.KeyedObject}
			for dec.More() {
				nameTok, err := dec.Token()
				if err != nil {
					return err
				}
				name, _ := nameTok.(string)
				child := b.AddChild(id)
				if err := decodeValue(dec, b, child, name); err != nil {
					return err
				}
			}
			_, err := dec.Token() // consume '}'
			return err
		case '[':
			n := b.Node(id)
			n.Keyed = tree.KeyedData{Key: key, Kind: tree.KeyedList}
			idx := 0
			for dec.More() {
				child := b.AddChild(id)
				if err := decodeValue(dec, b, child, idx); err != nil {
					return err
				}
				idx++
			}
			_, err := dec.Token() // consume ']'
			return err
		}
		return fmt.Errorf("unexpected delimiter %v", t)
	default:
		n := b.Node(id)
		n.Keyed = tree.KeyedData{Key: key, Kind: tree.KeyedScalar, Value: tok}
		return nil
	}
}

// applySorts resolves each directive's path against t's object keys and,
// if the addressed node is a list, stably sorts its children in place.
func applySorts(t *tree.Tree, sorts []SortDirective) {
	for _, d := range sorts {
		id, ok := resolvePath(t, t.Root(), d.Path)
		if !ok {
			continue
		}
		n := t.Node(id)
		if n.Keyed.Kind != tree.KeyedList {
			continue
		}
		sortByKeys(t, n.Children(), d.Keys)
	}
}

func resolvePath(t *tree.Tree, cur tree.NodeID, path []string) (tree.NodeID, bool) {
	for _, seg := range path {
		n := t.Node(cur)
		if n.Keyed.Kind != tree.KeyedObject {
			return 0, false
		}
		found := false
		for _, c := range n.Children() {
			if name, ok := t.Node(c).Keyed.Key.(string); ok && name == seg {
				cur, found = c, true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return cur, true
}

func sortByKeys(t *tree.Tree, children []tree.NodeID, keys []string) {
	ordered := append([]tree.NodeID(nil), children...)
	sort.SliceStable(ordered, func(i, j int) bool {
		for _, k := range keys {
			vi := fieldValue(t, ordered[i], k)
			vj := fieldValue(t, ordered[j], k)
			c := compareAny(vi, vj)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	parent, ok := t.Node(ordered[0]).Parent()
	if !ok {
		return
	}
	t.ReorderChildren(parent, ordered)
}

func fieldValue(t *tree.Tree, item tree.NodeID, key string) any {
	n := t.Node(item)
	if n.Keyed.Kind != tree.KeyedObject {
		return nil
	}
	for _, c := range n.Children() {
		cn := t.Node(c)
		if name, ok := cn.Keyed.Key.(string); ok && name == key {
			return cn.Keyed.Value
		}
	}
	return nil
}

// compareAny orders two JSON scalar values of possibly-differing dynamic
// type. Mismatched types compare by stringified form so the sort stays
// total; this only matters for pathological specs with heterogeneous
// sibling shapes.
func compareAny(a, b any) int {
	switch av := a.(type) {
	case json.Number:
		if bv, ok := b.(json.Number); ok {
			af, _ := av.Float64()
			bf, _ := bv.Float64()
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
