package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleHTMLSpec(t *testing.T) {
	doc := raw{
		"data-format": "html",
		"init-path": []any{
			raw{"tag": "ul", "only-one": true},
		},
		"data": raw{
			"key-path": []any{
				raw{"tag": "li", "all-children": true},
				raw{"store-node-link": 0},
			},
			"value-defs": []any{
				[]any{raw{"text": true}},
			},
		},
		"values": raw{
			"title": raw{"var": 0},
		},
	}

	sp, status := Compile(doc)
	require.False(t, status.IsFatal(), "diagnostics: %v", sp.Diagnostics)
	assert.Equal(t, "html", sp.TreeKind)
	require.Len(t, sp.Iter, 1)
	require.Len(t, sp.Iter[0].KeyPath.Nodes, 2)
	assert.Equal(t, KindNodeSelector, sp.Iter[0].KeyPath.Nodes[0].Kind)
	assert.Equal(t, KindNodeLinkStorage, sp.Iter[0].KeyPath.Nodes[1].Kind)
}

func TestCompileRejectsUnknownValueLink(t *testing.T) {
	doc := raw{
		"data-format": "html",
		"data": raw{
			"key-path": []any{
				raw{"tag": "li", "all-children": true},
			},
			"value-defs": []any{
				[]any{raw{"tag": raw{"link": 99}}},
			},
		},
	}
	sp, status := Compile(doc)
	assert.True(t, status.IsFatal())
	found := false
	for _, d := range sp.Diagnostics {
		if d.Status == StatusInvalidValueLink {
			found = true
		}
	}
	assert.True(t, found, "expected an InvalidValueLink diagnostic")
}

func TestCompileConflictingTreeKindDirectives(t *testing.T) {
	doc := raw{
		"data": raw{
			"key-path": []any{
				raw{"tag": "li"},
				raw{"key": "foo"},
			},
		},
	}
	sp, status := Compile(doc)
	assert.True(t, status.IsFatal())
	found := false
	for _, d := range sp.Diagnostics {
		if d.Status == StatusInvalidPathDef {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompileKeysSetSelectorUnderJSONFormat(t *testing.T) {
	doc := raw{
		"data-format": "json",
		"data": raw{
			"key-path": []any{
				raw{"keys": []any{"a", "b"}, "all-children": true},
			},
		},
	}
	sp, status := Compile(doc)
	require.False(t, status.IsFatal())
	assert.Equal(t, "json", sp.TreeKind)
}
