package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/htmlbuild"
	"github.com/mibar/dtxtract/internal/jsonbuild"
	"github.com/mibar/dtxtract/internal/linkfn"
	"github.com/mibar/dtxtract/internal/warn"
)

func compileSpec(t *testing.T, doc map[string]any) *compile.Spec {
	t.Helper()
	sp, status := compile.Compile(doc)
	require.False(t, status.IsFatal(), "spec compiled with fatal status %v: %v", status, sp.Diagnostics)
	return sp
}

// TestExtractHTMLSimpleList mirrors spec §8 scenario 1: a ul/li list
// yielding one field per li's text.
func TestExtractHTMLSimpleList(t *testing.T) {
	tr, err := htmlbuild.Build([]byte(`<ul><li class="a">x</li><li class="b">y</li></ul>`), htmlbuild.Options{})
	require.NoError(t, err)

	doc := map[string]any{
		"data-format": "html",
		"init-path": []any{
			map[string]any{"tag": "ul"},
		},
		"data": map[string]any{
			"iter": []any{
				map[string]any{
					"key-path": []any{
						map[string]any{"tag": "li", "all-children": true},
					},
					"value-defs": []any{
						[]any{
							map[string]any{"value": map[string]any{"text": true, "path-value": "text"}},
						},
					},
				},
			},
		},
		"values": map[string]any{
			"text": map[string]any{"var": 1},
		},
	}
	sp := compileSpec(t, doc)

	ex := New(tr, sp, nil, nil, linkfn.Dispatcher{})
	records, quit := ex.Extract(Options{})
	require.False(t, quit)
	require.Len(t, records, 2)

	v0, _ := records[0].Get("text")
	v1, _ := records[1].Get("text")
	assert.Equal(t, "x", v0)
	assert.Equal(t, "y", v1)
}

// TestExtractJSONKeyIteration mirrors spec §8 scenario 2: the key-path
// descends to each item's "id" field (the key-node), and the "v"
// value-def reads a sibling field off that key-node's parent — the item
// object — per spec.md:143 "for JSON inputs, the origin is the key-node's
// parent (by design, JSON records live in the containing object)". This
// only exercises the parent-origin fix if the key-node itself is NOT the
// containing object: a key-path that stops at the item (as a naive test
// would) still finds "v" as a child of the key-node directly, and would
// pass even with the origin bug this test guards against.
func TestExtractJSONKeyIteration(t *testing.T) {
	tr, err := jsonbuild.Build([]byte(`{"items":[{"id":1,"v":"a"},{"id":2,"v":"b"}]}`), nil)
	require.NoError(t, err)

	doc := map[string]any{
		"data-format": "json",
		"init-path": []any{
			map[string]any{"key": "items"},
		},
		"data": map[string]any{
			"iter": []any{
				map[string]any{
					"key-path": []any{
						map[string]any{"all-children": true},
						map[string]any{"key": "id"},
						map[string]any{"value": map[string]any{"scalar": true, "type": "int", "path-value": "id"}},
					},
					"value-defs": []any{
						[]any{
							map[string]any{"key": "v"},
							map[string]any{"value": map[string]any{"scalar": true, "path-value": "v"}},
						},
					},
				},
			},
		},
		"values": map[string]any{
			"id": map[string]any{"var": 0},
			"v":  map[string]any{"var": 1},
		},
	}
	sp := compileSpec(t, doc)

	ex := New(tr, sp, nil, nil, linkfn.Dispatcher{})
	records, quit := ex.Extract(Options{})
	require.False(t, quit)
	require.Len(t, records, 2)

	id0, _ := records[0].Get("id")
	v0, _ := records[0].Get("v")
	assert.Equal(t, 1, id0)
	assert.Equal(t, "a", v0)

	id1, _ := records[1].Get("id")
	v1, _ := records[1].Get("v")
	assert.Equal(t, 2, id1)
	assert.Equal(t, "b", v1)
}

// TestExtractMembershipFilterDropsRecord checks that a value-def's
// membership-filter rejection aborts the whole record (spec §4.6 step 2).
func TestExtractMembershipFilterDropsRecord(t *testing.T) {
	tr, err := htmlbuild.Build([]byte(`<ul><li>keep</li><li>drop</li></ul>`), htmlbuild.Options{})
	require.NoError(t, err)

	doc := map[string]any{
		"data-format": "html",
		"init-path": []any{
			map[string]any{"tag": "ul"},
		},
		"data": map[string]any{
			"iter": []any{
				map[string]any{
					"key-path": []any{
						map[string]any{"tag": "li", "all-children": true},
					},
					"value-defs": []any{
						[]any{
							map[string]any{"value": map[string]any{
								"text":       true,
								"path-value": "text",
								"member-of":  true,
							}},
						},
					},
				},
			},
		},
		"values": map[string]any{
			"text": map[string]any{"var": 1},
		},
		"value-filters": map[string]any{
			"text": []any{"keep"},
		},
	}
	sp := compileSpec(t, doc)

	ex := New(tr, sp, nil, nil, linkfn.Dispatcher{})
	records, quit := ex.Extract(Options{})
	require.False(t, quit)
	require.Len(t, records, 1)
	v, _ := records[0].Get("text")
	assert.Equal(t, "keep", v)
}

// TestExtractCancellationStopsEarly checks that a cancellation flag set
// before extraction begins returns a "quitting" result with no records
// (spec §5 "cancellation is cooperative ... checked ... between key-node
// iterations").
func TestExtractCancellationStopsEarly(t *testing.T) {
	tr, err := htmlbuild.Build([]byte(`<ul><li>a</li><li>b</li></ul>`), htmlbuild.Options{})
	require.NoError(t, err)

	doc := map[string]any{
		"data-format": "html",
		"init-path": []any{
			map[string]any{"tag": "ul"},
		},
		"data": map[string]any{
			"iter": []any{
				map[string]any{
					"key-path": []any{
						map[string]any{"tag": "li", "all-children": true},
					},
					"value-defs": []any{
						[]any{
							map[string]any{"value": map[string]any{"text": true, "path-value": "text"}},
						},
					},
				},
			},
		},
		"values": map[string]any{
			"text": map[string]any{"var": 1},
		},
	}
	sp := compileSpec(t, doc)

	cancel := &CancelFlag{}
	cancel.Cancel()

	ex := New(tr, sp, nil, nil, linkfn.Dispatcher{})
	records, quit := ex.Extract(Options{Cancel: cancel})
	assert.True(t, quit)
	assert.Empty(t, records)
}

// TestExtractPublishesProgress checks that progress is published per
// key-node with the expected (processed, total) tuples.
func TestExtractPublishesProgress(t *testing.T) {
	tr, err := htmlbuild.Build([]byte(`<ul><li>a</li><li>b</li><li>c</li></ul>`), htmlbuild.Options{})
	require.NoError(t, err)

	doc := map[string]any{
		"data-format": "html",
		"init-path": []any{
			map[string]any{"tag": "ul"},
		},
		"data": map[string]any{
			"iter": []any{
				map[string]any{
					"key-path": []any{
						map[string]any{"tag": "li", "all-children": true},
					},
					"value-defs": []any{
						[]any{
							map[string]any{"value": map[string]any{"text": true, "path-value": "text"}},
						},
					},
				},
			},
		},
		"values": map[string]any{
			"text": map[string]any{"var": 1},
		},
	}
	sp := compileSpec(t, doc)

	sink := make(ChannelProgressSink, 8)
	ex := New(tr, sp, nil, nil, linkfn.Dispatcher{})
	records, quit := ex.Extract(Options{Progress: sink})
	require.False(t, quit)
	require.Len(t, records, 3)

	close(sink)
	var last Progress
	for p := range sink {
		last = p
	}
	assert.Equal(t, Progress{Processed: 3, Total: 3}, last)
}

// TestExtractEmitsWarningWhenInitPathMisses checks the init-path fallback
// (spec §4.6 step 1 "fall back to the root and emit a 'parse' warning").
func TestExtractEmitsWarningWhenInitPathMisses(t *testing.T) {
	tr, err := htmlbuild.Build([]byte(`<div><span>x</span></div>`), htmlbuild.Options{})
	require.NoError(t, err)

	doc := map[string]any{
		"data-format": "html",
		"init-path": []any{
			map[string]any{"tag": "nope"},
		},
		"data": map[string]any{
			"iter": []any{
				map[string]any{
					"key-path": []any{
						map[string]any{"tag": "div", "all-children": true},
					},
					"value-defs": []any{},
				},
			},
		},
		"values": map[string]any{},
	}
	sp := compileSpec(t, doc)

	sink := &recordingSink{}
	ex := New(tr, sp, warn.NewRegistry(sink), nil, linkfn.Dispatcher{})
	_, quit := ex.Extract(Options{})
	assert.False(t, quit)
	require.NotEmpty(t, sink.got)
	assert.Equal(t, warn.CategoryParse, sink.got[0].Category)
}

type recordingSink struct{ got []warn.Warning }

func (r *recordingSink) Publish(w warn.Warning) { r.got = append(r.got, w) }
