package jsonbuild

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibar/dtxtract/internal/tree"
)

func TestBuildPreservesDeclarationOrder(t *testing.T) {
	doc := []byte(`{"z": 1, "a": 2, "m": 3}`)
	tr, err := Build(doc, nil)
	require.NoError(t, err)

	root := tr.Node(tr.Root())
	require.Equal(t, tree.KeyedObject, root.Keyed.Kind)

	var keys []string
	for _, c := range root.Children() {
		keys = append(keys, tr.Node(c).Keyed.Key.(string))
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestBuildListAndScalars(t *testing.T) {
	doc := []byte(`{"items":[{"id":1,"v":"a"},{"id":2,"v":"b"}]}`)
	tr, err := Build(doc, nil)
	require.NoError(t, err)

	root := tr.Node(tr.Root())
	items := tr.Node(root.Children()[0])
	require.Equal(t, "items", items.Keyed.Key)
	require.Equal(t, tree.KeyedList, items.Keyed.Kind)
	require.Len(t, items.Children(), 2)

	first := tr.Node(items.Children()[0])
	assert.Equal(t, 0, first.Keyed.Key)
	idNode := tr.Node(first.Children()[0])
	assert.Equal(t, "id", idNode.Keyed.Key)
	assert.Equal(t, tree.KeyedScalar, idNode.Keyed.Kind)
}

func TestSortDirectiveStablySortsByKeys(t *testing.T) {
	doc := []byte(`{"items":[{"id":3},{"id":1},{"id":2},{"id":1}]}`)
	tr, err := Build(doc, []SortDirective{
		{Path: []string{"items"}, Keys: []string{"id"}},
	})
	require.NoError(t, err)

	root := tr.Node(tr.Root())
	items := tr.Node(root.Children()[0])

	var ids []string
	for _, c := range items.Children() {
		idNode := tr.Node(tr.Node(c).Children()[0])
		ids = append(ids, idNode.Keyed.Value.(json.Number).String())
	}
	assert.Equal(t, []string{"1", "1", "2", "3"}, ids)
}

func TestSortDirectiveIgnoresNonListTarget(t *testing.T) {
	doc := []byte(`{"items":{"id":1}}`)
	tr, err := Build(doc, []SortDirective{
		{Path: []string{"items"}, Keys: []string{"id"}},
	})
	require.NoError(t, err)
	assert.Equal(t, tree.KeyedObject, tr.Node(tr.Node(tr.Root()).Children()[0]).Keyed.Kind)
}
