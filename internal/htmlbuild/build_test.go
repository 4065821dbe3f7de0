package htmlbuild

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibar/dtxtract/internal/tree"
)

func TestBuildTagAttrText(t *testing.T) {
	tr, err := Build([]byte(`<ul><li class="a">x</li><li class="b">y</li></ul>`), Options{})
	require.NoError(t, err)

	root := tr.Node(tr.Root())
	require.Len(t, root.Children(), 1)
	ul := tr.Node(root.Children()[0])
	assert.Equal(t, "ul", ul.Element.Tag)
	require.Len(t, ul.Children(), 2)

	li0 := tr.Node(ul.Children()[0])
	assert.Equal(t, "li", li0.Element.Tag)
	v, ok := li0.Element.Attrs.Get("class")
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, "x", li0.Element.Text)

	li1 := tr.Node(ul.Children()[1])
	assert.Equal(t, "y", li1.Element.Text)
}

func TestBuildTailAfterClose(t *testing.T) {
	tr, err := Build([]byte(`<p><b>bold</b> tail text</p>`), Options{})
	require.NoError(t, err)

	p := tr.Node(tr.Node(tr.Root()).Children()[0])
	b := tr.Node(p.Children()[0])
	assert.Equal(t, "bold", b.Element.Text)
	assert.Equal(t, " tail text", b.Element.Tail)
}

func TestBuildVoidElementIsSelfClosing(t *testing.T) {
	tr, err := Build([]byte(`<div>a<br>b</div>`), Options{})
	require.NoError(t, err)

	div := tr.Node(tr.Node(tr.Root()).Children()[0])
	require.Len(t, div.Children(), 1)
	br := tr.Node(div.Children()[0])
	assert.Equal(t, "br", br.Element.Tag)
	assert.Equal(t, "a", div.Element.Text)
	assert.Equal(t, "b", br.Element.Tail)
}

func TestAutoClosePrescanPromotesUnclosedTags(t *testing.T) {
	// "item" is never closed anywhere in the document, so the pre-scan
	// should treat every <item> as self-closing.
	tr, err := Build([]byte(`<list><item>a<item>b<item>c</list>`), Options{})
	require.NoError(t, err)

	list := tr.Node(tr.Node(tr.Root()).Children()[0])
	require.Len(t, list.Children(), 3)
	for _, c := range list.Children() {
		assert.Equal(t, "item", tr.Node(c).Element.Tag)
	}
}

func TestAutoCloseSeedIsOnlyExtended(t *testing.T) {
	toks := tokenize(`<a>x</a><b>y`)
	s := autoCloseSet(toks, []string{"a"})
	assert.True(t, s.Has("a"), "seed member must survive even though <a> is closed")
	assert.True(t, s.Has("b"), "unclosed tag must be promoted")
}

func TestRecoveryClosesUnclosedBody(t *testing.T) {
	tr, err := Build([]byte(`<html><body><p>hi`), Options{})
	require.NoError(t, err)

	htmlNode := tr.Node(tr.Node(tr.Root()).Children()[0])
	assert.Equal(t, "html", htmlNode.Element.Tag)
	body := tr.Node(htmlNode.Children()[0])
	assert.Equal(t, "body", body.Element.Tag)
	require.Len(t, body.Children(), 1)
}

func TestMismatchedCloseRecursivelyClosesCurrent(t *testing.T) {
	// </div> arrives while <span> is still open; span must be closed
	// first, tolerating the missing </span>. A later, properly closed
	// <span> keeps the auto-close pre-scan from treating span as
	// self-closing.
	tr, err := Build([]byte(`<div><span>x</div>y<span>z</span>`), Options{})
	require.NoError(t, err)

	div := tr.Node(tr.Node(tr.Root()).Children()[0])
	require.Len(t, div.Children(), 1)
	span := tr.Node(div.Children()[0])
	assert.Equal(t, "x", span.Element.Text)
	assert.Equal(t, "y", div.Element.Tail)
}

func TestEntityDecoding(t *testing.T) {
	tr, err := Build([]byte(`<p>Tom &amp; Jerry &#65; &#x42;</p>`), Options{})
	require.NoError(t, err)
	p := tr.Node(tr.Node(tr.Root()).Children()[0])
	assert.Equal(t, "Tom & Jerry A B", p.Element.Text)
}

func TestTextReplaceRunsBeforeTokenizing(t *testing.T) {
	opts := Options{
		TextReplace: []TextReplace{{Pattern: regexp.MustCompile(`FOO`), Replacement: "bar"}},
	}
	tr, err := Build([]byte(`<p>FOO</p>`), opts)
	require.NoError(t, err)
	assert.Equal(t, "bar", tr.Node(tr.Node(tr.Root()).Children()[0]).Element.Text)
}

func TestAttrsClassIdPromotedFirst(t *testing.T) {
	attrs := parseAttrs(` href="x" class="c" id="i"`)
	assert.Equal(t, []string{"class", "id", "href"}, attrs.Names())
}

func TestElementKindMarked(t *testing.T) {
	tr, err := Build([]byte(`<a></a>`), Options{})
	require.NoError(t, err)
	assert.Equal(t, tree.KindElement, tr.Kind())
}
