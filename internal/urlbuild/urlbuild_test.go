package urlbuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibar/dtxtract/internal/compile"
	"github.com/mibar/dtxtract/internal/urlfn"
)

func TestCompilePiecesMixesLiteralsAndCalls(t *testing.T) {
	raw := []any{
		"https://example.com/search?q=",
		map[string]any{"func": float64(urlfn.FuncVariable), "args": []any{"query"}},
		"&page=",
		map[string]any{"func": float64(urlfn.FuncCountRange), "args": []any{1, 0, ","}},
	}
	pieces := CompilePieces(raw)
	require.Len(t, pieces, 4)
	assert.Equal(t, "https://example.com/search?q=", pieces[0].Literal)
	assert.True(t, pieces[1].IsFunc)
	assert.Equal(t, urlfn.FuncVariable, pieces[1].FuncID)
	assert.Equal(t, []any{"query"}, pieces[1].Args)
}

func TestCompilePiecesDropsUnrecognizedShape(t *testing.T) {
	pieces := CompilePieces([]any{42, map[string]any{"nope": true}})
	assert.Empty(t, pieces)
}

func TestBuildRendersLiteralsAndVariables(t *testing.T) {
	cfg := compile.URLConfig{
		Pieces: []any{
			"https://example.com/?channel=",
			map[string]any{"func": float64(urlfn.FuncVariable), "args": []any{"channel"}},
		},
		Header: map[string]string{"X-Api-Key": "secret"},
	}
	disp := NewDispatcher(cfg, urlfn.Vars{"channel": "bbc1"}, time.Now(), nil)
	req, err := Build(cfg, disp)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/?channel=bbc1", req.URL)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "secret", req.Headers["X-Api-Key"])
}

func TestBuildSwitchesToPostWhenDataPresent(t *testing.T) {
	cfg := compile.URLConfig{
		Pieces: []any{"https://example.com/submit"},
		Data:   map[string]any{"channel": "bbc1"},
	}
	disp := NewDispatcher(cfg, nil, time.Now(), nil)
	req, err := Build(cfg, disp)
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
}

func TestBuildUsesDatePieceAnchor(t *testing.T) {
	cfg := compile.URLConfig{
		Pieces: []any{
			map[string]any{"func": float64(urlfn.FuncDatePiece), "args": []any{0, int(urlfn.DateAsOffset), "2006-01-02"}},
		},
	}
	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	disp := NewDispatcher(cfg, nil, anchor, nil)
	req, err := Build(cfg, disp)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", req.URL)
}

func TestBuildPropagatesExtensionError(t *testing.T) {
	cfg := compile.URLConfig{
		Pieces: []any{map[string]any{"func": float64(urlfn.ExtensionBase), "args": []any{}}},
	}
	disp := NewDispatcher(cfg, nil, time.Now(), nil)
	_, err := Build(cfg, disp)
	assert.Error(t, err)
}
