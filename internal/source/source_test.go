package source

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":       FormatLines,
		"lines":  FormatLines,
		" JSON ": FormatJSON,
		"yaml":   FormatYAML,
		"code":   FormatCode,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("csv")
	assert.ErrorContains(t, err, "unknown format")
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"":                FormatLines,
		"-":               FormatLines,
		"items.txt":       FormatLines,
		"README":          FormatLines,
		"data/items.json": FormatJSON,
		"items.YML":       FormatYAML,
		"items.yaml":      FormatYAML,
		"main.go":         FormatCode,
		"lib.rs":          FormatCode,
		"app.tsx":         FormatCode,
		"tool.py":         FormatCode,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}

func TestRead_Lines(t *testing.T) {
	in := "banana\r\n\n  \napple pie\ncherry\n"
	got, err := Read(context.Background(), strings.NewReader(in), FormatLines, "-")
	require.NoError(t, err)
	assert.Equal(t, []string{"banana", "apple pie", "cherry"}, got)

	got, err = Read(context.Background(), strings.NewReader(""), FormatLines, "-")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead_JSON(t *testing.T) {
	in := `["plain", 42, {"b": 1, "a": [true, null]}, "with \"quotes\""]`
	got, err := Read(context.Background(), strings.NewReader(in), FormatJSON, "items.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "42", `{"b":1,"a":[true,null]}`, `with "quotes"`}, got)

	_, err = Read(context.Background(), strings.NewReader(`{"not": "an array"}`), FormatJSON, "items.json")
	assert.ErrorContains(t, err, "json array")
}

func TestRead_YAML(t *testing.T) {
	in := `
- a plain string
- 7
- "quoted"
- name: widget
  size: 3
`
	got, err := Read(context.Background(), strings.NewReader(in), FormatYAML, "items.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"a plain string", "7", "quoted", `{"name":"widget","size":3}`}, got)

	_, err = Read(context.Background(), strings.NewReader("key: value\n"), FormatYAML, "items.yaml")
	assert.ErrorContains(t, err, "sequence")

	got, err = Read(context.Background(), strings.NewReader(""), FormatYAML, "items.yaml")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead_Code(t *testing.T) {
	src := "package demo\n\nfunc B() {}\n\nfunc A() {}\n"
	got, err := Read(context.Background(), strings.NewReader(src), FormatCode, "demo.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"func B() {}", "func A() {}"}, got)

	_, err = Read(context.Background(), strings.NewReader(src), FormatCode, "demo.txt")
	assert.ErrorContains(t, err, "no grammar")
}

func TestRead_UnknownFormat(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader("x"), Format("csv"), "x.csv")
	assert.Error(t, err)
}
