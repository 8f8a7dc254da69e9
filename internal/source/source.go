// Package source reads the items to be sorted from text, JSON, YAML or
// source code.
package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies how an input is split into items.
type Format string

const (
	FormatLines Format = "lines"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCode  Format = "code"
)

// ParseFormat validates a format name. The empty string means lines.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatLines, nil
	case FormatLines, FormatJSON, FormatYAML, FormatCode:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want lines, json, yaml or code)", s)
	}
}

// FormatFromPath infers the format from a file extension. Stdin ("-" or
// empty) and unknown extensions read as lines.
func FormatFromPath(path string) Format {
	if path == "" || path == "-" {
		return FormatLines
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	if _, ok := LanguageFromPath(path); ok {
		return FormatCode
	}
	return FormatLines
}

// Read splits r into items according to format. name is only used to pick
// a grammar for FormatCode and in error messages.
func Read(ctx context.Context, r io.Reader, format Format, name string) ([]string, error) {
	switch format {
	case FormatLines, "":
		return readLines(r)
	case FormatJSON:
		return readJSON(r)
	case FormatYAML:
		return readYAML(r)
	case FormatCode:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		lang, ok := LanguageFromPath(name)
		if !ok {
			return nil, fmt.Errorf("no grammar for %s", name)
		}
		decls, err := NewCodeParser().Declarations(ctx, name, data, lang)
		if err != nil {
			return nil, err
		}
		items := make([]string, len(decls))
		for i, d := range decls {
			items[i] = d.String()
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func readLines(r io.Reader) ([]string, error) {
	var items []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return items, nil
}

func readJSON(r io.Reader) ([]string, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json array: %w", err)
	}
	items := make([]string, len(raw))
	for i, m := range raw {
		var s string
		if err := json.Unmarshal(m, &s); err == nil {
			items[i] = s
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, m); err != nil {
			return nil, fmt.Errorf("json item %d: %w", i, err)
		}
		items[i] = buf.String()
	}
	return items, nil
}

func readYAML(r io.Reader) ([]string, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	seq := &doc
	if seq.Kind == yaml.DocumentNode && len(seq.Content) == 1 {
		seq = seq.Content[0]
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("decode yaml: top level must be a sequence")
	}

	items := make([]string, len(seq.Content))
	for i, n := range seq.Content {
		if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
			items[i] = n.Value
			continue
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("yaml item %d: %w", i, err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("yaml item %d: %w", i, err)
		}
		items[i] = string(b)
	}
	return items, nil
}
