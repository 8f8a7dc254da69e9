package source

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readFixture reads a test fixture relative to the project root.
func readFixture(t *testing.T, relPath string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../" + relPath)
	require.NoError(t, err, "reading fixture %s", relPath)
	return data
}

// names returns "kind:name" for each declaration.
func names(decls []Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = string(d.Kind) + ":" + d.Name
	}
	return out
}

func assertLineRanges(t *testing.T, decls []Declaration) {
	t.Helper()
	for _, d := range decls {
		assert.Greater(t, d.StartLine, 0, d.Name)
		assert.LessOrEqual(t, d.StartLine, d.EndLine, d.Name)
		assert.NotEmpty(t, d.Text, d.Name)
	}
}

func TestCodeParser_SupportedLanguages(t *testing.T) {
	assert.ElementsMatch(t,
		[]Language{LangGo, LangTypeScript, LangPython, LangRust},
		NewCodeParser().SupportedLanguages())
}

func TestLanguageFromPath(t *testing.T) {
	lang, ok := LanguageFromPath("pkg/thing.GO")
	assert.True(t, ok)
	assert.Equal(t, LangGo, lang)

	_, ok = LanguageFromPath("notes.md")
	assert.False(t, ok)
}

func TestCodeParser_Go(t *testing.T) {
	src := readFixture(t, "testdata/fixtures/code/shapes.go")
	decls, err := NewCodeParser().Declarations(context.Background(), "shapes.go", src, LangGo)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"interface:Shape",
		"type:Circle",
		"method:Area",
		"type:Square",
		"type:Meters",
		"function:Largest",
	}, names(decls))
	assertLineRanges(t, decls)

	assert.Contains(t, decls[0].Text, "type Shape interface")
	assert.Equal(t, "type Square struct{ side float64 }", decls[3].Text, "grouped spec gets its keyword back")
	assert.Equal(t, "type Meters float64", decls[4].Text)
	assert.Equal(t, decls[5].Text, decls[5].String())
}

func TestCodeParser_Python(t *testing.T) {
	src := []byte(`import functools


class Queue:
    def push(self, item):
        pass


@functools.cache
def weight(item):
    def inner():
        return 1
    return inner()


def _helper():
    return None
`)
	decls, err := NewCodeParser().Declarations(context.Background(), "queue.py", src, LangPython)
	require.NoError(t, err)

	assert.Equal(t, []string{"class:Queue", "function:weight", "function:_helper"}, names(decls))
	assertLineRanges(t, decls)
	assert.Contains(t, decls[1].Text, "@functools.cache", "decorator kept")
	assert.Equal(t, 9, decls[1].StartLine)
}

func TestCodeParser_Rust(t *testing.T) {
	src := []byte(`use std::fmt;

pub struct Point { x: i32, y: i32 }

enum Axis { X, Y }

pub trait Norm { fn norm(&self) -> i32; }

impl Norm for Point {
    fn norm(&self) -> i32 { self.x.abs() + self.y.abs() }
}

impl Point {
    pub fn origin() -> Self { Point { x: 0, y: 0 } }
}

fn main() {}
`)
	decls, err := NewCodeParser().Declarations(context.Background(), "point.rs", src, LangRust)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"type:Point",
		"enum:Axis",
		"interface:Norm",
		"impl:Norm for Point",
		"impl:Point",
		"function:main",
	}, names(decls))
	assertLineRanges(t, decls)
}

func TestCodeParser_TypeScript(t *testing.T) {
	src := []byte(`import { x } from "./x";

export interface Named { name: string }

export const greet = (n: Named) => "hi " + n.name;

const limit = 3;

class Store {}

export function load(): Store { return new Store(); }

type Id = string;

enum Color { Red, Green }
`)
	decls, err := NewCodeParser().Declarations(context.Background(), "app.ts", src, LangTypeScript)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"interface:Named",
		"function:greet",
		"class:Store",
		"function:load",
		"type:Id",
		"enum:Color",
	}, names(decls))
	assertLineRanges(t, decls)
	assert.Contains(t, decls[1].Text, "export const greet")
}

func TestCodeParser_Errors(t *testing.T) {
	p := NewCodeParser()
	_, err := p.Declarations(context.Background(), "x.rb", []byte("def x; end"), Language("ruby"))
	assert.ErrorContains(t, err, "unsupported language")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Declarations(ctx, "x.go", []byte("package x"), LangGo)
	assert.ErrorIs(t, err, context.Canceled)
}
