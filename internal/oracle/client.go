package oracle

import (
	"context"
	"fmt"

	"github.com/dusk-indust/judgesort/internal/sorter"
)

// Compile-time interface check.
var _ sorter.Comparator[string] = (*Client[string])(nil)

// Client compares items of type T by rendering them to text and asking a
// Judge. It satisfies sorter.Comparator[T].
type Client[T any] struct {
	judge  Judge
	model  string
	render func(T) string
}

// ClientOption configures a Client.
type ClientOption[T any] func(*Client[T])

// WithModel sets the model identifier sent with every request.
func WithModel[T any](model string) ClientOption[T] {
	return func(c *Client[T]) {
		c.model = model
	}
}

// WithRenderer replaces the default fmt.Sprint rendering of items.
func WithRenderer[T any](render func(T) string) ClientOption[T] {
	return func(c *Client[T]) {
		c.render = render
	}
}

// NewClient creates a Client backed by judge.
func NewClient[T any](judge Judge, opts ...ClientOption[T]) *Client[T] {
	c := &Client[T]{
		judge:  judge,
		render: func(v T) string { return fmt.Sprint(v) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client[T]) Model() string {
	return c.model
}

// Compare reports whether first should be placed at or before second under
// instruction. An empty instruction falls back to DefaultInstruction. The
// judge's answer is returned as is.
func (c *Client[T]) Compare(ctx context.Context, first, second T, instruction string) (bool, error) {
	req := NewRequest(c.model, c.render(first), c.render(second), instruction)
	return c.judge.Judge(ctx, req)
}

// Render returns the text an item is sent to the judge as.
func (c *Client[T]) Render(v T) string {
	return c.render(v)
}
