// Package oracle asks an external judgment service which of two items should
// come first. Every backend answers the same question with a single boolean:
// "does the first value belong at or before the second value".
package oracle

import (
	"context"
	"fmt"
)

// SystemInstruction frames the remote model as the comparison function of a
// sorting algorithm. It is sent unchanged with every request.
const SystemInstruction = "You are a comparison function for a sorting algorithm. " +
	"Your goal is to enable sorting of any objects that have a string representation. " +
	"You will be given two values and must determine their relative order. " +
	"You must return a boolean: True or False."

// DefaultInstruction is used when a comparison carries no instruction of its
// own. The sort engine has a separate default; see sorter.DefaultInstruction.
const DefaultInstruction = "Evaluate each value based on its meaning and content, then determine the sorting order. " +
	"Return True if the first value should come before or at the same position as the second value. " +
	"Return False if the first value should come after the second value."

// Default model identifiers per backend.
const (
	DefaultOpenRouterModel = "openai/gpt-5.2"
	DefaultGeminiModel     = "gemini-2.5-flash"
)

// Request is one judgment request as it leaves the process.
type Request struct {
	Model             string `json:"model"`
	SystemInstruction string `json:"systemInstruction"`
	UserMessage       string `json:"userMessage"`
}

// NewRequest renders the user message for a comparison of first against
// second. An empty instruction is replaced by DefaultInstruction.
func NewRequest(model, first, second, instruction string) Request {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return Request{
		Model:             model,
		SystemInstruction: SystemInstruction,
		UserMessage:       fmt.Sprintf("First value: %s\nSecond value: %s\n\n%s", first, second, instruction),
	}
}

// Judge is a judgment service backend. Implementations must be safe for
// concurrent use; the sort engine may issue comparisons from several
// goroutines when parallelism is enabled.
type Judge interface {
	// Judge returns true when the first value of req should be placed at or
	// before the second value.
	Judge(ctx context.Context, req Request) (bool, error)
}

// JudgeFunc adapts a plain function to the Judge interface.
type JudgeFunc func(ctx context.Context, req Request) (bool, error)

// Judge calls f(ctx, req).
func (f JudgeFunc) Judge(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}
