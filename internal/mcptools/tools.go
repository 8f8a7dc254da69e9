package mcptools

import "github.com/dusk-indust/judgesort/internal/ledger"

// --- MCP Tool Input Types ---
// The MCP Go SDK generates JSON schemas from these struct tags.

// SortItemsInput is the input for the sort_items MCP tool.
type SortItemsInput struct {
	Items       []string `json:"items" jsonschema:"the values to sort, each as text"`
	Instruction string   `json:"instruction,omitempty" jsonschema:"natural-language ordering criterion (default: ascending by meaning and content)"`
	Parallelism int      `json:"parallelism,omitempty" jsonschema:"maximum concurrent judge calls (default: server setting)"`
}

// SortItemsOutput is the result of the sort_items MCP tool.
type SortItemsOutput struct {
	Items       []string `json:"items"`
	RunID       string   `json:"runId"`
	Comparisons int64    `json:"comparisons"`
	OracleCalls int64    `json:"oracleCalls"`
}

// CompareItemsInput is the input for the compare_items MCP tool.
type CompareItemsInput struct {
	First       string `json:"first" jsonschema:"the value proposed to come first"`
	Second      string `json:"second" jsonschema:"the value proposed to come second"`
	Instruction string `json:"instruction,omitempty" jsonschema:"natural-language ordering criterion"`
}

// CompareItemsOutput is the result of the compare_items MCP tool.
type CompareItemsOutput struct {
	FirstPrecedes bool `json:"firstPrecedes"`
}

// FindContradictionsInput is the input for the find_contradictions MCP tool.
type FindContradictionsInput struct {
	RunIDs []string `json:"runIds,omitempty" jsonschema:"runs to pool (default: every recorded run)"`
}

// FindContradictionsOutput is the result of the find_contradictions MCP tool.
type FindContradictionsOutput struct {
	Contradictions []ledger.Contradiction `json:"contradictions"`
}
