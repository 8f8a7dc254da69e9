package export

import (
	"encoding/json"
	"io"
	"time"
)

// Report is the JSON form of one sort.
type Report struct {
	RunID       string   `json:"runId"`
	Backend     string   `json:"backend"`
	Model       string   `json:"model,omitempty"`
	Instruction string   `json:"instruction"`
	Items       []string `json:"items"`
	Comparisons int64    `json:"comparisons"`
	OracleCalls int64    `json:"oracleCalls"`
	MemoHits    int64    `json:"memoHits,omitempty"`
	ElapsedMs   int64    `json:"elapsedMs"`
	ExportedAt  string   `json:"exportedAt"`
}

// Stamp sets ElapsedMs and ExportedAt.
func (r *Report) Stamp(elapsed time.Duration, now time.Time) {
	r.ElapsedMs = elapsed.Milliseconds()
	r.ExportedAt = now.UTC().Format(time.RFC3339)
}

// WriteJSON writes r as indented JSON. A nil item list is written as [].
func WriteJSON(w io.Writer, r Report) error {
	if r.Items == nil {
		r.Items = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
