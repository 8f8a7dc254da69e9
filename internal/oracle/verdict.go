package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Verdict is the structured output every backend asks the model for.
type Verdict struct {
	Result bool `json:"result"`
}

// verdictSchema is the JSON schema of Verdict used for structured output.
func verdictSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"result": map[string]any{
				"type":        "boolean",
				"description": "true if the first value comes before or at the same position as the second value",
			},
		},
		"required":             []string{"result"},
		"additionalProperties": false,
	}
}

// ParseVerdict decodes a model reply into a boolean. The reply must be a JSON
// object with exactly one boolean field named "result" and nothing after it;
// markdown code fences around it are tolerated, near-boolean text is not.
func ParseVerdict(raw string) (bool, error) {
	text := stripFence(strings.TrimSpace(raw))
	if text == "" {
		return false, errors.New("empty reply")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return false, errors.New("reply is not a JSON object")
	}

	var result *bool
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return false, fmt.Errorf("reply is not a JSON object: %w", err)
		}
		if key, _ := tok.(string); key != "result" {
			return false, fmt.Errorf("verdict has unexpected field %v", tok)
		}
		if result != nil {
			return false, errors.New(`verdict repeats the "result" field`)
		}
		val, err := dec.Token()
		if err != nil {
			return false, fmt.Errorf("reply is not a JSON object: %w", err)
		}
		b, ok := val.(bool)
		if !ok {
			return false, fmt.Errorf("result is not a boolean: %v", val)
		}
		result = &b
	}
	if _, err := dec.Token(); err != nil {
		return false, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	if result == nil {
		return false, errors.New(`verdict has no "result" field`)
	}
	if _, err := dec.Token(); err != io.EOF {
		return false, errors.New("trailing data after verdict")
	}
	return *result, nil
}

// stripFence removes a surrounding ```json ... ``` block if present.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
