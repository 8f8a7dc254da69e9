package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/judgesort/internal/ledger"
)

const labelWidth = 40

// GenerateMermaid produces a Mermaid graph TD diagram of the given runs'
// recorded answers. Items with the same text share a node; each arrow points
// from the item judged to come first. Arrows inside a contradiction are drawn
// red. With no run IDs every run in the store is drawn.
func GenerateMermaid(ctx context.Context, store ledger.Store, runIDs ...string) (string, error) {
	if len(runIDs) == 0 {
		runs, err := store.ListRuns(ctx)
		if err != nil {
			return "", fmt.Errorf("list runs: %w", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	contradictions, err := ledger.FindContradictions(ctx, store, runIDs...)
	if err != nil {
		return "", err
	}
	component := make(map[string]int)
	for i, c := range contradictions {
		for _, text := range c.Items {
			component[text] = i + 1
		}
	}

	// Build text → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	getID := func(text string) string {
		if id, ok := nodeIDs[text]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", len(nodeIDs))
		nodeIDs[text] = id
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", id, label(text)))
		return id
	}

	seen := make(map[[2]string]bool)
	var red []int
	link := 0
	for _, id := range runIDs {
		items, err := store.Items(ctx, id)
		if err != nil {
			return "", fmt.Errorf("get items: %w", err)
		}
		text := make(map[int]string, len(items))
		for _, it := range items {
			text[it.Index] = it.Text
			getID(it.Text)
		}

		outcomes, err := store.Outcomes(ctx, id)
		if err != nil {
			return "", fmt.Errorf("get outcomes: %w", err)
		}
		for _, o := range outcomes {
			edge := [2]string{text[o.Winner], text[o.Loser]}
			if edge[0] == edge[1] || seen[edge] {
				continue
			}
			seen[edge] = true
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(edge[0]), getID(edge[1])))
			if c := component[edge[0]]; c != 0 && c == component[edge[1]] {
				red = append(red, link)
			}
			link++
		}
	}

	for _, i := range red {
		sb.WriteString(fmt.Sprintf("  linkStyle %d stroke:#d33,stroke-width:2px\n", i))
	}
	return sb.String(), nil
}

// label clips text to one short line safe inside a quoted Mermaid label.
func label(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > labelWidth {
		text = string(r[:labelWidth-3]) + "..."
	}
	return strings.ReplaceAll(text, `"`, "#quot;")
}
