package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Chains performs a BFS over a run's outcomes from item index in the given
// direction, up to maxDepth hops. It returns one Chain per reachable item,
// each holding the first path found.
func Chains(outcomes []Outcome, index int, dir Direction, maxDepth int) []Chain {
	if maxDepth <= 0 {
		return nil
	}
	pairs := make([][2]int, len(outcomes))
	for i, o := range outcomes {
		pairs[i] = [2]int{o.Winner, o.Loser}
	}
	adj := adjacency(pairs, dir)

	type bfsEntry struct {
		id   int
		path []int
	}
	visited := map[int]bool{index: true}
	queue := []bfsEntry{{id: index, path: []int{index}}}
	var chains []Chain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var next []bfsEntry
		for _, entry := range queue {
			for _, nb := range adj[entry.id] {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				path := make([]int, len(entry.path), len(entry.path)+1)
				copy(path, entry.path)
				path = append(path, nb)
				chains = append(chains, Chain{Items: path, Depth: len(path) - 1})
				next = append(next, bfsEntry{id: nb, path: path})
			}
		}
		queue = next
	}
	return chains
}

// GetChains loads a run's outcomes from store and calls Chains.
func GetChains(ctx context.Context, store Store, runID string, index int, dir Direction, maxDepth int) ([]Chain, error) {
	outcomes, err := store.Outcomes(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: chains: %w", err)
	}
	return Chains(outcomes, index, dir, maxDepth), nil
}

// Contradictions finds every strongly connected component of more than one
// text in a graph of (winner, loser) answers. Within one merge sort run every
// answer agrees with the output order, so cycles only appear when answers
// from several runs over the same texts are pooled. Each component is
// reported with a shortest witness cycle through its smallest member.
func Contradictions(answers [][2]string) []Contradiction {
	adj := adjacency(answers, DirectionBelow)

	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)

	var out []Contradiction
	for _, comp := range stronglyConnected(nodes, adj) {
		if len(comp) < 2 {
			continue
		}
		slices.Sort(comp)
		out = append(out, Contradiction{Items: comp, Cycle: witnessCycle(comp, adj)})
	}
	slices.SortFunc(out, func(a, b Contradiction) int { return cmp.Compare(a.Items[0], b.Items[0]) })
	return out
}

// FindContradictions pools the answers of the given runs by item text and
// calls Contradictions. With no run IDs every run in the store is pooled.
func FindContradictions(ctx context.Context, store Store, runIDs ...string) ([]Contradiction, error) {
	if len(runIDs) == 0 {
		runs, err := store.ListRuns(ctx)
		if err != nil {
			return nil, fmt.Errorf("ledger: contradictions: %w", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	var answers [][2]string
	for _, id := range runIDs {
		items, err := store.Items(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("ledger: contradictions: %w", err)
		}
		text := make(map[int]string, len(items))
		for _, it := range items {
			text[it.Index] = it.Text
		}
		outcomes, err := store.Outcomes(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("ledger: contradictions: %w", err)
		}
		for _, o := range outcomes {
			w, l := text[o.Winner], text[o.Loser]
			if w == l {
				continue
			}
			answers = append(answers, [2]string{w, l})
		}
	}
	return Contradictions(answers), nil
}

// adjacency builds deduplicated, sorted neighbour lists. Below follows
// winner -> loser; Above follows loser -> winner.
func adjacency[N cmp.Ordered](pairs [][2]N, dir Direction) map[N][]N {
	seen := make(map[[2]N]bool)
	adj := make(map[N][]N)
	for _, p := range pairs {
		from, to := p[0], p[1]
		if dir == DirectionAbove {
			from, to = to, from
		}
		if _, ok := adj[to]; !ok {
			adj[to] = nil
		}
		if _, ok := adj[from]; !ok {
			adj[from] = nil
		}
		if seen[[2]N{from, to}] {
			continue
		}
		seen[[2]N{from, to}] = true
		adj[from] = append(adj[from], to)
	}
	for n := range adj {
		slices.Sort(adj[n])
	}
	return adj
}

// stronglyConnected is Tarjan's algorithm.
func stronglyConnected[N cmp.Ordered](nodes []N, adj map[N][]N) [][]N {
	index := 0
	indexOf := make(map[N]int)
	low := make(map[N]int)
	onStack := make(map[N]bool)
	var stack []N
	var comps [][]N

	var visit func(v N)
	visit = func(v N) {
		indexOf[v] = index
		low[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, seen := indexOf[w]; !seen {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], indexOf[w])
			}
		}

		if low[v] == indexOf[v] {
			var comp []N
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for _, v := range nodes {
		if _, seen := indexOf[v]; !seen {
			visit(v)
		}
	}
	return comps
}

// witnessCycle returns the shortest cycle from comp[0] back to itself that
// stays inside comp.
func witnessCycle[N cmp.Ordered](comp []N, adj map[N][]N) []N {
	start := comp[0]
	inComp := make(map[N]bool, len(comp))
	for _, n := range comp {
		inComp[n] = true
	}

	parent := map[N]N{}
	visited := map[N]bool{}
	queue := []N{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if !inComp[w] {
				continue
			}
			if w == start {
				cycle := []N{start}
				for n := v; n != start; n = parent[n] {
					cycle = append(cycle, n)
				}
				cycle = append(cycle, start)
				// Built backwards from the closing edge; reverse the interior.
				slices.Reverse(cycle[1 : len(cycle)-1])
				return cycle
			}
			if visited[w] {
				continue
			}
			visited[w] = true
			parent[w] = v
			queue = append(queue, w)
		}
	}
	return nil
}
