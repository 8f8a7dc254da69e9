package sorter

import "sync"

type pairKey struct {
	first, second string
}

type memo struct {
	mu      sync.Mutex
	answers map[pairKey]bool
}

func newMemo() *memo {
	return &memo{answers: make(map[pairKey]bool)}
}

func (m *memo) get(first, second string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.answers[pairKey{first, second}]
	return v, ok
}

func (m *memo) put(first, second string, result bool) {
	m.mu.Lock()
	m.answers[pairKey{first, second}] = result
	m.mu.Unlock()
}
