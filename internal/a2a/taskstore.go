package a2a

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// DefaultTaskCapacity bounds how many tasks a TaskStore retains.
const DefaultTaskCapacity = 10000

// NewTaskID returns a random UUID string.
func NewTaskID() string {
	return uuid.NewString()
}

// TaskStore is a concurrency-safe in-memory store for agent-side task
// tracking. When full, the oldest terminal task is evicted to make room;
// tasks still in flight are never evicted.
type TaskStore struct {
	mu       sync.RWMutex
	capacity int
	tasks    map[string]*Task
	order    []string // insertion order
}

// NewTaskStore returns a store holding at most capacity tasks. A capacity
// of zero or less selects DefaultTaskCapacity.
func NewTaskStore(capacity int) *TaskStore {
	if capacity <= 0 {
		capacity = DefaultTaskCapacity
	}
	return &TaskStore{
		capacity: capacity,
		tasks:    make(map[string]*Task),
	}
}

// Create stores a new task. It fails if the ID is taken or the store is
// full of unfinished tasks.
func (s *TaskStore) Create(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("a2a: task %q already exists", task.ID)
	}
	if len(s.tasks) >= s.capacity && !s.evictLocked() {
		return fmt.Errorf("a2a: task store full (%d tasks in flight)", len(s.tasks))
	}
	s.tasks[task.ID] = copyTask(&task)
	s.order = append(s.order, task.ID)
	return nil
}

// Get returns a copy of the task with the given ID.
func (s *TaskStore) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return copyTask(t), nil
}

// Update applies fn to the stored task under the write lock and returns a
// copy of the result.
func (s *TaskStore) Update(id string, fn func(*Task)) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	fn(t)
	return copyTask(t), nil
}

// Len returns the number of stored tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// evictLocked drops the oldest terminal task. It reports false when every
// stored task is still running.
func (s *TaskStore) evictLocked() bool {
	for i, id := range s.order {
		if s.tasks[id].Status.State.IsTerminal() {
			delete(s.tasks, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return true
		}
	}
	return false
}

// copyTask copies the slices a caller could mutate. Part data is treated as
// immutable once stored.
func copyTask(src *Task) *Task {
	dst := *src
	if src.Artifacts != nil {
		dst.Artifacts = make([]Artifact, len(src.Artifacts))
		for i, a := range src.Artifacts {
			a.Parts = append([]Part(nil), a.Parts...)
			dst.Artifacts[i] = a
		}
	}
	if src.History != nil {
		dst.History = make([]Message, len(src.History))
		for i, m := range src.History {
			m.Parts = append([]Part(nil), m.Parts...)
			dst.History[i] = m
		}
	}
	if src.Status.Message != nil {
		m := *src.Status.Message
		m.Parts = append([]Part(nil), m.Parts...)
		dst.Status.Message = &m
	}
	return &dst
}
