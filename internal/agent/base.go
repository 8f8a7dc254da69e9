package agent

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dusk-indust/judgesort/internal/a2a"
	"go.uber.org/zap"
)

// Compile-time interface checks.
var (
	_ Agent       = (*BaseAgent)(nil)
	_ a2a.Handler = (*BaseAgent)(nil)
)

// ProcessFunc does an agent's work for one task. It receives the task in the
// working state and returns the artifacts of the completed task.
type ProcessFunc func(ctx context.Context, task *a2a.Task, msg a2a.Message) ([]a2a.Artifact, error)

// FailureFunc renders a processing error as the status message of a failed
// task.
type FailureFunc func(err error) a2a.Message

// BaseAgent runs the task lifecycle (submitted, working, then completed or
// failed) around a ProcessFunc and serves it over A2A.
type BaseAgent struct {
	server      *a2a.Server
	store       *a2a.TaskStore
	card        a2a.AgentCard
	process     ProcessFunc
	failure     FailureFunc
	taskTimeout time.Duration
	logger      *zap.Logger
}

// Option configures a BaseAgent.
type Option func(*BaseAgent)

// WithLogger sets the agent logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *BaseAgent) { b.logger = logger }
}

// WithTaskTimeout bounds how long a single task may run. Zero means no
// bound beyond the request context.
func WithTaskTimeout(d time.Duration) Option {
	return func(b *BaseAgent) { b.taskTimeout = d }
}

// WithTaskCapacity sets how many tasks the agent remembers for tasks/get.
func WithTaskCapacity(n int) Option {
	return func(b *BaseAgent) { b.store = a2a.NewTaskStore(n) }
}

// WithFailureFunc replaces the default text rendering of failures.
func WithFailureFunc(fn FailureFunc) Option {
	return func(b *BaseAgent) { b.failure = fn }
}

// NewBaseAgent creates a BaseAgent with the given card and process function.
func NewBaseAgent(card a2a.AgentCard, process ProcessFunc, opts ...Option) *BaseAgent {
	b := &BaseAgent{
		store:   a2a.NewTaskStore(0),
		card:    card,
		process: process,
		failure: textFailure,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.server = a2a.NewServer(card, b, a2a.WithServerLogger(b.logger))
	return b
}

func textFailure(err error) a2a.Message {
	return a2a.Message{Role: a2a.RoleAgent, Parts: []a2a.Part{a2a.TextPart(err.Error())}}
}

// Card returns the agent's Agent Card.
func (b *BaseAgent) Card() a2a.AgentCard {
	return b.card
}

// Server returns the underlying A2A server, for mounting its handler.
func (b *BaseAgent) Server() *a2a.Server {
	return b.server
}

// HandleTask runs process for task and returns the terminal task. Processing
// failures produce a failed task, not an error; errors are reserved for
// store problems.
func (b *BaseAgent) HandleTask(ctx context.Context, task a2a.Task, msg a2a.Message) (*a2a.Task, error) {
	task.Status = a2a.TaskStatus{State: a2a.TaskStateSubmitted, Timestamp: time.Now()}
	task.History = append(task.History, msg)
	if err := b.store.Create(task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	working, err := b.store.Update(task.ID, func(t *a2a.Task) {
		t.Status = a2a.TaskStatus{State: a2a.TaskStateWorking, Timestamp: time.Now()}
	})
	if err != nil {
		return nil, fmt.Errorf("update task to working: %w", err)
	}

	if b.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	artifacts, procErr := b.process(ctx, working, msg)
	if procErr != nil {
		b.logger.Warn("task failed",
			zap.String("agent", b.card.Name),
			zap.String("task", task.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(procErr))
		status := b.failure(procErr)
		status.TaskID = task.ID
		return b.store.Update(task.ID, func(t *a2a.Task) {
			if t.Status.State.IsTerminal() {
				return
			}
			t.Status = a2a.TaskStatus{State: a2a.TaskStateFailed, Timestamp: time.Now(), Message: &status}
		})
	}

	b.logger.Debug("task completed",
		zap.String("agent", b.card.Name),
		zap.String("task", task.ID),
		zap.Duration("elapsed", time.Since(start)))
	return b.store.Update(task.ID, func(t *a2a.Task) {
		if t.Status.State.IsTerminal() {
			return
		}
		t.Status = a2a.TaskStatus{State: a2a.TaskStateCompleted, Timestamp: time.Now()}
		t.Artifacts = artifacts
	})
}

// Start launches the agent's HTTP server on the given address.
func (b *BaseAgent) Start(ctx context.Context, addr string) (net.Addr, error) {
	return b.server.Start(ctx, addr)
}

// Stop gracefully shuts down the agent.
func (b *BaseAgent) Stop(ctx context.Context) error {
	return b.server.Stop(ctx)
}

// --- a2a.Handler implementation ---

// HandleSendMessage creates a task from the incoming message and processes
// it to completion before replying.
func (b *BaseAgent) HandleSendMessage(ctx context.Context, req a2a.SendMessageRequest) (*a2a.Task, error) {
	task := a2a.Task{
		ID:        a2a.NewTaskID(),
		ContextID: req.Message.ContextID,
	}
	return b.HandleTask(ctx, task, req.Message)
}

// HandleGetTask retrieves a task by ID from the store.
func (b *BaseAgent) HandleGetTask(_ context.Context, req a2a.GetTaskRequest) (*a2a.Task, error) {
	return b.store.Get(req.ID)
}

// HandleCancelTask cancels a task that has not reached a terminal state.
func (b *BaseAgent) HandleCancelTask(_ context.Context, req a2a.CancelTaskRequest) (*a2a.Task, error) {
	cur, err := b.store.Get(req.ID)
	if err != nil {
		return nil, err
	}
	if cur.Status.State.IsTerminal() {
		return nil, fmt.Errorf("%w: %q is %s", a2a.ErrTaskNotCancelable, req.ID, cur.Status.State)
	}
	return b.store.Update(req.ID, func(t *a2a.Task) {
		if !t.Status.State.IsTerminal() {
			t.Status = a2a.TaskStatus{State: a2a.TaskStateCanceled, Timestamp: time.Now()}
		}
	})
}
