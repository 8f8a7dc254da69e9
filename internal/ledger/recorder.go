package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/judgesort/internal/sorter"
	"go.uber.org/zap"
)

// Compile-time assertion: *Recorder satisfies sorter.Observer.
var _ sorter.Observer = (*Recorder)(nil)

// Recorder writes sort runs into a Store. Write failures are logged and
// counted but never reach the sort.
type Recorder struct {
	store    Store
	logger   *zap.Logger
	now      func() time.Time
	failures atomic.Int64

	mu      sync.Mutex
	started map[string]Run
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:   store,
		logger:  logger,
		now:     time.Now,
		started: make(map[string]Run),
	}
}

// Failures returns how many ledger writes have failed.
func (r *Recorder) Failures() int64 {
	return r.failures.Load()
}

// RunStarted records the run and its items.
func (r *Recorder) RunStarted(ctx context.Context, info sorter.RunInfo) {
	run := Run{
		ID:          info.RunID,
		Instruction: info.Instruction,
		ItemCount:   len(info.Items),
		Status:      RunStatusRunning,
		StartedAt:   r.now(),
	}
	r.mu.Lock()
	r.started[run.ID] = run
	r.mu.Unlock()

	if err := r.store.AddRun(ctx, run); err != nil {
		r.fail("add run", run.ID, err)
		return
	}
	for _, it := range info.Items {
		if err := r.store.AddItem(ctx, ItemNode{RunID: run.ID, Index: it.Index, Text: it.Text}); err != nil {
			r.fail("add item", run.ID, err)
		}
	}
}

// Compared records a PRECEDES edge from the winner to the loser.
func (r *Recorder) Compared(ctx context.Context, c sorter.Comparison) {
	err := r.store.AddOutcome(ctx, Outcome{
		RunID:    c.RunID,
		Seq:      c.Seq,
		Winner:   c.Winner().Index,
		Loser:    c.Loser().Index,
		Depth:    c.Depth,
		Memoized: c.Memoized,
	})
	if err != nil {
		r.fail("add outcome", c.RunID, err)
	}
}

// RunFinished marks the run completed or failed.
func (r *Recorder) RunFinished(ctx context.Context, info sorter.RunInfo, runErr error) {
	r.mu.Lock()
	run, ok := r.started[info.RunID]
	delete(r.started, info.RunID)
	r.mu.Unlock()
	if !ok {
		run = Run{ID: info.RunID, Instruction: info.Instruction, ItemCount: len(info.Items)}
	}

	run.Status = RunStatusCompleted
	run.Comparisons = info.Stats.Comparisons
	run.FinishedAt = r.now()
	if runErr != nil {
		run.Status = RunStatusFailed
		run.Error = runErr.Error()
	}
	if err := r.store.AddRun(ctx, run); err != nil {
		r.fail("finish run", run.ID, err)
		return
	}
	r.logger.Debug("ledger run recorded",
		zap.String("run", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int64("comparisons", run.Comparisons))
}

func (r *Recorder) fail(op, runID string, err error) {
	r.failures.Add(1)
	r.logger.Warn("ledger write failed", zap.String("op", op), zap.String("run", runID), zap.Error(err))
}
