package sorter

import "go.uber.org/zap"

type options struct {
	logger             *zap.Logger
	parallelism        int
	memoize            bool
	strictInput        bool
	defaultInstruction string
	onProgress         func(Event)
	observer           Observer
}

func defaultOptions() options {
	return options{
		parallelism:        1,
		defaultInstruction: DefaultInstruction,
	}
}

// Option configures a Sorter.
type Option func(*options)

// WithLogger sets the logger used for debug output. Nil disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithParallelism bounds how many comparisons may be in flight at once.
// Values below 2 keep the sort sequential.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.parallelism = n
	}
}

// WithMemo enables per-call memoisation of answers keyed by the ordered pair
// of rendered item texts. Identical texts asked in the same order reuse the
// first answer; the reversed pair is always asked separately.
func WithMemo(enabled bool) Option {
	return func(o *options) { o.memoize = enabled }
}

// WithStrictInput rejects items whose rendered text is blank before any
// comparison is made.
func WithStrictInput(enabled bool) Option {
	return func(o *options) { o.strictInput = enabled }
}

// WithDefaultInstruction replaces DefaultInstruction for calls that pass an
// empty instruction. Setting it to "" forwards empty instructions to the
// comparator untouched.
func WithDefaultInstruction(instruction string) Option {
	return func(o *options) { o.defaultInstruction = instruction }
}

// WithProgress registers a callback for merge events. It may be called from
// multiple goroutines when parallelism is enabled.
func WithProgress(fn func(Event)) Option {
	return func(o *options) { o.onProgress = fn }
}

// WithObserver registers an Observer for run and comparison events.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}
