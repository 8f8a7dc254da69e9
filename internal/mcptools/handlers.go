package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/judgesort/internal/ledger"
	"github.com/dusk-indust/judgesort/internal/oracle"
	"github.com/dusk-indust/judgesort/internal/sorter"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// maxParallelism caps the parallelism a caller may request.
const maxParallelism = 32

// SortService holds the judge and settings used by MCP tool handlers.
type SortService struct {
	judge       oracle.Judge
	model       string
	parallelism int
	memoize     bool
	logger      *zap.Logger
	store       ledger.Store
	recorder    *ledger.Recorder
}

// ServiceOption configures a SortService.
type ServiceOption func(*SortService)

// WithModel sets the model sent with every request.
func WithModel(model string) ServiceOption {
	return func(s *SortService) { s.model = model }
}

// WithParallelism sets the default parallelism for sort_items.
func WithParallelism(n int) ServiceOption {
	return func(s *SortService) { s.parallelism = n }
}

// WithMemo enables within-call memoisation for sort_items.
func WithMemo(enabled bool) ServiceOption {
	return func(s *SortService) { s.memoize = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *SortService) { s.logger = l }
}

// WithLedger records every sort_items run into store and enables the
// find_contradictions tool.
func WithLedger(store ledger.Store) ServiceOption {
	return func(s *SortService) { s.store = store }
}

// NewSortService creates a SortService backed by judge.
func NewSortService(judge oracle.Judge, opts ...ServiceOption) *SortService {
	s := &SortService{judge: judge, parallelism: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.store != nil {
		s.recorder = ledger.NewRecorder(s.store, s.logger)
	}
	return s
}

// SortItems orders the input items with the judge.
func (s *SortService) SortItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SortItemsInput,
) (*mcp.CallToolResult, SortItemsOutput, error) {
	if input.Items == nil {
		return nil, SortItemsOutput{}, errors.New("items is required")
	}
	if input.Parallelism < 0 || input.Parallelism > maxParallelism {
		return nil, SortItemsOutput{}, fmt.Errorf("parallelism must be between 0 and %d", maxParallelism)
	}
	parallelism := s.parallelism
	if input.Parallelism > 0 {
		parallelism = input.Parallelism
	}

	opts := []sorter.Option{
		sorter.WithLogger(s.logger),
		sorter.WithParallelism(parallelism),
		sorter.WithMemo(s.memoize),
	}
	if s.recorder != nil {
		opts = append(opts, sorter.WithObserver(s.recorder))
	}

	cmp := oracle.NewClient[string](s.judge, oracle.WithModel[string](s.model))
	sorted, stats, err := sorter.New[string](cmp, opts...).SortWithStats(ctx, input.Items, input.Instruction)
	if err != nil {
		return nil, SortItemsOutput{}, err
	}
	return nil, SortItemsOutput{
		Items:       sorted,
		RunID:       stats.RunID,
		Comparisons: stats.Comparisons,
		OracleCalls: stats.OracleCalls,
	}, nil
}

// CompareItems asks the judge about a single ordered pair.
func (s *SortService) CompareItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareItemsInput,
) (*mcp.CallToolResult, CompareItemsOutput, error) {
	cmp := oracle.NewClient[string](s.judge, oracle.WithModel[string](s.model))
	ok, err := cmp.Compare(ctx, input.First, input.Second, input.Instruction)
	if err != nil {
		return nil, CompareItemsOutput{}, err
	}
	return nil, CompareItemsOutput{FirstPrecedes: ok}, nil
}

// FindContradictions reports cycles among recorded answers.
func (s *SortService) FindContradictions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindContradictionsInput,
) (*mcp.CallToolResult, FindContradictionsOutput, error) {
	if s.store == nil {
		return nil, FindContradictionsOutput{}, errors.New("no ledger configured")
	}
	found, err := ledger.FindContradictions(ctx, s.store, input.RunIDs...)
	if err != nil {
		return nil, FindContradictionsOutput{}, err
	}
	if found == nil {
		found = []ledger.Contradiction{}
	}
	return nil, FindContradictionsOutput{Contradictions: found}, nil
}
