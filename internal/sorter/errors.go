package sorter

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned by strict input checking before any comparison
// is made. oracle.ErrInvalidInput is the same value.
var ErrInvalidInput = errors.New("invalid input")

// ComparisonError reports the comparison that aborted a sort. It unwraps to
// the comparator's error, so oracle sentinels stay matchable with errors.Is.
type ComparisonError struct {
	First  Item
	Second Item
	Seq    int64
	Err    error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("sorter: comparison %d of item %d %q with item %d %q: %v",
		e.Seq, e.First.Index, clip(e.First.Text), e.Second.Index, clip(e.Second.Text), e.Err)
}

func (e *ComparisonError) Unwrap() error { return e.Err }

func clip(s string) string {
	const max = 60
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
