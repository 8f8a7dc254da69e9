package oracle

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Retrying wraps judge so that unavailability failures are retried up to
// attempts extra times with exponential backoff starting at backoff.
// Credential and malformed-response failures are returned immediately.
// This belongs to the caller's deployment policy; the sort engine itself
// never retries.
func Retrying(judge Judge, attempts int, backoff time.Duration, logger *zap.Logger) Judge {
	if attempts <= 0 {
		return judge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return JudgeFunc(func(ctx context.Context, req Request) (bool, error) {
		var lastErr error
		for i := 0; i <= attempts; i++ {
			if i > 0 {
				wait := backoff << uint(i-1)
				logger.Warn("retrying judge request",
					zap.Int("attempt", i),
					zap.Duration("backoff", wait),
					zap.Error(lastErr))
				select {
				case <-ctx.Done():
					return false, ctx.Err()
				case <-time.After(wait):
				}
			}
			result, err := judge.Judge(ctx, req)
			if err == nil {
				return result, nil
			}
			if !errors.Is(err, ErrUnavailable) {
				return false, err
			}
			lastErr = err
		}
		return false, lastErr
	})
}

// Logged wraps judge with debug logging of every request and its outcome.
func Logged(judge Judge, logger *zap.Logger) Judge {
	if logger == nil {
		return judge
	}
	return JudgeFunc(func(ctx context.Context, req Request) (bool, error) {
		start := time.Now()
		result, err := judge.Judge(ctx, req)
		if err != nil {
			logger.Debug("comparison failed",
				zap.String("kind", string(KindOf(err))),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return false, err
		}
		logger.Debug("comparison answered",
			zap.Bool("firstPrecedes", result),
			zap.Int("messageLen", len(req.UserMessage)),
			zap.Duration("elapsed", time.Since(start)))
		return result, nil
	})
}
