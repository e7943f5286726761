package agentscope

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ExecutionConfig is the C10 retry/timeout policy applied around one
// model call (§4.10).
type ExecutionConfig struct {
	Timeout           time.Duration
	MaxAttempts       uint
	InitialBackoff    time.Duration
	BackoffMultiplier float64
}

// DefaultExecutionConfig is the policy applied to model calls unless a
// caller overrides it.
var DefaultExecutionConfig = ExecutionConfig{
	Timeout:           60 * time.Second,
	MaxAttempts:       3,
	InitialBackoff:    500 * time.Millisecond,
	BackoffMultiplier: 2.0,
}

// ToolExecutionConfig is the separate policy defined for tool
// invocations (§4.10): shorter timeout, same retry shape. The kernel
// does not apply it: ToolRegistry.Invoke runs under the call's context
// with no per-tool timeout and no retry.
var ToolExecutionConfig = ExecutionConfig{
	Timeout:           10 * time.Second,
	MaxAttempts:       2,
	InitialBackoff:    200 * time.Millisecond,
	BackoffMultiplier: 2.0,
}

func (c ExecutionConfig) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialBackoff
	b.Multiplier = c.BackoffMultiplier
	return b
}

// WithRetry runs op under cfg's timeout, retrying transient failures
// (per IsRetryable) up to cfg.MaxAttempts with exponential backoff.
// Non-transient failures are returned immediately, unretried (§4.10).
func WithRetry[T any](ctx context.Context, cfg ExecutionConfig, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	b := cfg.backOff()

	wrapped := func() (T, error) {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		result, err := op(callCtx)
		if err != nil {
			if callCtx.Err() != nil {
				err = NewKernelError("execute", ErrTimeout, err)
			}
			if !IsRetryable(err) {
				Log("policy").Info().Int("attempt", attempt).Str("kind", "permanent").Err(err).Msg("execute failed, not retrying")
				return result, backoff.Permanent(err)
			}
			Log("policy").Info().Int("attempt", attempt).Dur("next_backoff", b.NextBackOff()).Str("kind", "transient").Err(err).Msg("execute failed, retrying")
			return result, err
		}
		return result, nil
	}

	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(cfg.MaxAttempts),
	)
}
