package agent

import (
	"context"

	"github.com/andreasronge/ptc-runner-sub003/internal/backoff"
)

// callLLMWithRetry wraps one LLMCaller invocation with the configurable
// backoff policy: the LLM is called at most LLMMaxAttempts times in total
// (at least once), with a backoff sleep after each retryable failure but the
// last; the final error after exhaustion, or a non-retryable error at once,
// is returned to the caller, which reports it as an :llm_error.
func callLLMWithRetry(ctx context.Context, opts RunOptions, req LLMRequest) (LLMResponse, error) {
	maxAttempts := opts.LLMMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return LLMResponse{}, err
		}
		resp, err := opts.LLM(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !classifyLLMError(err).IsRetryable() {
			return LLMResponse{}, err
		}
		if attempt < maxAttempts {
			if sleepErr := backoff.SleepWithBackoff(ctx, opts.LLMRetryPolicy, attempt); sleepErr != nil {
				return LLMResponse{}, sleepErr
			}
		}
	}
	return LLMResponse{}, lastErr
}
