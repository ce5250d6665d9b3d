package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// RetryableError помечает ошибку провайдера как временную (429, 5xx).
type RetryableError struct {
	Err        error
	RetryAfter time.Duration // 0 - использовать backoff политики
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// CallPolicy - rate limiting и повторы вокруг одного вызова API.
//
// Общая для всех адаптеров провайдеров, чтобы оркестратор никогда не повторял запросы сам.
type CallPolicy struct {
	limiter  *rate.Limiter
	attempts int
	backoff  time.Duration
}

// NewCallPolicy создаёт политику.
//
// rateLimit - запросов в минуту (0 - без ограничения), burst - размер всплеска,
// retries - количество повторов после первой попытки.
func NewCallPolicy(rateLimit, burst, retries int) *CallPolicy {
	p := &CallPolicy{
		attempts: retries + 1,
		backoff:  time.Second,
	}
	if p.attempts < 1 {
		p.attempts = 1
	}
	if rateLimit > 0 {
		if burst <= 0 {
			burst = 1
		}
		// rateLimit в запросах/минуту → rate.Limit в запросах/секунду
		p.limiter = rate.NewLimiter(rate.Limit(float64(rateLimit)/60.0), burst)
	}
	return p
}

// WithBackoff меняет базовую паузу между повторами (удваивается на каждой попытке).
func (p *CallPolicy) WithBackoff(d time.Duration) *CallPolicy {
	p.backoff = d
	return p
}

// Do выполняет fn, повторяя её только на *RetryableError.
func (p *CallPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := p.backoff

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		var retryable *RetryableError
		if !errors.As(err, &retryable) {
			return err
		}
		lastErr = err

		if attempt == p.attempts {
			break
		}

		wait := delay
		if retryable.RetryAfter > 0 {
			wait = retryable.RetryAfter
		}
		utils.Warn("LLM call failed, retrying", "attempt", attempt, "wait", wait.String(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
