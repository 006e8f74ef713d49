// Package retry re-runs backend calls whose failures are classified as
// retryable, waiting a linearly growing delay between attempts.
package retry

import (
	"context"
	"time"

	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/rs/zerolog/log"
)

// Config defines retry behavior for remote calls.
type Config struct {
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
}

// DefaultConfig matches what the session, model and message loaders use.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  time.Second,
	}
}

// Classifier turns an operation error into a classified failure.
type Classifier func(err error) *apierror.Error

// Executor runs operations with bounded, linearly increasing backoff.
type Executor struct {
	classify Classifier
	// wait blocks for d or until ctx is done
	wait func(ctx context.Context, d time.Duration) error
}

type Option func(*Executor)

// WithClassifier replaces the default classifier, which assumes the client is online.
func WithClassifier(c Classifier) Option {
	return func(e *Executor) {
		e.classify = c
	}
}

// WithWaitFunc replaces the backoff wait, mostly for tests.
func WithWaitFunc(f func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.wait = f
	}
}

func NewExecutor(options ...Option) *Executor {
	ret := &Executor{
		classify: func(err error) *apierror.Error {
			return apierror.FromError(err, false)
		},
		wait: sleep,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// Execute runs op at most maxRetries+1 times. After attempt n fails with a
// retryable error it waits baseDelay*n before the next attempt. The returned
// error is always classified. A cancelled context aborts the backoff wait.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error, maxRetries int, baseDelay time.Duration) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		classified := e.classify(err)
		if !classified.Retryable || attempt > maxRetries {
			return classified
		}

		backoff := baseDelay * time.Duration(attempt)
		log.Debug().
			Int("attempt", attempt).
			Int("max_retries", maxRetries).
			Str("kind", classified.Kind.String()).
			Dur("backoff", backoff).
			Msg("retrying after failure")

		if err := e.wait(ctx, backoff); err != nil {
			return err
		}
	}
}

// ExecuteConfig is Execute with the retry parameters taken from cfg.
func (e *Executor) ExecuteConfig(ctx context.Context, op func(ctx context.Context) error, cfg Config) error {
	return e.Execute(ctx, op, cfg.MaxRetries, cfg.BaseDelay)
}

// Do runs op through e and returns its value.
func Do[T any](ctx context.Context, e *Executor, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var ret T
	err := e.ExecuteConfig(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		ret = v
		return nil
	}, cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	return ret, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
