package typewriter

import (
	"context"
	"sync"
	"time"
)

// Runner drives a Typewriter from a goroutine for consumers outside of
// bubbletea. Callbacks run on the runner goroutine and must not call
// Start or Stop.
type Runner struct {
	speed time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(speed time.Duration) *Runner {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	return &Runner{speed: speed}
}

// Start stops any previous run, waits for it to exit, and reveals text.
// onUpdate receives the visible text after each step; onComplete is called
// once when the text is fully revealed. Neither is called after Stop or
// after a newer Start.
func (r *Runner) Start(ctx context.Context, text string, onUpdate func(string), onComplete func()) {
	r.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		tw := New()
		gen := tw.Start(text)
		ticker := time.NewTicker(r.speed)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed, completed := tw.Step(gen)
				// cancellation wins over a tick that raced with it
				if ctx.Err() != nil {
					return
				}
				if changed && onUpdate != nil {
					onUpdate(tw.Text())
				}
				if completed {
					if onComplete != nil {
						onComplete()
					}
					return
				}
			}
		}
	}()
}

// Stop cancels the current run and waits until its goroutine exited.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Wait blocks until the current run finished or was stopped.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}
