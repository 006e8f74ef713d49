// Package connectivity tracks whether the backend is reachable.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/go-go-golems/docchat/pkg/events"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/rs/zerolog/log"
)

const (
	OfflineMessage  = "You are offline. Please check your internet connection."
	RestoredMessage = "Connection restored"
)

// Probe checks reachability. A nil error means online.
type Probe func(ctx context.Context) error

type Checker struct {
	mu        sync.RWMutex
	online    bool
	probe     Probe
	interval  time.Duration
	notifier  notifications.Notifier
	publisher events.Publisher

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Checker)

// WithProbe enables the background probe loop, checking every interval.
func WithProbe(p Probe, interval time.Duration) Option {
	return func(c *Checker) {
		c.probe = p
		c.interval = interval
	}
}

func WithNotifier(n notifications.Notifier) Option {
	return func(c *Checker) {
		c.notifier = n
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(c *Checker) {
		c.publisher = p
	}
}

func NewChecker(options ...Option) *Checker {
	ret := &Checker{
		online:    true,
		notifier:  notifications.Discard{},
		publisher: events.NopPublisher{},
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (c *Checker) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetOnline records the current state. Transitions are published and
// surfaced as notifications; repeated values are ignored.
func (c *Checker) SetOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()

	if !changed {
		return
	}

	log.Info().Bool("online", online).Msg("connectivity changed")
	if online {
		c.notifier.ShowSuccess(RestoredMessage)
	} else {
		c.notifier.ShowError(OfflineMessage)
	}

	e, err := events.NewEvent(events.EventTypeConnectivityChanged, events.ConnectivityPayload{Online: online})
	if err != nil {
		log.Error().Err(err).Msg("could not build connectivity event")
		return
	}
	if err := c.publisher.PublishEvent(events.TopicConnectivity, e); err != nil {
		log.Error().Err(err).Msg("could not publish connectivity event")
	}
}

// Check runs the probe once and records the result.
func (c *Checker) Check(ctx context.Context) bool {
	if c.probe == nil {
		return c.IsOnline()
	}
	err := c.probe(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("connectivity probe failed")
	}
	c.SetOnline(err == nil)
	return err == nil
}

// Init starts the probe loop if a probe and a positive interval are configured.
func (c *Checker) Init(ctx context.Context) {
	if c.probe == nil || c.interval <= 0 {
		return
	}
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, c.interval)
				c.Check(probeCtx)
				cancel()
			}
		}
	}()
}

// Dispose stops the probe loop and waits for it to exit.
func (c *Checker) Dispose() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}
