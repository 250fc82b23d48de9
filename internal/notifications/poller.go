package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UnreadCounter fetches the unread notification count of an office
type UnreadCounter interface {
	UnreadCount(ctx context.Context, officeID int64) (int, error)
}

// OfficeSink delivers messages to the connections of an office
type OfficeSink interface {
	ConnectedOffices() []int64
	SendToOffice(officeID int64, message WebSocketMessage) error
}

// AdaptiveSchedule is a cron schedule that runs at a burst interval for a
// bounded window after Boost and at the idle interval otherwise.
type AdaptiveSchedule struct {
	idle   time.Duration
	burst  time.Duration
	window time.Duration

	mu    sync.Mutex
	until time.Time
}

// NewAdaptiveSchedule creates an adaptive schedule
func NewAdaptiveSchedule(idle, burst, window time.Duration) *AdaptiveSchedule {
	return &AdaptiveSchedule{idle: idle, burst: burst, window: window}
}

// Next implements cron.Schedule
func (s *AdaptiveSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval(t))
}

// Interval returns the polling interval in effect at t
func (s *AdaptiveSchedule) Interval(t time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Before(s.until) {
		return s.burst
	}
	return s.idle
}

// Boost opens (or extends) the burst window starting at t
func (s *AdaptiveSchedule) Boost(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if until := t.Add(s.window); until.After(s.until) {
		s.until = until
	}
}

// PollerConfig configures the unread-count poller
type PollerConfig struct {
	IdleInterval   time.Duration
	BurstInterval  time.Duration
	BurstWindow    time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
}

// DefaultPollerConfig returns default configuration
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		IdleInterval:   60 * time.Second,
		BurstInterval:  5 * time.Second,
		BurstWindow:    2 * time.Minute,
		RequestTimeout: 10 * time.Second,
		MaxConcurrent:  4,
	}
}

// Poller pushes unread notification counts to connected offices
type Poller struct {
	cron     *cron.Cron
	schedule *AdaptiveSchedule
	counter  UnreadCounter
	sink     OfficeSink
	logger   *zap.Logger
	config   PollerConfig

	mu      sync.Mutex
	entry   cron.EntryID
	running bool
}

// NewPoller creates a new poller
func NewPoller(counter UnreadCounter, sink OfficeSink, logger *zap.Logger, config PollerConfig) *Poller {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Poller{
		cron:     cron.New(),
		schedule: NewAdaptiveSchedule(config.IdleInterval, config.BurstInterval, config.BurstWindow),
		counter:  counter,
		sink:     sink,
		logger:   logger,
		config:   config,
	}
}

// Start starts the poller
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller already running")
	}
	p.entry = p.cron.Schedule(p.schedule, cron.FuncJob(p.run))
	p.cron.Start()
	p.running = true

	p.logger.Info("Starting unread-count poller",
		zap.Duration("idle_interval", p.config.IdleInterval),
		zap.Duration("burst_interval", p.config.BurstInterval))
	return nil
}

// Stop stops the poller and waits for a running poll to finish
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.logger.Info("Stopping unread-count poller")
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.running = false
}

// Boost switches to the burst interval for the configured window and polls
// right away. cron computes the next run when an entry is scheduled, so the
// entry is replaced to pick up the shorter interval immediately.
func (p *Poller) Boost() {
	p.schedule.Boost(time.Now())

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.cron.Remove(p.entry)
	p.entry = p.cron.Schedule(p.schedule, cron.FuncJob(p.run))
	go p.run()
}

// Interval returns the polling interval currently in effect
func (p *Poller) Interval() time.Duration {
	return p.schedule.Interval(time.Now())
}

func (p *Poller) run() {
	p.PollOnce(context.Background())
}

// PollOnce fetches and pushes the count of every connected office.
// It returns the number of offices that received a count.
func (p *Poller) PollOnce(ctx context.Context) int {
	officeIDs := p.sink.ConnectedOffices()
	if len(officeIDs) == 0 {
		return 0
	}

	var mu sync.Mutex
	delivered := 0

	var g errgroup.Group
	g.SetLimit(p.config.MaxConcurrent)
	for _, officeID := range officeIDs {
		officeID := officeID
		g.Go(func() error {
			reqCtx := ctx
			if p.config.RequestTimeout > 0 {
				var cancel context.CancelFunc
				reqCtx, cancel = context.WithTimeout(ctx, p.config.RequestTimeout)
				defer cancel()
			}

			count, err := p.counter.UnreadCount(reqCtx, officeID)
			if err != nil {
				p.logger.Warn("unread count fetch failed", zap.Int64("office_id", officeID), zap.Error(err))
				return nil
			}

			msg := WebSocketMessage{
				Type:      WSMessageTypeUnreadCount,
				Data:      map[string]interface{}{"office_id": officeID, "count": count},
				Timestamp: time.Now(),
			}
			if err := p.sink.SendToOffice(officeID, msg); err != nil {
				p.logger.Debug("unread count not delivered", zap.Int64("office_id", officeID), zap.Error(err))
				return nil
			}

			mu.Lock()
			delivered++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return delivered
}
