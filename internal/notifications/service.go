package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives refresh events
type Sink interface {
	Publish(ctx context.Context, event RefreshEvent) error
}

// Booster shortens the polling interval for a while
type Booster interface {
	Boost()
}

type registeredSink struct {
	name   string
	sink   Sink
	remote bool
}

// Service fans refresh events out to the configured sinks
type Service struct {
	instanceID string
	booster    Booster
	logger     *zap.Logger

	mu    sync.RWMutex
	sinks []registeredSink
}

// NewService creates a new notification service. instanceID tags events
// published by this process so relayed copies can be recognized.
func NewService(instanceID string, booster Booster, logger *zap.Logger) *Service {
	if instanceID == "" {
		instanceID = uuid.New().String()
	}
	return &Service{instanceID: instanceID, booster: booster, logger: logger}
}

// AddSink registers a sink for viewers attached to this instance
func (s *Service) AddSink(name string, sink Sink) {
	s.add(registeredSink{name: name, sink: sink})
}

// AddRemoteSink registers a sink that reaches other instances.
// Remote sinks are skipped when relaying events that came from elsewhere.
func (s *Service) AddRemoteSink(name string, sink Sink) {
	s.add(registeredSink{name: name, sink: sink, remote: true})
}

func (s *Service) add(r registeredSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, r)
}

// InstanceID returns the id stamped on events from this instance
func (s *Service) InstanceID() string {
	return s.instanceID
}

// Publish stamps the event and delivers it to every sink. Delivery is best
// effort: every sink is attempted and the failures are joined.
func (s *Service) Publish(ctx context.Context, event RefreshEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	event.Source = s.instanceID

	return s.deliver(ctx, event, true)
}

// Relay delivers an event received from another instance to local viewers.
// Events this instance published itself are ignored.
func (s *Service) Relay(ctx context.Context, event RefreshEvent) error {
	if event.Source == s.instanceID {
		return nil
	}
	return s.deliver(ctx, event, false)
}

func (s *Service) deliver(ctx context.Context, event RefreshEvent, includeRemote bool) error {
	if s.booster != nil {
		s.booster.Boost()
	}

	s.mu.RLock()
	sinks := append([]registeredSink{}, s.sinks...)
	s.mu.RUnlock()

	var errs []error
	for _, r := range sinks {
		if r.remote && !includeRemote {
			continue
		}
		if err := r.sink.Publish(ctx, event); err != nil {
			s.logger.Warn("refresh signal not delivered",
				zap.String("sink", r.name),
				zap.String("event_id", event.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
		}
	}
	return errors.Join(errs...)
}
