// Package registry owns the in-memory activity mapping and the signup and
// unregister operations over it.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/common/metrics"
	"activity-signup/internal/notify"
)

// DefaultNotifyTimeout bounds how long a mutation waits on its notifiers.
const DefaultNotifyTimeout = 2 * time.Second

// Registry is the sole owner of every Activity record.
type Registry struct {
	mu            sync.RWMutex
	activities    map[string]*Activity
	notifier      notify.Notifier
	notifyTimeout time.Duration
	logger        logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithNotifier sets where successful mutations are announced.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Registry) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNotifyTimeout caps each announcement. Non-positive values are ignored.
func WithNotifyTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.notifyTimeout = d
		}
	}
}

// New builds a Registry from a seed. The seed is copied.
func New(seed []Activity, opts ...Option) *Registry {
	r := &Registry{
		notifier:      notify.NoOp{},
		notifyTimeout: DefaultNotifyTimeout,
		logger:        logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset(seed)
	return r
}

// Reset replaces the whole mapping with a copy of seed.
func (r *Registry) Reset(seed []Activity) {
	activities := make(map[string]*Activity, len(seed))
	for _, a := range seed {
		c := a.clone()
		activities[c.Name] = &c
	}

	r.mu.Lock()
	r.activities = activities
	r.mu.Unlock()

	for _, a := range seed {
		metrics.AvailableSpots.WithLabelValues(a.Name).Set(float64(a.Availability()))
	}
}

// List returns a snapshot of every activity keyed by name.
func (r *Registry) List() map[string]Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Activity, len(r.activities))
	for name, a := range r.activities {
		out[name] = a.clone()
	}
	return out
}

// Names returns activity names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.activities))
	for name := range r.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of one activity.
func (r *Registry) Get(name string) (Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[name]
	if !ok {
		return Activity{}, apperrors.NewActivityNotFoundError(name)
	}
	return a.clone(), nil
}

// Availability returns the spots left in an activity.
func (r *Registry) Availability(name string) (int, error) {
	a, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	return a.Availability(), nil
}

// Signup appends email to the activity's participants.
// Capacity is not enforced: a full activity still accepts the signup.
func (r *Registry) Signup(ctx context.Context, name, email string) (string, error) {
	r.mu.Lock()
	a, ok := r.activities[name]
	if !ok {
		r.mu.Unlock()
		return "", r.reject("signup", apperrors.NewActivityNotFoundError(name))
	}
	if a.HasParticipant(email) {
		r.mu.Unlock()
		return "", r.reject("signup", apperrors.NewAlreadySignedUpError(name, email))
	}
	overCapacity := len(a.Participants) >= a.MaxParticipants
	a.Participants = append(a.Participants, email)
	spots := a.Availability()
	r.mu.Unlock()

	if overCapacity {
		metrics.SignupsOverCapacity.WithLabelValues(name).Inc()
		r.logger.Warn("signup accepted over capacity", map[string]interface{}{
			"activity":       name,
			"email":          email,
			"availableSpots": spots,
		})
	}
	metrics.SignupsTotal.WithLabelValues(name).Inc()
	metrics.AvailableSpots.WithLabelValues(name).Set(float64(spots))

	r.logger.Info("participant signed up", map[string]interface{}{
		"activity":       name,
		"email":          email,
		"availableSpots": spots,
	})
	r.announce(ctx, notify.NewEvent(notify.EventSignup, name, email, spots))

	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the activity's participants, keeping the
// order of the remaining entries.
func (r *Registry) Unregister(ctx context.Context, name, email string) (string, error) {
	r.mu.Lock()
	a, ok := r.activities[name]
	if !ok {
		r.mu.Unlock()
		return "", r.reject("unregister", apperrors.NewActivityNotFoundError(name))
	}
	idx := indexOf(a.Participants, email)
	if idx < 0 {
		r.mu.Unlock()
		return "", r.reject("unregister", apperrors.NewNotSignedUpError(name, email))
	}
	a.Participants = append(a.Participants[:idx], a.Participants[idx+1:]...)
	spots := a.Availability()
	r.mu.Unlock()

	metrics.UnregistrationsTotal.WithLabelValues(name).Inc()
	metrics.AvailableSpots.WithLabelValues(name).Set(float64(spots))

	r.logger.Info("participant unregistered", map[string]interface{}{
		"activity":       name,
		"email":          email,
		"availableSpots": spots,
	})
	r.announce(ctx, notify.NewEvent(notify.EventUnregister, name, email, spots))

	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}

func (r *Registry) reject(operation string, err *apperrors.StandardError) error {
	metrics.OperationFailures.WithLabelValues(operation, string(err.Code)).Inc()
	return err.WithMetadata("operation", operation)
}

// announce never fails the caller; delivery problems are logged and counted
// once per failing notifier.
func (r *Registry) announce(ctx context.Context, event notify.Event) {
	ctx, cancel := context.WithTimeout(ctx, r.notifyTimeout)
	defer cancel()

	err := r.notifier.Notify(ctx, event)
	if err == nil {
		return
	}
	failed := notify.FailedNotifiers(err, r.notifier.Name())
	for _, name := range failed {
		metrics.NotificationFailures.WithLabelValues(name).Inc()
	}
	r.logger.WithError(err).Error("event notification failed", map[string]interface{}{
		"eventId":   event.ID,
		"type":      string(event.Type),
		"activity":  event.Activity,
		"notifiers": failed,
		"retryable": apperrors.IsRetryableErrorCode(apperrors.Normalize(err).Code),
	})
}
