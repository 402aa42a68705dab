// Package clock holds the process-wide delivery instant and the wall clock
// used to decide whether vault messages are readable.
//
// The delivery instant is fixed when the clock is built and never changes for
// the lifetime of the process. Lock state is always derived by comparing it
// with the current time; nothing about it is ever stored.
package clock

import (
	"sync"
	"time"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// Clock is the read-only view of time consumed by the vault.
type Clock interface {
	// Now returns the current wall-clock time in UTC.
	Now() time.Time
	// DeliveryAt returns the fixed delivery instant.
	DeliveryAt() time.Time
}

// LockStateAt reports Locked when now is strictly before deliveryAt and
// Unlocked otherwise. The transition is monotonic in now.
func LockStateAt(deliveryAt, now time.Time) domain.LockState {
	if now.Before(deliveryAt) {
		return domain.Locked
	}
	return domain.Unlocked
}

// Remaining returns how long until deliveryAt, clamped at zero.
func Remaining(deliveryAt, now time.Time) time.Duration {
	if d := deliveryAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Delivery is the production Clock: system time plus a fixed delivery instant.
type Delivery struct {
	deliveryAt time.Time
	now        func() time.Time
}

// Option customises a Delivery clock.
type Option func(*Delivery)

// WithNow replaces the wall-clock source. Intended for tests and tooling.
func WithNow(now func() time.Time) Option {
	return func(d *Delivery) {
		if now != nil {
			d.now = now
		}
	}
}

// New returns a Delivery clock fixed at deliveryAt.
func New(deliveryAt time.Time, opts ...Option) *Delivery {
	d := &Delivery{
		deliveryAt: deliveryAt.UTC(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Now returns the current time in UTC.
func (d *Delivery) Now() time.Time { return d.now().UTC() }

// DeliveryAt returns the fixed delivery instant.
func (d *Delivery) DeliveryAt() time.Time { return d.deliveryAt }

// LockState evaluates the lock state of a record carrying deliveryAt.
func (d *Delivery) LockState(deliveryAt time.Time) domain.LockState {
	return LockStateAt(deliveryAt, d.Now())
}

// Manual is a Clock whose current time only moves when told to.
// It is safe for concurrent use.
type Manual struct {
	mu         sync.RWMutex
	now        time.Time
	deliveryAt time.Time
}

// NewManual returns a Manual clock reading now, with the given delivery instant.
func NewManual(now, deliveryAt time.Time) *Manual {
	return &Manual{now: now.UTC(), deliveryAt: deliveryAt.UTC()}
}

// Now returns the manually controlled current time.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// DeliveryAt returns the fixed delivery instant.
func (m *Manual) DeliveryAt() time.Time { return m.deliveryAt }

// Set moves the current time to t (forwards or backwards).
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC()
	m.mu.Unlock()
}

// Advance moves the current time forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
