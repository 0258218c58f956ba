// Package broadcast holds the live position channels, one per job in
// progress. A closed channel stays in the hub as a tombstone until swept, so
// a feed that starts late finds it closed instead of opening a new one.
//
// # Delivery
//
// A Channel has one bound publisher and any number of subscribers. Sequence
// numbers must increase strictly per binding; a repeated or older sequence
// is rejected with errs.ErrValueIsOutOfRange. Subscribers receive only the
// samples published after they subscribed. Each one has a bounded queue, and
// a slow subscriber loses its oldest queued samples rather than blocking the
// publisher or the other subscribers.
//
// # Usage
//
//	hub := broadcast.NewHub(16)
//
//	c, err := hub.Open(jobID)
//	if err != nil {
//		return err
//	}
//	if err = c.Bind(partnerID); err != nil {
//		return err
//	}
//
//	sub, err := c.Subscribe()
//	if err != nil {
//		return err // errs.ErrChannelClosed once the job has ended
//	}
//	defer sub.Cancel()
//
//	for sample := range sub.C() {
//		// render sample
//	}
//	// C is closed when the channel closes
package broadcast

import (
	"sync"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/pkg/errs"
)

// DefaultBuffer is the subscriber queue length used when NewHub gets none.
const DefaultBuffer = 16

// Hub indexes channels by job id. It is safe for concurrent use.
//
// Open creates channels, Get finds them, Close closes them and leaves a
// tombstone, and Sweep drops tombstones older than a TTL. A job id whose
// channel was closed cannot be reopened until its tombstone is swept.
type Hub struct {
	buffer int
	now    func() time.Time

	mu       sync.Mutex
	channels map[kernel.UUID]*Channel
}

// Option configures a Hub.
type Option func(*Hub)

// WithClock replaces time.Now for close and publish timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// NewHub creates a hub whose subscribers queue at most buffer samples.
// Values below 1 fall back to DefaultBuffer.
func NewHub(buffer int, opts ...Option) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	h := &Hub{
		buffer:   buffer,
		now:      time.Now,
		channels: make(map[kernel.UUID]*Channel),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open returns the job's channel, creating it on first use. A tombstone
// yields ChannelClosed.
func (h *Hub) Open(jobID kernel.UUID) (*Channel, error) {
	if err := jobID.Validate(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[jobID]
	if !ok {
		c = newChannel(jobID, h.buffer, h.now)
		h.channels[jobID] = c
		return c, nil
	}
	if c.IsClosed() {
		return nil, errs.NewChannelClosedError(jobID)
	}
	return c, nil
}

// Get returns the channel, open or closed, or ObjectNotFound.
func (h *Hub) Get(jobID kernel.UUID) (*Channel, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[jobID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("channel", jobID)
	}
	return c, nil
}

// Close closes the job's channel. A job that never had one gets a tombstone.
func (h *Hub) Close(jobID kernel.UUID) {
	h.mu.Lock()
	c, ok := h.channels[jobID]
	if !ok {
		c = newChannel(jobID, h.buffer, h.now)
		h.channels[jobID] = c
	}
	h.mu.Unlock()

	c.Close()
}

// Sweep drops tombstones closed longer than ttl ago and reports how many
// were removed.
func (h *Hub) Sweep(ttl time.Duration) int {
	cutoff := h.now().Add(-ttl)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, c := range h.channels {
		if c.closedBefore(cutoff) {
			delete(h.channels, id)
			removed++
		}
	}
	return removed
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels)
}
