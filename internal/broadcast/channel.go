package broadcast

import (
	"sync"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/position"
	"partnerdispatch/internal/pkg/errs"
)

// Channel fans out the position samples of one job. Exactly one partner may
// publish at a time; subscribers only ever see samples published after they
// subscribed.
type Channel struct {
	jobID  kernel.UUID
	buffer int
	now    func() time.Time

	mu          sync.Mutex
	publisher   *kernel.UUID
	lastSeq     uint64
	hasSeq      bool
	subscribers map[*Subscription]struct{}
	closed      bool
	closedAt    time.Time
	lastSample  time.Time
}

func newChannel(jobID kernel.UUID, buffer int, now func() time.Time) *Channel {
	return &Channel{
		jobID:       jobID,
		buffer:      buffer,
		now:         now,
		subscribers: make(map[*Subscription]struct{}),
	}
}

func (c *Channel) JobID() kernel.UUID {
	return c.jobID
}

// Bind makes partnerID the only accepted publisher and starts a new feed run,
// so the next sample may carry any sequence number. Rebinding the same
// partner is allowed; binding a different one is Forbidden.
func (c *Channel) Bind(partnerID kernel.UUID) error {
	if err := partnerID.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errs.NewChannelClosedError(c.jobID)
	}
	if c.publisher != nil && !c.publisher.IsEqual(partnerID) {
		return errs.NewForbiddenError("bind", "channel is bound to another partner")
	}
	c.publisher = &partnerID
	c.hasSeq = false
	return nil
}

// Publish delivers sample to every subscriber without blocking. A full
// subscriber queue loses its oldest sample.
func (c *Channel) Publish(partnerID kernel.UUID, sample position.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errs.NewChannelClosedError(c.jobID)
	}
	if c.publisher == nil || !c.publisher.IsEqual(partnerID) {
		return errs.NewForbiddenError("publish", "caller is not the bound publisher")
	}
	if !sample.JobID.IsEqual(c.jobID) {
		return errs.NewValueIsInvalidError("jobId")
	}
	if c.hasSeq && sample.Sequence <= c.lastSeq {
		return errs.NewValueIsOutOfRangeError("sequence", sample.Sequence, c.lastSeq+1, ^uint64(0))
	}

	c.lastSeq, c.hasSeq = sample.Sequence, true
	c.lastSample = c.now()
	for s := range c.subscribers {
		s.deliver(sample)
	}
	return nil
}

// Subscribe registers a new consumer. The returned subscription must be
// cancelled by the caller unless the channel closes first.
func (c *Channel) Subscribe() (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errs.NewChannelClosedError(c.jobID)
	}
	s := newSubscription(c, c.buffer)
	c.subscribers[s] = struct{}{}
	return s, nil
}

// Close ends every subscriber stream and rejects later publishes. Calling it
// again is a no-op.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.closedAt = c.now()
	for s := range c.subscribers {
		delete(c.subscribers, s)
		s.end()
	}
}

func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// LastSampleAt is the zero time until the first accepted publish.
func (c *Channel) LastSampleAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSample
}

func (c *Channel) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers)
}

func (c *Channel) unsubscribe(s *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subscribers[s]; !ok {
		return
	}
	delete(c.subscribers, s)
	s.end()
}

func (c *Channel) closedBefore(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed && c.closedAt.Before(t)
}
