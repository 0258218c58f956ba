package broadcast

import (
	"sync/atomic"

	"partnerdispatch/internal/core/domain/model/position"
)

// Subscription is one consumer's bounded queue. Samples arrive on C in
// publish order; C is closed when the channel closes or Cancel is called.
type Subscription struct {
	channel *Channel
	queue   chan position.Sample
	dropped atomic.Uint64
}

func newSubscription(c *Channel, buffer int) *Subscription {
	return &Subscription{
		channel: c,
		queue:   make(chan position.Sample, buffer),
	}
}

func (s *Subscription) C() <-chan position.Sample {
	return s.queue
}

// Dropped counts samples discarded because the consumer fell behind.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Cancel detaches the subscription. Safe to call more than once and after
// the channel closed.
func (s *Subscription) Cancel() {
	s.channel.unsubscribe(s)
}

// deliver and end run under the channel lock, so sends never race the close.
func (s *Subscription) deliver(sample position.Sample) {
	select {
	case s.queue <- sample:
		return
	default:
	}

	select {
	case <-s.queue:
		s.dropped.Add(1)
	default:
	}

	select {
	case s.queue <- sample:
	default:
		s.dropped.Add(1)
	}
}

func (s *Subscription) end() {
	close(s.queue)
}
