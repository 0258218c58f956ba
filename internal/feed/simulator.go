// Package feed produces the position samples of a partner working a job.
//
// Consumers see only a Source, so the route Simulator can be replaced by a
// real device feed without touching the broadcast channel or the job state
// machine.
package feed

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/position"
	"partnerdispatch/internal/pkg/errs"
)

const (
	DefaultCadence = time.Second
	MinCadence     = 100 * time.Millisecond
)

// Source is a lazy, finite sequence of samples for one job. Iteration stops
// when the sequence is exhausted, the consumer stops pulling or ctx is done.
type Source interface {
	Samples(ctx context.Context) iter.Seq[position.Sample]
}

// Ticker paces a Simulator. *time.Ticker satisfies it through NewTimeTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Simulator walks a route one point per tick. Point 0 is where the partner
// stands when the feed starts and is not emitted, so a route of n points
// yields n-1 samples numbered from 0. A Simulator runs once; start a fresh
// one to retry.
//
// Example:
//
//	sim, err := feed.NewSimulator(jobID, partnerID, route, feed.WithCadence(500*time.Millisecond))
//	if err != nil {
//		return err
//	}
//	for sample := range sim.Samples(ctx) {
//		if err := channel.Publish(partnerID, sample); err != nil {
//			break
//		}
//	}
type Simulator struct {
	jobID     kernel.UUID
	partnerID kernel.UUID
	route     kernel.Path
	cadence   time.Duration
	newTicker func(time.Duration) Ticker
	now       func() time.Time
	started   atomic.Bool
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithCadence sets the time between samples. NewSimulator rejects values
// below MinCadence.
func WithCadence(d time.Duration) Option {
	return func(s *Simulator) {
		s.cadence = d
	}
}

// WithTicker replaces NewTimeTicker, mostly to step a walk by hand in tests.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(s *Simulator) {
		s.newTicker = newTicker
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		s.now = now
	}
}

// NewSimulator validates the ids and the cadence. An empty or single point
// route is accepted and yields no samples.
func NewSimulator(jobID, partnerID kernel.UUID, route kernel.Path, opts ...Option) (*Simulator, error) {
	s := &Simulator{
		jobID:     jobID,
		partnerID: partnerID,
		route:     route,
		cadence:   DefaultCadence,
		newTicker: NewTimeTicker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := errors.Join(jobID.Validate(), partnerID.Validate()); err != nil {
		return nil, err
	}
	if s.cadence < MinCadence {
		return nil, errs.NewValueIsOutOfRangeError("cadence", s.cadence, MinCadence, nil)
	}
	return s, nil
}

func (s *Simulator) Cadence() time.Duration {
	return s.cadence
}

// Samples starts the walk. Any call after the first yields nothing.
func (s *Simulator) Samples(ctx context.Context) iter.Seq[position.Sample] {
	return func(yield func(position.Sample) bool) {
		if !s.started.CompareAndSwap(false, true) {
			return
		}
		if s.route.Len() < 2 {
			return
		}

		ticker := s.newTicker(s.cadence)
		defer ticker.Stop()

		for i := 1; i < s.route.Len(); i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
			}
			// a tick and a cancellation may be ready together
			if ctx.Err() != nil {
				return
			}

			sample, err := position.NewSample(s.jobID, s.partnerID, s.route.At(i), uint64(i-1), s.now())
			if err != nil {
				return
			}
			if !yield(sample) {
				return
			}
		}
	}
}
