// Package nsq publishes committed job status changes to an NSQ topic so that
// other systems (billing, notifications) can follow the dispatch lifecycle.
package nsq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"partnerdispatch/internal/core/domain/model/job"

	gonsq "github.com/nsqio/go-nsq"
)

// Producer is the subset of *nsq.Producer the publisher needs.
type Producer interface {
	Publish(topic string, body []byte) error
}

// NewProducer connects to nsqd at addr (host:port of the TCP listener).
func NewProducer(addr string) (*gonsq.Producer, error) {
	producer, err := gonsq.NewProducer(addr, gonsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create nsq producer: %w", err)
	}
	producer.SetLoggerLevel(gonsq.LogLevelWarning)
	return producer, nil
}

// StatusChangedMessage is the wire format of a status change.
type StatusChangedMessage struct {
	JobID     string    `json:"jobId"`
	PartnerID string    `json:"partnerId,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

// Publisher implements ports.EventPublisher.
type Publisher struct {
	producer Producer
	topic    string
}

func NewPublisher(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, event job.StatusChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := StatusChangedMessage{
		JobID: event.JobID.String(),
		From:  event.From.String(),
		To:    event.To.String(),
		Actor: event.Actor.Role().String(),
		At:    event.At.UTC(),
	}
	if event.PartnerID != nil {
		msg.PartnerID = event.PartnerID.String()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal status change: %w", err)
	}

	if err = p.producer.Publish(p.topic, body); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}
