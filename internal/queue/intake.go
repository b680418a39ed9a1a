// internal/queue/intake.go
package queue

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/repository"
)

const maxRetries = 3

// Envelope is the wire shape upstream producers publish. Date is optional;
// an absent date means the event is due immediately.
type Envelope struct {
	Kind    model.EventKind `json:"kind"`
	Date    *time.Time      `json:"date,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Intake consumes published envelopes and turns them into pending message
// events for the dispatcher to pick up.
type Intake struct {
	Events repository.MessageEventRepositoryInterface
	Log    *zap.Logger
}

// Consume declares the queue and blocks draining deliveries until the
// channel closes. Malformed envelopes are acked and dropped; insert failures
// are requeued up to maxRetries.
func (i *Intake) Consume(ch *amqp.Channel, queueName string) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for d := range msgs {
		i.handle(d)
	}
	return nil
}

func (i *Intake) handle(d amqp.Delivery) {
	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		i.Log.Warn("dropping malformed envelope", zap.Error(err))
		d.Ack(false)
		return
	}
	if !model.ValidKind(env.Kind) {
		i.Log.Warn("dropping envelope with unknown kind", zap.String("kind", string(env.Kind)))
		d.Ack(false)
		return
	}

	ev := &model.MessageEvent{
		Kind:    env.Kind,
		Payload: env.Payload,
	}
	if env.Date != nil {
		ev.Date = *env.Date
	}

	if err := i.Events.Create(ev); err != nil {
		i.Log.Error("event insert failed", zap.String("kind", string(env.Kind)), zap.Error(err))
		var retryCount int32
		if v, ok := d.Headers["x-retry-count"].(int32); ok {
			retryCount = v
		}
		if retryCount < maxRetries {
			d.Nack(false, true) // requeue
			return
		}
		i.Log.Error("giving up on envelope after retries", zap.Int32("retries", retryCount))
	} else {
		i.Log.Info("event accepted",
			zap.Int("event_id", ev.ID), zap.String("kind", string(ev.Kind)))
	}
	d.Ack(false)
}
