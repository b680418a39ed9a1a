package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/model"
)

type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return nil }

type captureEventRepo struct {
	created   []*model.MessageEvent
	createErr error
}

func (c *captureEventRepo) Create(ev *model.MessageEvent) error {
	if c.createErr != nil {
		return c.createErr
	}
	ev.ID = len(c.created) + 1
	c.created = append(c.created, ev)
	return nil
}
func (c *captureEventRepo) GetByID(id int) (*model.MessageEvent, error) { return nil, nil }
func (c *captureEventRepo) List(offset, limit int, kind, status string) ([]*model.MessageEvent, int, error) {
	return nil, 0, nil
}
func (c *captureEventRepo) FindPending(kind model.EventKind, before time.Time, limit int) ([]*model.MessageEvent, error) {
	return nil, nil
}
func (c *captureEventRepo) Claim(id int, start time.Time) (bool, error) { return false, nil }
func (c *captureEventRepo) Finish(ev *model.MessageEvent) error         { return nil }
func (c *captureEventRepo) CountStale(olderThan time.Time) (int, error) { return 0, nil }

func delivery(ack *fakeAcknowledger, body []byte, headers amqp.Table) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, Body: body, Headers: headers}
}

func TestHandleCreatesPendingEvent(t *testing.T) {
	repo := &captureEventRepo{}
	intake := &Intake{Events: repo, Log: zap.NewNop()}

	body, _ := json.Marshal(Envelope{
		Kind:    model.EventKindTransactional,
		Payload: json.RawMessage(`{"channel":"email","to":"grace@example.com"}`),
	})
	ack := &fakeAcknowledger{}
	intake.handle(delivery(ack, body, nil))

	require.Len(t, repo.created, 1)
	assert.Equal(t, model.EventKindTransactional, repo.created[0].Kind)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleDropsMalformedEnvelope(t *testing.T) {
	repo := &captureEventRepo{}
	intake := &Intake{Events: repo, Log: zap.NewNop()}

	ack := &fakeAcknowledger{}
	intake.handle(delivery(ack, []byte("{not json"), nil))

	assert.Empty(t, repo.created)
	assert.True(t, ack.acked, "poison messages are dropped, not requeued")
}

func TestHandleDropsUnknownKind(t *testing.T) {
	repo := &captureEventRepo{}
	intake := &Intake{Events: repo, Log: zap.NewNop()}

	body, _ := json.Marshal(Envelope{Kind: "bulk", Payload: json.RawMessage(`{}`)})
	ack := &fakeAcknowledger{}
	intake.handle(delivery(ack, body, nil))

	assert.Empty(t, repo.created)
	assert.True(t, ack.acked)
}

func TestHandleRequeuesOnInsertFailure(t *testing.T) {
	repo := &captureEventRepo{createErr: errors.New("db down")}
	intake := &Intake{Events: repo, Log: zap.NewNop()}

	body, _ := json.Marshal(Envelope{
		Kind:    model.EventKindScheduled,
		Payload: json.RawMessage(`{"campaign_id":3}`),
	})
	ack := &fakeAcknowledger{}
	intake.handle(delivery(ack, body, nil))

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestHandleGivesUpAfterRetries(t *testing.T) {
	repo := &captureEventRepo{createErr: errors.New("db down")}
	intake := &Intake{Events: repo, Log: zap.NewNop()}

	body, _ := json.Marshal(Envelope{
		Kind:    model.EventKindScheduled,
		Payload: json.RawMessage(`{"campaign_id":3}`),
	})
	ack := &fakeAcknowledger{}
	intake.handle(delivery(ack, body, amqp.Table{"x-retry-count": int32(3)}))

	assert.False(t, ack.nacked)
	assert.True(t, ack.acked, "exhausted retries are acked away")
}
