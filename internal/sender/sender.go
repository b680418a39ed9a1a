// internal/sender/sender.go
//
// Channel senders share one fixed lifecycle: build the pending record, apply
// channel defaults, validate, send unless the channel is disabled, and always
// persist the message. The per-channel parts live behind ChannelSender; the
// Sender orchestrator runs the lifecycle. Instances are constructed and
// injected explicitly, there is no package-level sender state.
package sender

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/model"
)

// MessageRepo persists delivery records.
type MessageRepo interface {
	Create(msg *model.Message) error
}

// ChannelSender is the channel-specific slice of the send lifecycle.
type ChannelSender interface {
	Channel() model.Channel
	ApplyDefaults(msg *model.Message)
	Validate(msg *model.Message) []model.FieldValidationError
	// Send invokes the provider and records its result on the message. It is
	// only called for validated messages on an enabled channel.
	Send(ctx context.Context, msg *model.Message) error
}

// Sender runs the lifecycle for one channel.
type Sender struct {
	impl     ChannelSender
	enabled  bool
	messages MessageRepo
	log      *zap.Logger
}

func New(impl ChannelSender, enabled bool, messages MessageRepo, log *zap.Logger) *Sender {
	return &Sender{impl: impl, enabled: enabled, messages: messages, log: log}
}

func (s *Sender) Channel() model.Channel {
	return s.impl.Channel()
}

// SendMessage runs the full lifecycle and always leaves a persisted message
// record. Validation failures and a disabled channel are terminal statuses,
// not errors; only a provider failure is returned, after the FAILED record
// has been written. A failure to persist is logged and swallowed so it never
// masks the send outcome.
func (s *Sender) SendMessage(ctx context.Context, msg *model.Message) error {
	var sendErr error

	msg.Status = model.MessageStatusPending
	s.log.Info("sending message",
		zap.String("channel", string(s.impl.Channel())),
		zap.String("from", msg.From),
		zap.String("to", msg.To),
	)

	s.impl.ApplyDefaults(msg)

	if validationErrors := s.impl.Validate(msg); len(validationErrors) > 0 {
		s.log.Error("message has validation errors, not sending",
			zap.String("channel", string(s.impl.Channel())),
			zap.Any("errors", validationErrors),
		)
		msg.FieldValidationErrors = validationErrors
		msg.Status = model.MessageStatusFailed
		msg.StatusMessage = "fields not populated correctly, see field_validation_errors"
	} else if !s.enabled {
		s.log.Info("channel sending is disabled", zap.String("channel", string(s.impl.Channel())))
		msg.Status = model.MessageStatusDisabled
		msg.StatusMessage = fmt.Sprintf("%s sending is disabled", s.impl.Channel())
	} else if err := s.impl.Send(ctx, msg); err != nil {
		s.log.Error("provider send failed",
			zap.String("channel", string(s.impl.Channel())),
			zap.Error(err),
		)
		msg.Status = model.MessageStatusFailed
		msg.StatusMessage = err.Error()
		sendErr = err
	} else {
		msg.Status = model.MessageStatusSent
	}

	if err := s.messages.Create(msg); err != nil {
		s.log.Error("message could not be saved", zap.Error(err))
	}

	return sendErr
}

// Registry holds one Sender per channel.
type Registry struct {
	senders map[model.Channel]*Sender
}

func NewRegistry(senders ...*Sender) *Registry {
	r := &Registry{senders: make(map[model.Channel]*Sender, len(senders))}
	for _, s := range senders {
		r.senders[s.Channel()] = s
	}
	return r
}

func (r *Registry) ForChannel(channel model.Channel) (*Sender, error) {
	s, ok := r.senders[channel]
	if !ok {
		return nil, fmt.Errorf("no sender registered for channel %q", channel)
	}
	return s, nil
}
