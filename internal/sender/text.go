// internal/sender/text.go
package sender

import (
	"context"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/provider"
)

// TextSender covers the two text channels; SMS and WhatsApp differ only in
// the channel tag and the provider-side address prefix.
type TextSender struct {
	channel     model.Channel
	provider    provider.TextProvider
	defaultFrom string
	testMode    bool
}

func NewSmsSender(p provider.TextProvider, defaultFrom string, testMode bool) *TextSender {
	return &TextSender{channel: model.ChannelSms, provider: p, defaultFrom: defaultFrom, testMode: testMode}
}

func NewWhatsAppSender(p provider.TextProvider, defaultFrom string, testMode bool) *TextSender {
	return &TextSender{channel: model.ChannelWhatsApp, provider: p, defaultFrom: defaultFrom, testMode: testMode}
}

func (s *TextSender) Channel() model.Channel {
	return s.channel
}

func (s *TextSender) ApplyDefaults(msg *model.Message) {
	if msg.From == "" && s.defaultFrom != "" {
		msg.From = s.defaultFrom
		msg.UsedDefaultSender = true
	}
	msg.TestMode = s.testMode
}

func (s *TextSender) Validate(msg *model.Message) []model.FieldValidationError {
	var errs []model.FieldValidationError
	if msg.From == "" {
		errs = append(errs, model.FieldValidationError{Field: "from", Message: "field must not be empty"})
	}
	if msg.To == "" {
		errs = append(errs, model.FieldValidationError{Field: "to", Message: "field must not be empty"})
	}
	if msg.Text == "" {
		errs = append(errs, model.FieldValidationError{Field: "text", Message: "field cannot be empty"})
	}
	return errs
}

func (s *TextSender) Send(ctx context.Context, msg *model.Message) error {
	result, err := s.provider.Send(ctx, provider.TextRequest{
		From:     msg.From,
		To:       msg.To,
		Text:     msg.Text,
		WhatsApp: s.channel == model.ChannelWhatsApp,
		TestMode: msg.TestMode,
	})
	if err != nil {
		return err
	}

	msg.Provider = model.ProviderData{
		MessageID:    result.ID,
		APIResult:    result.Status,
		ErrorCode:    result.ErrorCode,
		ErrorMessage: result.ErrorMessage,
	}
	return nil
}
