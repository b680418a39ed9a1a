// internal/sender/email.go
package sender

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/provider"
)

// EmailSender is the channel adapter for email.
type EmailSender struct {
	provider    provider.EmailProvider
	defaultFrom string
	testMode    bool
	validate    *validator.Validate
}

func NewEmailSender(p provider.EmailProvider, defaultFrom string, testMode bool) *EmailSender {
	return &EmailSender{
		provider:    p,
		defaultFrom: defaultFrom,
		testMode:    testMode,
		validate:    validator.New(),
	}
}

func (s *EmailSender) Channel() model.Channel {
	return model.ChannelEmail
}

func (s *EmailSender) ApplyDefaults(msg *model.Message) {
	if msg.From == "" && s.defaultFrom != "" {
		msg.From = s.defaultFrom
		msg.UsedDefaultSender = true
	}
	msg.SenderDomain = emailDomain(msg.From)
	msg.TestMode = s.testMode
}

func (s *EmailSender) Validate(msg *model.Message) []model.FieldValidationError {
	var errs []model.FieldValidationError

	errs = appendEmailFieldError(errs, s.validate, "from", msg.From, true)
	errs = appendEmailFieldError(errs, s.validate, "to", msg.To, true)
	errs = appendEmailFieldError(errs, s.validate, "cc", msg.Cc, false)
	errs = appendEmailFieldError(errs, s.validate, "bcc", msg.Bcc, false)

	if msg.SenderDomain == "" {
		errs = append(errs, model.FieldValidationError{
			Field:   "senderDomain",
			Message: "field must not be empty, sender domain could not be derived from the from address",
		})
	} else if s.validate.Var(msg.SenderDomain, "fqdn") != nil {
		errs = append(errs, model.FieldValidationError{
			Field:   "senderDomain",
			Message: "derived sender domain is not a valid domain - " + msg.SenderDomain,
		})
	}

	if msg.Subject == "" {
		errs = append(errs, model.FieldValidationError{Field: "subject", Message: "field cannot be empty"})
	}
	if msg.Body == "" {
		errs = append(errs, model.FieldValidationError{Field: "body", Message: "field cannot be empty"})
	}

	return errs
}

func (s *EmailSender) Send(ctx context.Context, msg *model.Message) error {
	result, err := s.provider.Send(ctx, provider.EmailRequest{
		Domain:   msg.SenderDomain,
		From:     msg.From,
		To:       msg.To,
		Cc:       msg.Cc,
		Bcc:      msg.Bcc,
		Subject:  msg.Subject,
		Body:     msg.Body,
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

func appendEmailFieldError(errs []model.FieldValidationError, validate *validator.Validate, field, value string, required bool) []model.FieldValidationError {
	if value == "" {
		if required {
			errs = append(errs, model.FieldValidationError{Field: field, Message: "field must not be empty"})
		}
		return errs
	}
	if validate.Var(stripDisplayName(value), "email") != nil {
		errs = append(errs, model.FieldValidationError{Field: field, Message: "field needs to contain a valid email address - " + value})
	}
	return errs
}

// stripDisplayName reduces "Name <a@b.com>" to "a@b.com".
func stripDisplayName(addr string) string {
	open := strings.LastIndex(addr, "<")
	end := strings.LastIndex(addr, ">")
	if open >= 0 && end > open {
		return addr[open+1 : end]
	}
	return addr
}

// emailDomain extracts the part after the @, tolerating display names.
func emailDomain(addr string) string {
	addr = stripDisplayName(addr)
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return addr[at+1:]
}
