package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/provider"
)

type mockMessageRepo struct {
	saved   []*model.Message
	saveErr error
}

func (m *mockMessageRepo) Create(msg *model.Message) error {
	m.saved = append(m.saved, msg)
	return m.saveErr
}

type mockEmailProvider struct {
	calls  int
	result *provider.SendResult
	err    error
}

func (m *mockEmailProvider) Send(ctx context.Context, req provider.EmailRequest) (*provider.SendResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockTextProvider struct {
	calls   int
	lastReq provider.TextRequest
	result  *provider.SendResult
	err     error
}

func (m *mockTextProvider) Send(ctx context.Context, req provider.TextRequest) (*provider.SendResult, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func emailMessage() *model.Message {
	return &model.Message{
		Channel: model.ChannelEmail,
		From:    "hello@acme.example.com",
		To:      "grace@example.com",
		Subject: "Hi",
		Body:    "Hello there",
	}
}

func TestSendMessageSuccess(t *testing.T) {
	prov := &mockEmailProvider{result: &provider.SendResult{ID: "msg-1", Status: "queued"}}
	repo := &mockMessageRepo{}
	s := New(NewEmailSender(prov, "", false), true, repo, zap.NewNop())

	msg := emailMessage()
	err := s.SendMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusSent, msg.Status)
	assert.Equal(t, "msg-1", msg.Provider.MessageID)
	assert.Equal(t, 1, prov.calls)
	require.Len(t, repo.saved, 1)
	assert.Same(t, msg, repo.saved[0])
}

func TestSendMessageEmptyToFailsWithoutProviderCall(t *testing.T) {
	prov := &mockEmailProvider{result: &provider.SendResult{ID: "msg-1"}}
	repo := &mockMessageRepo{}
	s := New(NewEmailSender(prov, "", false), true, repo, zap.NewNop())

	msg := emailMessage()
	msg.To = ""
	err := s.SendMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusFailed, msg.Status)
	assert.Equal(t, "fields not populated correctly, see field_validation_errors", msg.StatusMessage)
	assert.Equal(t, 0, prov.calls, "provider must not be invoked on validation failure")

	var fields []string
	for _, fe := range msg.FieldValidationErrors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "to")

	// the failed record is still persisted
	require.Len(t, repo.saved, 1)
}

func TestSendMessageMalformedEmail(t *testing.T) {
	prov := &mockEmailProvider{}
	repo := &mockMessageRepo{}
	s := New(NewEmailSender(prov, "", false), true, repo, zap.NewNop())

	msg := emailMessage()
	msg.To = "not-an-address"
	err := s.SendMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusFailed, msg.Status)
	assert.Equal(t, 0, prov.calls)
	assert.NotEmpty(t, msg.FieldValidationErrors)
}

func TestSendMessageDisabledChannel(t *testing.T) {
	prov := &mockEmailProvider{}
	repo := &mockMessageRepo{}
	s := New(NewEmailSender(prov, "", false), false, repo, zap.NewNop())

	msg := emailMessage()
	err := s.SendMessage(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, model.MessageStatusDisabled, msg.Status)
	assert.Equal(t, "email sending is disabled", msg.StatusMessage)
	assert.Equal(t, 0, prov.calls)
	require.Len(t, repo.saved, 1)
}

func TestSendMessageProviderFailure(t *testing.T) {
	prov := &mockEmailProvider{err: errors.New("gateway timeout")}
	repo := &mockMessageRepo{}
	s := New(NewEmailSender(prov, "", false), true, repo, zap.NewNop())

	msg := emailMessage()
	err := s.SendMessage(context.Background(), msg)
	require.Error(t, err)

	assert.Equal(t, model.MessageStatusFailed, msg.Status)
	assert.Equal(t, "gateway timeout", msg.StatusMessage)
	require.Len(t, repo.saved, 1, "failed sends are persisted too")
}

func TestSendMessagePersistFailureSwallowed(t *testing.T) {
	prov := &mockEmailProvider{result: &provider.SendResult{ID: "msg-1"}}
	repo := &mockMessageRepo{saveErr: errors.New("db down")}
	s := New(NewEmailSender(prov, "", false), true, repo, zap.NewNop())

	msg := emailMessage()
	err := s.SendMessage(context.Background(), msg)
	assert.NoError(t, err, "persist failures never mask the send outcome")
	assert.Equal(t, model.MessageStatusSent, msg.Status)
}

func TestEmailApplyDefaults(t *testing.T) {
	s := NewEmailSender(&mockEmailProvider{}, "Acme <hello@acme.example.com>", true)

	msg := &model.Message{To: "grace@example.com"}
	s.ApplyDefaults(msg)

	assert.Equal(t, "Acme <hello@acme.example.com>", msg.From)
	assert.True(t, msg.UsedDefaultSender)
	assert.Equal(t, "acme.example.com", msg.SenderDomain)
	assert.True(t, msg.TestMode)
}

func TestEmailApplyDefaultsKeepsExplicitFrom(t *testing.T) {
	s := NewEmailSender(&mockEmailProvider{}, "hello@acme.example.com", false)

	msg := &model.Message{From: "noreply@other.example.com"}
	s.ApplyDefaults(msg)

	assert.Equal(t, "noreply@other.example.com", msg.From)
	assert.False(t, msg.UsedDefaultSender)
	assert.Equal(t, "other.example.com", msg.SenderDomain)
}

func TestEmailValidateSenderDomain(t *testing.T) {
	s := NewEmailSender(&mockEmailProvider{}, "", false)

	msg := emailMessage()
	msg.SenderDomain = ""
	errs := s.Validate(msg)

	var fields []string
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "senderDomain")
}

func TestSmsValidateRequiresFields(t *testing.T) {
	s := NewSmsSender(&mockTextProvider{}, "", false)

	errs := s.Validate(&model.Message{})
	require.Len(t, errs, 3)

	var fields []string
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"from", "to", "text"}, fields)
}

func TestWhatsAppSendSetsFlag(t *testing.T) {
	prov := &mockTextProvider{result: &provider.SendResult{ID: "wa-1", Status: "queued"}}
	s := NewWhatsAppSender(prov, "+15550001111", false)

	msg := &model.Message{From: "+15550001111", To: "+254700111222", Text: "hi"}
	err := s.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.True(t, prov.lastReq.WhatsApp)
	assert.Equal(t, "wa-1", msg.Provider.MessageID)
}

func TestRegistryForChannel(t *testing.T) {
	repo := &mockMessageRepo{}
	email := New(NewEmailSender(&mockEmailProvider{}, "", false), true, repo, zap.NewNop())
	sms := New(NewSmsSender(&mockTextProvider{}, "", false), true, repo, zap.NewNop())
	registry := NewRegistry(email, sms)

	got, err := registry.ForChannel(model.ChannelSms)
	require.NoError(t, err)
	assert.Same(t, sms, got)

	_, err = registry.ForChannel(model.ChannelWhatsApp)
	assert.Error(t, err)
}
