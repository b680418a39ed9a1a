// internal/model/message.go
package model

import "time"

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSms      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

type MessageStatus string

const (
	MessageStatusPending  MessageStatus = "pending"
	MessageStatusSent     MessageStatus = "sent"
	MessageStatusFailed   MessageStatus = "failed"
	MessageStatusDisabled MessageStatus = "disabled"
)

// FieldValidationError describes one field that failed sender validation.
type FieldValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProviderData records the outcome reported by the external provider.
type ProviderData struct {
	MessageID    string `json:"message_id,omitempty"`
	APIResult    string `json:"api_result,omitempty"`
	ErrorCode    int    `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Message is the per-recipient, per-channel delivery record. One row is
// persisted for every send attempt regardless of outcome.
type Message struct {
	ID             int           `db:"id" json:"id"`
	MessageEventID *int          `db:"message_event_id" json:"message_event_id,omitempty"`
	Channel        Channel       `db:"channel" json:"channel"`
	From           string        `db:"from_addr" json:"from"`
	To             string        `db:"to_addr" json:"to"`
	Cc             string        `db:"cc_addr" json:"cc,omitempty"`
	Bcc            string        `db:"bcc_addr" json:"bcc,omitempty"`
	Subject        string        `db:"subject" json:"subject,omitempty"`
	Body           string        `db:"body" json:"body,omitempty"`
	Text           string        `db:"text" json:"text,omitempty"`
	SenderDomain   string        `db:"sender_domain" json:"sender_domain,omitempty"`
	Status         MessageStatus `db:"status" json:"status"`
	StatusMessage  string        `db:"status_message" json:"status_message,omitempty"`

	// UsedDefaultSender is set when the from address was filled in from the
	// org or config default instead of the caller.
	UsedDefaultSender bool `db:"used_default_sender" json:"used_default_sender"`
	TestMode          bool `db:"test_mode" json:"test_mode"`

	// OverrideActive marks a manual-override send; OverriddenTo keeps the
	// destination the customer record would have received.
	OverrideActive bool   `db:"override_active" json:"override_active"`
	OverriddenTo   string `db:"overridden_to" json:"overridden_to,omitempty"`

	FieldValidationErrors []FieldValidationError `db:"field_validation_errors" json:"field_validation_errors,omitempty"`
	Provider              ProviderData           `db:"provider_data" json:"provider_data"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
