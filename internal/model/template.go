// internal/model/template.go
package model

import "time"

// MessageTemplate holds the raw placeholder-bearing text per channel.
// Placeholders use the {#attributeName} syntax.
type MessageTemplate struct {
	ID           int    `db:"id" json:"id"`
	HoldingOrgID *int   `db:"holding_org_id" json:"holding_org_id,omitempty"`
	MemberOrgID  *int   `db:"member_org_id" json:"member_org_id,omitempty"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`

	EmailSubject string `db:"email_subject" json:"email_subject,omitempty"`
	EmailBody    string `db:"email_body" json:"email_body,omitempty"`
	SmsText      string `db:"sms_text" json:"sms_text,omitempty"`
	WhatsAppText string `db:"whatsapp_text" json:"whatsapp_text,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// HasChannel reports whether the template carries text for the channel.
func (t *MessageTemplate) HasChannel(channel Channel) bool {
	switch channel {
	case ChannelEmail:
		return t.EmailSubject != "" || t.EmailBody != ""
	case ChannelSms:
		return t.SmsText != ""
	case ChannelWhatsApp:
		return t.WhatsAppText != ""
	}
	return false
}
