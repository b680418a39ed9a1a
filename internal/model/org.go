// internal/model/org.go
package model

import "time"

// HoldingOrg groups member orgs under one umbrella account.
type HoldingOrg struct {
	ID        int       `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MemberOrg is the tenant most data hangs off. The default sender fields
// supply per-org from addresses when a message omits its own.
type MemberOrg struct {
	ID           int    `db:"id" json:"id"`
	HoldingOrgID *int   `db:"holding_org_id" json:"holding_org_id,omitempty"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`

	DefaultEmailSender    string `db:"default_email_sender" json:"default_email_sender,omitempty"`
	DefaultSmsSender      string `db:"default_sms_sender" json:"default_sms_sender,omitempty"`
	DefaultWhatsAppSender string `db:"default_whatsapp_sender" json:"default_whatsapp_sender,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DefaultSender returns the org-level default from address for a channel.
func (m *MemberOrg) DefaultSender(channel Channel) string {
	switch channel {
	case ChannelEmail:
		return m.DefaultEmailSender
	case ChannelSms:
		return m.DefaultSmsSender
	case ChannelWhatsApp:
		return m.DefaultWhatsAppSender
	}
	return ""
}
