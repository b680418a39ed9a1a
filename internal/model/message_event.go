// internal/model/message_event.go
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventKind string

const (
	EventKindTransactional EventKind = "transactional"
	EventKindInteractive   EventKind = "template_interactive"
	EventKindScheduled     EventKind = "template_scheduled"
)

// EventKindsByPriority is the fixed processing order of a dispatcher sweep:
// transactional first, scheduled last.
var EventKindsByPriority = []EventKind{
	EventKindTransactional,
	EventKindInteractive,
	EventKindScheduled,
}

type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusProcessing EventStatus = "processing"
	EventStatusProcessed  EventStatus = "processed"
	EventStatusFailed     EventStatus = "failed"
)

// MessageEvent is one unit of dispatch work. The payload is a tagged union
// keyed by Kind; decode it with the matching *Payload method.
type MessageEvent struct {
	ID             int             `db:"id" json:"id"`
	Date           time.Time       `db:"date" json:"date"`
	Kind           EventKind       `db:"kind" json:"kind"`
	Status         EventStatus     `db:"status" json:"status"`
	StatusMessage  string          `db:"status_message" json:"status_message,omitempty"`
	Payload        json.RawMessage `db:"payload" json:"payload"`
	ProcessStartDt *time.Time      `db:"process_start_dt" json:"process_start_dt,omitempty"`
	ProcessEndDt   *time.Time      `db:"process_end_dt" json:"process_end_dt,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// TransactionalPayload carries a fully specified one-off message. Email uses
// Subject/Body, SMS and WhatsApp use Text.
type TransactionalPayload struct {
	Channel Channel `json:"channel"`
	From    string  `json:"from,omitempty"`
	To      string  `json:"to"`
	Cc      string  `json:"cc,omitempty"`
	Bcc     string  `json:"bcc,omitempty"`
	Subject string  `json:"subject,omitempty"`
	Body    string  `json:"body,omitempty"`
	Text    string  `json:"text,omitempty"`
}

// ManualOverride redirects an interactive send to explicit destinations
// instead of the customers' stored ones.
type ManualOverride struct {
	EmailTo    string `json:"email_to,omitempty"`
	SmsTo      string `json:"sms_to,omitempty"`
	WhatsAppTo string `json:"whatsapp_to,omitempty"`
}

func (o *ManualOverride) For(channel Channel) string {
	if o == nil {
		return ""
	}
	switch channel {
	case ChannelEmail:
		return o.EmailTo
	case ChannelSms:
		return o.SmsTo
	case ChannelWhatsApp:
		return o.WhatsAppTo
	}
	return ""
}

// InteractivePayload references a template and an explicit customer list.
// Channel is optional; when empty each customer's preference decides.
type InteractivePayload struct {
	TemplateID     int             `json:"template_id"`
	Channel        Channel         `json:"channel,omitempty"`
	CustomerIDs    []int           `json:"customer_ids"`
	ManualOverride *ManualOverride `json:"manual_override,omitempty"`
}

// ScheduledPayload references a campaign whose persisted filter query selects
// the recipients at dispatch time.
type ScheduledPayload struct {
	CampaignID   int  `json:"campaign_id"`
	HoldingOrgID *int `json:"holding_org_id,omitempty"`
	MemberOrgID  *int `json:"member_org_id,omitempty"`
}

func (e *MessageEvent) TransactionalPayload() (*TransactionalPayload, error) {
	if e.Kind != EventKindTransactional {
		return nil, fmt.Errorf("event %d is %s, not %s", e.ID, e.Kind, EventKindTransactional)
	}
	var p TransactionalPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode transactional payload: %w", err)
	}
	return &p, nil
}

func (e *MessageEvent) InteractivePayload() (*InteractivePayload, error) {
	if e.Kind != EventKindInteractive {
		return nil, fmt.Errorf("event %d is %s, not %s", e.ID, e.Kind, EventKindInteractive)
	}
	var p InteractivePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode interactive payload: %w", err)
	}
	return &p, nil
}

func (e *MessageEvent) ScheduledPayload() (*ScheduledPayload, error) {
	if e.Kind != EventKindScheduled {
		return nil, fmt.Errorf("event %d is %s, not %s", e.ID, e.Kind, EventKindScheduled)
	}
	var p ScheduledPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode scheduled payload: %w", err)
	}
	return &p, nil
}

// ValidKind reports whether k names a known event kind.
func ValidKind(k EventKind) bool {
	switch k {
	case EventKindTransactional, EventKindInteractive, EventKindScheduled:
		return true
	}
	return false
}
