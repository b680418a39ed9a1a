// internal/model/campaign.go
package model

import (
	"encoding/json"
	"time"
)

// Campaign owns a recipient filter. FilterQuery is the serialized compiled
// predicate derived from FilterCriteria plus the campaign's own org scoping;
// it is a cached value and must be re-derived whenever FilterCriteria,
// HoldingOrgID or MemberOrgID change. Repositories never write it directly,
// the campaign service does.
type Campaign struct {
	ID           int    `db:"id" json:"id"`
	HoldingOrgID *int   `db:"holding_org_id" json:"holding_org_id,omitempty"`
	MemberOrgID  *int   `db:"member_org_id" json:"member_org_id,omitempty"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
	Description  string `db:"description" json:"description,omitempty"`

	TemplateID int     `db:"template_id" json:"template_id"`
	Channel    Channel `db:"channel" json:"channel"`

	FilterCriteria json.RawMessage `db:"filter_criteria" json:"filter_criteria,omitempty"`
	FilterQuery    string          `db:"filter_query" json:"filter_query"`

	// SchedulePattern carries the recurrence definition (one-time, daily,
	// weekly, monthly, yearly). It is persisted verbatim; evaluating it to
	// create events is the job of upstream producers, not this service.
	SchedulePattern json.RawMessage `db:"schedule_pattern" json:"schedule_pattern,omitempty"`

	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
