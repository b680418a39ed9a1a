// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrTemplateNotFound struct {
	TemplateID int
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("message template with ID %d not found", e.TemplateID)
}

func NewTemplateNotFound(id int) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

// ErrCriteria marks a structural problem in filter criteria (unbalanced
// parentheses, unsupported operator). Criteria that produce it are rejected
// as a whole before anything is persisted.
type ErrCriteria struct {
	Reason string
}

func (e *ErrCriteria) Error() string {
	return fmt.Sprintf("invalid filter criteria: %s", e.Reason)
}

func NewCriteriaError(format string, args ...any) error {
	return &ErrCriteria{Reason: fmt.Sprintf(format, args...)}
}
