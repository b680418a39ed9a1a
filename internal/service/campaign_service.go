// internal/service/campaign_service.go
package service

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/repository"
	"github.com/centrocomm/messaging-backend/internal/search"
	"github.com/centrocomm/messaging-backend/internal/template"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	Log          *zap.Logger
}

// CreateCampaign validates the referenced template, derives the filter query
// from the criteria and persists the campaign. A campaign with invalid
// criteria is rejected as a whole.
func (s *CampaignService) CreateCampaign(c *model.Campaign) error {
	if err := s.checkTemplate(c); err != nil {
		return err
	}
	if err := s.deriveFilterQuery(c); err != nil {
		return err
	}
	return s.CampaignRepo.Create(c)
}

// UpdateCampaign re-derives the filter query on every save. The persisted
// query is a cached value; criteria or org changes must never leave a stale
// one behind.
func (s *CampaignService) UpdateCampaign(c *model.Campaign) error {
	if err := s.checkTemplate(c); err != nil {
		return err
	}
	if err := s.deriveFilterQuery(c); err != nil {
		return err
	}
	return s.CampaignRepo.Update(c)
}

func (s *CampaignService) GetCampaign(id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(id)
}

func (s *CampaignService) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
	return s.CampaignRepo.ListCampaigns(offset, limit, channel, status)
}

func (s *CampaignService) DeleteCampaign(id int) error {
	return s.CampaignRepo.Delete(id)
}

func (s *CampaignService) UpdateStatus(id int, status string) error {
	return s.CampaignRepo.UpdateStatus(id, status)
}

func (s *CampaignService) checkTemplate(c *model.Campaign) error {
	tmpl, err := s.TemplateRepo.GetByID(c.TemplateID)
	if err != nil {
		return err
	}
	if !tmpl.HasChannel(c.Channel) {
		return fmt.Errorf("template %d has no %s content", tmpl.ID, c.Channel)
	}
	return nil
}

func (s *CampaignService) deriveFilterQuery(c *model.Campaign) error {
	cond, err := s.CompileCriteria(c.FilterCriteria, search.OrgLimiter{
		HoldingOrgID: c.HoldingOrgID,
		MemberOrgID:  c.MemberOrgID,
	})
	if err != nil {
		return err
	}
	query, err := cond.Marshal()
	if err != nil {
		return err
	}
	c.FilterQuery = query
	return nil
}

// CompileCriteria turns raw criteria JSON into an org-scoped condition.
// Empty criteria compile to the org limiter alone, which for an unscoped
// campaign is the universal match. Also serves the dry-run endpoint.
func (s *CampaignService) CompileCriteria(raw json.RawMessage, limiter search.OrgLimiter) (search.Condition, error) {
	var criteria search.Criteria
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &criteria); err != nil {
			return search.Condition{}, appErrors.NewCriteriaError("malformed criteria: %v", err)
		}
	}
	return search.CompileWithOrgLimiter(criteria, limiter)
}

// MatchCustomers runs a campaign's persisted filter query and returns the
// recipient set it currently selects.
func (s *CampaignService) MatchCustomers(campaignID int) ([]model.Customer, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	cond, err := search.ParseCondition(campaign.FilterQuery)
	if err != nil {
		return nil, fmt.Errorf("campaign %d filter query: %w", campaign.ID, err)
	}
	return s.CustomerRepo.FindByCondition(cond)
}

// RenderPreview compiles the campaign template against one customer without
// sending anything.
func (s *CampaignService) RenderPreview(campaignID, customerID int) (map[string]string, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.TemplateRepo.GetByID(campaign.TemplateID)
	if err != nil {
		return nil, err
	}
	customer, err := s.CustomerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %d not found", customerID)
	}

	record := customer.Record()
	preview := map[string]string{}
	switch campaign.Channel {
	case model.ChannelEmail:
		subject, err := template.Compile(tmpl.EmailSubject, record, nil)
		if err != nil {
			return nil, err
		}
		body, err := template.Compile(tmpl.EmailBody, record, nil)
		if err != nil {
			return nil, err
		}
		preview["subject"] = subject.CompiledText
		preview["body"] = body.CompiledText
	case model.ChannelSms:
		text, err := template.Compile(tmpl.SmsText, record, nil)
		if err != nil {
			return nil, err
		}
		preview["text"] = text.CompiledText
	case model.ChannelWhatsApp:
		text, err := template.Compile(tmpl.WhatsAppText, record, nil)
		if err != nil {
			return nil, err
		}
		preview["text"] = text.CompiledText
	default:
		return nil, fmt.Errorf("unknown channel %q", campaign.Channel)
	}
	return preview, nil
}
