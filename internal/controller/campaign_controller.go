// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/search"
	"github.com/centrocomm/messaging-backend/internal/service"
)

var validate = validator.New()

type CampaignController struct {
	CampaignService *service.CampaignService
}

type campaignRequest struct {
	HoldingOrgID *int            `json:"holding_org_id"`
	MemberOrgID  *int            `json:"member_org_id"`
	Code         string          `json:"code" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	TemplateID   int             `json:"template_id" validate:"required"`
	Channel      model.Channel   `json:"channel" validate:"required,oneof=email sms whatsapp"`
	Criteria     json.RawMessage `json:"filter_criteria"`
	Schedule     json.RawMessage `json:"schedule_pattern"`
	Status       string          `json:"status"`
}

func (b *campaignRequest) toModel() *model.Campaign {
	return &model.Campaign{
		HoldingOrgID:    b.HoldingOrgID,
		MemberOrgID:     b.MemberOrgID,
		Code:            b.Code,
		Name:            b.Name,
		Description:     b.Description,
		TemplateID:      b.TemplateID,
		Channel:         b.Channel,
		FilterCriteria:  b.Criteria,
		SchedulePattern: b.Schedule,
		Status:          b.Status,
	}
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	campaign := body.toModel()
	if err := c.CampaignService.CreateCampaign(campaign); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	campaign := body.toModel()
	campaign.ID = id
	if err := c.CampaignService.UpdateCampaign(campaign); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	campaign, err := c.CampaignService.GetCampaign(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	offset, limit, page := pageParams(r)
	channel := r.URL.Query().Get("channel")
	status := r.URL.Query().Get("status")

	campaigns, total, err := c.CampaignService.ListCampaigns(offset, limit, channel, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": campaigns,
		"total":     total,
		"page":      page,
		"page_size": limit,
	})
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if err := c.CampaignService.DeleteCampaign(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.UpdateStatus(id, body.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": body.Status})
}

// CompileCriteria is a dry run: it compiles criteria with org scoping and
// returns the resulting predicate without touching any campaign.
func (c *CampaignController) CompileCriteria(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HoldingOrgID *int            `json:"holding_org_id"`
		MemberOrgID  *int            `json:"member_org_id"`
		Criteria     json.RawMessage `json:"filter_criteria"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	cond, err := c.CampaignService.CompileCriteria(body.Criteria, search.OrgLimiter{
		HoldingOrgID: body.HoldingOrgID,
		MemberOrgID:  body.MemberOrgID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"filter_query": cond})
}

// MatchCustomers returns the recipient set a campaign's stored filter
// currently selects.
func (c *CampaignController) MatchCustomers(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	customers, err := c.CampaignService.MatchCustomers(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": id,
		"count":       len(customers),
		"customers":   customers,
	})
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		CustomerID int `json:"customer_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	preview, err := c.CampaignService.RenderPreview(id, body.CustomerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_id": id,
		"customer_id": body.CustomerID,
		"preview":     preview,
	})
}
