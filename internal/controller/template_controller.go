// internal/controller/template_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/repository"
	"github.com/centrocomm/messaging-backend/internal/template"
)

type TemplateController struct {
	Templates repository.TemplateRepositoryInterface
}

type templateRequest struct {
	HoldingOrgID *int   `json:"holding_org_id"`
	MemberOrgID  *int   `json:"member_org_id"`
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
	EmailSubject string `json:"email_subject"`
	EmailBody    string `json:"email_body"`
	SmsText      string `json:"sms_text"`
	WhatsAppText string `json:"whatsapp_text"`
}

// checkPlaceholders rejects template text with unterminated markers at save
// time rather than at dispatch time.
func (b *templateRequest) checkPlaceholders() error {
	for _, text := range []string{b.EmailSubject, b.EmailBody, b.SmsText, b.WhatsAppText} {
		if _, err := template.ExtractPlaceholders(text); err != nil {
			return err
		}
	}
	return nil
}

func (c *TemplateController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var body templateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := body.checkPlaceholders(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpl := &model.MessageTemplate{
		HoldingOrgID: body.HoldingOrgID,
		MemberOrgID:  body.MemberOrgID,
		Code:         body.Code,
		Name:         body.Name,
		EmailSubject: body.EmailSubject,
		EmailBody:    body.EmailBody,
		SmsText:      body.SmsText,
		WhatsAppText: body.WhatsAppText,
	}
	if err := c.Templates.Create(tmpl); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

func (c *TemplateController) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body templateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := body.checkPlaceholders(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpl := &model.MessageTemplate{
		ID:           id,
		Name:         body.Name,
		EmailSubject: body.EmailSubject,
		EmailBody:    body.EmailBody,
		SmsText:      body.SmsText,
		WhatsAppText: body.WhatsAppText,
	}
	if err := c.Templates.Update(tmpl); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (c *TemplateController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	tmpl, err := c.Templates.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (c *TemplateController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	offset, limit, page := pageParams(r)
	templates, total, err := c.Templates.List(offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": templates,
		"total":     total,
		"page":      page,
		"page_size": limit,
	})
}

// TemplatePlaceholders lists the placeholder names each channel text uses.
func (c *TemplateController) TemplatePlaceholders(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	tmpl, err := c.Templates.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	out := map[string][]string{}
	for name, text := range map[string]string{
		"email_subject": tmpl.EmailSubject,
		"email_body":    tmpl.EmailBody,
		"sms_text":      tmpl.SmsText,
		"whatsapp_text": tmpl.WhatsAppText,
	} {
		placeholders, err := template.ExtractPlaceholders(text)
		if err != nil {
			writeError(w, err)
			return
		}
		out[name] = placeholders
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "placeholders": out})
}
