package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/search"
)

func newCampaignService() (*CampaignService, *mockCampaignRepo, *mockTemplateRepo, *mockCustomerRepo) {
	campaigns := &mockCampaignRepo{campaigns: map[int]*model.Campaign{}}
	templates := &mockTemplateRepo{templates: map[int]*model.MessageTemplate{}}
	customers := &mockCustomerRepo{}

	svc := &CampaignService{
		CampaignRepo: campaigns,
		TemplateRepo: templates,
		CustomerRepo: customers,
		Log:          zap.NewNop(),
	}
	return svc, campaigns, templates, customers
}

func emailTemplate(id int) *model.MessageTemplate {
	return &model.MessageTemplate{
		ID:           id,
		EmailSubject: "Hi {#firstName}",
		EmailBody:    "Hello {#firstName}, greetings from {#location}",
	}
}

func TestCreateCampaignDerivesFilterQuery(t *testing.T) {
	svc, campaigns, templates, _ := newCampaignService()
	templates.templates[5] = emailTemplate(5)

	member := 42
	criteria, _ := json.Marshal(search.Criteria{
		{RowNumber: 1, AttributeName: "location", Operator: "=", Values: []any{"Nairobi"}},
	})

	campaign := &model.Campaign{
		MemberOrgID:    &member,
		Code:           "C-1",
		Name:           "Test",
		TemplateID:     5,
		Channel:        model.ChannelEmail,
		FilterCriteria: criteria,
	}
	require.NoError(t, svc.CreateCampaign(campaign))

	require.NotNil(t, campaigns.created)
	require.NotEmpty(t, campaigns.created.FilterQuery)

	cond, err := search.ParseCondition(campaigns.created.FilterQuery)
	require.NoError(t, err)
	assert.Equal(t, search.Condition{
		And: []search.Condition{
			{Attr: "location", Op: "eq", Value: "Nairobi"},
			{Attr: "memberOrg", Op: "eq", Value: float64(42)},
		},
	}, cond)
}

func TestCreateCampaignRejectsInvalidCriteria(t *testing.T) {
	svc, campaigns, templates, _ := newCampaignService()
	templates.templates[5] = emailTemplate(5)

	criteria, _ := json.Marshal(search.Criteria{
		{RowNumber: 1, AttributeName: "location", Operator: "between", Values: []any{"Nairobi"}},
	})

	err := svc.CreateCampaign(&model.Campaign{
		Code: "C-1", Name: "Test", TemplateID: 5,
		Channel: model.ChannelEmail, FilterCriteria: criteria,
	})
	require.Error(t, err)

	var criteriaErr *appErrors.ErrCriteria
	assert.ErrorAs(t, err, &criteriaErr)
	assert.Nil(t, campaigns.created, "invalid criteria must reject the whole campaign")
}

func TestCreateCampaignRejectsChannelWithoutTemplateText(t *testing.T) {
	svc, campaigns, templates, _ := newCampaignService()
	templates.templates[5] = emailTemplate(5) // no sms text

	err := svc.CreateCampaign(&model.Campaign{
		Code: "C-1", Name: "Test", TemplateID: 5, Channel: model.ChannelSms,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no sms content")
	assert.Nil(t, campaigns.created)
}

func TestUpdateCampaignRederivesFilterQuery(t *testing.T) {
	svc, campaigns, templates, _ := newCampaignService()
	templates.templates[5] = emailTemplate(5)

	holding := 7
	campaign := &model.Campaign{
		ID:           3,
		HoldingOrgID: &holding,
		Code:         "C-1",
		Name:         "Test",
		TemplateID:   5,
		Channel:      model.ChannelEmail,
		FilterQuery:  `{"attr":"location","op":"eq","value":"stale"}`,
	}
	require.NoError(t, svc.UpdateCampaign(campaign))

	require.NotNil(t, campaigns.updated)
	cond, err := search.ParseCondition(campaigns.updated.FilterQuery)
	require.NoError(t, err)

	// empty criteria plus holding org scope replaces the stale query
	assert.Equal(t, search.Condition{
		And: []search.Condition{
			{},
			{Attr: "holdingOrg", Op: "eq", Value: float64(7)},
		},
	}, cond)
}

func TestCompileCriteriaMalformedJSON(t *testing.T) {
	svc, _, _, _ := newCampaignService()

	_, err := svc.CompileCriteria(json.RawMessage(`{not json`), search.OrgLimiter{})
	require.Error(t, err)

	var criteriaErr *appErrors.ErrCriteria
	assert.ErrorAs(t, err, &criteriaErr)
}

func TestRenderPreview(t *testing.T) {
	svc, campaigns, templates, customers := newCampaignService()
	templates.templates[5] = emailTemplate(5)
	campaigns.campaigns[3] = &model.Campaign{ID: 3, TemplateID: 5, Channel: model.ChannelEmail}
	customers.customers = []model.Customer{
		{ID: 1, FirstName: "Grace", Location: "Nairobi", Email: "grace@example.com"},
	}

	preview, err := svc.RenderPreview(3, 1)
	require.NoError(t, err)

	assert.Equal(t, "Hi Grace", preview["subject"])
	assert.Equal(t, "Hello Grace, greetings from Nairobi", preview["body"])
}

func TestRenderPreviewUnknownCustomer(t *testing.T) {
	svc, campaigns, templates, _ := newCampaignService()
	templates.templates[5] = emailTemplate(5)
	campaigns.campaigns[3] = &model.Campaign{ID: 3, TemplateID: 5, Channel: model.ChannelEmail}

	_, err := svc.RenderPreview(3, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer 99 not found")
}
