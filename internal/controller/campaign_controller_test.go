package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/controller"
	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/search"
	"github.com/centrocomm/messaging-backend/internal/service"
)

// --- mock repositories ---

type mockCampaignRepo struct {
	created *model.Campaign
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	if id != 3 {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return &model.Campaign{ID: 3, TemplateID: 5, Channel: model.ChannelEmail}, nil
}
func (m *mockCampaignRepo) Create(c *model.Campaign) error { m.created = c; return nil }
func (m *mockCampaignRepo) Update(c *model.Campaign) error { return nil }
func (m *mockCampaignRepo) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
	return []*model.Campaign{}, 0, nil
}
func (m *mockCampaignRepo) UpdateStatus(id int, status string) error { return nil }
func (m *mockCampaignRepo) Delete(id int) error                      { return nil }

type mockTemplateRepo struct{}

func (m *mockTemplateRepo) GetByID(id int) (*model.MessageTemplate, error) {
	return &model.MessageTemplate{
		ID:           id,
		EmailSubject: "Hi {#firstName}",
		EmailBody:    "Check out {#preferredProduct} in {#location}!",
	}, nil
}
func (m *mockTemplateRepo) List(offset, limit int) ([]*model.MessageTemplate, int, error) {
	return nil, 0, nil
}
func (m *mockTemplateRepo) Create(t *model.MessageTemplate) error { return nil }
func (m *mockTemplateRepo) Update(t *model.MessageTemplate) error { return nil }

type mockCustomerRepo struct{}

func (m *mockCustomerRepo) GetByID(id int) (*model.Customer, error) {
	return &model.Customer{
		ID:               id,
		FirstName:        "Alice",
		Location:         "Nairobi",
		PreferredProduct: "Shoes",
		Email:            "alice@example.com",
	}, nil
}
func (m *mockCustomerRepo) GetByIDs(ids []int) ([]model.Customer, error) {
	return []model.Customer{}, nil
}
func (m *mockCustomerRepo) FindByCondition(cond search.Condition) ([]model.Customer, error) {
	return []model.Customer{}, nil
}

func newRouter() (*chi.Mux, *mockCampaignRepo) {
	campaigns := &mockCampaignRepo{}
	svc := &service.CampaignService{
		CampaignRepo: campaigns,
		TemplateRepo: &mockTemplateRepo{},
		CustomerRepo: &mockCustomerRepo{},
		Log:          zap.NewNop(),
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	r := chi.NewRouter()
	r.Post("/campaigns", ctrl.CreateCampaign)
	r.Get("/campaigns/{id}", ctrl.GetCampaign)
	r.Post("/campaigns/{id}/personalized-preview", ctrl.PersonalizedPreview)
	r.Post("/criteria/compile", ctrl.CompileCriteria)
	return r, campaigns
}

// --- tests ---

func TestPersonalizedPreviewHandler(t *testing.T) {
	r, _ := newRouter()

	body, _ := json.Marshal(map[string]any{"customer_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/campaigns/3/personalized-preview", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Preview map[string]string `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hi Alice", resp.Preview["subject"])
	assert.Equal(t, "Check out Shoes in Nairobi!", resp.Preview["body"])
}

func TestCreateCampaignHandler(t *testing.T) {
	r, campaigns := newRouter()

	body, _ := json.Marshal(map[string]any{
		"code":        "C-1",
		"name":        "Test",
		"template_id": 5,
		"channel":     "email",
	})
	req := httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, campaigns.created)
	assert.Equal(t, "C-1", campaigns.created.Code)
	assert.NotEmpty(t, campaigns.created.FilterQuery)
}

func TestCreateCampaignHandlerRejectsBadChannel(t *testing.T) {
	r, campaigns := newRouter()

	body, _ := json.Marshal(map[string]any{
		"code":        "C-1",
		"name":        "Test",
		"template_id": 5,
		"channel":     "carrier-pigeon",
	})
	req := httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, campaigns.created)
}

func TestGetCampaignHandlerNotFound(t *testing.T) {
	r, _ := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/campaigns/99", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompileCriteriaHandler(t *testing.T) {
	r, _ := newRouter()

	body, _ := json.Marshal(map[string]any{
		"member_org_id": 42,
		"filter_criteria": []map[string]any{{
			"row_number":            1,
			"attribute_name":        "location",
			"operator":              "=",
			"values":                []string{"Nairobi"},
			"logical_concatenation": "",
		}},
	})
	req := httptest.NewRequest(http.MethodPost, "/criteria/compile", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FilterQuery search.Condition `json:"filter_query"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.FilterQuery.And, 2)
	assert.Equal(t, "memberOrg", resp.FilterQuery.And[1].Attr)
}

func TestCompileCriteriaHandlerUnbalanced(t *testing.T) {
	r, _ := newRouter()

	body, _ := json.Marshal(map[string]any{
		"filter_criteria": []map[string]any{{
			"row_number":        1,
			"start_paren_count": 1,
			"attribute_name":    "location",
			"operator":          "=",
			"values":            []string{"Nairobi"},
		}},
	})
	req := httptest.NewRequest(http.MethodPost, "/criteria/compile", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
