package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
	"github.com/centrocomm/messaging-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error)
	GetByID(id int) (*model.Campaign, error)
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	UpdateStatus(campaignID int, status string) error
	Delete(id int) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `
        id, holding_org_id, member_org_id, code, name, description,
        template_id, channel, filter_criteria, filter_query, schedule_pattern,
        status, created_at, updated_at
`

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = "draft"
	}
	query := `
        INSERT INTO campaigns (holding_org_id, member_org_id, code, name, description,
                               template_id, channel, filter_criteria, filter_query,
                               schedule_pattern, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.HoldingOrgID, c.MemberOrgID, c.Code, c.Name, c.Description,
		c.TemplateID, c.Channel, nullableJSON(c.FilterCriteria), c.FilterQuery,
		nullableJSON(c.SchedulePattern), c.Status, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET holding_org_id=$1, member_org_id=$2, name=$3, description=$4,
            template_id=$5, channel=$6, filter_criteria=$7, filter_query=$8,
            schedule_pattern=$9, status=$10, updated_at=NOW()
        WHERE id=$11
    `
	res, err := r.DB.Exec(query,
		c.HoldingOrgID, c.MemberOrgID, c.Name, c.Description,
		c.TemplateID, c.Channel, nullableJSON(c.FilterCriteria), c.FilterQuery,
		nullableJSON(c.SchedulePattern), c.Status, c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return nil
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, campaignID)
	return err
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

// ListCampaigns returns one page plus the unfiltered-by-page total count.
// Empty channel or status means no filter on that column.
func (r *CampaignRepository) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
	query := `
        SELECT ` + campaignColumns + `
        FROM campaigns
        WHERE ($1 = '' OR channel = $1)
          AND ($2 = '' OR status = $2)
        ORDER BY created_at DESC
        OFFSET $3 LIMIT $4
    `
	rows, err := r.DB.Query(query, channel, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `
        SELECT COUNT(*) FROM campaigns
        WHERE ($1 = '' OR channel = $1)
          AND ($2 = '' OR status = $2)
    `
	if err := r.DB.QueryRow(countQuery, channel, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func scanCampaign(row interface{ Scan(dest ...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	var criteria, schedule []byte
	err := row.Scan(
		&c.ID, &c.HoldingOrgID, &c.MemberOrgID, &c.Code, &c.Name, &c.Description,
		&c.TemplateID, &c.Channel, &criteria, &c.FilterQuery, &schedule,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.FilterCriteria = criteria
	c.SchedulePattern = schedule
	return &c, nil
}

// nullableJSON maps an empty raw message to SQL NULL so jsonb columns do not
// reject the empty string.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
