package repository

import (
	"database/sql"

	"github.com/centrocomm/messaging-backend/internal/model"
)

type OrgRepositoryInterface interface {
	GetMemberOrg(id int) (*model.MemberOrg, error)
	GetHoldingOrg(id int) (*model.HoldingOrg, error)
}

type OrgRepository struct {
	DB *sql.DB
}

func (r *OrgRepository) GetMemberOrg(id int) (*model.MemberOrg, error) {
	query := `
        SELECT id, holding_org_id, code, name,
               default_email_sender, default_sms_sender, default_whatsapp_sender, created_at
        FROM member_orgs WHERE id=$1
    `
	var m model.MemberOrg
	err := r.DB.QueryRow(query, id).Scan(
		&m.ID, &m.HoldingOrgID, &m.Code, &m.Name,
		&m.DefaultEmailSender, &m.DefaultSmsSender, &m.DefaultWhatsAppSender, &m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *OrgRepository) GetHoldingOrg(id int) (*model.HoldingOrg, error) {
	query := `SELECT id, code, name, created_at FROM holding_orgs WHERE id=$1`
	var h model.HoldingOrg
	err := r.DB.QueryRow(query, id).Scan(&h.ID, &h.Code, &h.Name, &h.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}
