package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
	"github.com/centrocomm/messaging-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	GetByID(id int) (*model.MessageTemplate, error)
	List(offset, limit int) ([]*model.MessageTemplate, int, error)
	Create(t *model.MessageTemplate) error
	Update(t *model.MessageTemplate) error
}

type TemplateRepository struct {
	DB *sql.DB
}

const templateColumns = `
        id, holding_org_id, member_org_id, code, name,
        email_subject, email_body, sms_text, whatsapp_text,
        created_at, updated_at
`

func (r *TemplateRepository) GetByID(id int) (*model.MessageTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM message_templates WHERE id=$1`
	t, err := scanTemplate(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepository) List(offset, limit int) ([]*model.MessageTemplate, int, error) {
	query := `
        SELECT ` + templateColumns + `
        FROM message_templates
        ORDER BY created_at DESC
        OFFSET $1 LIMIT $2
    `
	rows, err := r.DB.Query(query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	templates := []*model.MessageTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM message_templates`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

func (r *TemplateRepository) Create(t *model.MessageTemplate) error {
	t.CreatedAt = time.Now()
	query := `
        INSERT INTO message_templates (holding_org_id, member_org_id, code, name,
                                       email_subject, email_body, sms_text, whatsapp_text, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		t.HoldingOrgID, t.MemberOrgID, t.Code, t.Name,
		t.EmailSubject, t.EmailBody, t.SmsText, t.WhatsAppText, t.CreatedAt,
	).Scan(&t.ID)
}

func (r *TemplateRepository) Update(t *model.MessageTemplate) error {
	query := `
        UPDATE message_templates
        SET name=$1, email_subject=$2, email_body=$3, sms_text=$4, whatsapp_text=$5, updated_at=NOW()
        WHERE id=$6
    `
	res, err := r.DB.Exec(query, t.Name, t.EmailSubject, t.EmailBody, t.SmsText, t.WhatsAppText, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	return nil
}

func scanTemplate(row interface{ Scan(dest ...any) error }) (*model.MessageTemplate, error) {
	var t model.MessageTemplate
	err := row.Scan(
		&t.ID, &t.HoldingOrgID, &t.MemberOrgID, &t.Code, &t.Name,
		&t.EmailSubject, &t.EmailBody, &t.SmsText, &t.WhatsAppText,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
