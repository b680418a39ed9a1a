package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/centrocomm/messaging-backend/internal/model"
)

type MessageRepositoryInterface interface {
	Create(m *model.Message) error
	ListByEvent(eventID int) ([]*model.Message, error)
}

type MessageRepository struct {
	DB *sql.DB
}

const messageColumns = `
        id, message_event_id, channel, from_addr, to_addr, cc_addr, bcc_addr,
        subject, body, text, sender_domain, status, status_message,
        used_default_sender, test_mode, override_active, overridden_to,
        field_validation_errors, provider_data, created_at
`

func (r *MessageRepository) Create(m *model.Message) error {
	m.CreatedAt = time.Now()

	var fieldErrs any
	if len(m.FieldValidationErrors) > 0 {
		b, err := json.Marshal(m.FieldValidationErrors)
		if err != nil {
			return err
		}
		fieldErrs = b
	}
	providerData, err := json.Marshal(m.Provider)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO messages (message_event_id, channel, from_addr, to_addr, cc_addr, bcc_addr,
                              subject, body, text, sender_domain, status, status_message,
                              used_default_sender, test_mode, override_active, overridden_to,
                              field_validation_errors, provider_data, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		m.MessageEventID, m.Channel, m.From, m.To, m.Cc, m.Bcc,
		m.Subject, m.Body, m.Text, m.SenderDomain, m.Status, m.StatusMessage,
		m.UsedDefaultSender, m.TestMode, m.OverrideActive, m.OverriddenTo,
		fieldErrs, providerData, m.CreatedAt,
	).Scan(&m.ID)
}

func (r *MessageRepository) ListByEvent(eventID int) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE message_event_id = $1 ORDER BY id`
	rows, err := r.DB.Query(query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func scanMessage(row interface{ Scan(dest ...any) error }) (*model.Message, error) {
	var m model.Message
	var fieldErrs, providerData []byte
	err := row.Scan(
		&m.ID, &m.MessageEventID, &m.Channel, &m.From, &m.To, &m.Cc, &m.Bcc,
		&m.Subject, &m.Body, &m.Text, &m.SenderDomain, &m.Status, &m.StatusMessage,
		&m.UsedDefaultSender, &m.TestMode, &m.OverrideActive, &m.OverriddenTo,
		&fieldErrs, &providerData, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(fieldErrs) > 0 {
		if err := json.Unmarshal(fieldErrs, &m.FieldValidationErrors); err != nil {
			return nil, err
		}
	}
	if len(providerData) > 0 {
		if err := json.Unmarshal(providerData, &m.Provider); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
