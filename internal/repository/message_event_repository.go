package repository

import (
	"database/sql"
	"time"

	"github.com/centrocomm/messaging-backend/internal/model"
)

type MessageEventRepositoryInterface interface {
	Create(ev *model.MessageEvent) error
	GetByID(id int) (*model.MessageEvent, error)
	List(offset, limit int, kind, status string) ([]*model.MessageEvent, int, error)
	FindPending(kind model.EventKind, before time.Time, limit int) ([]*model.MessageEvent, error)
	Claim(id int, start time.Time) (bool, error)
	Finish(ev *model.MessageEvent) error
	CountStale(olderThan time.Time) (int, error)
}

type MessageEventRepository struct {
	DB *sql.DB
}

const eventColumns = `
        id, date, kind, status, status_message, payload,
        process_start_dt, process_end_dt, created_at
`

func (r *MessageEventRepository) Create(ev *model.MessageEvent) error {
	ev.CreatedAt = time.Now()
	if ev.Status == "" {
		ev.Status = model.EventStatusPending
	}
	if ev.Date.IsZero() {
		ev.Date = ev.CreatedAt
	}
	query := `
        INSERT INTO message_events (date, kind, status, status_message, payload, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		ev.Date, ev.Kind, ev.Status, ev.StatusMessage, []byte(ev.Payload), ev.CreatedAt,
	).Scan(&ev.ID)
}

func (r *MessageEventRepository) GetByID(id int) (*model.MessageEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM message_events WHERE id=$1`
	ev, err := scanEvent(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ev, nil
}

func (r *MessageEventRepository) List(offset, limit int, kind, status string) ([]*model.MessageEvent, int, error) {
	query := `
        SELECT ` + eventColumns + `
        FROM message_events
        WHERE ($1 = '' OR kind = $1)
          AND ($2 = '' OR status = $2)
        ORDER BY date DESC
        OFFSET $3 LIMIT $4
    `
	rows, err := r.DB.Query(query, kind, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `
        SELECT COUNT(*) FROM message_events
        WHERE ($1 = '' OR kind = $1)
          AND ($2 = '' OR status = $2)
    `
	if err := r.DB.QueryRow(countQuery, kind, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// FindPending returns due events of one kind, oldest first. Only events whose
// date has passed are due; future-dated events stay untouched.
func (r *MessageEventRepository) FindPending(kind model.EventKind, before time.Time, limit int) ([]*model.MessageEvent, error) {
	query := `
        SELECT ` + eventColumns + `
        FROM message_events
        WHERE kind = $1 AND status = $2 AND date <= $3
        ORDER BY date ASC
        LIMIT $4
    `
	rows, err := r.DB.Query(query, kind, model.EventStatusPending, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

// Claim atomically moves a pending event to processing. The conditional
// update is the only concurrency gate; a false return means another worker
// got there first and the caller must skip the event.
func (r *MessageEventRepository) Claim(id int, start time.Time) (bool, error) {
	query := `
        UPDATE message_events
        SET status = $1, process_start_dt = $2
        WHERE id = $3 AND status = $4
    `
	res, err := r.DB.Exec(query, model.EventStatusProcessing, start, id, model.EventStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Finish records the terminal status and end timestamp of a claimed event.
func (r *MessageEventRepository) Finish(ev *model.MessageEvent) error {
	query := `
        UPDATE message_events
        SET status = $1, status_message = $2, process_end_dt = $3
        WHERE id = $4
    `
	_, err := r.DB.Exec(query, ev.Status, ev.StatusMessage, ev.ProcessEndDt, ev.ID)
	return err
}

// CountStale counts events stuck in processing since before the cutoff.
// Nothing reclaims them automatically; the count feeds a startup warning.
func (r *MessageEventRepository) CountStale(olderThan time.Time) (int, error) {
	query := `
        SELECT COUNT(*) FROM message_events
        WHERE status = $1 AND process_start_dt < $2
    `
	var n int
	err := r.DB.QueryRow(query, model.EventStatusProcessing, olderThan).Scan(&n)
	return n, err
}

func scanEvent(row interface{ Scan(dest ...any) error }) (*model.MessageEvent, error) {
	var ev model.MessageEvent
	var payload []byte
	err := row.Scan(
		&ev.ID, &ev.Date, &ev.Kind, &ev.Status, &ev.StatusMessage, &payload,
		&ev.ProcessStartDt, &ev.ProcessEndDt, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	ev.Payload = payload
	return &ev, nil
}

func collectEvents(rows *sql.Rows) ([]*model.MessageEvent, error) {
	events := []*model.MessageEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
