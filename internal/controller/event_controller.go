// internal/controller/event_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/repository"
)

// EventController exposes the event store for producers without queue
// access and for operators inspecting dispatch outcomes.
type EventController struct {
	Events   repository.MessageEventRepositoryInterface
	Messages repository.MessageRepositoryInterface
}

func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Kind    model.EventKind `json:"kind" validate:"required"`
		Date    *time.Time      `json:"date"`
		Payload json.RawMessage `json:"payload" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !model.ValidKind(body.Kind) {
		http.Error(w, "unknown event kind", http.StatusBadRequest)
		return
	}

	ev := &model.MessageEvent{
		Kind:    body.Kind,
		Payload: body.Payload,
	}
	if body.Date != nil {
		ev.Date = *body.Date
	}
	if err := c.Events.Create(ev); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	ev, err := c.Events.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if ev == nil {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	offset, limit, page := pageParams(r)
	kind := r.URL.Query().Get("kind")
	status := r.URL.Query().Get("status")

	events, total, err := c.Events.List(offset, limit, kind, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":    events,
		"total":     total,
		"page":      page,
		"page_size": limit,
	})
}

// ListEventMessages returns the per-recipient message records an event
// produced, whatever their outcome.
func (c *EventController) ListEventMessages(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	messages, err := c.Messages.ListByEvent(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": id,
		"messages": messages,
	})
}
