// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var campaignNotFound *appErrors.ErrCampaignNotFound
	var templateNotFound *appErrors.ErrTemplateNotFound
	var criteriaErr *appErrors.ErrCriteria

	switch {
	case errors.As(err, &campaignNotFound), errors.As(err, &templateNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &criteriaErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// pageParams converts page/page_size query values to an offset/limit pair.
func pageParams(r *http.Request) (offset, limit, page int) {
	page = queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize, page
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}
