// Package handlers provides the REST API the local UI talks to.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/clicknote/clicknote-core/internal/errors"
	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/repo"
)

// RecordsHandler serves record CRUD over the repository.
type RecordsHandler struct {
	records *repo.Records
}

// NewRecordsHandler creates a RecordsHandler.
func NewRecordsHandler(records *repo.Records) *RecordsHandler {
	return &RecordsHandler{records: records}
}

// Collection handles GET and POST /api/records.
func (h *RecordsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles DELETE /api/records/{id}.
func (h *RecordsHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "record id is required", http.StatusBadRequest)
		return
	}

	if err := h.records.DeleteRecord(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.GetRecords(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *RecordsHandler) create(w http.ResponseWriter, r *http.Request) {
	var rec models.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if rec.RecordedDate.IsZero() {
		rec.RecordedDate = time.Now()
	}

	// SaveRecord assigns the id in place when absent
	if _, err := h.records.SaveRecord(r.Context(), &rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeError maps core error codes onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	code := http.StatusInternalServerError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrValidation, apperrors.ErrInvalid:
			code = http.StatusBadRequest
		case apperrors.ErrNotFound:
			code = http.StatusNotFound
		case apperrors.ErrUnauthenticated:
			code = http.StatusUnauthorized
		}
	}
	http.Error(w, err.Error(), code)
}
