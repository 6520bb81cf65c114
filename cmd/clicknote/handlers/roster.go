package handlers

import (
	"net/http"

	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/roster"
)

// RosterHandler serves the read-only reference tables.
type RosterHandler struct {
	roster *roster.Service
}

// NewRosterHandler creates a RosterHandler.
func NewRosterHandler(service *roster.Service) *RosterHandler {
	return &RosterHandler{roster: service}
}

// Students handles GET /api/students.
func (h *RosterHandler) Students(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	students, err := h.roster.Students(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

// Cards handles GET /api/cards.
func (h *RosterHandler) Cards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cards, err := h.roster.Cards(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

// Notes handles GET /api/notes.
func (h *RosterHandler) Notes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	notes, err := h.roster.Notes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}
