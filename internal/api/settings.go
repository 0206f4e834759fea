package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nugget/promptdesk/internal/prompts"
	"github.com/nugget/promptdesk/internal/settings"
)

// SelectPromptRequest is the body of PUT /v1/settings/prompt.
type SelectPromptRequest struct {
	PromptID string `json:"prompt_id"`
}

func (s *Server) handleSelectedPromptGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.settings.SelectedPrompt()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entry, s.logger)
}

func (s *Server) handleSelectedPromptPut(w http.ResponseWriter, r *http.Request) {
	var req SelectPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.settings.SelectPrompt(req.PromptID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entry, s.logger)
}

func (s *Server) handleDatabaseGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.settings.Database()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, d.Redacted(), s.logger)
}

func (s *Server) handleDatabasePut(w http.ResponseWriter, r *http.Request) {
	// Edits are merged into the stored record; omitted fields keep
	// their current values.
	d, err := s.settings.Database()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stored := d.Password
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A redacted password sent back unchanged keeps the stored one.
	if d.Password == settings.RedactedPassword {
		d.Password = stored
	}

	if err := s.settings.SaveDatabase(d); err != nil {
		if errors.Is(err, prompts.ErrPersistence) {
			s.fail(w, r, err)
			return
		}
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, d.Redacted(), s.logger)
}
