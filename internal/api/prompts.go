package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/nugget/promptdesk/internal/config"
	"github.com/nugget/promptdesk/internal/prompts"
)

// RenderRequest is the body of POST /v1/prompts/{id}/render. Every field
// is optional; blanks are filled from the configured defaults.
type RenderRequest struct {
	WorkingDirectory    string   `json:"cwd"`
	AllowedHTMLElements []string `json:"allowed_html_elements"`
	ModificationTagName string   `json:"modification_tag_name"`
}

// RenderResponse carries one rendered prompt.
type RenderResponse struct {
	ID       string     `json:"id"`
	PromptID prompts.ID `json:"prompt_id"`
	Prompt   string     `json:"prompt"`
	HTML     string     `json:"html,omitempty"`
}

// CustomPromptRequest is the body of PUT /v1/prompts/custom.
type CustomPromptRequest struct {
	Prompt string `json:"prompt"`
}

// CustomPromptResponse reports the saved override after a read, save or
// reset. On a failed save Prompt is still the previously saved text.
type CustomPromptResponse struct {
	Prompt string          `json:"prompt"`
	Notice *prompts.Notice `json:"notice,omitempty"`
}

// options merges a request with the server defaults.
func (s *Server) options(req RenderRequest) prompts.Options {
	opts := s.defaults
	if req.WorkingDirectory != "" {
		opts.WorkingDirectory = req.WorkingDirectory
	}
	if req.AllowedHTMLElements != nil {
		opts.AllowedHTMLElements = req.AllowedHTMLElements
	}
	if req.ModificationTagName != "" {
		opts.ModificationTagName = req.ModificationTagName
	}
	return opts
}

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"prompts": s.library.List()}, s.logger)
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"examples": prompts.Examples()}, s.logger)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.render(w, r, chi.URLParam(r, "id"), s.options(req))
}

func (s *Server) handleSystemPrompt(w http.ResponseWriter, r *http.Request) {
	entry, err := s.settings.SelectedPrompt()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, string(entry.ID), s.defaults)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, id string, opts prompts.Options) {
	text, err := s.library.Resolve(id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Log(r.Context(), config.LevelTrace, "prompt rendered", "prompt_id", id, "prompt", text)

	resp := RenderResponse{
		ID:       "prompt-" + uuid.NewString(),
		PromptID: prompts.ID(id),
		Prompt:   text,
	}
	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(text), &buf); err != nil {
			s.logger.Error("markdown preview failed", "prompt_id", id, "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "preview failed")
			return
		}
		resp.HTML = buf.String()
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp, s.logger)
}

func (s *Server) handleCustomGet(w http.ResponseWriter, r *http.Request) {
	current, err := s.overrides.Current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, CustomPromptResponse{Prompt: current}, s.logger)
}

func (s *Server) handleCustomSave(w http.ResponseWriter, r *http.Request) {
	var req CustomPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ed := prompts.NewEditor(s.overrides, s.logger)
	if err := ed.Load(); err != nil {
		s.customFailure(w, r, err, "Failed to save custom prompt")
		return
	}
	ed.SetDraft(req.Prompt)

	notice, err := ed.Save()
	s.customResult(w, ed, notice, err)
}

func (s *Server) handleCustomReset(w http.ResponseWriter, r *http.Request) {
	ed := prompts.NewEditor(s.overrides, s.logger)
	if err := ed.Load(); err != nil {
		s.customFailure(w, r, err, "Failed to reset custom prompt")
		return
	}

	notice, err := ed.Reset()
	s.customResult(w, ed, notice, err)
}

// customResult writes the editor state after a save or reset. Prompt is
// always the text the store last accepted.
func (s *Server) customResult(w http.ResponseWriter, ed *prompts.Editor, notice prompts.Notice, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(errorStatus(err))
	}
	writeJSON(w, CustomPromptResponse{Prompt: ed.Saved(), Notice: &notice}, s.logger)
}

// customFailure reports a save or reset that could not start because
// the current override was unreadable. The body keeps the
// CustomPromptResponse shape so the UI can show the notice.
func (s *Server) customFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	s.logger.Error("custom prompt unavailable", "path", r.URL.Path, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errorStatus(err))
	writeJSON(w, CustomPromptResponse{
		Notice: &prompts.Notice{Level: prompts.NoticeError, Message: message},
	}, s.logger)
}
