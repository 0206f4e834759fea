package prompts

import "log/slog"

// NoticeLevel classifies a user-facing notification.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a non-fatal message for the user, shown by the UI as a
// toast. A failed save or reset produces an error notice rather than
// aborting the surrounding request.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Editor is the editing session behind the custom prompt settings
// screen. It tracks the last saved text separately from the working
// draft so a failed save never looks like it succeeded: Saved only
// changes after the store accepts the write.
//
// An Editor is not safe for concurrent use; create one per request or
// per interactive session.
type Editor struct {
	overrides *Overrides
	logger    *slog.Logger

	saved   string
	draft   string
	editing bool
}

// NewEditor returns an editor for overrides. Call [Editor.Load] before
// using it.
func NewEditor(overrides *Overrides, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{overrides: overrides, logger: logger}
}

// Load reads the saved override into both the saved text and the draft.
func (e *Editor) Load() error {
	current, err := e.overrides.Current()
	if err != nil {
		return err
	}
	e.saved = current
	e.draft = current
	e.editing = false
	return nil
}

// Saved returns the text the store last accepted.
func (e *Editor) Saved() string { return e.saved }

// Draft returns the working text.
func (e *Editor) Draft() string { return e.draft }

// Editing reports whether there is an unsaved editing session.
func (e *Editor) Editing() bool { return e.editing }

// SetDraft replaces the working text and enters editing mode.
func (e *Editor) SetDraft(text string) {
	e.draft = text
	e.editing = true
}

// Cancel discards the draft.
func (e *Editor) Cancel() {
	e.draft = e.saved
	e.editing = false
}

// Save persists the draft. On failure the saved text is unchanged, the
// editor stays in editing mode, and the returned notice and error
// describe the failure.
func (e *Editor) Save() (Notice, error) {
	if err := e.overrides.Save(e.draft); err != nil {
		e.logger.Error("failed to save custom prompt", "error", err)
		return Notice{Level: NoticeError, Message: "Failed to save custom prompt"}, err
	}
	e.saved = e.draft
	e.editing = false
	e.logger.Info("custom prompt saved", "bytes", len(e.saved))
	return Notice{Level: NoticeSuccess, Message: "Custom prompt saved successfully"}, nil
}

// Reset deletes the override. Both saved text and draft become the
// empty string returned by [Overrides.Reset]; the fallback prompt is
// only produced by a later render.
func (e *Editor) Reset() (Notice, error) {
	cleared, err := e.overrides.Reset()
	if err != nil {
		e.logger.Error("failed to reset custom prompt", "error", err)
		return Notice{Level: NoticeError, Message: "Failed to reset custom prompt"}, err
	}
	e.saved = cleared
	e.draft = cleared
	e.editing = false
	e.logger.Info("custom prompt reset")
	return Notice{Level: NoticeSuccess, Message: "Custom prompt reset to default"}, nil
}
