package prompts

import (
	"errors"
	"fmt"
	"strings"
)

// OverrideKey is the settings key holding the user's custom prompt
// template. The value is plain text with no envelope.
const OverrideKey = "custom_prompt"

// Placeholder tokens recognized in a custom prompt template.
const (
	PlaceholderCWD                 = "${cwd}"
	PlaceholderAllowedHTMLElements = "${allowedHtmlElements}"
)

// customFallbackTemplate is rendered for the custom variant when no
// override is saved. Format verbs: working directory, joined elements.
const customFallbackTemplate = `You are an AI programming assistant. Follow the user's requirements carefully & to the letter.
Current working directory: %s

Available HTML elements for formatting: %s`

// CustomPrompt renders the custom variant. An empty override yields the
// fallback template. Otherwise every occurrence of [PlaceholderCWD] and
// [PlaceholderAllowedHTMLElements] is replaced in a single pass, so a
// substituted value that itself looks like a placeholder is left alone.
func CustomPrompt(override string, opts Options) string {
	if override == "" {
		return fmt.Sprintf(customFallbackTemplate, opts.WorkingDirectory, opts.JoinedElements())
	}
	r := strings.NewReplacer(
		PlaceholderCWD, opts.WorkingDirectory,
		PlaceholderAllowedHTMLElements, opts.JoinedElements(),
	)
	return r.Replace(override)
}

// KV is the slice of a local settings store the prompt code needs.
// Get returns "" for a missing key; Delete of a missing key succeeds.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Overrides manages the lifecycle of the custom prompt override:
// ABSENT -> Save -> PRESENT -> Save -> PRESENT -> Reset -> ABSENT.
// There is no locking or versioning; concurrent writers are
// last-write-wins.
//
// A nil *Overrides behaves as a store that is always empty and refuses
// writes, so a [Library] built without settings still renders the
// fallback.
type Overrides struct {
	kv KV
}

// NewOverrides returns an override manager backed by kv.
func NewOverrides(kv KV) *Overrides {
	return &Overrides{kv: kv}
}

// Current returns the saved override, or "" when none is saved.
func (o *Overrides) Current() (string, error) {
	if o == nil {
		return "", nil
	}
	v, err := o.kv.Get(OverrideKey)
	if err != nil {
		return "", &PersistenceError{Op: "get", Key: OverrideKey, Err: err}
	}
	return v, nil
}

// Save persists text as the override, replacing any prior value.
func (o *Overrides) Save(text string) error {
	if o == nil {
		return &PersistenceError{Op: "set", Key: OverrideKey, Err: errNoStore}
	}
	if err := o.kv.Set(OverrideKey, text); err != nil {
		return &PersistenceError{Op: "set", Key: OverrideKey, Err: err}
	}
	return nil
}

// Reset deletes the override and returns the empty string. It does not
// return the fallback; render again to see it.
func (o *Overrides) Reset() (string, error) {
	if o == nil {
		return "", &PersistenceError{Op: "delete", Key: OverrideKey, Err: errNoStore}
	}
	if err := o.kv.Delete(OverrideKey); err != nil {
		return "", &PersistenceError{Op: "delete", Key: OverrideKey, Err: err}
	}
	return "", nil
}

// Render reads the current override and renders the custom variant.
func (o *Overrides) Render(opts Options) (string, error) {
	override, err := o.Current()
	if err != nil {
		return "", err
	}
	return CustomPrompt(override, opts), nil
}

var errNoStore = errors.New("no settings store configured")
