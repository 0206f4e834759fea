package prompts

// ID identifies a system prompt variant. The set is closed: only the
// constants below are valid, and [ParseID] rejects everything else.
type ID string

// Registered prompt variants, in registration order.
const (
	Default   ID = "default"
	Optimized ID = "optimized"
	Custom    ID = "custom"
)

// Entry is the menu metadata for one prompt variant.
type Entry struct {
	ID          ID     `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// entries is the registry in registration order. List and Lookup read
// it; rendering is dispatched by [Library.render].
var entries = [...]Entry{
	{
		ID:          Default,
		Label:       "Default Prompt",
		Description: "This is the battle tested default system Prompt",
	},
	{
		ID:          Optimized,
		Label:       "Optimized Prompt (experimental)",
		Description: "an Experimental version of the prompt for lower token usage",
	},
	{
		ID:          Custom,
		Label:       "Custom Prompt",
		Description: "Your customized system prompt",
	},
}

// ParseID converts a raw identifier to an [ID]. Matching is exact;
// unknown identifiers return a [*NotFoundError].
func ParseID(s string) (ID, error) {
	e, err := lookup(s)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

func lookup(s string) (Entry, error) {
	for _, e := range entries {
		if string(e.ID) == s {
			return e, nil
		}
	}
	return Entry{}, &NotFoundError{ID: s}
}

// Library resolves prompt identifiers to rendered prompt text.
type Library struct {
	overrides *Overrides
}

// NewLibrary creates a registry. overrides backs the custom variant and
// may be nil, in which case the custom variant always renders its
// fallback.
func NewLibrary(overrides *Overrides) *Library {
	return &Library{overrides: overrides}
}

// List returns every registered entry in registration order. The
// returned slice is a copy.
func (l *Library) List() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries[:])
	return out
}

// Lookup returns the metadata for id without rendering anything.
func (l *Library) Lookup(id string) (Entry, error) {
	return lookup(id)
}

// Resolve renders the prompt registered under id with opts. An unknown
// id returns "" and an error matching [ErrNotFound]; no partial output
// is produced. The custom variant may also fail with [ErrPersistence]
// if the override cannot be read.
func (l *Library) Resolve(id string, opts Options) (string, error) {
	pid, err := ParseID(id)
	if err != nil {
		return "", err
	}
	return l.render(pid, opts)
}

func (l *Library) render(id ID, opts Options) (string, error) {
	switch id {
	case Default:
		return SystemPrompt(opts.WorkingDirectory), nil
	case Optimized:
		return OptimizedPrompt(opts), nil
	case Custom:
		return l.overrides.Render(opts)
	}
	return "", &NotFoundError{ID: string(id)}
}
