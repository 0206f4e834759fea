package prompts

import "strings"

// DefaultWorkingDirectory is the project root the chat UI runs in when
// the caller does not say otherwise.
const DefaultWorkingDirectory = "/home/project"

// DefaultModificationTagName is the tag the UI wraps user file edits in
// before sending them to the model.
const DefaultModificationTagName = "bolt_file_modifications"

// DefaultAllowedHTMLElements are the HTML tags the chat UI renders in
// assistant messages. The default prompt always advertises this list.
var DefaultAllowedHTMLElements = []string{
	"a", "b", "blockquote", "br", "code", "dd", "del", "details", "div",
	"dl", "dt", "em", "h1", "h2", "h3", "h4", "h5", "h6", "hr", "i",
	"ins", "kbd", "li", "ol", "p", "pre", "q", "rp", "rt", "ruby", "s",
	"samp", "source", "span", "strike", "strong", "sub", "summary", "sup",
	"table", "tbody", "td", "tfoot", "th", "thead", "tr", "ul", "var",
}

// Options are the runtime values interpolated into a prompt. They are
// supplied fresh on every render and never validated beyond direct
// interpolation.
type Options struct {
	WorkingDirectory    string   `json:"cwd"`
	AllowedHTMLElements []string `json:"allowed_html_elements"`
	ModificationTagName string   `json:"modification_tag_name"`
}

// JoinedElements returns the allowed elements as the comma-separated
// list that appears in prompt text ("b, i").
func (o Options) JoinedElements() string {
	return strings.Join(o.AllowedHTMLElements, ", ")
}

// WithDefaults returns a copy of o with blank fields filled from the
// package defaults. An explicitly empty (non-nil) element list is kept
// as-is.
func (o Options) WithDefaults() Options {
	if o.WorkingDirectory == "" {
		o.WorkingDirectory = DefaultWorkingDirectory
	}
	if o.AllowedHTMLElements == nil {
		o.AllowedHTMLElements = append([]string(nil), DefaultAllowedHTMLElements...)
	}
	if o.ModificationTagName == "" {
		o.ModificationTagName = DefaultModificationTagName
	}
	return o
}
