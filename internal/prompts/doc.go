// Package prompts holds the system prompt variants offered to the chat
// UI and the registry that selects between them.
//
// Prompt text is Go code rather than config files because it is program
// logic: templates use fmt.Sprintf interpolation, are compiled into the
// binary, and can be validated by tests. The only user-editable prompt
// is the custom override, which lives in the local settings store and is
// managed through [Overrides] and [Editor].
//
// Convention: each prompt variant gets its own file (system.go,
// optimized.go, custom.go) with an exported function that accepts the
// dynamic parts and returns the fully interpolated prompt string.
// [Library] maps the closed set of [ID] values onto those functions.
package prompts
