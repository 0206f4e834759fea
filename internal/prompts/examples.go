package prompts

// Example is a starter request offered on an empty chat screen.
type Example struct {
	Text string `json:"text"`
}

var examples = [...]Example{
	{Text: "Build a medical clinic management system with React and Node.js"},
	{Text: "Create an e-learning platform with video lessons and quizzes"},
	{Text: "Build a digital products marketplace using Next.js and Firebase"},
	{Text: "Develop a delivery app with real-time order tracking"},
	{Text: "Create a project management system with a kanban board and real-time notifications"},
}

// Examples returns the starter requests in display order.
func Examples() []Example {
	out := make([]Example, len(examples))
	copy(out, examples[:])
	return out
}
