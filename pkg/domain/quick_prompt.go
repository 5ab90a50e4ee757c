package domain

// Quick prompts are the canned follow-up utterances the client can send on
// behalf of the user instead of free text.
var quickPrompts = map[string]string{
	"examples":   "Can you give me some examples?",
	"specific":   "Can you be more specific?",
	"understand": "I don't understand. Can you explain further?",
	"continue":   "Continue with the conversation.",
}

func QuickPrompt(action string) (string, bool) {
	text, ok := quickPrompts[action]
	return text, ok
}
