package model

import "strings"

// Credentials are the secrets captured once at startup and handed to the
// components that need them. Bedrock resolves its credentials through the
// AWS default chain and has no entry here.
type Credentials struct {
	OpenAI    string
	Anthropic string
	Google    string
	Deepgram  string
}

// ForProvider returns the key a provider needs and the setting it comes
// from. ok is false for providers that need no key.
func (c Credentials) ForProvider(p Provider) (key string, setting string, ok bool) {
	switch p {
	case ProviderOpenAI:
		return strings.TrimSpace(c.OpenAI), "OPENAI_API_KEY", true
	case ProviderAnthropic:
		return strings.TrimSpace(c.Anthropic), "ANTHROPIC_API_KEY", true
	case ProviderGemini:
		return strings.TrimSpace(c.Google), "GOOGLE_API_KEY", true
	default:
		return "", "", false
	}
}
