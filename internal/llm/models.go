package llm

import "strings"

// visionModelKeywords is the fixed allow-list used to recognize
// vision-capable OpenAI models by substring match.
var visionModelKeywords = []string{
	"gpt-4o",
	"gpt-4.1",
	"gpt-4-turbo",
	"gpt-4-vision",
	"gpt-5",
	"chatgpt-4o",
}

// SupportsVision reports whether the configured platform, model, and key can
// accept image input at all. It is computed once per submission extraction.
func SupportsVision(cfg AIConfig) bool {
	if strings.ToLower(strings.TrimSpace(cfg.Platform)) != "openai" {
		return false
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return false
	}
	model := normalizeModelName(cfg.TextModel)
	for _, kw := range visionModelKeywords {
		if strings.Contains(model, kw) {
			return true
		}
	}
	return false
}

func normalizeModelName(in string) string {
	model := strings.ToLower(strings.TrimSpace(in))
	switch model {
	case "chatgpt-4o-latest", "gpt-4o-mini-latest":
		return "gpt-4o-mini"
	}
	return model
}

// isLegacyChatModel reports whether the model still uses the original chat
// parameters (max_tokens, free temperature).
func isLegacyChatModel(model string) bool {
	model = normalizeModelName(model)
	return strings.HasPrefix(model, "gpt-3.5") ||
		(strings.HasPrefix(model, "gpt-4") &&
			!strings.HasPrefix(model, "gpt-4.1") &&
			!strings.HasPrefix(model, "gpt-4o"))
}

func usesMaxCompletionTokens(model string) bool {
	return !isLegacyChatModel(model)
}

// requiresDefaultTemperature reports whether the model rejects non-default
// temperature values.
func requiresDefaultTemperature(model string) bool {
	return usesMaxCompletionTokens(model)
}
