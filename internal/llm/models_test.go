package llm

import "testing"

func TestSupportsVision(t *testing.T) {
	tests := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"openai gpt-4o with key", AIConfig{Platform: "openai", APIKey: "sk-x", TextModel: "gpt-4o"}, true},
		{"openai gpt-4o-mini", AIConfig{Platform: "openai", APIKey: "sk-x", TextModel: "gpt-4o-mini"}, true},
		{"openai gpt-4.1 variant", AIConfig{Platform: "openai", APIKey: "sk-x", TextModel: "gpt-4.1-nano"}, true},
		{"chatgpt-4o-latest normalizes to 4o-mini", AIConfig{Platform: "openai", APIKey: "sk-x", TextModel: "chatgpt-4o-latest"}, true},
		{"openai legacy gpt-3.5", AIConfig{Platform: "openai", APIKey: "sk-x", TextModel: "gpt-3.5-turbo"}, false},
		{"missing key", AIConfig{Platform: "openai", TextModel: "gpt-4o"}, false},
		{"anthropic never", AIConfig{Platform: "anthropic", APIKey: "sk-x", TextModel: "claude-sonnet-4-5"}, false},
		{"google never", AIConfig{Platform: "google", APIKey: "k", TextModel: "gemini-2.5-pro"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := SupportsVision(tt.cfg); got != tt.want {
				t.Fatalf("SupportsVision(%+v) = %v, want %v", tt.cfg, got, tt.want)
			}
		})
	}
}

func TestIsLegacyChatModel(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-3.5-turbo", true},
		{"gpt-4", true},
		{"gpt-4-turbo", true},
		{"gpt-4o", false},
		{"gpt-4o-mini", false},
		{"gpt-4.1", false},
		{"gpt-5", false},
	}
	for _, tt := range tests {
		if got := isLegacyChatModel(tt.model); got != tt.want {
			t.Fatalf("isLegacyChatModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
