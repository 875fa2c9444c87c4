package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	c := NewClient(5 * time.Second)
	c.openAIURL = url
	c.anthropicURL = url
	c.geminiURL = url
	return c
}

func TestGenerateFeedbackUnsupportedPlatform(t *testing.T) {
	c := NewClient(time.Second)
	_, err := c.GenerateFeedback(context.Background(), FeedbackRequest{
		Config: AIConfig{Platform: "cohere"},
		Prompt: "grade this",
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported platform") {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}
}

func TestOpenAIFeedbackSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if _, ok := payload["max_completion_tokens"]; !ok {
			t.Errorf("expected max_completion_tokens for gpt-4o, payload %v", payload)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Good work on loops."}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.GenerateFeedback(context.Background(), FeedbackRequest{
		Config: AIConfig{Platform: "openai", APIKey: "sk-test", TextModel: "gpt-4o-mini"},
		Prompt: "grade this",
	})
	if err != nil {
		t.Fatalf("GenerateFeedback: %v", err)
	}
	if got != "Good work on loops." {
		t.Fatalf("unexpected feedback: %q", got)
	}
}

func TestOpenAIFeedbackRetriesOnTokenParamRejection(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Unsupported parameter: 'max_completion_tokens' is not supported with this model."}}`))
			return
		}
		if _, ok := payload["max_tokens"]; !ok {
			t.Errorf("retry should carry max_tokens, payload %v", payload)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"retried fine"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.GenerateFeedback(context.Background(), FeedbackRequest{
		Config: AIConfig{Platform: "openai", APIKey: "sk-test", TextModel: "gpt-4o"},
		Prompt: "grade this",
	})
	if err != nil {
		t.Fatalf("GenerateFeedback: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
	if got != "retried fine" {
		t.Fatalf("unexpected feedback: %q", got)
	}
}

func TestOpenAIFeedbackPartsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.GenerateFeedback(context.Background(), FeedbackRequest{
		Config: AIConfig{Platform: "openai", APIKey: "sk-test", TextModel: "gpt-4o"},
		Prompt: "p",
	})
	if err != nil {
		t.Fatalf("GenerateFeedback: %v", err)
	}
	if got != "part one part two" {
		t.Fatalf("unexpected joined content: %q", got)
	}
}

func TestDescribeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type     string `json:"type"`
					Text     string `json:"text"`
					ImageURL struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(payload.Messages) != 2 {
			t.Errorf("expected system+user messages, got %d", len(payload.Messages))
		}
		user := payload.Messages[1]
		if len(user.Content) != 2 || !strings.HasPrefix(user.Content[1].ImageURL.URL, "data:image/jpeg;base64,") {
			t.Errorf("expected data-URL image part, got %+v", user.Content)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- a bar chart"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.DescribeImage(context.Background(), VisionRequest{
		Config:      AIConfig{Platform: "openai", APIKey: "sk-test", TextModel: "gpt-4o"},
		MimeType:    "image/jpeg",
		ImageBase64: "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if got != "- a bar chart" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestDescribeImageUnsupportedPlatform(t *testing.T) {
	c := NewClient(time.Second)
	_, err := c.DescribeImage(context.Background(), VisionRequest{
		Config:      AIConfig{Platform: "anthropic", APIKey: "sk-x"},
		ImageBase64: "aGVsbG8=",
	})
	if err == nil || !strings.Contains(err.Error(), "vision analysis not supported") {
		t.Fatalf("expected vision unsupported error, got %v", err)
	}
}

func TestDescribeImageRequiresPayload(t *testing.T) {
	c := NewClient(time.Second)
	_, err := c.DescribeImage(context.Background(), VisionRequest{
		Config: AIConfig{Platform: "openai", APIKey: "sk-x", TextModel: "gpt-4o"},
	})
	if err == nil || !strings.Contains(err.Error(), "image payload missing") {
		t.Fatalf("expected missing payload error, got %v", err)
	}
}

func TestAnthropicFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "sk-ant" {
			t.Errorf("expected x-api-key header, got %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Errorf("expected anthropic-version header")
		}
		w.Write([]byte(`{"content":[{"text":"Clear structure, missing edge cases."}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.GenerateFeedback(context.Background(), FeedbackRequest{
		Config: AIConfig{Platform: "anthropic", APIKey: "sk-ant", TextModel: "claude-sonnet-4-5"},
		Prompt: "grade this",
	})
	if err != nil {
		t.Fatalf("GenerateFeedback: %v", err)
	}
	if got != "Clear structure, missing edge cases." {
		t.Fatalf("unexpected feedback: %q", got)
	}
}

func TestGeminiFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.String(), "generateContent") {
			t.Errorf("expected generateContent path, got %s", r.URL.String())
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Solid effort."}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.GenerateFeedback(context.Background(), FeedbackRequest{
		Config: AIConfig{Platform: "google", APIKey: "key", TextModel: "gemini-2.5-pro"},
		Prompt: "grade this",
	})
	if err != nil {
		t.Fatalf("GenerateFeedback: %v", err)
	}
	if got != "Solid effort." {
		t.Fatalf("unexpected feedback: %q", got)
	}
}

func TestGeminiFeedbackErrorSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GenerateFeedback(context.Background(), FeedbackRequest{
		Config: AIConfig{Platform: "google", APIKey: "bad", TextModel: "gemini-2.5-pro"},
		Prompt: "grade this",
	})
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected surfaced provider error, got %v", err)
	}
}
