package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gradermate-backend/internal/shared/telemetry"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChoiceMessage struct {
	Role      string           `json:"role"`
	Content   json.RawMessage  `json:"content"`
	ToolCalls []openAIToolCall `json:"tool_calls"`
}

type openAIToolCall struct {
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIChoiceMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) openAIFeedback(ctx context.Context, req FeedbackRequest) (string, error) {
	model := req.Config.TextModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	model = normalizeModelName(model)

	payload := map[string]any{
		"model": model,
		"messages": []openAIMessage{
			{Role: "system", Content: systemPromptOrDefault(req.Config)},
			{Role: "user", Content: req.Prompt},
		},
	}
	// Newer models default to tool-call-shaped output unless plain text is
	// requested explicitly.
	if !isLegacyChatModel(model) {
		payload["response_format"] = map[string]string{"type": "text"}
	}

	applyTokenAndTemperature(payload, model, req.MaxTokens, req.Temperature)

	apiResp, err := c.openAIDoWithFallback(ctx, req.Config.APIKey, model, payload, req.MaxTokens, "openai.feedback")
	if err != nil {
		return "", err
	}

	text, err := extractOpenAIText(apiResp)
	if err != nil {
		return "", err
	}
	if text == "" {
		if len(apiResp.Choices) > 0 && len(apiResp.Choices[0].Message.ToolCalls) > 0 {
			return "", fmt.Errorf("model attempted a tool call, which is not supported in this workflow")
		}
		return "", fmt.Errorf("received an empty response from OpenAI")
	}
	return text, nil
}

func (c *Client) openAIVision(ctx context.Context, req VisionRequest) (string, error) {
	model := req.Config.TextModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	model = normalizeModelName(model)

	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = "image/png"
	}
	imagePayload := strings.TrimSpace(req.ImageBase64)
	if imagePayload == "" {
		return "", fmt.Errorf("image payload missing for vision analysis")
	}
	imageURL := fmt.Sprintf("data:%s;base64,%s", mimeType, imagePayload)

	payload := map[string]any{
		"model": model,
		"messages": []map[string]any{
			{
				"role": "system",
				"content": []map[string]any{
					{"type": "text", "text": visionSystemPrompt},
				},
			},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": req.Prompt},
					{"type": "image_url", "image_url": map[string]any{"url": imageURL}},
				},
			},
		},
		"response_format": map[string]string{"type": "text"},
	}

	applyTokenAndTemperature(payload, model, req.MaxTokens, req.Temperature)

	apiResp, err := c.openAIDoWithFallback(ctx, req.Config.APIKey, model, payload, req.MaxTokens, "openai.vision")
	if err != nil {
		return "", err
	}

	text, err := extractOpenAIText(apiResp)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("received an empty response from OpenAI vision endpoint")
	}
	return text, nil
}

// applyTokenAndTemperature sets the token-limit parameter under the name the
// model expects, and omits temperature for models that reject non-default
// values.
func applyTokenAndTemperature(payload map[string]any, model string, maxTokens int, temperature float64) {
	paramKey := "max_tokens"
	if usesMaxCompletionTokens(model) {
		paramKey = "max_completion_tokens"
	}
	payload[paramKey] = maxTokens

	if !requiresDefaultTemperature(model) {
		payload["temperature"] = temperature
	}
}

// openAIDoWithFallback posts the payload and retries once when OpenAI rejects
// the token-parameter name or the temperature with a 400.
func (c *Client) openAIDoWithFallback(ctx context.Context, apiKey, model string, payload map[string]any, maxTokens int, op string) (*openAIResponse, error) {
	apiResp, status, err := c.openAIDo(ctx, apiKey, payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusBadRequest && apiResp.Error != nil {
		lowerMsg := strings.ToLower(apiResp.Error.Message)
		fallback := false

		switch {
		case strings.Contains(lowerMsg, "unsupported parameter: 'max_tokens'"):
			delete(payload, "max_tokens")
			payload["max_completion_tokens"] = maxTokens
			fallback = true
		case strings.Contains(lowerMsg, "unsupported parameter: 'max_completion_tokens'"):
			delete(payload, "max_completion_tokens")
			payload["max_tokens"] = maxTokens
			fallback = true
		case strings.Contains(lowerMsg, "unsupported value: 'temperature'"):
			if _, ok := payload["temperature"]; ok {
				delete(payload, "temperature")
				fallback = true
			}
		}

		if fallback {
			telemetry.Info(op+".param_retry", map[string]any{"model": model, "reason": apiResp.Error.Message})
			apiResp, status, err = c.openAIDo(ctx, apiKey, payload)
			if err != nil {
				return nil, err
			}
		}
	}

	if status != http.StatusOK {
		if apiResp.Error != nil {
			return nil, fmt.Errorf("OpenAI API error: %s", apiResp.Error.Message)
		}
		return nil, fmt.Errorf("OpenAI API error: status %d", status)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}
	return apiResp, nil
}

func (c *Client) openAIDo(ctx context.Context, apiKey string, payload map[string]any) (*openAIResponse, int, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.openAIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	var apiResp openAIResponse
	_ = json.Unmarshal(body, &apiResp)
	return &apiResp, resp.StatusCode, nil
}

// extractOpenAIText handles both the plain-string and the typed-parts content
// shapes OpenAI returns.
func extractOpenAIText(apiResp *openAIResponse) (string, error) {
	raw := apiResp.Choices[0].Message.Content
	if len(raw) == 0 {
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString), nil
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil && len(parts) > 0 {
		var builder strings.Builder
		for _, part := range parts {
			if part.Text != "" {
				builder.WriteString(part.Text)
			}
		}
		return strings.TrimSpace(builder.String()), nil
	}

	return "", fmt.Errorf("unsupported message content structure")
}
