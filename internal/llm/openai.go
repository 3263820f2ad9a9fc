package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAI implements Client against any OpenAI-compatible Chat Completions API.
type OpenAI struct {
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	client       *http.Client
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAI{
		apiKey:       apiKey,
		model:        model,
		baseURL:      strings.TrimRight(baseURL, "/"),
		systemPrompt: "Convert text prompt into structured 3D scene JSON",
		client:       http.DefaultClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func (c *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai: API key not set")
	}
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := extractOpenAIErrorMessage(raw); msg != "" {
			return "", fmt.Errorf("openai: %s", msg)
		}
		return "", fmt.Errorf("openai: provider returned status %d", resp.StatusCode)
	}
	return parseChatCompletion(raw)
}

func parseChatCompletion(raw []byte) (string, error) {
	payload := struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode provider response failed: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("provider returned empty choices")
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

func extractOpenAIErrorMessage(raw []byte) string {
	payload := struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error.Message)
}
