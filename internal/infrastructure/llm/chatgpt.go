package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsRadar/internal/config"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

// ChatGPTAnalyzer implements ports.Analyzer backed by OpenAI-compatible chat APIs.
type ChatGPTAnalyzer struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	language     string
	httpClient   *http.Client
}

var _ ports.Analyzer = (*ChatGPTAnalyzer)(nil)

// NewChatGPTAnalyzer builds an analyzer from configuration.
func NewChatGPTAnalyzer(cfg config.ChatGPTConfig, language string) *ChatGPTAnalyzer {
	return &ChatGPTAnalyzer{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		language:     language,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Analyze sends the headlines as a user message and parses the JSON reply.
func (c *ChatGPTAnalyzer) Analyze(ctx context.Context, keyword string, total int, sample []domain.Article) (domain.Decision, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.Decision{}, fmt.Errorf("chatgpt analyzer misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": buildPrompt(keyword, total, sample, c.language)},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Decision{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("send prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Decision{}, fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.Decision{}, fmt.Errorf("decode chatgpt response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Decision{}, fmt.Errorf("chatgpt returned no choices")
	}

	return parseDecision(completion.Choices[0].Message.Content)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}
