package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"NewsRadar/internal/config"
	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiAnalyzer implements ports.Analyzer with the Gemini API.
type GeminiAnalyzer struct {
	client   *genai.Client
	model    string
	language string
}

var _ ports.Analyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates the API client; call Close when done.
func NewGeminiAnalyzer(ctx context.Context, cfg config.GeminiConfig, language string) (*GeminiAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiAnalyzer{client: client, model: model, language: language}, nil
}

// Close releases the underlying client.
func (g *GeminiAnalyzer) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Analyze asks the model for a JSON recommendation.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, keyword string, total int, sample []domain.Article) (domain.Decision, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(defaultSystemPrompt))

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(keyword, total, sample, g.language)))
	if err != nil {
		return domain.Decision{}, fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return domain.Decision{}, fmt.Errorf("no response from gemini")
	}
	return parseDecision(text)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
