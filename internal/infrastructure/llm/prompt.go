package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"NewsRadar/internal/domain"
)

const defaultSystemPrompt = "You are an expert financial analyst. Answer with JSON only."

// buildPrompt asks for a recommendation about keyword based on a sample of the
// total articles found.
func buildPrompt(keyword string, total int, articles []domain.Article, language string) string {
	if language == "" {
		language = "Hebrew"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following news headlines regarding the company/topic: %q.\n", keyword)
	if total < len(articles) {
		total = len(articles)
	}
	fmt.Fprintf(&b, "Total articles found: %d. Headlines shown: %d.\n\nHeadlines:\n", total, len(articles))
	for _, a := range articles {
		date := "N/A"
		if !a.DiscoveredAt.IsZero() {
			date = a.DiscoveredAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "- %s (Source: %s, Date: %s)\n", a.Title, a.Site, date)
	}
	b.WriteString("\nBased on these headlines and their sentiment, decide on a stock recommendation ")
	b.WriteString("(Buy, Sell, Hold, Strong Buy, Strong Sell). If the news is neutral or old, lean towards Hold.\n")
	fmt.Fprintf(&b, "Provide a short explanation (max 3 sentences) in %s.\n\n", language)
	b.WriteString(`Output JSON: {"recommendation": "...", "explanation": "..."}`)
	return b.String()
}

type decisionPayload struct {
	Recommendation string `json:"recommendation"`
	Explanation    string `json:"explanation"`
}

// parseDecision reads the JSON answer, tolerating a surrounding Markdown code fence.
func parseDecision(raw string) (domain.Decision, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var payload decisionPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return domain.Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	if strings.TrimSpace(payload.Recommendation) == "" {
		return domain.Decision{}, fmt.Errorf("decode decision: empty recommendation")
	}

	return domain.Decision{
		Recommendation: strings.TrimSpace(payload.Recommendation),
		Explanation:    strings.TrimSpace(payload.Explanation),
	}, nil
}
