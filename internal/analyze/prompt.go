package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// llmAnalysis is the JSON structure the model is asked to produce.
type llmAnalysis struct {
	TLDR              string   `json:"tldr"`
	KeyContributions  []string `json:"key_contributions"`
	TechnicalInsights []string `json:"technical_insights"`
	Topics            []string `json:"topics"`
}

// BuildAnalysisPrompt builds the system and user prompts for analyzing
// one paper. maxContentChars truncates the extracted text so long papers
// stay inside the model's context window.
func BuildAnalysisPrompt(paper domain.PaperRecord, content *domain.ExtractedContent, maxContentChars int) (systemPrompt, userPrompt string) {
	return buildSystemPrompt(), buildUserPrompt(paper, content, maxContentChars)
}

// buildSystemPrompt constructs the system-level instructions for the model.
func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a research analyst who writes concise, technically precise ")
	sb.WriteString("summaries of machine learning and computer science papers for a ")
	sb.WriteString("daily digest read by practitioners.\n\n")

	sb.WriteString("You MUST respond with valid JSON in exactly this format:\n")
	sb.WriteString(`{"tldr": "one-sentence summary", "key_contributions": ["..."], "technical_insights": ["..."], "topics": ["..."]}`)
	sb.WriteString("\n\n")

	sb.WriteString("Guidelines:\n")
	sb.WriteString("1. The tldr is a single sentence a busy reader can absorb in five seconds.\n")
	sb.WriteString("2. key_contributions lists 2-4 concrete contributions, each one sentence.\n")
	sb.WriteString("3. technical_insights lists 2-4 implementation or methodology details worth knowing.\n")
	sb.WriteString("4. topics lists 2-5 short topic tags (e.g. \"reinforcement learning\", \"quantization\").\n")
	sb.WriteString("5. Be specific: prefer numbers, benchmarks, and method names over generalities.\n")
	sb.WriteString("6. Never invent results that are not in the provided text.\n")

	return sb.String()
}

// buildUserPrompt constructs the user-level prompt with paper metadata
// and the truncated extracted text.
func buildUserPrompt(paper domain.PaperRecord, content *domain.ExtractedContent, maxContentChars int) string {
	var sb strings.Builder

	sb.WriteString("Analyze the following paper.\n\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", paper.Title))
	if len(paper.Authors) > 0 {
		sb.WriteString(fmt.Sprintf("Authors: %s\n", paper.AuthorList()))
	}
	if paper.Abstract != "" {
		sb.WriteString(fmt.Sprintf("Abstract: %s\n", paper.Abstract))
	}

	text := content.Text
	if maxContentChars > 0 && len(text) > maxContentChars {
		text = text[:maxContentChars] + "\n[truncated]"
	}

	sb.WriteString("\nPaper text:\n")
	sb.WriteString("---\n")
	sb.WriteString(text)
	sb.WriteString("\n---")

	if len(content.Figures) > 0 {
		sb.WriteString("\n\nFigure captions:\n")
		for _, f := range content.Figures {
			sb.WriteString("- ")
			sb.WriteString(f.Caption)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// decodeAnalysisJSON unmarshals model output, tolerating a markdown
// code fence around the JSON.
func decodeAnalysisJSON(raw string) (*llmAnalysis, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}

	var parsed llmAnalysis
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, fmt.Errorf("parse analysis JSON: %w", err)
	}
	return &parsed, nil
}

// parseAnalysis parses and validates the model's JSON output into a
// domain result.
func parseAnalysis(paperID, model, raw string) (*domain.AnalysisResult, error) {
	parsed, err := decodeAnalysisJSON(raw)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(parsed.TLDR) == "" {
		return nil, fmt.Errorf("model returned empty tldr")
	}
	if len(parsed.KeyContributions) == 0 {
		return nil, fmt.Errorf("model returned no key contributions")
	}

	return &domain.AnalysisResult{
		PaperID:           paperID,
		TLDR:              strings.TrimSpace(parsed.TLDR),
		KeyContributions:  parsed.KeyContributions,
		TechnicalInsights: parsed.TechnicalInsights,
		Topics:            parsed.Topics,
		Model:             model,
	}, nil
}
