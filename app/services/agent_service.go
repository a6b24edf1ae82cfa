package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sentinalgrid/sentinalgrid/utils"
	"google.golang.org/genai"
)

// ExtractionResult is the structured interpretation of a free-text reply.
type ExtractionResult struct {
	Intent     string         `json:"intent"`
	Updates    map[string]any `json:"updates"`
	Confidence float64        `json:"confidence"`
}

// AgentService drafts outbound messages and extracts structured data from replies
type AgentService interface {
	DraftMessage(ctx context.Context, masterPrompt string, rowData map[string]any, model string) (string, error)
	ExtractReply(ctx context.Context, rowData map[string]any, outboundMessage, replyText, model string) ExtractionResult
}

// GenAIAgentService implements AgentService on top of the Gemini API
type GenAIAgentService struct {
	client *genai.Client
}

// NewGenAIAgentService creates a new Gemini-backed agent service
func NewGenAIAgentService(ctx context.Context, apiKey string) (AgentService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIAgentService{client: client}, nil
}

// DraftMessage produces one personalized outbound message for a row
func (s *GenAIAgentService) DraftMessage(ctx context.Context, masterPrompt string, rowData map[string]any, model string) (string, error) {
	rowJSON, err := json.Marshal(rowData)
	if err != nil {
		return "", fmt.Errorf("failed to encode row data: %w", err)
	}

	prompt := fmt.Sprintf(`You are an outreach assistant. Write one personalized message for the contact below.

Instruction from the campaign owner:
%s

Contact data (JSON):
%s

Rules:
- Write only the message body, no subject line, no surrounding quotes.
- Address the contact using their data where natural.
- Keep it short and conversational.`, masterPrompt, string(rowJSON))

	result, err := s.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("drafting failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("drafting returned empty message")
	}

	return text, nil
}

// ExtractReply interprets a free-text reply against the row's known fields.
// Extraction is best-effort: any malformed model output degrades to a
// low-confidence "unclear" result instead of an error.
func (s *GenAIAgentService) ExtractReply(ctx context.Context, rowData map[string]any, outboundMessage, replyText, model string) ExtractionResult {
	rowJSON, err := json.Marshal(rowData)
	if err != nil {
		return fallbackExtraction()
	}

	prompt := fmt.Sprintf(`You are a data-entry assistant. A contact replied to an outreach message. Extract structured field updates from the reply.

Contact data (JSON):
%s

Message we sent:
%s

Their reply:
%s

Respond with ONLY a JSON object of this shape:
{"intent": "<short label for what the reply means>", "updates": {<field>: <new value>, ...}, "confidence": <0..1>}

Only include fields in "updates" that the reply clearly changes or adds. If the reply is unclear, use intent "unclear", empty updates, and low confidence.`, string(rowJSON), outboundMessage, replyText)

	result, err := s.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return fallbackExtraction()
	}

	return parseExtraction(result.Text())
}

// parseExtraction decodes model output into an ExtractionResult, tolerating
// markdown code fences and missing fields.
func parseExtraction(raw string) ExtractionResult {
	cleaned := stripCodeFence(raw)

	var parsed struct {
		Intent     string         `json:"intent"`
		Updates    map[string]any `json:"updates"`
		Confidence *float64       `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return fallbackExtraction()
	}

	result := ExtractionResult{
		Intent:  parsed.Intent,
		Updates: parsed.Updates,
	}
	if result.Intent == "" {
		result.Intent = "unclear"
	}
	if result.Updates == nil {
		result.Updates = map[string]any{}
	}

	if parsed.Confidence == nil {
		result.Confidence = utils.MissingConfidence
	} else {
		result.Confidence = clampConfidence(*parsed.Confidence)
	}

	return result
}

func fallbackExtraction() ExtractionResult {
	return ExtractionResult{
		Intent:     "unclear",
		Updates:    map[string]any{},
		Confidence: utils.FallbackConfidence,
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// stripCodeFence removes a surrounding markdown code fence if present
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
