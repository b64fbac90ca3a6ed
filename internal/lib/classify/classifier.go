package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.2
	defaultMaxTokens   = 300

	// maxAdviceLen bounds the advice field; anything longer fails schema
	// validation and resolves to the safe default.
	maxAdviceLen = 200
	// maxSummaryLen bounds the summary field.
	maxSummaryLen = 80
)

// Config holds the classification service settings.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // override for tests and proxies
	Temperature float32
	MaxTokens   int
}

// incidentClassifier implements Classifier against the OpenAI chat API with
// structured output. A missing API key is "service unavailable", not an
// error: the classifier then serves the deterministic offline fallback.
type incidentClassifier struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewClassifier creates a Classifier from the given config.
func NewClassifier(cfg Config) Classifier {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	c := &incidentClassifier{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}

	if cfg.APIKey == "" {
		return c // no client; offline fallback path
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	c.client = openai.NewClientWithConfig(clientCfg)
	return c
}

// Classify performs exactly one classification round trip and always
// returns a complete Result. There is no retry loop; transport failures and
// non-conforming responses resolve to the safe default.
func (c *incidentClassifier) Classify(ctx context.Context, text string) Result {
	if c.client == nil {
		return OfflineFallback(text)
	}

	userPrompt := fmt.Sprintf("Analyze the following emergency situation description: %q", text)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type:       openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &ClassificationSchema,
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		log.Printf("Classification request failed: %v", err)
		return SafeDefault()
	}
	if len(resp.Choices) == 0 {
		log.Printf("Classification returned no choices")
		return SafeDefault()
	}

	result, ok := parseResponse(resp.Choices[0].Message.Content)
	if !ok {
		log.Printf("Classification response failed schema validation")
		return SafeDefault()
	}
	return result
}

// rawClassification is the loosely-typed payload shape before validation.
type rawClassification struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Advice   string `json:"advice"`
	Summary  string `json:"summary"`
}

// parseResponse validates the service payload into either a complete Result
// or nothing. All shape checks live here so callers can branch on a single
// ok flag instead of scattering field checks.
func parseResponse(payload string) (Result, bool) {
	var raw rawClassification
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Result{}, false
	}

	category, ok := alerts.ParseCategory(raw.Category)
	if !ok {
		return Result{}, false
	}
	severity, ok := alerts.ParseSeverity(raw.Severity)
	if !ok {
		return Result{}, false
	}
	if raw.Advice == "" || utf8.RuneCountInString(raw.Advice) > maxAdviceLen {
		return Result{}, false
	}
	if raw.Summary == "" || utf8.RuneCountInString(raw.Summary) > maxSummaryLen {
		return Result{}, false
	}

	return Result{
		Category: category,
		Severity: severity,
		Advice:   raw.Advice,
		Summary:  raw.Summary,
	}, true
}
