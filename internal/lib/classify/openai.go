package classify

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// System prompt for emergency report classification.
const SystemPrompt = `You are an emergency dispatch analyst for a personal-safety app used in Thailand. Users describe an emergency in free text, usually Thai.

Instructions:
- Classify the situation into exactly one category: MEDICAL, POLICE, FIRE, CAR, GENERAL, CCTV.
- Judge severity as one of: LOW, MEDIUM, HIGH, CRITICAL. Prefer higher severity when life or property is at immediate risk.
- Write short, actionable advice in Thai, imperative voice, under 20 words.
- Write a very short summary in Thai, under 5 words.
- Never refuse; if the text is unclear, use GENERAL / MEDIUM and general safety advice.

Return a valid JSON object with exactly these fields:
- category (enum): "MEDICAL" | "POLICE" | "FIRE" | "CAR" | "GENERAL" | "CCTV"
- severity (enum): "LOW" | "MEDIUM" | "HIGH" | "CRITICAL"
- advice (string): actionable advice in Thai, under 20 words
- summary (string): very short summary in Thai, under 5 words`

// ClassificationSchema defines the JSON schema for the structured
// classification output.
var ClassificationSchema = openai.ChatCompletionResponseFormatJSONSchema{
	Name:   "incident_classification",
	Strict: true,
	Schema: json.RawMessage(`{
		"type": "object",
		"properties": {
			"category": {
				"type": "string",
				"enum": ["MEDICAL", "POLICE", "FIRE", "CAR", "GENERAL", "CCTV"],
				"description": "Emergency category"
			},
			"severity": {
				"type": "string",
				"enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"],
				"description": "Urgency of the situation"
			},
			"advice": {
				"type": "string",
				"maxLength": 200,
				"description": "Short, imperative safety advice in Thai"
			},
			"summary": {
				"type": "string",
				"maxLength": 80,
				"description": "Very short summary in Thai"
			}
		},
		"required": ["category", "severity", "advice", "summary"],
		"additionalProperties": false
	}`),
}
