package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ExtractionResult
	}{
		{
			name: "plain json",
			raw:  `{"intent": "confirm", "updates": {"status": "confirmed"}, "confidence": 0.9}`,
			want: ExtractionResult{Intent: "confirm", Updates: map[string]any{"status": "confirmed"}, Confidence: 0.9},
		},
		{
			name: "json code fence",
			raw:  "```json\n{\"intent\": \"decline\", \"updates\": {}, \"confidence\": 0.8}\n```",
			want: ExtractionResult{Intent: "decline", Updates: map[string]any{}, Confidence: 0.8},
		},
		{
			name: "bare code fence",
			raw:  "```\n{\"intent\": \"confirm\", \"updates\": {\"seats\": 2}, \"confidence\": 1}\n```",
			want: ExtractionResult{Intent: "confirm", Updates: map[string]any{"seats": float64(2)}, Confidence: 1},
		},
		{
			name: "missing confidence defaults to 0.5",
			raw:  `{"intent": "reschedule", "updates": {"date": "2026-09-12"}}`,
			want: ExtractionResult{Intent: "reschedule", Updates: map[string]any{"date": "2026-09-12"}, Confidence: 0.5},
		},
		{
			name: "confidence above one is clamped",
			raw:  `{"intent": "confirm", "updates": {}, "confidence": 3.2}`,
			want: ExtractionResult{Intent: "confirm", Updates: map[string]any{}, Confidence: 1},
		},
		{
			name: "negative confidence is clamped",
			raw:  `{"intent": "confirm", "updates": {}, "confidence": -0.4}`,
			want: ExtractionResult{Intent: "confirm", Updates: map[string]any{}, Confidence: 0},
		},
		{
			name: "missing intent becomes unclear",
			raw:  `{"updates": {"status": "maybe"}, "confidence": 0.6}`,
			want: ExtractionResult{Intent: "unclear", Updates: map[string]any{"status": "maybe"}, Confidence: 0.6},
		},
		{
			name: "null updates become empty map",
			raw:  `{"intent": "unclear", "updates": null, "confidence": 0.2}`,
			want: ExtractionResult{Intent: "unclear", Updates: map[string]any{}, Confidence: 0.2},
		},
		{
			name: "malformed output falls back",
			raw:  "Sure! Here is the extraction you asked for:",
			want: ExtractionResult{Intent: "unclear", Updates: map[string]any{}, Confidence: 0.3},
		},
		{
			name: "empty output falls back",
			raw:  "",
			want: ExtractionResult{Intent: "unclear", Updates: map[string]any{}, Confidence: 0.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseExtraction(tt.raw))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.raw))
		})
	}
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, clampConfidence(-1))
	assert.Equal(t, 0.0, clampConfidence(0))
	assert.Equal(t, 0.42, clampConfidence(0.42))
	assert.Equal(t, 1.0, clampConfidence(1))
	assert.Equal(t, 1.0, clampConfidence(17))
}
