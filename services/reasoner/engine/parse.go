package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Models frequently wrap JSON in markdown fences or prepend chatter
// despite instructions. The parsers here are forgiving about framing and
// strict about the payload itself.

type stepPayload struct {
	Reasoning              string `json:"reasoning"`
	IntermediateConclusion string `json:"intermediate_conclusion"`
}

type answerPayload struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

type reflectionPayload struct {
	RefinedAnswer       string  `json:"refined_answer"`
	ReflectionReasoning string  `json:"reflection_reasoning"`
	Confidence          float64 `json:"confidence"`
}

// extractJSON strips code fences and surrounding prose, returning the
// outermost JSON object in raw.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in output")
	}
	return s[start : end+1], nil
}

func parseStepPayload(raw string) (*stepPayload, error) {
	obj, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var p stepPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("step payload is not valid JSON: %w", err)
	}
	if strings.TrimSpace(p.Reasoning) == "" {
		return nil, fmt.Errorf("step payload missing reasoning field")
	}
	return &p, nil
}

func parseAnswerPayload(raw string) (*answerPayload, error) {
	obj, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var p answerPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("answer payload is not valid JSON: %w", err)
	}
	if strings.TrimSpace(p.Answer) == "" {
		return nil, fmt.Errorf("answer payload missing answer field")
	}
	p.Confidence = clampConfidence(p.Confidence)
	return &p, nil
}

func parseReflectionPayload(raw string) (*reflectionPayload, error) {
	obj, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var p reflectionPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("reflection payload is not valid JSON: %w", err)
	}
	if strings.TrimSpace(p.RefinedAnswer) == "" {
		return nil, fmt.Errorf("reflection payload missing refined_answer field")
	}
	p.Confidence = clampConfidence(p.Confidence)
	return &p, nil
}

// clampConfidence forces a model-reported confidence into the 0-100
// scale the pipeline expects.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// truncateForLog bounds raw model output before attaching it to an error.
func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
