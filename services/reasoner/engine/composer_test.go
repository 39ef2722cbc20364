package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

func TestBlendConfidence(t *testing.T) {
	// 0.4*0.8 + 0.3*0.90 + 0.3*0.80
	got := blendConfidence(0.8, 90, 80, false)
	want := 0.4*0.8 + 0.3*0.9 + 0.3*0.8
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("blendConfidence = %v, want %v", got, want)
	}
}

func TestBlendConfidenceRenormalizesWhenReflectionSkipped(t *testing.T) {
	got := blendConfidence(0.8, 90, 0, true)
	want := (0.4*0.8 + 0.3*0.9) / 0.7
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("blendConfidence = %v, want %v", got, want)
	}
}

func TestBlendConfidenceBounds(t *testing.T) {
	if got := blendConfidence(1.0, 100, 100, false); got != 1.0 {
		t.Errorf("full agreement = %v, want 1.0", got)
	}
	if got := blendConfidence(0, 0, 0, false); got != 0 {
		t.Errorf("zero everything = %v, want 0", got)
	}
}

func TestBuildSummaryDistinctPatterns(t *testing.T) {
	resp := &datatypes.AggregationResponse{
		SamplesCompleted:    5,
		SamplesRequested:    5,
		LLMConfidence:       87.5,
		AgreementConfidence: 80,
	}
	votes := voteResult{
		Groups: []datatypes.ConsistencyGroup{
			{NormalizedKey: "paris"},
			{NormalizedKey: "lyon"},
		},
	}

	got := buildSummary(resp, votes)
	for _, want := range []string{
		"Generated 5 independent reasoning paths.",
		"LLM confidence: 87.5% (Agreement: 80.0%)",
		"Found 2 distinct answer patterns.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q in %q", want, got)
		}
	}
}

func TestBuildSummaryConverged(t *testing.T) {
	resp := &datatypes.AggregationResponse{
		SamplesCompleted:    3,
		SamplesRequested:    3,
		LLMConfidence:       90,
		AgreementConfidence: 100,
	}
	votes := voteResult{
		Groups: []datatypes.ConsistencyGroup{{NormalizedKey: "paris"}},
	}

	got := buildSummary(resp, votes)
	if !strings.Contains(got, "All reasoning paths converged to the same answer.") {
		t.Errorf("summary missing convergence sentence: %q", got)
	}
	if strings.Contains(got, "distinct answer patterns") {
		t.Errorf("converged summary should not count patterns: %q", got)
	}
}

func TestBuildSummaryNotesDegradationAndSkippedReflection(t *testing.T) {
	resp := &datatypes.AggregationResponse{
		SamplesCompleted:    3,
		SamplesRequested:    5,
		LLMConfidence:       70,
		AgreementConfidence: 66.7,
		Degraded:            true,
		ReflectionSkipped:   true,
	}
	votes := voteResult{
		Groups: []datatypes.ConsistencyGroup{{NormalizedKey: "paris"}},
	}

	got := buildSummary(resp, votes)
	if !strings.Contains(got, "degraded") {
		t.Errorf("summary missing degraded note: %q", got)
	}
	if !strings.Contains(got, "Reflection was skipped") {
		t.Errorf("summary missing reflection note: %q", got)
	}
}
