package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
	"github.com/AleutianAI/AleutianReason/services/reasoner/pricing"
)

// scriptedClient is a deterministic llm.Client. It classifies each call
// by prompt shape (step, final answer, reflection) and replies with a
// canned payload. Final answers are dealt from the answers slice in call
// order, which maps 1:1 to sample order when MaxConcurrent is 1.
type scriptedClient struct {
	mu sync.Mutex

	answers     []string
	confidences []float64

	// failCalls marks 1-based global call indices that return a
	// provider error. malformedCalls return non-JSON prose instead.
	failCalls      map[int]bool
	malformedCalls map[int]bool

	reflectionJSON string
	failReflection bool

	promptTokens     int
	completionTokens int

	calls       int
	answerIdx   int
	stepCalls   int
	answerCalls int
	reflCalls   int
}

func (s *scriptedClient) Name() string { return "scripted" }

func (s *scriptedClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.calls++
	n := s.calls
	if s.failCalls[n] {
		return nil, &llm.ProviderError{Backend: "scripted", StatusCode: 500, Err: errors.New("scripted failure")}
	}

	resp := &llm.CompletionResponse{
		PromptTokens:     s.promptTokens,
		CompletionTokens: s.completionTokens,
	}

	switch {
	case strings.Contains(req.Prompt, "analyzing multiple reasoning paths"):
		s.reflCalls++
		if s.failReflection {
			return nil, &llm.ProviderError{Backend: "scripted", StatusCode: 500, Err: errors.New("reflection down")}
		}
		resp.Text = s.reflectionJSON
		if resp.Text == "" {
			resp.Text = `{"refined_answer": "Paris", "reflection_reasoning": "the majority of paths converge", "confidence": 85}`
		}

	case strings.Contains(req.Prompt, "state your final answer"):
		s.answerCalls++
		ans := s.answers[s.answerIdx%len(s.answers)]
		conf := 90.0
		if len(s.confidences) > 0 {
			conf = s.confidences[s.answerIdx%len(s.confidences)]
		}
		s.answerIdx++
		resp.Text = fmt.Sprintf(`{"answer": %q, "confidence": %v}`, ans, conf)

	default:
		s.stepCalls++
		if s.malformedCalls[n] {
			resp.Text = "Let me think about this question in plain prose."
			break
		}
		resp.Text = `{"reasoning": "worked through the question", "intermediate_conclusion": "narrowing down"}`
	}
	return resp, nil
}

func newTestEngine(client llm.Client, opts Options) *Engine {
	if opts.MaxConcurrent == 0 {
		opts.MaxConcurrent = 1 // serial keeps answer order deterministic
	}
	return NewEngine(client, llm.NewTierRegistry("gpt-4o-mini", "gpt-4"), pricing.DefaultTable(), opts)
}

func newTestRequest(samples, steps int) *datatypes.AggregationRequest {
	return &datatypes.AggregationRequest{
		Prompt:     "What is the capital of France?",
		NumSamples: &samples,
		NumSteps:   &steps,
		Model:      "fast",
	}
}

func TestRunAggregationMajorityVote(t *testing.T) {
	client := &scriptedClient{
		answers:          []string{"Paris", "Paris", "Lyon", "Paris", "Paris"},
		confidences:      []float64{90, 85, 70, 95, 80},
		promptTokens:     10,
		completionTokens: 20,
	}
	eng := newTestEngine(client, Options{})

	resp, err := eng.RunAggregation(context.Background(), newTestRequest(5, 2))
	require.NoError(t, err)

	assert.Equal(t, 5, resp.SamplesCompleted)
	assert.Equal(t, 5, resp.SamplesRequested)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "Paris", resp.PreliminaryAnswer)
	assert.Equal(t, "Paris", resp.FinalAnswer)
	assert.InDelta(t, 80.0, resp.AgreementConfidence, 1e-9)
	assert.False(t, resp.ReflectionSkipped)
	assert.Equal(t, 85.0, resp.ReflectionConfidence)
	assert.NotEmpty(t, resp.ReasoningSummary)
	assert.Len(t, resp.ChainOfThought, 2)
	assert.Len(t, resp.Samples, 5)

	// 5 paths x (2 steps + 1 answer) + 1 reflection = 16 calls.
	assert.Equal(t, 16, client.calls)
	assert.Equal(t, 16*10, resp.Usage.PromptTokens)
	assert.Equal(t, 16*20, resp.Usage.CompletionTokens)
	assert.Equal(t, 16*30, resp.Usage.TotalTokens)

	// fast tier default prices: 0.15 / 0.60 per million tokens.
	wantInput := float64(16*10) / 1e6 * 0.15
	wantOutput := float64(16*20) / 1e6 * 0.60
	assert.InDelta(t, wantInput, resp.Cost.InputCost, 1e-12)
	assert.InDelta(t, wantOutput, resp.Cost.OutputCost, 1e-12)
	assert.InDelta(t, wantInput+wantOutput, resp.Cost.TotalCost, 1e-12)
	assert.Equal(t, "USD", resp.Cost.Currency)

	assert.Greater(t, resp.Timing.TotalSeconds, 0.0)
	assert.NotEmpty(t, resp.ResponseID)
	assert.Equal(t, "gpt-4o-mini", resp.ModelUsed)
}

func TestRunAggregationSingleSample(t *testing.T) {
	client := &scriptedClient{answers: []string{"42"}}
	eng := newTestEngine(client, Options{})

	resp, err := eng.RunAggregation(context.Background(), newTestRequest(1, 1))
	require.NoError(t, err)

	assert.InDelta(t, 100.0, resp.AgreementConfidence, 1e-9)
	assert.Equal(t, 1, resp.SamplesCompleted)
	assert.False(t, resp.Degraded)
}

func TestRunAggregationDegraded(t *testing.T) {
	// K=3, N=1, serial: path 2 is calls 3-4; fail its step call.
	client := &scriptedClient{
		answers:          []string{"Paris", "Paris"},
		failCalls:        map[int]bool{3: true},
		promptTokens:     5,
		completionTokens: 5,
	}
	eng := newTestEngine(client, Options{})

	resp, err := eng.RunAggregation(context.Background(), newTestRequest(3, 1))
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	assert.Equal(t, 3, resp.SamplesRequested)
	assert.Equal(t, 2, resp.SamplesCompleted)
	assert.InDelta(t, 100.0, resp.AgreementConfidence, 1e-9)
	assert.Len(t, resp.Samples, 2)
}

func TestRunAggregationAllPathsFail(t *testing.T) {
	client := &scriptedClient{
		answers:   []string{"unused"},
		failCalls: map[int]bool{1: true, 2: true, 3: true},
	}
	eng := newTestEngine(client, Options{})

	_, err := eng.RunAggregation(context.Background(), newTestRequest(3, 1))
	require.Error(t, err)

	var aggErr *datatypes.AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, 3, aggErr.Requested)
	assert.Equal(t, 0, aggErr.Succeeded)
	assert.Equal(t, 502, datatypes.HTTPStatusFor(err))
	assert.Equal(t, 0, client.reflCalls, "reflection must not run without a winner")
}

func TestRunAggregationReflectionFailureIsAbsorbed(t *testing.T) {
	client := &scriptedClient{
		answers:        []string{"Paris", "Paris", "Paris"},
		confidences:    []float64{90, 90, 90},
		failReflection: true,
	}
	eng := newTestEngine(client, Options{})

	resp, err := eng.RunAggregation(context.Background(), newTestRequest(3, 1))
	require.NoError(t, err)

	assert.True(t, resp.ReflectionSkipped)
	assert.Equal(t, resp.PreliminaryAnswer, resp.FinalAnswer)
	assert.Zero(t, resp.ReflectionConfidence)
	assert.Empty(t, resp.ReflectionReasoning)

	// Renormalized: (0.4*1.0 + 0.3*0.9) / 0.7
	assert.InDelta(t, (0.4+0.27)/0.7, resp.ConfidenceScore, 1e-9)
}

func TestRunAggregationMalformedStepRetries(t *testing.T) {
	// First step call returns prose; the retry succeeds.
	client := &scriptedClient{
		answers:        []string{"Paris"},
		malformedCalls: map[int]bool{1: true},
	}
	eng := newTestEngine(client, Options{})

	resp, err := eng.RunAggregation(context.Background(), newTestRequest(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.SamplesCompleted)
	// step, step retry, answer, reflection
	assert.Equal(t, 4, client.calls)
}

func TestRunAggregationMalformedStepEscalates(t *testing.T) {
	// Every step attempt malformed: initial try plus two retries.
	client := &scriptedClient{
		answers:        []string{"unused"},
		malformedCalls: map[int]bool{1: true, 2: true, 3: true},
	}
	eng := newTestEngine(client, Options{})

	_, err := eng.RunAggregation(context.Background(), newTestRequest(1, 1))
	require.Error(t, err)
	var aggErr *datatypes.AggregationError
	assert.ErrorAs(t, err, &aggErr)
	assert.Equal(t, 3, client.stepCalls)
}

func TestRunAggregationValidationRejectsBeforeAnyCall(t *testing.T) {
	client := &scriptedClient{answers: []string{"x"}}
	eng := newTestEngine(client, Options{})

	bad := float32(3.5)
	req := newTestRequest(3, 3)
	req.Temperature = &bad

	_, err := eng.RunAggregation(context.Background(), req)
	require.Error(t, err)
	var verr *datatypes.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 400, datatypes.HTTPStatusFor(err))
	assert.Equal(t, 0, client.calls)
}

func TestRunAggregationRejectsExplicitZeroKnobs(t *testing.T) {
	cases := []struct {
		name           string
		samples, steps int
	}{
		{"zero samples", 0, 1},
		{"zero steps", 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &scriptedClient{answers: []string{"x"}}
			eng := newTestEngine(client, Options{})

			_, err := eng.RunAggregation(context.Background(), newTestRequest(tc.samples, tc.steps))
			require.Error(t, err)
			var verr *datatypes.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, 400, datatypes.HTTPStatusFor(err))
			assert.Equal(t, 0, client.calls, "no model call may be issued for a zero knob")
		})
	}
}

func TestRunAggregationTimeout(t *testing.T) {
	client := &blockingClient{}
	eng := newTestEngine(client, Options{DefaultTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := eng.RunAggregation(context.Background(), newTestRequest(2, 1))
	require.Error(t, err)

	var terr *datatypes.TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 0, terr.Completed)
	assert.Equal(t, 504, datatypes.HTTPStatusFor(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunAggregationDeterministic(t *testing.T) {
	run := func() *datatypes.AggregationResponse {
		client := &scriptedClient{
			answers:     []string{"Paris", "Lyon", "Paris"},
			confidences: []float64{80, 95, 85},
		}
		eng := newTestEngine(client, Options{})
		resp, err := eng.RunAggregation(context.Background(), newTestRequest(3, 2))
		require.NoError(t, err)
		return resp
	}

	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		assert.Equal(t, first.FinalAnswer, again.FinalAnswer)
		assert.Equal(t, first.PreliminaryAnswer, again.PreliminaryAnswer)
		assert.Equal(t, first.AgreementConfidence, again.AgreementConfidence)
		assert.Equal(t, first.ConfidenceScore, again.ConfidenceScore)
	}
}

// blockingClient parks until the context deadline fires.
type blockingClient struct{}

func (b *blockingClient) Name() string { return "blocking" }

func (b *blockingClient) Complete(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	<-ctx.Done()
	return nil, &llm.ProviderError{Backend: "blocking", Err: ctx.Err()}
}
