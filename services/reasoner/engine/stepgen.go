package engine

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// Prompt templates for the three call shapes the pipeline makes: one per
// reasoning step, one final-answer extraction per path, and one
// reflection pass over the whole sample set.

const stepSchemaInstruction = `Respond with ONLY a JSON object of the form ` +
	`{"reasoning": "<your reasoning for this step>", "intermediate_conclusion": "<what you conclude so far>"}. ` +
	`Do not include any other text.`

const answerSchemaInstruction = `Respond with ONLY a JSON object of the form ` +
	`{"answer": "<your final answer>", "confidence": <number from 0 to 100>}. ` +
	`Do not include any other text.`

// strictFormatInstruction is appended on retry after a parse failure.
const strictFormatInstruction = `Your previous response was not valid JSON. ` +
	`Respond with ONLY the JSON object, with no markdown fences, commentary, or trailing text.`

// defaultSystemPrompt is used when the request does not carry one.
const defaultSystemPrompt = "You are a careful reasoner. You think through problems step by step and answer precisely."

func systemFor(spec pathSpec) string {
	if spec.systemPrompt != "" {
		return spec.systemPrompt
	}
	return defaultSystemPrompt
}

// writeQuestionBlock emits the shared question-plus-context preamble.
func writeQuestionBlock(b *strings.Builder, spec pathSpec) {
	b.WriteString("Question: ")
	b.WriteString(spec.prompt)
	b.WriteString("\n")
	if spec.documentText != "" {
		b.WriteString("\nContext from document:\n")
		b.WriteString(spec.documentText)
		b.WriteString("\n")
	}
}

// writePriorSteps emits the accumulated chain so the model sees the full
// path each step builds on.
func writePriorSteps(b *strings.Builder, steps []datatypes.ReasoningStep) {
	if len(steps) == 0 {
		return
	}
	b.WriteString("\nPrevious reasoning steps:\n")
	for _, s := range steps {
		fmt.Fprintf(b, "Step %d: %s\nConclusion so far: %s\n", s.StepNumber, s.Reasoning, s.IntermediateConclusion)
	}
}

// buildStepPrompt produces the prompt for reasoning step stepNumber of
// totalSteps. strict is set on retries after a parse failure.
func buildStepPrompt(spec pathSpec, prior []datatypes.ReasoningStep, stepNumber int, strict bool) string {
	var b strings.Builder
	writeQuestionBlock(&b, spec)
	writePriorSteps(&b, prior)
	fmt.Fprintf(&b, "\nPerform step %d of %d of a step-by-step reasoning process toward answering the question.\n",
		stepNumber, spec.numSteps)
	b.WriteString(stepSchemaInstruction)
	if strict {
		b.WriteString("\n")
		b.WriteString(strictFormatInstruction)
	}
	return b.String()
}

// buildAnswerPrompt produces the final-answer extraction prompt for a
// completed path.
func buildAnswerPrompt(spec pathSpec, steps []datatypes.ReasoningStep, strict bool) string {
	var b strings.Builder
	writeQuestionBlock(&b, spec)
	writePriorSteps(&b, steps)
	b.WriteString("\nBased on the reasoning above, state your final answer to the question.\n")
	b.WriteString(answerSchemaInstruction)
	if strict {
		b.WriteString("\n")
		b.WriteString(strictFormatInstruction)
	}
	return b.String()
}
