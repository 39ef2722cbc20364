// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// RenderAggregation pretty-prints an aggregation result for the terminal.
// Machine personality gets a flat, grep-friendly layout instead.
func RenderAggregation(resp *datatypes.AggregationResponse, showPaths bool) string {
	if GetPersonality() == PersonalityMachine {
		return renderMachine(resp)
	}

	var b strings.Builder

	b.WriteString(Styles.Box.Width(72).Render(
		Styles.Title.Render("Answer") + "\n" + resp.FinalAnswer))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s confidence  %s\n",
		Styles.Subtitle.Render("overall"), ConfidenceBar(resp.ConfidenceScore, 24))
	fmt.Fprintf(&b, "%s  %s\n",
		Styles.Subtitle.Render("agreement"), ConfidenceBar(resp.AgreementConfidence/100, 24))
	fmt.Fprintf(&b, "%s %d/%d paths completed\n",
		IconBullet.Render(), resp.SamplesCompleted, resp.SamplesRequested)

	if resp.Degraded {
		fmt.Fprintf(&b, "%s %s\n", IconWarning.Render(),
			Styles.Warning.Render("degraded: some reasoning paths failed"))
	}
	if resp.ReflectionSkipped {
		fmt.Fprintf(&b, "%s %s\n", IconWarning.Render(),
			Styles.Warning.Render("reflection skipped; majority answer stands"))
	} else if resp.ReflectionReasoning != "" {
		fmt.Fprintf(&b, "%s %s\n", IconBullet.Render(),
			Styles.Muted.Render(resp.ReflectionReasoning))
	}

	if showPaths {
		b.WriteString("\n")
		b.WriteString(Styles.Title.Render("Reasoning paths"))
		b.WriteString("\n")
		for _, p := range resp.Samples {
			fmt.Fprintf(&b, "%s path %d (confidence %.0f): %s\n",
				IconArrow.Render(), p.SampleNumber, p.LLMConfidence, p.FinalAnswer)
			for _, s := range p.Steps {
				fmt.Fprintf(&b, "   %s\n",
					Styles.Muted.Render(fmt.Sprintf("step %d: %s", s.StepNumber, s.IntermediateConclusion)))
			}
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", Styles.Muted.Render(fmt.Sprintf(
		"%d tokens · %s %.6f · %.1fs · %s",
		resp.Usage.TotalTokens, resp.Cost.Currency, resp.Cost.TotalCost,
		resp.Timing.TotalSeconds, resp.ModelUsed)))

	return b.String()
}

func renderMachine(resp *datatypes.AggregationResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ANSWER: %s\n", resp.FinalAnswer)
	fmt.Fprintf(&b, "CONFIDENCE: %.4f\n", resp.ConfidenceScore)
	fmt.Fprintf(&b, "AGREEMENT: %.1f\n", resp.AgreementConfidence)
	fmt.Fprintf(&b, "SAMPLES: %d/%d\n", resp.SamplesCompleted, resp.SamplesRequested)
	fmt.Fprintf(&b, "DEGRADED: %t\n", resp.Degraded)
	fmt.Fprintf(&b, "TOKENS: %d\n", resp.Usage.TotalTokens)
	fmt.Fprintf(&b, "COST: %.6f %s\n", resp.Cost.TotalCost, resp.Cost.Currency)
	return b.String()
}
