// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"strings"
	"unicode"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// ======================= Consistency Voting =======================
//
// The voter partitions successful paths into groups of semantically
// equivalent final answers and elects a winner. Equivalence is judged
// two ways: exact match on a normalized form, or keyword-set overlap
// above jaccardThreshold to absorb paraphrases ("Paris" vs "The answer
// is Paris."). Any two paths the model phrased identically always land
// in the same group; the overlap test only ever merges, never splits.

// jaccardThreshold is the minimum keyword overlap for two differently
// normalized answers to be treated as the same answer.
const jaccardThreshold = 0.8

// minKeywordLen filters out stopword-sized tokens before overlap scoring.
const minKeywordLen = 4

// voteResult is the outcome of consistency voting over the successful
// sample set.
type voteResult struct {
	// Groups partitions the samples; ordered by first appearance.
	Groups []datatypes.ConsistencyGroup

	// Winner is the elected group.
	Winner datatypes.ConsistencyGroup

	// WinnerPath is the earliest member of the winning group; its steps
	// become the response's representative chain of thought.
	WinnerPath *datatypes.ReasoningPath

	// Agreement is winner size over successful samples, in [0,1].
	Agreement float64
}

type groupAccum struct {
	key        string
	keywords   map[string]struct{}
	members    []int // indices into paths, ascending
	confidence float64
}

// vote groups the paths by answer equivalence and elects the winner.
// Requires len(paths) >= 1; the engine enforces that before calling.
//
// Deterministic: given the same paths in the same order, the same winner
// is elected. Ties on group size break toward higher mean self-reported
// confidence, then toward the group containing the earliest sample.
func vote(paths []*datatypes.ReasoningPath) voteResult {
	var groups []*groupAccum

	for i, p := range paths {
		key := normalizeAnswer(p.FinalAnswer)
		kws := keywordSet(key)

		var home *groupAccum
		for _, g := range groups {
			if key == g.key || jaccard(kws, g.keywords) >= jaccardThreshold {
				home = g
				break
			}
		}
		if home == nil {
			home = &groupAccum{key: key, keywords: kws}
			groups = append(groups, home)
		}
		home.members = append(home.members, i)
		home.confidence += p.LLMConfidence
	}

	out := make([]datatypes.ConsistencyGroup, len(groups))
	for gi, g := range groups {
		members := make([]int, len(g.members))
		for mi, idx := range g.members {
			members[mi] = paths[idx].SampleNumber
		}
		out[gi] = datatypes.ConsistencyGroup{
			NormalizedKey:  g.key,
			Representative: paths[g.members[0]].FinalAnswer,
			Members:        members,
			MeanConfidence: g.confidence / float64(len(g.members)),
		}
	}

	// Groups are in first-appearance order, so on a full tie the group
	// holding the earliest sample wins by position.
	winner := 0
	for gi := 1; gi < len(out); gi++ {
		switch {
		case out[gi].Size() > out[winner].Size():
			winner = gi
		case out[gi].Size() == out[winner].Size() &&
			out[gi].MeanConfidence > out[winner].MeanConfidence:
			winner = gi
		}
	}

	return voteResult{
		Groups:     out,
		Winner:     out[winner],
		WinnerPath: paths[groups[winner].members[0]],
		Agreement:  float64(out[winner].Size()) / float64(len(paths)),
	}
}

// normalizeAnswer reduces an answer to a comparable form: whitespace
// collapsed, truncated to the first sentence, lowercased, punctuation
// stripped.
func normalizeAnswer(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = firstSentence(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// firstSentence cuts at the first terminator followed by a space or end
// of string. The lookahead keeps decimals like "3.14" intact.
func firstSentence(s string) string {
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 == len(s) || s[i+1] == ' ' {
			return s[:i+1]
		}
	}
	return s
}

// keywordSet extracts the content-bearing words of a normalized answer.
func keywordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if len(w) >= minKeywordLen {
			set[w] = struct{}{}
		}
	}
	return set
}

// jaccard computes |a∩b| / |a∪b|. Two empty sets score zero: short
// answers with no keywords must match on the normalized form instead.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
