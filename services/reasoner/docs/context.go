// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package docs

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

var (
	CHUNK_SIZE    = 1000
	CHUNK_OVERLAP = 0 // Trimming for a context budget; overlap would double-count text

	contextSeparators = []string{"\n\n", "\n", " ", ""}
)

// TrimToBudget reduces document text to at most budget bytes of context.
//
// # Description
//
// Splits on paragraph boundaries via a recursive character splitter and
// keeps leading chunks until the budget is reached, so the cut lands on a
// natural boundary instead of mid-sentence. A warning is returned when
// anything was dropped.
//
// # Inputs
//   - text: The extracted document text.
//   - budget: Maximum bytes of context to keep. Must be > 0.
//
// # Outputs
//   - string: The trimmed context text.
//   - []string: Warnings describing what was dropped, if anything.
//   - error: Only when the splitter itself fails.
func TrimToBudget(text string, budget int) (string, []string, error) {
	text = strings.TrimSpace(text)
	if len(text) <= budget {
		return text, nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(CHUNK_SIZE),
		textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
		textsplitter.WithSeparators(contextSeparators),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return "", nil, fmt.Errorf("failed to split document text: %w", err)
	}

	var b strings.Builder
	kept := 0
	for _, chunk := range chunks {
		if b.Len()+len(chunk)+1 > budget {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(chunk)
		kept++
	}

	warning := fmt.Sprintf("document text truncated to fit context budget: kept %d of %d chunks (%d of %d bytes)",
		kept, len(chunks), b.Len(), len(text))
	return b.String(), []string{warning}, nil
}
