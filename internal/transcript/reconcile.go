// Package transcript merges the two independent transcript sources into
// one canonical text.
//
// The policy is deterministic and intentionally simple:
//
//  1. Captions win when available and non-trivial (at least MinUsableRunes
//     after whitespace normalization). Platform captions carry proper
//     punctuation more often than local recognition output.
//  2. Otherwise the local transcription is used, when present.
//  3. When the chosen base had a usable counterpart from the other source
//     the provenance tag is "merged"; when only one source contributed it
//     is "captions-only" or "local-only".
//  4. Both sources empty or trivial is a hard failure: generation must
//     never run on empty text.
//
// The caption text is taken wholesale as the base; local timing is not
// spliced in. No fuzzy diffing.
package transcript

import (
	"strings"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/providers/stt"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

// MinUsableRunes is the threshold below which a source is treated as a
// filler placeholder rather than a usable transcript.
const MinUsableRunes = 20

// Reconcile picks the canonical transcript from platform captions and
// local transcription segments. It is a pure function: no network, no
// model, fully unit-testable.
func Reconcile(captions models.CaptionResult, segments []stt.Segment) (models.CanonicalTranscript, error) {
	const op = "transcript.Reconcile"

	captionText := ""
	if captions.Available {
		captionText = Normalize(captions.Text)
	}
	localText := Normalize(JoinSegments(segments))

	captionUsable := len([]rune(captionText)) >= MinUsableRunes
	localUsable := len([]rune(localText)) >= MinUsableRunes

	switch {
	case captionUsable && localUsable:
		return models.CanonicalTranscript{Text: captionText, Source: models.SourceMerged}, nil
	case captionUsable:
		return models.CanonicalTranscript{Text: captionText, Source: models.SourceCaptions}, nil
	case localUsable:
		return models.CanonicalTranscript{Text: localText, Source: models.SourceLocal}, nil
	}

	// Last resort: one source is below the threshold but non-empty.
	// A short transcript still beats failing outright.
	if captionText != "" {
		return models.CanonicalTranscript{Text: captionText, Source: models.SourceCaptions}, nil
	}
	if localText != "" {
		return models.CanonicalTranscript{Text: localText, Source: models.SourceLocal}, nil
	}

	return models.CanonicalTranscript{}, utils.E(utils.CodeNoTranscript, op, "no transcript available from captions or local transcription", nil)
}

// JoinSegments concatenates segment texts in order.
func JoinSegments(segments []stt.Segment) string {
	if len(segments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Normalize collapses runs of whitespace into single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
