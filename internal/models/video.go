package models

// VideoRef is the resolved, stable identity of a source video.
// Immutable once returned by the resolver.
type VideoRef struct {
	ID    string `json:"id"` // canonical 11-character YouTube id
	URL   string `json:"url"`
	Title string `json:"title"` // cosmetic; may be empty if metadata fetch failed
}

// CaptionResult holds platform captions for a video. Absence of captions
// is a valid outcome, not an error.
type CaptionResult struct {
	Available bool   `json:"available"`
	Language  string `json:"language,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Transcript provenance tags.
const (
	SourceCaptions = "captions-only"
	SourceLocal    = "local-only"
	SourceMerged   = "merged"
)

// CanonicalTranscript is the reconciled transcript the generator runs on.
// Text is guaranteed non-empty by the reconciler.
type CanonicalTranscript struct {
	Text   string `json:"text"`
	Source string `json:"source"` // captions-only|local-only|merged
}
