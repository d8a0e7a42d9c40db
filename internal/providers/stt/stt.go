package stt

import "context"

// Segment is one timestamped slice of recognized speech. Start and End
// are seconds from the beginning of the audio; both are zero when the
// engine provides no timing.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Provider transcribes a prepared speech-only audio file (mono, 16 kHz
// WAV). A mid-run engine failure fails the whole call; providers never
// return partial output alongside an error.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string, language string) ([]Segment, error)
	Close() error
}
