package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// WhisperCPP runs a local whisper.cpp binary against a fixed model file.
// The model selection happens once, at construction; the value is meant
// to be built once per process and injected wherever transcription is
// needed. Concurrent calls are serialized: the engine pins the model into
// memory per invocation and parallel runs would fight over cores.
type WhisperCPP struct {
	bin       string
	modelPath string
	mu        sync.Mutex
}

func NewWhisperCPP(bin, modelPath string) (*WhisperCPP, error) {
	if bin == "" {
		bin = "whisper-cli"
	}
	if modelPath == "" {
		return nil, errors.New("whisper model path is required")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper model not readable: %w", err)
	}
	return &WhisperCPP{bin: bin, modelPath: modelPath}, nil
}

func (w *WhisperCPP) Close() error { return nil }

type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"` // milliseconds
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath string, language string) ([]Segment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if language == "" {
		language = "en"
	}
	// language tags like en-US are regional; whisper wants the base code
	if i := strings.IndexByte(language, '-'); i > 0 {
		language = language[:i]
	}

	outPrefix := audioPath + ".stt"
	cmd := exec.CommandContext(ctx, w.bin,
		"-m", w.modelPath,
		"-f", audioPath,
		"-l", language,
		"-oj",
		"-of", outPrefix,
		"--no-prints",
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper run failed: %w", err)
	}

	data, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("whisper output missing: %w", err)
	}
	defer os.Remove(outPrefix + ".json")

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("whisper output malformed: %w", err)
	}

	segments := make([]Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:  text,
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
		})
	}
	return segments, nil
}
