package stt

import (
	"context"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleSpeech is the hosted alternative to the local whisper engine,
// selected with STT_PROVIDER=google.
type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: 16000,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// language example: "en-US", "id-ID"
func (g *GoogleSpeech) Transcribe(ctx context.Context, audioPath string, language string) ([]Segment, error) {
	if language == "" {
		language = "en-US"
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, err
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, err
	}

	// Recognize returns no word timing at this config level, so each
	// result becomes one untimed segment.
	var segments []Segment
	for _, r := range resp.Results {
		var bestText string
		var bestConf float32
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && alt.Confidence >= bestConf {
				bestText = alt.Transcript
				bestConf = alt.Confidence
			}
		}
		if bestText != "" {
			segments = append(segments, Segment{Text: bestText})
		}
	}
	return segments, nil
}
