package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/cache"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/logger"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/media"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/providers/stt"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, link string) (*models.VideoRef, error) {
	if link == "bad" {
		return nil, utils.E(utils.CodeInvalidReference, "Resolver.Resolve", "unrecognized video link", nil)
	}
	return &models.VideoRef{
		ID:    "dQw4w9WgXcQ",
		URL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Title: "Test Video",
	}, nil
}

type fakeCaptions struct{ res models.CaptionResult }

func (f fakeCaptions) Fetch(context.Context, string) models.CaptionResult { return f.res }

type fakeAcquirer struct {
	art *media.Artifact
	err error
}

func (f fakeAcquirer) Acquire(context.Context, string) (*media.Artifact, error) {
	return f.art, f.err
}

type fakeSTT struct {
	mu    sync.Mutex
	segs  []stt.Segment
	err   error
	calls int
}

func (f *fakeSTT) Transcribe(context.Context, string, string) ([]stt.Segment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.segs, f.err
}

func (f *fakeSTT) Close() error { return nil }

type fakeLLM struct {
	mu      sync.Mutex
	calls   int
	replies []func() (string, error)
}

func (f *fakeLLM) Generate(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	i := f.calls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i]()
}

func (f *fakeLLM) Close() error { return nil }

func llmOK(text string) *fakeLLM {
	return &fakeLLM{replies: []func() (string, error){
		func() (string, error) { return text, nil },
	}}
}

type errCache struct{}

func (errCache) GetJSON(context.Context, string, any) (bool, error) {
	return false, errors.New("cache backend down")
}
func (errCache) SetJSON(context.Context, string, any, time.Duration) error {
	return errors.New("cache backend down")
}
func (errCache) Del(context.Context, ...string) error { return errors.New("cache backend down") }

const goodCaptions = "hello world this is a test transcript that is long enough"

func newTestService(d Deps) BlogService {
	if d.Resolver == nil {
		d.Resolver = fakeResolver{}
	}
	if d.Captions == nil {
		d.Captions = fakeCaptions{res: models.CaptionResult{Available: true, Language: "en", Text: goodCaptions}}
	}
	if d.Media == nil {
		d.Media = fakeAcquirer{err: utils.E(utils.CodeAudioAcquisition, "fake", "no audio", nil)}
	}
	if d.STT == nil {
		d.STT = &fakeSTT{}
	}
	if d.LLM == nil {
		d.LLM = llmOK("# Generated Title\n\nA clean article body.")
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemoryCache()
	}
	d.Logger = logger.New()
	return NewBlogService(d)
}

func TestGenerate_IdempotentWithinTTL(t *testing.T) {
	llm := llmOK("# Generated Title\n\nA clean article body.")
	svc := newTestService(Deps{LLM: llm})
	ctx := context.Background()

	first, err := svc.Generate(ctx, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Generated Title", first.Title)
	assert.Equal(t, "dQw4w9WgXcQ", first.VideoID)

	second, err := svc.Generate(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, 1, llm.calls, "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestGenerate_ExpiredEntryRegenerates(t *testing.T) {
	llm := llmOK("# Generated Title\n\nA clean article body.")
	svc := newTestService(Deps{LLM: llm, CacheTTL: time.Nanosecond})
	ctx := context.Background()

	_, err := svc.Generate(ctx, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	// far past the ttl by the time the second call runs
	_, err = svc.Generate(ctx, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls, "expired entry must trigger a fresh generation")
}

func TestGenerate_BothSourcesEmpty_NoBackendCall(t *testing.T) {
	llm := llmOK("unused")
	svc := newTestService(Deps{
		Captions: fakeCaptions{res: models.CaptionResult{Available: false}},
		LLM:      llm,
	})

	_, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNoTranscript))
	assert.Equal(t, 0, llm.calls, "generator must not run without a transcript")
}

func TestGenerate_LocalOnlyProvenance(t *testing.T) {
	svc := newTestService(Deps{
		Captions: fakeCaptions{res: models.CaptionResult{Available: false}},
		Media:    fakeAcquirer{art: &media.Artifact{Path: "unused.wav", SampleRate: media.SampleRate}},
		STT:      &fakeSTT{segs: []stt.Segment{{Text: "um so today we are"}}},
	})

	blog, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, models.SourceLocal, blog.Transcript)
}

func TestGenerate_CaptionsSurviveAudioFailure(t *testing.T) {
	svc := newTestService(Deps{
		Media: fakeAcquirer{err: utils.E(utils.CodeAudioAcquisition, "fake", "geo restricted", nil)},
	})

	blog, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, models.SourceCaptions, blog.Transcript)
}

func TestGenerate_TimeoutRetriedOnce(t *testing.T) {
	llm := &fakeLLM{replies: []func() (string, error){
		func() (string, error) { return "", context.DeadlineExceeded },
		func() (string, error) { return "# Retried\n\nBody after retry.", nil },
	}}
	svc := newTestService(Deps{LLM: llm})

	blog, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls, "exactly one retry")
	assert.Equal(t, "Retried", blog.Title)
}

func TestGenerate_TimeoutOnBothAttempts(t *testing.T) {
	llm := &fakeLLM{replies: []func() (string, error){
		func() (string, error) { return "", context.DeadlineExceeded },
	}}
	svc := newTestService(Deps{LLM: llm})

	_, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeTimeout))
	assert.Equal(t, 2, llm.calls)
}

func TestGenerate_GRPCUnavailableRetriedOnce(t *testing.T) {
	llm := &fakeLLM{replies: []func() (string, error){
		func() (string, error) { return "", status.Error(codes.Unavailable, "backend overloaded") },
		func() (string, error) { return "# Recovered\n\nBody after retry.", nil },
	}}
	svc := newTestService(Deps{LLM: llm})

	blog, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
	assert.Equal(t, "Recovered", blog.Title)
}

func TestGenerate_GRPCDeadlineMapsToTimeout(t *testing.T) {
	llm := &fakeLLM{replies: []func() (string, error){
		func() (string, error) { return "", status.Error(codes.DeadlineExceeded, "deadline exceeded") },
	}}
	svc := newTestService(Deps{LLM: llm})

	_, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeTimeout))
	assert.Equal(t, 2, llm.calls, "status-shaped deadline is still transient")
}

func TestGenerate_HardRejectionNotRetried(t *testing.T) {
	llm := &fakeLLM{replies: []func() (string, error){
		func() (string, error) { return "", errors.New("content policy rejection") },
	}}
	svc := newTestService(Deps{LLM: llm})

	_, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeGenerationBackend))
	assert.Equal(t, 1, llm.calls, "hard failures are never retried")
}

func TestGenerate_CacheFailureDegradesToMiss(t *testing.T) {
	llm := llmOK("# Title\n\nBody.")
	svc := newTestService(Deps{LLM: llm, Cache: errCache{}})

	_, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err, "cache failures must never fail the pipeline")
	assert.Equal(t, 1, llm.calls)
}

func TestGenerate_EmptyBackendOutputFails(t *testing.T) {
	svc := newTestService(Deps{LLM: llmOK("```\n```")})

	_, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeGenerationBackend))
}

func TestGenerate_InvalidLink(t *testing.T) {
	llm := llmOK("unused")
	svc := newTestService(Deps{LLM: llm})

	_, err := svc.Generate(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidReference))
	assert.Equal(t, 0, llm.calls)
}

// writerRunner stands in for yt-dlp and ffmpeg, producing their output files.
type writerRunner struct{ calls int }

func (w *writerRunner) Run(_ context.Context, _ string, args ...string) error {
	w.calls++
	out := args[len(args)-1]
	if w.calls == 1 {
		for i, a := range args {
			if a == "-o" {
				out = args[i+1]
			}
		}
	}
	return os.WriteFile(out, []byte("data"), 0o644)
}

func TestGenerate_ArtifactReleasedOnTranscriptionFailure(t *testing.T) {
	root := t.TempDir()
	downloader := media.NewDownloader(logger.New(),
		media.WithRunner(&writerRunner{}),
		media.WithTempRoot(root),
	)

	svc := newTestService(Deps{
		Media: downloader,
		STT:   &fakeSTT{err: errors.New("model aborted mid-stream")},
	})

	// captions are available, so the pipeline still succeeds
	blog, err := svc.Generate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, models.SourceCaptions, blog.Transcript)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "audio temp dir must be released on every exit path")
}

func TestGenerateWithProgress_ReportsStages(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	svc := newTestService(Deps{})

	_, err := svc.GenerateWithProgress(context.Background(), "https://youtu.be/dQw4w9WgXcQ", func(stage string) {
		mu.Lock()
		stages = append(stages, stage)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Contains(t, stages, StageResolving)
	assert.Contains(t, stages, StageFetchingCaptions)
	assert.Contains(t, stages, StageReconciling)
	assert.Contains(t, stages, StageGenerating)
	assert.Equal(t, StageDone, stages[len(stages)-1])
}
