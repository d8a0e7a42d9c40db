package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/providers/stt"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

func segs(texts ...string) []stt.Segment {
	out := make([]stt.Segment, len(texts))
	for i, t := range texts {
		out[i] = stt.Segment{Text: t}
	}
	return out
}

func TestReconcile_BothEmptyFails(t *testing.T) {
	_, err := Reconcile(models.CaptionResult{Available: false}, nil)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNoTranscript))

	// captions present but blank, segments whitespace-only
	_, err = Reconcile(models.CaptionResult{Available: true, Text: "   "}, segs("  ", "\n"))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNoTranscript))
}

func TestReconcile_CaptionsOnly(t *testing.T) {
	cap := models.CaptionResult{Available: true, Text: "hello world this is a test of captions"}
	got, err := Reconcile(cap, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SourceCaptions, got.Source)
	assert.Equal(t, "hello world this is a test of captions", got.Text)
}

func TestReconcile_LocalFallbackWhenCaptionsDisabled(t *testing.T) {
	got, err := Reconcile(models.CaptionResult{Available: false}, segs("um so today we are"))
	require.NoError(t, err)
	assert.Equal(t, models.SourceLocal, got.Source)
	assert.Equal(t, "um so today we are", got.Text)
}

func TestReconcile_CaptionsWinWhenBothUsable(t *testing.T) {
	cap := models.CaptionResult{Available: true, Text: "properly punctuated caption text, long enough."}
	local := segs("roughly the same words without punctuation long enough")

	got, err := Reconcile(cap, local)
	require.NoError(t, err)
	assert.Equal(t, models.SourceMerged, got.Source)
	assert.Equal(t, "properly punctuated caption text, long enough.", got.Text)
}

func TestReconcile_ShortCaptionsYieldToLocal(t *testing.T) {
	cap := models.CaptionResult{Available: true, Text: "[Music]"}
	local := segs("today we will walk through the whole deployment setup")

	got, err := Reconcile(cap, local)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLocal, got.Source)
	assert.Contains(t, got.Text, "deployment setup")
}

func TestReconcile_NeverEmptyWhenOneSourceNonEmpty(t *testing.T) {
	cases := []struct {
		cap  models.CaptionResult
		segs []stt.Segment
	}{
		{models.CaptionResult{Available: true, Text: "hi"}, nil},
		{models.CaptionResult{}, segs("hi")},
		{models.CaptionResult{Available: true, Text: "hi"}, segs("yo")},
	}
	for _, tc := range cases {
		got, err := Reconcile(tc.cap, tc.segs)
		require.NoError(t, err)
		assert.NotEmpty(t, got.Text)
		assert.NotEmpty(t, got.Source)
	}
}

func TestReconcile_NormalizesWhitespace(t *testing.T) {
	cap := models.CaptionResult{Available: true, Text: "  spaced \n out\t caption text that is long enough  "}
	got, err := Reconcile(cap, nil)
	require.NoError(t, err)
	assert.Equal(t, "spaced out caption text that is long enough", got.Text)
	assert.False(t, strings.Contains(got.Text, "\n"))
}

func TestJoinSegments(t *testing.T) {
	assert.Equal(t, "", JoinSegments(nil))
	assert.Equal(t, "a b", JoinSegments(segs("a", " ", "b")))
}
