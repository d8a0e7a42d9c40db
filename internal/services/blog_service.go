package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/cache"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/media"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/providers/llm"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/providers/stt"
	mongorepo "github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/repositories/mongo"
	pgrepo "github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/repositories/postgres"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/storage"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/transcript"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/youtube"
)

// Pipeline stages reported through the progress hook.
const (
	StageResolving        = "resolving"
	StageFetchingCaptions = "fetching_captions"
	StageAcquiringAudio   = "acquiring_audio"
	StageTranscribing     = "transcribing"
	StageReconciling      = "reconciling"
	StageCacheHit         = "cache_hit"
	StageGenerating       = "generating"
	StageDone             = "done"
)

// ProgressFunc receives stage transitions while a generation runs. It is
// called from the request goroutine and from the two pipeline branches.
type ProgressFunc func(stage string)

// VideoResolver normalizes a link into a VideoRef.
type VideoResolver interface {
	Resolve(ctx context.Context, link string) (*models.VideoRef, error)
}

type BlogService interface {
	// Generate runs the full pipeline: resolve, fetch captions and local
	// transcription concurrently, reconcile, generate, cache.
	Generate(ctx context.Context, link string) (*models.GeneratedBlog, error)
	GenerateWithProgress(ctx context.Context, link string, progress ProgressFunc) (*models.GeneratedBlog, error)

	ListPosts(ctx context.Context, limit int) ([]models.BlogPost, error)
	GetPost(ctx context.Context, id string) (*models.BlogPost, error)
	DeletePost(ctx context.Context, id string) error
}

// Deps wires the pipeline's collaborators. Blogs, Transcripts and Audio
// are optional: a nil repository disables persistence, a nil uploader
// disables audio archiving.
type Deps struct {
	Resolver    VideoResolver
	Captions    youtube.CaptionFetcher
	Media       media.Acquirer
	STT         stt.Provider
	LLM         llm.Provider
	Cache       cache.Cache
	Blogs       pgrepo.BlogRepository
	Transcripts mongorepo.TranscriptRepository
	Audio       storage.Uploader
	Logger      *logrus.Logger

	CacheTTL          time.Duration // default 24h
	GenerationTimeout time.Duration // default 2m
	Language          string        // default "en"
}

type blogService struct {
	d Deps
}

func NewBlogService(d Deps) BlogService {
	if d.CacheTTL <= 0 {
		d.CacheTTL = 24 * time.Hour
	}
	if d.GenerationTimeout <= 0 {
		d.GenerationTimeout = 2 * time.Minute
	}
	if d.Language == "" {
		d.Language = "en"
	}
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	return &blogService{d: d}
}

func cacheKey(videoID string) string { return "blog:" + videoID }

func (s *blogService) Generate(ctx context.Context, link string) (*models.GeneratedBlog, error) {
	return s.GenerateWithProgress(ctx, link, nil)
}

func (s *blogService) GenerateWithProgress(ctx context.Context, link string, progress ProgressFunc) (*models.GeneratedBlog, error) {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	report(StageResolving)
	ref, err := s.d.Resolver.Resolve(ctx, link)
	if err != nil {
		return nil, err
	}
	log := s.d.Logger.WithField("video_id", ref.ID)

	// Cache read failures degrade to a miss, never abort.
	var cached models.GeneratedBlog
	hit, err := s.d.Cache.GetJSON(ctx, cacheKey(ref.ID), &cached)
	if err != nil {
		log.WithError(err).Warn("cache lookup failed, proceeding uncached")
	} else if hit {
		report(StageCacheHit)
		report(StageDone)
		return &cached, nil
	}

	// The caption branch and the audio+transcription branch run
	// independently. A failure on either side is absorbed here; only
	// reconciliation decides whether the pipeline can still succeed.
	var (
		wg       sync.WaitGroup
		captions models.CaptionResult
		segments []stt.Segment
		localErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		report(StageFetchingCaptions)
		captions = s.d.Captions.Fetch(ctx, ref.ID)
	}()
	go func() {
		defer wg.Done()
		segments, localErr = s.transcribeLocally(ctx, ref, report)
	}()
	wg.Wait()

	if localErr != nil {
		log.WithError(localErr).Warn("local transcription branch failed, relying on captions")
	}

	report(StageReconciling)
	canonical, err := transcript.Reconcile(captions, segments)
	if err != nil {
		return nil, err
	}
	s.archiveTranscript(ctx, ref, captions, canonical, len(segments))

	report(StageGenerating)
	blog, err := s.generateContent(ctx, ref, canonical)
	if err != nil {
		return nil, err
	}

	if err := s.d.Cache.SetJSON(ctx, cacheKey(ref.ID), blog, s.d.CacheTTL); err != nil {
		log.WithError(err).Warn("cache write failed")
	}
	s.persist(ctx, ref, blog)

	report(StageDone)
	return blog, nil
}

// transcribeLocally owns the audio artifact for its whole lifetime: the
// temp files are released on every exit path.
func (s *blogService) transcribeLocally(ctx context.Context, ref *models.VideoRef, report ProgressFunc) ([]stt.Segment, error) {
	const op = "BlogService.transcribeLocally"

	report(StageAcquiringAudio)
	artifact, err := s.d.Media.Acquire(ctx, ref.URL)
	if err != nil {
		return nil, err
	}
	defer artifact.Close()

	report(StageTranscribing)
	segments, err := s.d.STT.Transcribe(ctx, artifact.Path, s.d.Language)
	if err != nil {
		return nil, utils.E(utils.CodeTranscription, op, "local transcription failed", err)
	}

	s.archiveAudio(ctx, ref, artifact)
	return segments, nil
}

func (s *blogService) generateContent(ctx context.Context, ref *models.VideoRef, canonical models.CanonicalTranscript) (*models.GeneratedBlog, error) {
	const op = "BlogService.generateContent"

	prompt := buildPrompt(ref.Title, canonical.Text)

	raw, err := s.callBackend(ctx, prompt)
	if err != nil && llm.IsTransient(err) {
		// one retry with unchanged input, transient failures only
		s.d.Logger.WithError(err).WithField("video_id", ref.ID).Warn("generation backend failed, retrying once")
		raw, err = s.callBackend(ctx, prompt)
	}
	if err != nil {
		if llm.IsDeadline(err) {
			return nil, utils.E(utils.CodeTimeout, op, "generation backend timed out", err)
		}
		return nil, utils.E(utils.CodeGenerationBackend, op, "generation backend failed", err)
	}

	title, body, sections := postprocess(raw, ref.Title)
	if body == "" {
		return nil, utils.E(utils.CodeGenerationBackend, op, "generation backend returned empty content", nil)
	}

	return &models.GeneratedBlog{
		VideoID:     ref.ID,
		Title:       title,
		Body:        body,
		Sections:    sections,
		Transcript:  canonical.Source,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (s *blogService) callBackend(ctx context.Context, prompt string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.d.GenerationTimeout)
	defer cancel()
	return s.d.LLM.Generate(genCtx, prompt)
}

func (s *blogService) archiveTranscript(ctx context.Context, ref *models.VideoRef, captions models.CaptionResult, canonical models.CanonicalTranscript, segmentCount int) {
	if s.d.Transcripts == nil {
		return
	}
	rec := &models.TranscriptRecord{
		VideoID:         ref.ID,
		Source:          canonical.Source,
		Text:            canonical.Text,
		CaptionLanguage: captions.Language,
		SegmentCount:    segmentCount,
	}
	if err := s.d.Transcripts.Insert(ctx, rec); err != nil {
		s.d.Logger.WithError(err).WithField("video_id", ref.ID).Warn("transcript archive failed")
	}
}

func (s *blogService) archiveAudio(ctx context.Context, ref *models.VideoRef, artifact *media.Artifact) {
	if s.d.Audio == nil {
		return
	}
	f, err := os.Open(artifact.Path)
	if err != nil {
		s.d.Logger.WithError(err).WithField("video_id", ref.ID).Warn("audio archive open failed")
		return
	}
	defer f.Close()

	if _, err := s.d.Audio.Upload(ctx, "audio/"+ref.ID+".wav", "audio/wav", f); err != nil {
		s.d.Logger.WithError(err).WithField("video_id", ref.ID).Warn("audio archive upload failed")
	}
}

func (s *blogService) persist(ctx context.Context, ref *models.VideoRef, blog *models.GeneratedBlog) {
	if s.d.Blogs == nil {
		return
	}

	var sections datatypes.JSON
	if len(blog.Sections) > 0 {
		if b, err := json.Marshal(blog.Sections); err == nil {
			sections = datatypes.JSON(b)
		}
	}

	now := time.Now().UTC()
	row := &models.BlogPost{
		ID:          uuid.NewString(),
		VideoID:     ref.ID,
		YoutubeLink: ref.URL,
		Title:       blog.Title,
		Content:     blog.Body,
		Sections:    sections,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.d.Blogs.Insert(ctx, row); err != nil {
		s.d.Logger.WithError(err).WithField("video_id", ref.ID).Error("blog persistence failed")
	}
}

func (s *blogService) ListPosts(ctx context.Context, limit int) ([]models.BlogPost, error) {
	const op = "BlogService.ListPosts"
	if s.d.Blogs == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "blog persistence is not configured", nil)
	}
	rows, err := s.d.Blogs.List(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list blog posts", err)
	}
	return rows, nil
}

func (s *blogService) GetPost(ctx context.Context, id string) (*models.BlogPost, error) {
	const op = "BlogService.GetPost"
	if s.d.Blogs == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "blog persistence is not configured", nil)
	}
	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	row, err := s.d.Blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "blog post not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get blog post", err)
	}
	return row, nil
}

func (s *blogService) DeletePost(ctx context.Context, id string) error {
	const op = "BlogService.DeletePost"
	if s.d.Blogs == nil {
		return utils.E(utils.CodeUnavailable, op, "blog persistence is not configured", nil)
	}
	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}

	row, err := s.d.Blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "blog post not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load blog post", err)
	}

	if err := s.d.Blogs.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "blog post not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete blog post", err)
	}

	// a deleted post should not be resurrected from cache on regenerate
	if err := s.d.Cache.Del(ctx, cacheKey(row.VideoID)); err != nil {
		s.d.Logger.WithError(err).WithField("video_id", row.VideoID).Warn("cache invalidation failed")
	}
	return nil
}
