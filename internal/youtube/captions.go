package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
)

// CaptionFetcher retrieves platform captions for a video. Missing or
// disabled captions are reported as Available=false, never as an error:
// the local transcription branch is the fallback.
type CaptionFetcher interface {
	Fetch(ctx context.Context, videoID string) models.CaptionResult
}

var captionTracksPattern = regexp.MustCompile(`(?s)"captionTracks":(\[.+?\])[,}]`)

// Captions scrapes the caption track list from the watch page and
// downloads the preferred track in json3 form. Manually authored tracks
// win over auto-generated ("asr") ones.
type Captions struct {
	client   *http.Client
	baseURL  string
	language string
	log      *logrus.Logger
}

func NewCaptions(log *logrus.Logger) *Captions {
	return &Captions{
		client:   &http.Client{Timeout: 20 * time.Second},
		baseURL:  "https://www.youtube.com",
		language: "en",
		log:      log,
	}
}

// NewCaptionsWithBase overrides the watch-page origin and client, for tests.
func NewCaptionsWithBase(log *logrus.Logger, baseURL string, client *http.Client) *Captions {
	c := NewCaptions(log)
	c.baseURL = baseURL
	if client != nil {
		c.client = client
	}
	return c
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

func (c *Captions) Fetch(ctx context.Context, videoID string) models.CaptionResult {
	unavailable := models.CaptionResult{Available: false}
	log := c.log.WithField("video_id", videoID)

	tracks, err := c.listTracks(ctx, videoID)
	if err != nil {
		log.WithError(err).Warn("caption track listing failed, treating as unavailable")
		return unavailable
	}
	if len(tracks) == 0 {
		log.Debug("no caption tracks")
		return unavailable
	}

	track := pickTrack(tracks, c.language)

	text, err := c.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		log.WithError(err).Warn("caption track download failed, treating as unavailable")
		return unavailable
	}
	if text == "" {
		return unavailable
	}

	return models.CaptionResult{
		Available: true,
		Language:  track.LanguageCode,
		Text:      text,
	}
}

func (c *Captions) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/watch?v="+videoID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errParse("watch page status " + resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, err
	}

	m := captionTracksPattern.FindSubmatch(body)
	if m == nil {
		return nil, nil // player response carries no captionTracks
	}

	var tracks []captionTrack
	if err := json.Unmarshal(m[1], &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func pickTrack(tracks []captionTrack, language string) captionTrack {
	var langMatch *captionTrack
	for i := range tracks {
		t := &tracks[i]
		if !strings.HasPrefix(t.LanguageCode, language) {
			continue
		}
		if t.Kind != "asr" {
			return *t
		}
		if langMatch == nil {
			langMatch = t
		}
	}
	if langMatch != nil {
		return *langMatch
	}
	return tracks[0]
}

type json3Body struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func (c *Captions) fetchTrack(ctx context.Context, baseURL string) (string, error) {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+sep+"fmt=json3", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errParse("caption track status " + resp.Status)
	}

	var body json3Body
	if err := json.NewDecoder(io.LimitReader(resp.Body, 5<<20)).Decode(&body); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, ev := range body.Events {
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		sb.WriteByte(' ')
	}
	return strings.Join(strings.Fields(sb.String()), " "), nil
}
