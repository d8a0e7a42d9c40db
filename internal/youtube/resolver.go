package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/models"
	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Resolver normalizes a user-supplied link into a VideoRef and fetches
// the video title from the oEmbed endpoint. The title is cosmetic: an
// oEmbed failure is logged, not propagated.
type Resolver struct {
	client    *http.Client
	oembedURL string
	log       *logrus.Logger
}

func NewResolver(log *logrus.Logger) *Resolver {
	return &Resolver{
		client:    &http.Client{Timeout: 10 * time.Second},
		oembedURL: "https://www.youtube.com/oembed",
		log:       log,
	}
}

// NewResolverWithEndpoint overrides the oEmbed endpoint and client, for tests.
func NewResolverWithEndpoint(log *logrus.Logger, oembedURL string, client *http.Client) *Resolver {
	r := NewResolver(log)
	r.oembedURL = oembedURL
	if client != nil {
		r.client = client
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, link string) (*models.VideoRef, error) {
	const op = "Resolver.Resolve"

	id, err := ExtractVideoID(link)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidReference, op, "unrecognized video link", err)
	}

	ref := &models.VideoRef{
		ID:  id,
		URL: "https://www.youtube.com/watch?v=" + id,
	}

	title, err := r.fetchTitle(ctx, ref.URL)
	if err != nil {
		r.log.WithError(err).WithField("video_id", id).Warn("title lookup failed, continuing without title")
	} else {
		ref.Title = title
	}
	return ref, nil
}

func (r *Resolver) fetchTitle(ctx context.Context, videoURL string) (string, error) {
	q := url.Values{}
	q.Set("url", videoURL)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.oembedURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &url.Error{Op: "Get", URL: r.oembedURL, Err: io.EOF}
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.Title), nil
}

// ExtractVideoID pulls the canonical 11-character id out of a link.
// Accepted forms: watch?v=, youtu.be/, /shorts/, /embed/, /live/, and a
// bare id.
func ExtractVideoID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", errEmptyLink
	}

	if videoIDPattern.MatchString(link) {
		return link, nil
	}

	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); videoIDPattern.MatchString(v) {
			return v, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				id := strings.SplitN(rest, "/", 2)[0]
				if videoIDPattern.MatchString(id) {
					return id, nil
				}
			}
		}
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if videoIDPattern.MatchString(id) {
			return id, nil
		}
	}

	return "", errNoVideoID
}

var (
	errEmptyLink = errParse("empty link")
	errNoVideoID = errParse("no video id in link")
)

type errParse string

func (e errParse) Error() string { return string(e) }
