package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sarabhanuprasadgoud-collab/ai-blog-article-generator/internal/utils"
)

// SampleRate is what the local speech models expect.
const SampleRate = 16000

// Artifact is a decoded, speech-only audio file in a per-request temp
// directory. The artifact owns the directory: Close removes it and must
// be called on every exit path. Close is safe to call more than once.
type Artifact struct {
	Path       string
	SampleRate int

	dir       string
	closeOnce sync.Once
	closeErr  error
}

func (a *Artifact) Close() error {
	a.closeOnce.Do(func() {
		if a.dir != "" {
			a.closeErr = os.RemoveAll(a.dir)
		}
	})
	return a.closeErr
}

// Acquirer downloads a video's audio track ready for transcription.
type Acquirer interface {
	Acquire(ctx context.Context, videoURL string) (*Artifact, error)
}

// CommandRunner abstracts external tool invocation so the downloader can
// be tested without yt-dlp or ffmpeg installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type ExecRunner struct{}

// stderr tail kept on failure; these tools print the actual cause there.
const stderrTailBytes = 1024

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return err
	}
	if len(msg) > stderrTailBytes {
		msg = msg[len(msg)-stderrTailBytes:]
	}
	return fmt.Errorf("%w: %s", err, msg)
}

// Downloader acquires audio in two steps: yt-dlp pulls the best audio
// stream, ffmpeg resamples it to mono 16 kHz WAV.
type Downloader struct {
	runner   CommandRunner
	ytdlp    string
	ffmpeg   string
	tempRoot string
	log      *logrus.Logger
}

type DownloaderOption func(*Downloader)

func WithRunner(r CommandRunner) DownloaderOption {
	return func(d *Downloader) { d.runner = r }
}

func WithBinaries(ytdlp, ffmpeg string) DownloaderOption {
	return func(d *Downloader) {
		if ytdlp != "" {
			d.ytdlp = ytdlp
		}
		if ffmpeg != "" {
			d.ffmpeg = ffmpeg
		}
	}
}

func WithTempRoot(dir string) DownloaderOption {
	return func(d *Downloader) { d.tempRoot = dir }
}

func NewDownloader(log *logrus.Logger, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		runner:   ExecRunner{},
		ytdlp:    "yt-dlp",
		ffmpeg:   "ffmpeg",
		tempRoot: os.TempDir(),
		log:      log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Downloader) Acquire(ctx context.Context, videoURL string) (*Artifact, error) {
	const op = "Downloader.Acquire"

	dir := filepath.Join(d.tempRoot, "audio-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, utils.E(utils.CodeAudioAcquisition, op, "failed to create work dir", err)
	}

	rawPath := filepath.Join(dir, "raw.m4a")
	wavPath := filepath.Join(dir, "speech.wav")

	if err := d.runner.Run(ctx, d.ytdlp,
		"-f", "bestaudio/best",
		"--no-playlist",
		"--quiet",
		"-o", rawPath,
		videoURL,
	); err != nil {
		_ = os.RemoveAll(dir)
		return nil, utils.E(utils.CodeAudioAcquisition, op, "audio download failed", err)
	}

	if err := d.runner.Run(ctx, d.ffmpeg,
		"-y",
		"-i", rawPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		wavPath,
	); err != nil {
		_ = os.RemoveAll(dir)
		return nil, utils.E(utils.CodeAudioAcquisition, op, "audio extraction failed", err)
	}

	// the raw download is no longer needed once resampled
	if err := os.Remove(rawPath); err != nil && !os.IsNotExist(err) {
		d.log.WithError(err).Debug("could not remove raw download")
	}

	if fi, err := os.Stat(wavPath); err != nil || fi.Size() == 0 {
		_ = os.RemoveAll(dir)
		return nil, utils.E(utils.CodeAudioAcquisition, op, "extracted audio is empty", err)
	}

	return &Artifact{
		Path:       wavPath,
		SampleRate: SampleRate,
		dir:        dir,
	}, nil
}
