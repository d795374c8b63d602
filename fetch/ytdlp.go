package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slog"

	"github.com/Yasin4161/Internet-download-agent/model"
)

var (
	// yt-dlp format selectors we pass on: plain ids, optionally merged with +.
	ytDlpFormatID = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+-]*$`)
	// format_note values that are real quality labels, as opposed to "tiny"
	// or "medium".
	ytDlpQualityNote = regexp.MustCompile(`^\d+p`)
)

var ytDlpMimeTypes = map[string]string{
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"3gp":  "video/3gpp",
	"mkv":  "video/x-matroska",
	"flv":  "video/x-flv",
	"mov":  "video/quicktime",
	"m4a":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"opus": "audio/ogg",
	"ogg":  "audio/ogg",
}

// YtDlp resolves references and streams formats through the yt-dlp binary.
type YtDlp struct {
	path   string
	logger *slog.Logger
}

func NewYtDlp(path string, logger *slog.Logger) *YtDlp {
	return &YtDlp{path: path, logger: logger}
}

// Internal struct to match yt-dlp JSON output
type ytDlpJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	ViewCount   int64   `json:"view_count"`
	Thumbnail   string  `json:"thumbnail"`
	Thumbnails  []struct {
		URL    string `json:"url"`
		Width  uint   `json:"width"`
		Height uint   `json:"height"`
	} `json:"thumbnails"`
	WebpageURL string `json:"webpage_url"`
	Formats    []struct {
		FormatID   string   `json:"format_id"`
		Ext        string   `json:"ext"`
		Height     *int     `json:"height"`
		VCodec     string   `json:"vcodec"`
		ACodec     string   `json:"acodec"`
		FormatNote string   `json:"format_note"`
		Filesize   *int64   `json:"filesize"`
		ABR        *float64 `json:"abr"`
		FPS        *float64 `json:"fps"`
	} `json:"formats"`
}

func (y *YtDlp) Name() string {
	return "yt-dlp"
}

func (y *YtDlp) ValidReference(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "" || u.Scheme == "http" || u.Scheme == "https"
}

func (y *YtDlp) Metadata(ctx context.Context, ref string) (*model.Resource, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.path, "-J", "--no-playlist", "--no-warnings", "--", ref)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp: %w", ctx.Err())
		}
		return nil, classifyYtDlpError(err, stderr.String())
	}

	res, err := parseYtDlp(output)
	if err != nil {
		return nil, err
	}
	if res.Handle == "" {
		res.Handle = ref
	}
	y.logger.Debug("fetched yt-dlp metadata", slog.String("video", res.ID), slog.Int("formats", len(res.Formats)))

	return res, nil
}

func (y *YtDlp) OpenStream(ctx context.Context, res *model.Resource, formatID string) (io.ReadCloser, error) {
	pageURL, ok := res.Handle.(string)
	if !ok || pageURL == "" {
		return nil, fmt.Errorf("resource %s was not resolved by the yt-dlp provider", res.ID)
	}
	if !ytDlpFormatID.MatchString(formatID) {
		return nil, fmt.Errorf("invalid yt-dlp format id %q", formatID)
	}

	cmd := exec.CommandContext(ctx, y.path, "-f", formatID, "-o", "-", "--no-playlist", "--no-part", "--quiet", "--no-warnings", "--", pageURL)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp stdout: %w", err)
	}
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting yt-dlp: %w", err)
	}

	return &processStream{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

func parseYtDlp(output []byte) (*model.Resource, error) {
	var data ytDlpJSON
	if err := json.Unmarshal(output, &data); err != nil {
		return nil, fmt.Errorf("%w: parsing yt-dlp output: %w", model.ErrNoMetadata, err)
	}
	if len(data.Formats) == 0 {
		return nil, fmt.Errorf("%w: yt-dlp reported no formats for %q", model.ErrNoMetadata, data.ID)
	}

	res := &model.Resource{
		ID:          data.ID,
		Title:       data.Title,
		Author:      lo.CoalesceOrEmpty(data.Uploader, data.Channel),
		Description: data.Description,
		Duration:    time.Duration(data.Duration * float64(time.Second)),
		Views:       data.ViewCount,
		Handle:      data.WebpageURL,
	}
	for _, t := range data.Thumbnails {
		res.Thumbnails = append(res.Thumbnails, model.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}
	if len(res.Thumbnails) == 0 && data.Thumbnail != "" {
		res.Thumbnails = []model.Thumbnail{{URL: data.Thumbnail}}
	}

	for _, f := range data.Formats {
		r := model.RawFormat{
			ID:        f.FormatID,
			Container: f.Ext,
			MimeType:  ytDlpMimeTypes[f.Ext],
			HasVideo:  f.VCodec != "none" && (f.VCodec != "" || (f.Height != nil && *f.Height > 0)),
			HasAudio:  f.ACodec != "none" && f.ACodec != "",
		}
		if ytDlpQualityNote.MatchString(f.FormatNote) {
			r.QualityLabel = f.FormatNote
		}
		if f.Height != nil {
			r.Height = mo.Some(*f.Height)
		}
		if f.Filesize != nil {
			r.ByteLength = mo.Some(*f.Filesize)
		}
		if f.ABR != nil {
			r.AudioBitrate = mo.Some(int(*f.ABR))
		}
		if f.FPS != nil {
			r.FPS = mo.Some(int(*f.FPS))
		}
		if !r.HasVideo && r.MimeType == "video/webm" {
			r.MimeType = "audio/webm"
		}
		res.Formats = append(res.Formats, r)
	}

	return res, nil
}

func classifyYtDlpError(err error, stderr string) error {
	msg := strings.TrimSpace(stderr)
	switch {
	case strings.Contains(msg, "Unsupported URL"),
		strings.Contains(msg, "is not a valid URL"),
		strings.Contains(msg, "Incomplete YouTube ID"):
		return fmt.Errorf("%w: %s", model.ErrReferenceRejected, msg)
	case strings.Contains(msg, "Video unavailable"),
		strings.Contains(msg, "Private video"),
		strings.Contains(msg, "Sign in to confirm"):
		return fmt.Errorf("%w: %s", model.ErrNoMetadata, msg)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && msg != "" {
		return fmt.Errorf("yt-dlp error: %w: %s", err, msg)
	}
	return fmt.Errorf("yt-dlp error: %w", err)
}

// processStream is the stdout of a running yt-dlp. A non-zero exit after the
// last byte is reported as a read error rather than a clean EOF.
type processStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer

	once    sync.Once
	waitErr error
}

func (p *processStream) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		if werr := p.wait(); werr != nil {
			return n, fmt.Errorf("yt-dlp exited: %w: %s", werr, strings.TrimSpace(p.stderr.String()))
		}
	}
	return n, err
}

// Close stops yt-dlp if it is still running.
func (p *processStream) Close() error {
	_ = p.cmd.Process.Kill()
	_ = p.wait()
	return nil
}

func (p *processStream) wait() error {
	p.once.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
