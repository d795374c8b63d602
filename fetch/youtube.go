package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slog"

	"github.com/Yasin4161/Internet-download-agent/model"
)

// Youtube resolves references and opens streams with the kkdai/youtube
// client.
type Youtube struct {
	client *youtube.Client
	logger *slog.Logger
}

func NewYoutube(httpClient *http.Client, logger *slog.Logger) *Youtube {
	return &Youtube{
		client: &youtube.Client{HTTPClient: httpClient},
		logger: logger,
	}
}

func (y *Youtube) Name() string {
	return "youtube"
}

func (y *Youtube) ValidReference(ref string) bool {
	_, err := youtube.ExtractVideoID(ref)
	return err == nil
}

func (y *Youtube) Metadata(ctx context.Context, ref string) (*model.Resource, error) {
	video, err := y.client.GetVideoContext(ctx, ref)
	if err != nil {
		return nil, classifyYoutubeError(err)
	}
	if len(video.Formats) == 0 {
		return nil, fmt.Errorf("%w: video %s has no formats", model.ErrNoMetadata, video.ID)
	}
	y.logger.Debug("fetched video metadata", slog.String("video", video.ID), slog.Int("formats", len(video.Formats)))

	return &model.Resource{
		ID:          video.ID,
		Title:       video.Title,
		Author:      video.Author,
		Description: video.Description,
		Duration:    video.Duration,
		Views:       int64(video.Views),
		Thumbnails: lo.Map(video.Thumbnails, func(t youtube.Thumbnail, _ int) model.Thumbnail {
			return model.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height}
		}),
		Formats: lo.Map(video.Formats, func(f youtube.Format, _ int) model.RawFormat {
			return rawFromYoutube(f)
		}),
		Handle: video,
	}, nil
}

func (y *Youtube) OpenStream(ctx context.Context, res *model.Resource, formatID string) (io.ReadCloser, error) {
	video, ok := res.Handle.(*youtube.Video)
	if !ok {
		return nil, fmt.Errorf("resource %s was not resolved by the youtube provider", res.ID)
	}
	itag, err := strconv.Atoi(formatID)
	if err != nil {
		return nil, fmt.Errorf("invalid itag %q: %w", formatID, err)
	}
	fs := video.Formats.Itag(itag)
	if len(fs) == 0 {
		return nil, fmt.Errorf("video %s has no itag %d", video.ID, itag)
	}

	stream, _, err := y.client.GetStreamContext(ctx, video, &fs[0])
	if err != nil {
		return nil, fmt.Errorf("opening stream for itag %d: %w", itag, err)
	}

	return stream, nil
}

func rawFromYoutube(f youtube.Format) model.RawFormat {
	mediaType := mediaTypeOf(f.MimeType)
	r := model.RawFormat{
		ID:           strconv.Itoa(f.ItagNo),
		QualityLabel: f.QualityLabel,
		Container:    containerOf(mediaType),
		MimeType:     f.MimeType,
		HasVideo:     strings.HasPrefix(mediaType, "video/"),
		HasAudio:     f.AudioChannels > 0 || strings.HasPrefix(mediaType, "audio/"),
	}
	if f.Height > 0 {
		r.Height = mo.Some(f.Height)
	}
	if f.ContentLength > 0 {
		r.ByteLength = mo.Some(f.ContentLength)
	}
	if f.FPS > 0 {
		r.FPS = mo.Some(f.FPS)
	}
	if !r.HasVideo && f.AverageBitrate > 0 {
		r.AudioBitrate = mo.Some(f.AverageBitrate / 1000)
	}

	return r
}

func mediaTypeOf(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	return mediaType
}

// containerOf turns "video/mp4" into "mp4".
func containerOf(mediaType string) string {
	_, sub, ok := strings.Cut(mediaType, "/")
	if !ok {
		return ""
	}
	return sub
}

func classifyYoutubeError(err error) error {
	switch {
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %w", model.ErrReferenceRejected, err)
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("%w: %w", model.ErrNoMetadata, err)
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %w", model.ErrNoMetadata, err)
	}

	return err
}
