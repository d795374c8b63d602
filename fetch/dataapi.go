package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/Yasin4161/Internet-download-agent/model"
)

// DataAPI fills in resource fields that the stream provider left empty, using
// the official YouTube Data API.
type DataAPI struct {
	Client *youtube.Service
	logger *slog.Logger
}

func NewDataAPI(ctx context.Context, apiKey string, logger *slog.Logger) (*DataAPI, error) {
	client, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating youtube data api client: %w", err)
	}

	return &DataAPI{Client: client, logger: logger}, nil
}

func (d *DataAPI) FetchMetadata(ctx context.Context, ytIDs []string) (map[string]Metadata, error) {
	call := d.Client.Videos.
		List([]string{"snippet", "contentDetails", "statistics"}).
		Id(strings.Join(ytIDs, ",")).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return map[string]Metadata{}, err
	}

	mds := make(map[string]Metadata, len(response.Items))
	for _, item := range response.Items {
		if item.Snippet == nil {
			continue
		}
		md := Metadata{
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Author:      item.Snippet.ChannelTitle,
			Thumbnail:   bestThumbnail(item.Snippet.Thumbnails),
		}
		if item.ContentDetails != nil {
			md.Duration, _ = parseISODuration(item.ContentDetails.Duration)
		}
		if item.Statistics != nil {
			md.Views = int64(item.Statistics.ViewCount)
		}

		mds[item.Id] = md
	}

	return mds, nil
}

// Enrich only calls the API when the resource is missing something.
func (d *DataAPI) Enrich(ctx context.Context, res *model.Resource) error {
	if res.ID == "" || complete(res) {
		return nil
	}

	mds, err := d.FetchMetadata(ctx, []string{res.ID})
	if err != nil {
		return fmt.Errorf("fetching data api metadata for %s: %w", res.ID, err)
	}
	md, ok := mds[res.ID]
	if !ok {
		d.logger.Debug("data api does not know video", slog.String("video", res.ID))
		return nil
	}

	if res.Title == "" {
		res.Title = md.Title
	}
	if res.Author == "" {
		res.Author = md.Author
	}
	if res.Description == "" {
		res.Description = md.Description
	}
	if res.Duration == 0 {
		res.Duration = md.Duration
	}
	if res.Views == 0 {
		res.Views = md.Views
	}
	if len(res.Thumbnails) == 0 && md.Thumbnail != "" {
		res.Thumbnails = []model.Thumbnail{{URL: md.Thumbnail}}
	}

	return nil
}

func complete(res *model.Resource) bool {
	return res.Title != "" && res.Author != "" && res.Description != "" &&
		res.Duration > 0 && res.Views > 0 && len(res.Thumbnails) > 0
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

// parseISODuration reads the ISO 8601 durations the Data API returns, like
// PT1H2M10S or P1DT2H.
func parseISODuration(s string) (time.Duration, error) {
	if s == "P" || strings.HasSuffix(s, "T") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	return d.ToTimeDuration(), nil
}
