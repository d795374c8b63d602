// Package gateway resolves media references, negotiates a format and proxies
// the chosen format to the caller.
package gateway

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/Yasin4161/Internet-download-agent/format"
	"github.com/Yasin4161/Internet-download-agent/metrics"
	"github.com/Yasin4161/Internet-download-agent/model"
)

const maxDescriptionRunes = 500

// Provider is the remote service that knows about media references.
type Provider interface {
	Name() string
	ValidReference(ref string) bool
	Metadata(ctx context.Context, ref string) (*model.Resource, error)
	OpenStream(ctx context.Context, res *model.Resource, formatID string) (io.ReadCloser, error)
}

// Enricher fills in resource fields the provider did not return.
type Enricher interface {
	Enrich(ctx context.Context, res *model.Resource) error
}

// Journal records download attempts.
type Journal interface {
	Save(d *model.Download) error
}

type Config struct {
	Provider        Provider
	ProviderTimeout time.Duration
	// Enricher and Journal are optional.
	Enricher Enricher
	Journal  Journal
	Metrics  *metrics.Metrics
}

type Gateway struct {
	provider Provider
	resolver *Resolver
	proxy    *Proxy
	enricher Enricher
	journal  Journal
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func New(cfg Config, logger *slog.Logger) *Gateway {
	return &Gateway{
		provider: cfg.Provider,
		resolver: NewResolver(cfg.Provider, cfg.ProviderTimeout, cfg.Metrics),
		proxy:    NewProxy(cfg.Provider),
		enricher: cfg.Enricher,
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Describe returns the resource summary with the downloadable formats, one
// per quality.
func (g *Gateway) Describe(ctx context.Context, ref string) (model.Summary, error) {
	const op = "describe"
	ref, err := g.checkReference(op, ref)
	if err != nil {
		return model.Summary{}, err
	}
	res, err := g.resolver.Resolve(ctx, op, ref)
	if err != nil {
		return model.Summary{}, err
	}
	if g.enricher != nil {
		if err := g.enricher.Enrich(ctx, res); err != nil {
			g.log(ctx).Warn("could not enrich metadata", slog.String("url", ref), slog.String("err", err.Error()))
		}
	}

	duration := int64(res.Duration / time.Second)
	if duration < 0 {
		duration = 0
	}

	return model.Summary{
		Title:       res.Title,
		Duration:    duration,
		Thumbnail:   bestThumbnail(res.Thumbnails),
		Author:      res.Author,
		ViewCount:   res.Views,
		Description: truncate(res.Description, maxDescriptionRunes),
		Formats:     format.Normalize(format.MuxedRaw(res.Formats), format.ByQuality),
	}, nil
}

// ListFormats returns every downloadable format, one per quality and
// container, best quality first.
func (g *Gateway) ListFormats(ctx context.Context, ref string) ([]model.Format, error) {
	const op = "formats"
	ref, err := g.checkReference(op, ref)
	if err != nil {
		return nil, err
	}
	res, err := g.resolver.Resolve(ctx, op, ref)
	if err != nil {
		return nil, err
	}

	return format.Sort(format.Normalize(format.MuxedRaw(res.Formats), format.ByQualityContainer)), nil
}

// Download selects a format by quality and streams it into sink. A returned
// *StreamError with BodyStarted set means the response is committed.
func (g *Gateway) Download(ctx context.Context, ref, quality string, sink ResponseSink) error {
	const op = "download"
	ref, err := g.checkReference(op, ref)
	if err != nil {
		return err
	}
	res, err := g.resolver.Resolve(ctx, op, ref)
	if err != nil {
		return err
	}

	criterion := model.ParseCriterion(quality)
	catalog := format.Normalize(format.MuxedRaw(res.Formats), format.ByQuality)
	if !criterion.IsSymbolic() {
		catalog = format.Normalize(res.Formats, format.ByID)
	}
	selected, err := format.Select(catalog, criterion)
	if err != nil {
		return &Error{Kind: KindNoMatchingFormat, Op: op, Err: err}
	}
	g.metrics.Selected(selected.QualityLabel)

	logger := g.log(ctx).With(slog.String("url", ref), slog.String("format", selected.ID))
	logger.Info("download started", slog.String("quality", selected.QualityLabel), slog.String("criterion", criterion.String()))

	entry := &model.Download{
		ID:        uuid.New(),
		Status:    model.DownloadStarted,
		Reference: ref,
		FormatID:  selected.ID,
		Container: selected.Container,
		Title:     res.Title,
		StartedAt: g.now(),
	}
	g.record(logger, entry)

	d := &Download{Reference: ref, Resource: res, Format: selected}
	err = g.proxy.Stream(ctx, d, sink)
	g.metrics.Relayed(d.Bytes)

	finished := g.now()
	entry.FinishedAt = &finished
	entry.Bytes = d.Bytes
	entry.Status = model.DownloadCompleted
	if err != nil {
		entry.Status = model.DownloadFailed
		if errors.Is(err, ErrClientGone) {
			entry.Status = model.DownloadAborted
		}
		entry.Error = err.Error()
	}
	g.record(logger, entry)

	if err != nil {
		var serr *StreamError
		phase := "before_body"
		if errors.As(err, &serr) && serr.BodyStarted {
			phase = "after_body"
		}
		g.metrics.StreamFailure(phase)
		logger.Error("download failed",
			slog.String("phase", phase),
			slog.String("relayed", humanize.Bytes(uint64(d.Bytes))),
			slog.String("err", err.Error()),
		)
		return err
	}

	logger.Info("download completed", slog.String("relayed", humanize.Bytes(uint64(d.Bytes))))
	return nil
}

// checkReference runs the pattern check before the provider's own check, so
// obviously wrong input never costs a provider call.
func (g *Gateway) checkReference(op, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", &Error{Kind: KindMissingReference, Op: op}
	case !ValidReference(ref):
		return "", &Error{Kind: KindInvalidReference, Op: op}
	case !g.provider.ValidReference(ref):
		return "", &Error{Kind: KindUnsupportedReference, Op: op}
	}
	return ref, nil
}

func (g *Gateway) record(logger *slog.Logger, d *model.Download) {
	if g.journal == nil {
		return
	}
	if err := g.journal.Save(d); err != nil {
		logger.Warn("could not journal download", slog.String("status", string(d.Status)), slog.String("err", err.Error()))
	}
}

func (g *Gateway) log(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return g.logger.With(slog.String("request", id))
	}
	return g.logger
}

// bestThumbnail picks the largest thumbnail. Entries without dimensions
// lose against any sized one; without sizes at all the last entry wins.
func bestThumbnail(thumbs []model.Thumbnail) string {
	if len(thumbs) == 0 {
		return ""
	}
	best := thumbs[len(thumbs)-1]
	for _, t := range thumbs {
		if t.Width*t.Height > best.Width*best.Height {
			best = t
		}
	}
	return best.URL
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
