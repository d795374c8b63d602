// Package format turns provider format records into a canonical catalog and
// picks one entry out of it.
package format

import (
	"math"
	"strconv"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/Yasin4161/Internet-download-agent/model"
)

// UnknownQuality labels formats without a label and without a height.
const UnknownQuality = "unknown"

const bytesPerMB = 1 << 20

// DedupKey decides which formats count as duplicates of each other.
type DedupKey int

const (
	// ByQuality keeps one format per quality label. Used where a single
	// format is picked in the end.
	ByQuality DedupKey = iota
	// ByQualityContainer keeps one format per (quality label, container).
	ByQualityContainer
	// ByID keeps one format per id.
	ByID
)

type dedupKey struct {
	quality   string
	container string
	id        string
}

func (k DedupKey) of(f model.Format) dedupKey {
	switch k {
	case ByQualityContainer:
		return dedupKey{quality: f.QualityLabel, container: f.Container}
	case ByID:
		return dedupKey{id: f.ID}
	default:
		return dedupKey{quality: f.QualityLabel}
	}
}

// Normalize maps raw records to canonical formats. Records that carry neither
// video nor audio are dropped; of several records with the same key only the
// first one survives. Normalize never fails.
func Normalize(raw []model.RawFormat, key DedupKey) []model.Format {
	usable := lo.Filter(raw, func(r model.RawFormat, _ int) bool {
		return r.HasVideo || r.HasAudio
	})
	formats := lo.Map(usable, func(r model.RawFormat, _ int) model.Format {
		return canonical(r)
	})

	return lo.UniqBy(formats, key.of)
}

func canonical(r model.RawFormat) model.Format {
	return model.Format{
		ID:                r.ID,
		QualityLabel:      qualityLabel(r),
		Container:         r.Container,
		MimeType:          r.MimeType,
		ApproximateSizeMB: sizeMB(r.ByteLength),
		Capabilities:      capabilities(r),
		FPS:               r.FPS,
	}
}

func qualityLabel(r model.RawFormat) string {
	if r.QualityLabel != "" {
		return r.QualityLabel
	}
	if h, ok := r.Height.Get(); ok && h > 0 {
		return strconv.Itoa(h) + "p"
	}
	return UnknownQuality
}

func sizeMB(length mo.Option[int64]) mo.Option[int64] {
	n, ok := length.Get()
	if !ok || n < 0 {
		return mo.None[int64]()
	}
	return mo.Some(int64(math.Round(float64(n) / bytesPerMB)))
}

func capabilities(r model.RawFormat) model.Capability {
	switch {
	case r.HasVideo && r.HasAudio:
		return model.VideoAudio
	case r.HasVideo:
		return model.VideoOnly
	default:
		return model.AudioOnly
	}
}

// Raw expresses a canonical format as a raw record again, so a catalog can be
// fed back through Normalize.
func Raw(f model.Format) model.RawFormat {
	r := model.RawFormat{
		ID:           f.ID,
		QualityLabel: f.QualityLabel,
		Container:    f.Container,
		MimeType:     f.MimeType,
		FPS:          f.FPS,
		HasVideo:     f.Capabilities != model.AudioOnly,
		HasAudio:     f.Capabilities != model.VideoOnly,
	}
	if mb, ok := f.ApproximateSizeMB.Get(); ok {
		r.ByteLength = mo.Some(mb * bytesPerMB)
	}
	return r
}

// MuxedRaw keeps the raw records that carry both video and audio. Filtering
// before Normalize keeps a video-only record from shadowing a muxed one of
// the same quality.
func MuxedRaw(raw []model.RawFormat) []model.RawFormat {
	return lo.Filter(raw, func(r model.RawFormat, _ int) bool {
		return r.HasVideo && r.HasAudio
	})
}
