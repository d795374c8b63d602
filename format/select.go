package format

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/Yasin4161/Internet-download-agent/model"
)

var ErrNoMatchingFormat = errors.New("no matching format")

// unrankedQuality is the rank of every label missing from qualityRank.
const unrankedQuality = -4

var qualityRank = map[string]int{
	"2160p": 4,
	"1440p": 3,
	"1080p": 2,
	"720p":  1,
	"480p":  0,
	"360p":  -1,
	"240p":  -2,
	"144p":  -3,
}

// Rank returns the position of a quality label in the quality ordering.
func Rank(label string) int {
	if r, ok := qualityRank[label]; ok {
		return r
	}
	return unrankedQuality
}

// Select picks exactly one format. Symbolic criteria only consider formats
// with both video and audio, and on equal rank the one that comes first in
// the catalog wins. An explicit id either matches or fails with
// ErrNoMatchingFormat.
func Select(formats []model.Format, c model.Criterion) (model.Format, error) {
	if !c.IsSymbolic() {
		f, ok := lo.Find(formats, func(f model.Format) bool { return f.ID == c.ID })
		if !ok {
			return model.Format{}, fmt.Errorf("%w: id %q", ErrNoMatchingFormat, c.ID)
		}
		return f, nil
	}

	muxed := Muxed(formats)
	if len(muxed) == 0 {
		return model.Format{}, fmt.Errorf("%w: no format with video and audio", ErrNoMatchingFormat)
	}

	switch c.Symbol {
	case model.Highest:
		return lo.MaxBy(muxed, func(a, b model.Format) bool {
			return Rank(a.QualityLabel) > Rank(b.QualityLabel)
		}), nil
	case model.Lowest:
		return lo.MinBy(muxed, func(a, b model.Format) bool {
			return Rank(a.QualityLabel) < Rank(b.QualityLabel)
		}), nil
	}

	return model.Format{}, fmt.Errorf("%w: unknown quality %q", ErrNoMatchingFormat, c.Symbol)
}

// Sort returns a copy of formats ordered by quality, best first. Equal ranks
// keep their catalog order.
func Sort(formats []model.Format) []model.Format {
	sorted := slices.Clone(formats)
	slices.SortStableFunc(sorted, func(a, b model.Format) int {
		return Rank(b.QualityLabel) - Rank(a.QualityLabel)
	})
	return sorted
}

// Muxed keeps the formats that carry both video and audio.
func Muxed(formats []model.Format) []model.Format {
	return lo.Filter(formats, func(f model.Format, _ int) bool {
		return f.Capabilities == model.VideoAudio
	})
}
