package model

import (
	"time"

	"github.com/samber/mo"
)

type Capability string

const (
	VideoAudio Capability = "video+audio"
	VideoOnly  Capability = "video-only"
	AudioOnly  Capability = "audio-only"
)

// RawFormat is a format record as the provider reports it. Any field can be
// missing.
type RawFormat struct {
	ID           string
	QualityLabel string
	Height       mo.Option[int]
	Container    string
	MimeType     string
	ByteLength   mo.Option[int64]
	AudioBitrate mo.Option[int]
	FPS          mo.Option[int]
	HasVideo     bool
	HasAudio     bool
}

// Format is the canonical view of a RawFormat.
type Format struct {
	ID                string           `json:"id"`
	QualityLabel      string           `json:"qualityLabel"`
	Container         string           `json:"container"`
	MimeType          string           `json:"mimeType"`
	ApproximateSizeMB mo.Option[int64] `json:"approximateSizeMB"`
	Capabilities      Capability       `json:"capabilities"`
	FPS               mo.Option[int]   `json:"fps"`
}

type Thumbnail struct {
	URL    string
	Width  uint
	Height uint
}

// Resource is what a provider knows about a single media reference. Handle
// belongs to the provider that produced it and only lives as long as the
// request.
type Resource struct {
	ID          string
	Title       string
	Author      string
	Description string
	Duration    time.Duration
	Views       int64
	Thumbnails  []Thumbnail
	Formats     []RawFormat

	Handle any
}

type Summary struct {
	Title       string   `json:"title"`
	Duration    int64    `json:"duration"`
	Thumbnail   string   `json:"thumbnail"`
	Author      string   `json:"author"`
	ViewCount   int64    `json:"viewCount"`
	Description string   `json:"description,omitempty"`
	Formats     []Format `json:"formats"`
}
