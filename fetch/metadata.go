package fetch

import "time"

// Metadata is what the YouTube Data API knows about a video.
type Metadata struct {
	Title       string
	Description string
	Author      string
	Duration    time.Duration
	Thumbnail   string
	Views       int64
}
