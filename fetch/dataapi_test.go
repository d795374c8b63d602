package fetch

import (
	"context"
	"testing"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/Yasin4161/Internet-download-agent/model"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"PT4M13S", 4*time.Minute + 13*time.Second, false},
		{"PT1H", time.Hour, false},
		{"P1DT2H3M", 26*time.Hour + 3*time.Minute, false},
		{"PT0S", 0, false},
		{"PT1.5S", 1500 * time.Millisecond, false},
		{"P1W", 7 * 24 * time.Hour, false},
		{"P", 0, true},
		{"PT", 0, true},
		{"4:13", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseISODuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseISODuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseISODuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBestThumbnail(t *testing.T) {
	tests := []struct {
		name    string
		details *youtube.ThumbnailDetails
		want    string
	}{
		{"nil", nil, ""},
		{"maxres wins", &youtube.ThumbnailDetails{Default: &youtube.Thumbnail{Url: "d"}, Maxres: &youtube.Thumbnail{Url: "m"}}, "m"},
		{"falls back", &youtube.ThumbnailDetails{Default: &youtube.Thumbnail{Url: "d"}, High: &youtube.Thumbnail{Url: "h"}}, "h"},
		{"empty urls", &youtube.ThumbnailDetails{High: &youtube.Thumbnail{}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bestThumbnail(tt.details); got != tt.want {
				t.Errorf("bestThumbnail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnrichSkipsCompleteResource(t *testing.T) {
	d := &DataAPI{}
	res := &model.Resource{
		ID: "dQw4w9WgXcQ", Title: "t", Author: "a", Description: "d",
		Duration: time.Minute, Views: 1, Thumbnails: []model.Thumbnail{{URL: "u"}},
	}
	if err := d.Enrich(context.Background(), res); err != nil {
		t.Errorf("Enrich() error: %v", err)
	}
}
