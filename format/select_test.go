package format

import (
	"errors"
	"testing"

	"github.com/Yasin4161/Internet-download-agent/model"
)

func catalog(raw ...model.RawFormat) []model.Format {
	return Normalize(raw, ByID)
}

func TestRank(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"2160p", 4}, {"1440p", 3}, {"1080p", 2}, {"720p", 1},
		{"480p", 0}, {"360p", -1}, {"240p", -2}, {"144p", -3},
		{"720p60", -4}, {UnknownQuality, -4}, {"", -4},
	}

	for _, tt := range tests {
		if got := Rank(tt.label); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestSelectScenario(t *testing.T) {
	formats := Normalize([]model.RawFormat{
		muxed("5", "720p", "mp4"),
		muxed("6", "720p", "webm"),
		muxed("2", "360p", "mp4"),
	}, ByQuality)

	got, err := Select(formats, model.Criterion{Symbol: model.Highest})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got.ID != "5" {
		t.Errorf("selected %q, want 5", got.ID)
	}
}

func TestSelectSymbolic(t *testing.T) {
	formats := catalog(
		muxed("a", "480p", "mp4"),
		model.RawFormat{ID: "v", QualityLabel: "2160p", HasVideo: true},
		muxed("b", "1080p", "webm"),
		muxed("c", "1080p", "mp4"),
		muxed("d", "weird", "mp4"),
		muxed("e", "144p", "3gp"),
		muxed("f", "odd", "mp4"),
	)

	tests := []struct {
		name      string
		criterion model.Criterion
		want      string
	}{
		{"highest skips video only and keeps first of tie", model.Criterion{Symbol: model.Highest}, "b"},
		{"lowest prefers unranked first seen", model.Criterion{Symbol: model.Lowest}, "d"},
		{"explicit id", model.Criterion{ID: "v"}, "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(formats, tt.criterion)
			if err != nil {
				t.Fatalf("Select() error: %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("selected %q, want %q", got.ID, tt.want)
			}
		})
	}
}

func TestSelectHighestIsMaximal(t *testing.T) {
	formats := catalog(
		muxed("1", "360p", "mp4"),
		muxed("2", "1440p", "webm"),
		muxed("3", "720p", "mp4"),
		muxed("4", "1440p", "mp4"),
	)

	first, err := Select(formats, model.Criterion{Symbol: model.Highest})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := Select(formats, model.Criterion{Symbol: model.Highest})
		if again.ID != first.ID {
			t.Fatalf("run %d selected %q, first run selected %q", i, again.ID, first.ID)
		}
	}
	for _, f := range Muxed(formats) {
		if Rank(f.QualityLabel) > Rank(first.QualityLabel) {
			t.Errorf("%s (%s) outranks selected %s (%s)", f.ID, f.QualityLabel, first.ID, first.QualityLabel)
		}
	}
}

func TestSelectFailures(t *testing.T) {
	tests := []struct {
		name      string
		formats   []model.Format
		criterion model.Criterion
	}{
		{"unknown id", catalog(muxed("18", "360p", "mp4")), model.Criterion{ID: "22"}},
		{"empty catalog", nil, model.Criterion{Symbol: model.Highest}},
		{"only video only", catalog(model.RawFormat{ID: "137", QualityLabel: "1080p", HasVideo: true}), model.Criterion{Symbol: model.Lowest}},
		{"unknown symbol", catalog(muxed("18", "360p", "mp4")), model.Criterion{Symbol: "best"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(tt.formats, tt.criterion)
			if !errors.Is(err, ErrNoMatchingFormat) {
				t.Errorf("Select() error = %v, want ErrNoMatchingFormat", err)
			}
		})
	}
}

func TestSort(t *testing.T) {
	formats := catalog(
		muxed("1", "360p", "mp4"),
		muxed("2", "odd", "mp4"),
		muxed("3", "1080p", "mp4"),
		muxed("4", "360p", "webm"),
		muxed("5", "480p", "mp4"),
	)

	got := Sort(formats)
	want := []string{"3", "5", "1", "4", "2"}
	for i, f := range got {
		if f.ID != want[i] {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if formats[0].ID != "1" {
		t.Error("Sort modified its input")
	}
}

func ids(formats []model.Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = f.ID
	}
	return out
}
