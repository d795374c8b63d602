package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/samber/mo"

	"github.com/Yasin4161/Internet-download-agent/model"
)

type fakeProvider struct {
	res       *model.Resource
	err       error
	rejectAll bool
	block     bool

	openErr error
	body    []byte
	readErr error

	mu            sync.Mutex
	metadataCalls int
	openCalls     int
	openedID      string
	upstream      *fakeUpstream
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) ValidReference(string) bool { return !p.rejectAll }

func (p *fakeProvider) Metadata(ctx context.Context, _ string) (*model.Resource, error) {
	p.mu.Lock()
	p.metadataCalls++
	p.mu.Unlock()
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.res, p.err
}

func (p *fakeProvider) OpenStream(_ context.Context, _ *model.Resource, formatID string) (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openCalls++
	p.openedID = formatID
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.upstream = &fakeUpstream{data: p.body, err: p.readErr}
	return p.upstream, nil
}

// fakeUpstream hands out data in small pieces and then fails with err, or
// ends with io.EOF when err is nil.
type fakeUpstream struct {
	data   []byte
	err    error
	closed bool
}

func (u *fakeUpstream) Read(b []byte) (int, error) {
	if len(u.data) == 0 {
		if u.err != nil {
			return 0, u.err
		}
		return 0, io.EOF
	}
	n := copy(b[:min(len(b), 4)], u.data)
	u.data = u.data[n:]
	return n, nil
}

func (u *fakeUpstream) Close() error {
	u.closed = true
	return nil
}

type fakeJournal struct {
	saved []model.Download
}

func (j *fakeJournal) Save(d *model.Download) error {
	j.saved = append(j.saved, *d)
	return nil
}

type fakeEnricher struct {
	calls int
	err   error
}

func (e *fakeEnricher) Enrich(_ context.Context, res *model.Resource) error {
	e.calls++
	if res.Author == "" {
		res.Author = "enriched author"
	}
	return e.err
}

// brokenSink fails every write, like a client that hung up.
type brokenSink struct {
	header http.Header
	status int
}

func (s *brokenSink) Header() http.Header {
	if s.header == nil {
		s.header = http.Header{}
	}
	return s.header
}

func (s *brokenSink) WriteHeader(status int) { s.status = status }

func (s *brokenSink) Write([]byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

func muxedRaw(id, quality, container string) model.RawFormat {
	return model.RawFormat{ID: id, QualityLabel: quality, Container: container, MimeType: "video/" + container, HasVideo: true, HasAudio: true}
}

func scenarioResource() *model.Resource {
	return &model.Resource{
		ID:     "abc123",
		Title:  "Never Gonna Give You Up",
		Author: "Rick Astley",
		Formats: []model.RawFormat{
			muxedRaw("5", "720p", "mp4"),
			muxedRaw("6", "720p", "webm"),
			muxedRaw("2", "360p", "mp4"),
			{ID: "137", QualityLabel: "1080p", Container: "mp4", HasVideo: true, ByteLength: mo.Some[int64](80 << 20)},
			{ID: "140", Container: "m4a", HasAudio: true},
		},
	}
}
