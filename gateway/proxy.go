package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/Yasin4161/Internet-download-agent/model"
	"github.com/Yasin4161/Internet-download-agent/sanitize"
)

const (
	defaultChunkSize   = 32 * 1024
	defaultFilename    = "video"
	defaultContentType = "application/octet-stream"
)

// ErrClientGone marks a download that stopped because the client went away.
var ErrClientGone = errors.New("client disconnected")

// ResponseSink receives the download. http.ResponseWriter satisfies it.
type ResponseSink interface {
	Header() http.Header
	WriteHeader(status int)
	Write(p []byte) (int, error)
}

// Download is one selected format on its way to a client. Bytes counts what
// has been written to the sink so far.
type Download struct {
	Reference string
	Resource  *model.Resource
	Format    model.Format
	Bytes     int64
}

// Proxy relays the upstream stream of a selected format to a sink.
type Proxy struct {
	provider  Provider
	chunkSize int
}

func NewProxy(provider Provider) *Proxy {
	return &Proxy{provider: provider, chunkSize: defaultChunkSize}
}

// Stream sets the download headers, then opens the upstream and copies it
// to the sink chunk by chunk. Every error is a *StreamError. As long as
// BodyStarted is false the download headers have been removed again and the
// caller is free to write an error response.
func (p *Proxy) Stream(ctx context.Context, d *Download, sink ResponseSink) error {
	h := sink.Header()
	h.Set("Content-Disposition", contentDisposition(d.Resource.Title, d.Format.Container))
	h.Set("Content-Type", contentType(d.Format.MimeType))
	h.Del("Content-Length")

	upstream, err := p.provider.OpenStream(ctx, d.Resource, d.Format.ID)
	if err != nil {
		return p.fail(sink, d, false, fmt.Errorf("opening upstream: %w", err))
	}
	defer upstream.Close()

	flusher, _ := sink.(http.Flusher)
	buf := make([]byte, p.chunkSize)
	bodyStarted := false
	for {
		if err := ctx.Err(); err != nil {
			return p.fail(sink, d, bodyStarted, fmt.Errorf("%w: %w", ErrClientGone, err))
		}

		n, rerr := upstream.Read(buf)
		if n > 0 {
			if !bodyStarted {
				sink.WriteHeader(http.StatusOK)
				bodyStarted = true
			}
			written, werr := sink.Write(buf[:n])
			d.Bytes += int64(written)
			if werr != nil {
				return p.fail(sink, d, true, fmt.Errorf("%w: %w", ErrClientGone, werr))
			}
			if flusher != nil {
				flusher.Flush()
			}
		}

		switch {
		case errors.Is(rerr, io.EOF):
			if !bodyStarted {
				sink.WriteHeader(http.StatusOK)
			}
			return nil
		case rerr != nil:
			return p.fail(sink, d, bodyStarted, fmt.Errorf("reading upstream: %w", rerr))
		}
	}
}

func (p *Proxy) fail(sink ResponseSink, d *Download, bodyStarted bool, err error) error {
	if !bodyStarted {
		h := sink.Header()
		h.Del("Content-Disposition")
		h.Del("Content-Type")
	}
	return &StreamError{BodyStarted: bodyStarted, Bytes: d.Bytes, Err: err}
}

// contentDisposition builds an attachment header. Names outside ASCII get
// an ASCII filename plus an RFC 5987 filename* parameter.
func contentDisposition(title, container string) string {
	name := sanitize.Filename(title)
	if name == "" {
		name = defaultFilename
	}
	ext := extension(container)

	if sanitize.IsASCII(name) {
		return mime.FormatMediaType("attachment", map[string]string{"filename": name + ext})
	}

	fallback := strings.Map(func(r rune) rune {
		if r >= 0x80 {
			return -1
		}
		return r
	}, name)
	if strings.Trim(fallback, "_-") == "" {
		fallback = defaultFilename
	}
	ascii := mime.FormatMediaType("attachment", map[string]string{"filename": fallback + ext})
	extended := mime.FormatMediaType("attachment", map[string]string{"filename": name + ext})
	return ascii + strings.TrimPrefix(extended, "attachment")
}

// extension keeps only lower case letters and digits of a container name.
func extension(container string) string {
	c := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return -1
	}, container)
	if c == "" {
		return ""
	}
	return "." + c
}

func contentType(mimeType string) string {
	if strings.TrimSpace(mimeType) == "" {
		return defaultContentType
	}
	return mimeType
}
