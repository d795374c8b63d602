package handler

import (
	"context"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/Yasin4161/Internet-download-agent/gateway"
	"github.com/Yasin4161/Internet-download-agent/metrics"
	"github.com/Yasin4161/Internet-download-agent/model"
	"github.com/Yasin4161/Internet-download-agent/storage"
)

// Gateway is the core the HTTP surface is an adapter for.
type Gateway interface {
	Describe(ctx context.Context, ref string) (model.Summary, error)
	ListFormats(ctx context.Context, ref string) ([]model.Format, error)
	Download(ctx context.Context, ref, quality string, sink gateway.ResponseSink) error
}

type Server struct {
	apis    map[string]http.Handler
	metrics http.Handler
	origins []string
	logger  *slog.Logger
}

// NewServer builds the HTTP surface. downloadRepo may be nil, in which case
// the downloads api is not mounted.
func NewServer(gw Gateway, downloadRepo storage.DownloadRepository, m *metrics.Metrics, origins []string, logger *slog.Logger) *Server {
	apis := map[string]http.Handler{
		"video": NewVideoAPI(gw, m, logger),
	}
	if downloadRepo != nil {
		apis["downloads"] = NewDownloadAPI(downloadRepo, logger)
	}

	return &Server{
		apis:    apis,
		metrics: m.Handler(),
		origins: origins,
		logger:  logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	r = r.WithContext(gateway.WithRequestID(r.Context(), requestID))
	originalPath := r.URL.Path
	logger := s.logger.With(slog.String("request", requestID))

	sw := &statusWriter{ResponseWriter: w}
	sw.Header().Set("X-Request-ID", requestID)
	setSecurityHeaders(sw.Header())
	defer s.recoverPanic(sw, logger, originalPath)

	if !s.cors(sw, r) {
		return
	}

	// route
	head, tail := ShiftPath(r.URL.Path)
	switch head {
	case "":
		Index(sw)
	case "healthz":
		Message(sw, http.StatusOK, "ok")
	case "metrics":
		s.metrics.ServeHTTP(sw, r)
	case "api":
		head, tail = ShiftPath(tail)
		api, ok := s.apis[head]
		if !ok {
			notFound(sw)
			break
		}
		r.URL.Path = tail
		api.ServeHTTP(sw, r)
	default:
		notFound(sw)
	}

	logger.Info("request served",
		slog.String("method", r.Method),
		slog.String("path", originalPath),
		slog.Int("status", sw.Status()),
		slog.Duration("duration", time.Since(start)),
	)
}

// recoverPanic turns a handler panic into a 500, unless the handler asked
// for the connection to be dropped or the response is already committed.
func (s *Server) recoverPanic(sw *statusWriter, logger *slog.Logger, path string) {
	rec := recover()
	if rec == nil {
		return
	}
	if rec == http.ErrAbortHandler {
		logger.Warn("connection aborted", slog.String("path", path), slog.Int64("written", sw.written))
		panic(rec)
	}

	logger.Error("handler panicked", slog.String("path", path), slog.Any("panic", rec))
	if sw.wroteHeader {
		panic(http.ErrAbortHandler)
	}
	Error(sw, http.StatusInternalServerError, "internal_error", "something went wrong")
}

// cors answers preflight requests itself and reports whether the request
// should be routed further.
func (s *Server) cors(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	listed := origin != "" && slices.Contains(s.origins, origin)
	allowed := listed || (origin != "" && slices.Contains(s.origins, "*"))
	if allowed {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		// credentials only for origins named explicitly
		if listed {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		h.Add("Vary", "Origin")
	}

	if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
		return true
	}
	if allowed {
		h := w.Header()
		h.Set("Access-Control-Allow-Methods", "GET, POST")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
	}
	w.WriteHeader(http.StatusNoContent)
	return false
}

func setSecurityHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("X-DNS-Prefetch-Control", "off")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'self'")
}

func notFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not_found", "please use a valid endpoint")
}

// statusWriter remembers the status and whether the response has started.
// It passes Flush on so downloads reach the client while they stream.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	written     int64
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Status() int {
	if !w.wroteHeader {
		return http.StatusOK
	}
	return w.status
}

// ShiftPath splits off the first component of p, which will be cleaned of
// relative components before processing. head will never contain a slash and
// tail will always be a rooted path without trailing slash.
// See https://blog.merovius.de/posts/2017-06-18-how-not-to-use-an-http-router/
func ShiftPath(p string) (string, string) {
	p = path.Clean("/" + p)

	i := strings.Index(p[1:], "/") + 1
	if i <= 0 {
		return p[1:], "/"
	}
	return p[1:i], p[i:]
}
