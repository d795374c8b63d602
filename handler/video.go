package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"golang.org/x/exp/slog"

	"github.com/Yasin4161/Internet-download-agent/gateway"
	"github.com/Yasin4161/Internet-download-agent/metrics"
)

const maxBodyBytes = 64 * 1024

type VideoAPI struct {
	gateway Gateway
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewVideoAPI(gw Gateway, m *metrics.Metrics, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		gateway: gw,
		metrics: m,
		logger:  logger,
	}
}

func (v *VideoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op, _ := ShiftPath(r.URL.Path)

	switch {
	case op == "info" && (r.Method == http.MethodGet || r.Method == http.MethodPost):
		v.Info(w, r)
	case op == "formats" && r.Method == http.MethodGet:
		v.Formats(w, r)
	case op == "download" && r.Method == http.MethodGet:
		v.Download(w, r)
	case op == "info" || op == "formats" || op == "download":
		Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "method "+r.Method+" is not supported here")
	default:
		notFound(w)
	}
}

func (v *VideoAPI) Info(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceFrom(r)
	if err != nil {
		v.metrics.Request("describe", "invalid_body")
		Error(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	summary, err := v.gateway.Describe(r.Context(), ref)
	if err != nil {
		v.returnErr(w, r, "describe", err)
		return
	}

	v.metrics.Request("describe", "ok")
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{
		Success: true,
		Data:    summary,
	})
}

func (v *VideoAPI) Formats(w http.ResponseWriter, r *http.Request) {
	formats, err := v.gateway.ListFormats(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		v.returnErr(w, r, "formats", err)
		return
	}

	v.metrics.Request("formats", "ok")
	JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Formats any  `json:"formats"`
	}{
		Success: true,
		Formats: formats,
	})
}

// Download streams the selected format. Failures after the first body byte
// cannot be reported in the response any more; the connection is dropped so
// the client sees a truncated transfer instead of a complete looking file.
func (v *VideoAPI) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := v.gateway.Download(r.Context(), q.Get("url"), q.Get("quality"), w)
	if err == nil {
		v.metrics.Request("download", "ok")
		return
	}

	var serr *gateway.StreamError
	if errors.As(err, &serr) && serr.BodyStarted {
		v.metrics.Request("download", "aborted")
		panic(http.ErrAbortHandler)
	}
	v.returnErr(w, r, "download", err)
}

func (v *VideoAPI) returnErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := gateway.KindOf(err)
	v.metrics.Request(op, kind.Code())

	attrs := []any{
		slog.String("request", gateway.RequestID(r.Context())),
		slog.String("op", op),
		slog.String("code", kind.Code()),
		slog.String("err", err.Error()),
	}
	if kind.Status() >= http.StatusInternalServerError {
		v.logger.Error("request failed", attrs...)
	} else {
		v.logger.Info("request rejected", attrs...)
	}

	Error(w, kind.Status(), kind.Code(), kind.Message())
}

// referenceFrom reads the url parameter from the query string, or for POST
// from a JSON or form encoded body.
func referenceFrom(r *http.Request) (string, error) {
	if ref := r.URL.Query().Get("url"); ref != "" || r.Method != http.MethodPost {
		return ref, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", errors.New("request body is not valid json")
		}
		return body.URL, nil
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return "", errors.New("request body is not a valid form")
		}
		return r.PostFormValue("url"), nil
	}

	return "", nil
}
