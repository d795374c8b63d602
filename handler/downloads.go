package handler

import (
	"net/http"
	"strconv"

	"golang.org/x/exp/slog"

	"github.com/Yasin4161/Internet-download-agent/model"
	"github.com/Yasin4161/Internet-download-agent/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type DownloadAPI struct {
	downloadRepo storage.DownloadRepository
	logger       *slog.Logger
}

func NewDownloadAPI(downloadRepo storage.DownloadRepository, logger *slog.Logger) *DownloadAPI {
	return &DownloadAPI{
		downloadRepo: downloadRepo,
		logger:       logger,
	}
}

func (d *DownloadAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subPath, _ := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && subPath == "":
		d.List(w, r)
	case subPath == "":
		Error(w, http.StatusMethodNotAllowed, "method_not_allowed", "method "+r.Method+" is not supported here")
	default:
		notFound(w)
	}
}

func (d *DownloadAPI) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultListLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			Error(w, http.StatusBadRequest, "invalid_parameter", "limit must be a number between 1 and "+strconv.Itoa(maxListLimit))
			return
		}
		limit = n
	}

	var statuses []model.DownloadStatus
	for _, raw := range q["status"] {
		status := model.DownloadStatus(raw)
		if !status.Valid() {
			Error(w, http.StatusBadRequest, "invalid_parameter", "unknown status "+strconv.Quote(raw))
			return
		}
		statuses = append(statuses, status)
	}

	downloads, err := d.downloadRepo.FindByStatus(limit, statuses...)
	if err != nil {
		d.logger.Error("could not list downloads", slog.String("err", err.Error()))
		Error(w, http.StatusInternalServerError, "internal_error", "could not list downloads")
		return
	}

	JSON(w, http.StatusOK, struct {
		Success   bool              `json:"success"`
		Downloads []*model.Download `json:"downloads"`
	}{
		Success:   true,
		Downloads: downloads,
	})
}
