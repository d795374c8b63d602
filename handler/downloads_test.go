package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Yasin4161/Internet-download-agent/model"
)

type fakeDownloadRepo struct {
	downloads []*model.Download
	err       error

	gotLimit    int
	gotStatuses []model.DownloadStatus
}

func (r *fakeDownloadRepo) Save(d *model.Download) error {
	r.downloads = append(r.downloads, d)
	return nil
}

func (r *fakeDownloadRepo) FindByStatus(limit int, statuses ...model.DownloadStatus) ([]*model.Download, error) {
	r.gotLimit = limit
	r.gotStatuses = statuses
	return r.downloads, r.err
}

func TestDownloadAPI(t *testing.T) {
	repo := &fakeDownloadRepo{downloads: []*model.Download{{
		ID:        uuid.New(),
		Status:    model.DownloadCompleted,
		Reference: testRef,
		FormatID:  "5",
		StartedAt: time.Now(),
	}}}
	s := NewServer(panickyGateway{}, repo, nil, nil, discard)

	tests := []struct {
		name         string
		target       string
		repoErr      error
		wantStatus   int
		wantLimit    int
		wantStatuses int
	}{
		{"defaults", "/api/downloads", nil, http.StatusOK, defaultListLimit, 0},
		{"filtered", "/api/downloads?status=failed&status=aborted&limit=5", nil, http.StatusOK, 5, 2},
		{"bad status", "/api/downloads?status=lost", nil, http.StatusBadRequest, 0, 0},
		{"bad limit", "/api/downloads?limit=0", nil, http.StatusBadRequest, 0, 0},
		{"limit too large", "/api/downloads?limit=100000", nil, http.StatusBadRequest, 0, 0},
		{"repository down", "/api/downloads", errors.New("connection refused"), http.StatusInternalServerError, defaultListLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.err = tt.repoErr
			repo.gotLimit, repo.gotStatuses = 0, nil

			rec := serve(s, http.MethodGet, tt.target, nil, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if repo.gotLimit != tt.wantLimit || len(repo.gotStatuses) != tt.wantStatuses {
				t.Errorf("repository got limit %d statuses %v", repo.gotLimit, repo.gotStatuses)
			}
			if tt.wantStatus == http.StatusOK {
				downloads, _ := decode(rec)["downloads"].([]any)
				if len(downloads) != 1 {
					t.Errorf("got %d downloads, want 1", len(downloads))
				}
			}
		})
	}

	rec := serve(s, http.MethodPost, "/api/downloads", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}
