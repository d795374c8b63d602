package model

import (
	"time"

	"github.com/google/uuid"
)

type DownloadStatus string

const (
	DownloadStarted   DownloadStatus = "started"
	DownloadCompleted DownloadStatus = "completed"
	DownloadFailed    DownloadStatus = "failed"
	DownloadAborted   DownloadStatus = "aborted"
)

func (s DownloadStatus) Valid() bool {
	switch s {
	case DownloadStarted, DownloadCompleted, DownloadFailed, DownloadAborted:
		return true
	}
	return false
}

// Download is a journal entry for one download attempt.
type Download struct {
	ID         uuid.UUID      `json:"id"`
	Status     DownloadStatus `json:"status"`
	Reference  string         `json:"url"`
	FormatID   string         `json:"formatId"`
	Container  string         `json:"container"`
	Title      string         `json:"title"`
	Bytes      int64          `json:"bytes"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}
