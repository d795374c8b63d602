package storage

import (
	"github.com/Yasin4161/Internet-download-agent/model"
)

type DownloadRepository interface {
	Save(download *model.Download) error
	// FindByStatus returns the most recent downloads first. Without
	// statuses every download matches.
	FindByStatus(limit int, statuses ...model.DownloadStatus) ([]*model.Download, error)
}
