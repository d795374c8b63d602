package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Yasin4161/Internet-download-agent/model"
)

// SQLDownloadRepository stores downloads in postgres or sqlite. Both
// understand the same upsert.
type SQLDownloadRepository struct {
	db      *sql.DB
	dialect dialect
}

func (r *SQLDownloadRepository) Save(d *model.Download) error {
	query := r.dialect.rebind(`
INSERT INTO download
(id, status, url, format_id, container, title, bytes, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id)
DO UPDATE SET
  status = EXCLUDED.status,
  bytes = EXCLUDED.bytes,
  error = EXCLUDED.error,
  finished_at = EXCLUDED.finished_at;`)
	if _, err := r.db.Exec(query,
		d.ID.String(),
		string(d.Status),
		d.Reference,
		d.FormatID,
		d.Container,
		d.Title,
		d.Bytes,
		d.Error,
		d.StartedAt.UTC(),
		finishedAt(d),
	); err != nil {
		return fmt.Errorf("saving download %s: %w", d.ID, err)
	}

	return nil
}

func (r *SQLDownloadRepository) FindByStatus(limit int, statuses ...model.DownloadStatus) ([]*model.Download, error) {
	query := `SELECT id, status, url, format_id, container, title, bytes, error, started_at, finished_at
FROM download`
	args := []any{}
	if len(statuses) > 0 {
		query += "\nWHERE status IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ") + ")"
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += "\nORDER BY started_at DESC\nLIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying downloads: %w", err)
	}
	defer rows.Close()

	downloads := []*model.Download{}
	for rows.Next() {
		d := &model.Download{}
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&d.ID, &status, &d.Reference, &d.FormatID, &d.Container, &d.Title, &d.Bytes, &d.Error, &d.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning download: %w", err)
		}
		d.Status = model.DownloadStatus(status)
		if finished.Valid {
			t := finished.Time
			d.FinishedAt = &t
		}
		downloads = append(downloads, d)
	}

	return downloads, rows.Err()
}

func finishedAt(d *model.Download) any {
	if d.FinishedAt == nil {
		return nil
	}
	return d.FinishedAt.UTC()
}
