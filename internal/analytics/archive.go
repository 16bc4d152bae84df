package analytics

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ops-web/ops-web-backend/pkg/storage"
)

// Archiver exports one UTC day of step records to the archive
type Archiver struct {
	repo    Repository
	archive storage.Archive
	format  ExportFormat
	logger  *zap.Logger
	now     func() time.Time
}

func NewArchiver(repo Repository, archive storage.Archive, format ExportFormat, logger *zap.Logger) *Archiver {
	if format == "" {
		format = FormatXLSX
	}
	return &Archiver{
		repo:    repo,
		archive: archive,
		format:  format,
		logger:  logger,
		now:     time.Now,
	}
}

// ArchiveKey names the object holding the records of day
func ArchiveKey(day time.Time, format ExportFormat) string {
	return fmt.Sprintf("tutorial-steps/%s.%s", day.UTC().Format("2006-01-02"), format)
}

// RunDay exports the records of the UTC day containing day
func (a *Archiver) RunDay(ctx context.Context, day time.Time) (string, int, error) {
	start := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	all, err := a.repo.ListSteps(ctx, start)
	if err != nil {
		return "", 0, err
	}
	records := all[:0]
	for _, rec := range all {
		if rec.RecordedAt.Before(end) {
			records = append(records, rec)
		}
	}

	var buf bytes.Buffer
	if err := Export(&buf, a.format, records); err != nil {
		return "", 0, fmt.Errorf("failed to export records: %w", err)
	}

	key := ArchiveKey(start, a.format)
	location, err := a.archive.Upload(ctx, key, &buf, a.format.ContentType(), map[string]string{
		"records": fmt.Sprint(len(records)),
	})
	if err != nil {
		return "", 0, err
	}

	a.logger.Info("Archived tutorial step records",
		zap.String("key", key),
		zap.String("location", location),
		zap.Int("records", len(records)))
	return key, len(records), nil
}

// Job archives the previous UTC day; it is meant to be scheduled once a day
func (a *Archiver) Job(ctx context.Context) error {
	_, _, err := a.RunDay(ctx, a.now().UTC().Add(-24*time.Hour))
	return err
}
