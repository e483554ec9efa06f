package services

import (
	"context"
	"errors"
	"time"

	"woolreport/internal/logger"
	"woolreport/internal/metrics"
)

// ArchiveService is the scheduled sweep that retires old published reports.
type ArchiveService struct {
	archiver   StaleArchiver
	logService LogWriter
	log        *logger.Logger
	metrics    *metrics.Metrics
	afterDays  int
	now        func() time.Time
}

func NewArchiveService(archiver StaleArchiver, logService LogWriter, log *logger.Logger, m *metrics.Metrics, afterDays int) (*ArchiveService, error) {
	if archiver == nil {
		return nil, errors.New("archiver is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if m == nil {
		return nil, errors.New("metrics is nil")
	}
	if afterDays < 0 {
		return nil, errors.New("archive days must not be negative")
	}

	return &ArchiveService{
		archiver:   archiver,
		logService: logService,
		log:        log,
		metrics:    m,
		afterDays:  afterDays,
		now:        time.Now,
	}, nil
}

// Sweep archives published reports older than the configured number of days.
// A zero setting disables the sweep.
func (s *ArchiveService) Sweep(ctx context.Context) (int, error) {
	if s == nil {
		return 0, errors.New("archive service is nil")
	}
	if s.afterDays == 0 {
		return 0, nil
	}

	cutoff := s.now().UTC().AddDate(0, 0, -s.afterDays)
	archived, err := s.archiver.ArchivePublishedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("archive sweep failed", "cutoff", cutoff, "error", err)
		audit(ctx, s.logService, "", LogActionArchiveSweep, LogOutcomeFail, "cutoff=%s: %v", cutoff.Format(time.RFC3339), err)
		return 0, err
	}

	s.metrics.ReportsArchived.Add(float64(archived))
	if archived > 0 {
		s.log.Info("archive sweep", "cutoff", cutoff, "archived", archived)
		audit(ctx, s.logService, "", LogActionArchiveSweep, LogOutcomeSuccess, "cutoff=%s archived=%d", cutoff.Format(time.RFC3339), archived)
	}

	return archived, nil
}
