package services

import (
	"context"
	"time"
)

type LogWriter interface {
	CreateLog(ctx context.Context, eventID *string, action string, outcome string, message *string) error
}

type StaleArchiver interface {
	ArchivePublishedBefore(ctx context.Context, cutoff time.Time) (int, error)
}
