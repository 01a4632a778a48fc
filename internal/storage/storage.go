// Package storage defines the run archive: a write-mostly history of produced reports.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/yomu/internal/models"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Archive persists completed runs.
type Archive interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	// ListRuns returns summaries, newest first.
	ListRuns(ctx context.Context, offset, limit int) ([]*models.RunSummary, error)
	CountRuns(ctx context.Context) (int64, error)

	Close() error
}
