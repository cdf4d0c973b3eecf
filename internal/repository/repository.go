package repository

import (
	"context"
	"time"

	"factsheet/internal/domain"
)

// SnapshotInfo summarizes a stored snapshot
type SnapshotInfo struct {
	Sheet      string    `json:"sheet"`
	Digest     string    `json:"digest"`
	ExportedAt time.Time `json:"exported_at"`
	Components int       `json:"components"`
	Tenants    int       `json:"tenants"`
}

// Repository stores snapshots of resolved factsheets, one per sheet
type Repository interface {
	// SaveSnapshot replaces the stored snapshot of sheet
	SaveSnapshot(ctx context.Context, sheet string, s *domain.Snapshot) error
	// GetSnapshot returns nil when sheet has no snapshot
	GetSnapshot(ctx context.Context, sheet string) (*domain.Snapshot, error)
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)
	DeleteSnapshot(ctx context.Context, sheet string) error

	// Close releases resources
	Close() error
}
