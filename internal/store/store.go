// Package store persists classified rows. Persistence is optional; the
// default run keeps everything in memory and writes only file snapshots.
package store

import (
	"context"

	"droneflow/internal/model"
)

type Store interface {
	UpsertRows(ctx context.Context, rows []model.Row) error
	Close() error
}

// NopStore is used when no database path is configured.
type NopStore struct{}

func (s *NopStore) UpsertRows(ctx context.Context, rows []model.Row) error {
	_ = ctx
	_ = rows
	return nil
}

func (s *NopStore) Close() error {
	return nil
}
