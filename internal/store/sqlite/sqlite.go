package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"droneflow/internal/model"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) UpsertRows(ctx context.Context, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_rows (
			flow, yyyymm, area_code, hs10, area_name, country,
			units, kilograms, value_kyen, us_group, nato_class, mtow,
			is_reexport, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(flow, yyyymm, area_code, hs10)
		DO UPDATE SET
			area_name = excluded.area_name,
			country = excluded.country,
			units = excluded.units,
			kilograms = excluded.kilograms,
			value_kyen = excluded.value_kyen,
			us_group = excluded.us_group,
			nato_class = excluded.nato_class,
			mtow = excluded.mtow,
			is_reexport = excluded.is_reexport,
			ingested_at = excluded.ingested_at
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range rows {
		row := rows[i]
		_, err = stmt.ExecContext(
			ctx,
			string(row.Flow),
			row.YYYYMM,
			row.AreaCode,
			row.HS10,
			row.AreaName,
			row.Country,
			row.Units,
			row.Kilograms,
			row.ValueKYen,
			row.USGroup,
			row.NATOClass,
			row.MTOW,
			row.IsReexport,
			now,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS trade_rows (
			flow TEXT NOT NULL,
			yyyymm TEXT NOT NULL,
			area_code TEXT NOT NULL,
			hs10 TEXT NOT NULL,
			area_name TEXT NOT NULL,
			country TEXT NOT NULL,
			units REAL NOT NULL,
			kilograms REAL NOT NULL,
			value_kyen REAL NOT NULL,
			us_group TEXT NOT NULL,
			nato_class TEXT NOT NULL,
			mtow TEXT NOT NULL,
			is_reexport INTEGER NOT NULL,
			ingested_at TEXT NOT NULL,
			PRIMARY KEY (flow, yyyymm, area_code, hs10)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
