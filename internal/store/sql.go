package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kiliankoe/storychain/internal/game"
)

// SQL stores one row per game holding the JSON snapshot and a version
// counter. Updates read the row inside a transaction (locking it where the
// database supports that) and write back with a compare-and-swap on version.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	retry   RetryPolicy
}

// OpenSQL opens the database, applies connection settings and creates the
// games table.
func OpenSQL(ctx context.Context, dialect Dialect, cfg DialectConfig, retry RetryPolicy) (*SQL, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dialect.ConfigureConnection(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if _, err := db.ExecContext(ctx, dialect.SchemaQuery()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQL{db: db, dialect: dialect, retry: retry}, nil
}

func (s *SQL) q(query string) string { return s.dialect.RewriteQuery(query) }

func (s *SQL) backend() string { return s.dialect.Name() }

func (s *SQL) Create(ctx context.Context, g game.Game) error {
	if err := g.Validate(); err != nil {
		return wrap(s.backend(), "create", err)
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return wrap(s.backend(), "create", err)
	}
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO games (id, doc, version, updated_at) VALUES (?, ?, ?, ?)"),
		g.ID, string(raw), 1, g.UpdatedAt)
	if err != nil {
		if s.dialect.IsDuplicate(err) {
			return ErrExists
		}
		return wrap(s.backend(), "create", err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, id string) (game.Game, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, s.q("SELECT doc FROM games WHERE id = ?"), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Game{}, ErrNotFound
	}
	if err != nil {
		return game.Game{}, wrap(s.backend(), "get", err)
	}
	return decode(s.backend(), []byte(doc))
}

func (s *SQL) Atomic(ctx context.Context, id string, fn MutateFunc) (game.Game, error) {
	var out game.Game
	err := s.retry.retry(ctx, s.backend(), "atomic", func() error {
		g, err := s.atomicOnce(ctx, id, fn)
		if err != nil {
			if s.dialect.IsConflict(err) {
				return errConflict
			}
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return game.Game{}, err
	}
	return out, nil
}

func (s *SQL) atomicOnce(ctx context.Context, id string, fn MutateFunc) (game.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Game{}, s.txErr(err)
	}
	defer tx.Rollback()

	var (
		doc     string
		version int64
	)
	err = tx.QueryRowContext(ctx, s.q("SELECT doc, version FROM games WHERE id = ?"+s.dialect.LockSuffix()), id).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Game{}, ErrNotFound
	}
	if err != nil {
		return game.Game{}, s.txErr(err)
	}
	cur, err := decode(s.backend(), []byte(doc))
	if err != nil {
		return game.Game{}, err
	}

	next, changed, err := fn(cur)
	if err != nil {
		return game.Game{}, err
	}
	if !changed {
		return cur, nil
	}
	if err := commit(s.backend(), id, next); err != nil {
		return game.Game{}, err
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return game.Game{}, wrap(s.backend(), "atomic", err)
	}

	res, err := tx.ExecContext(ctx,
		s.q("UPDATE games SET doc = ?, version = ?, updated_at = ? WHERE id = ? AND version = ?"),
		string(raw), version+1, next.UpdatedAt, id, version)
	if err != nil {
		return game.Game{}, s.txErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return game.Game{}, s.txErr(err)
	}
	if n == 0 {
		return game.Game{}, errConflict
	}
	if err := tx.Commit(); err != nil {
		return game.Game{}, s.txErr(err)
	}
	return next, nil
}

// txErr leaves conflict errors bare so Atomic can recognise them and wraps
// everything else.
func (s *SQL) txErr(err error) error {
	if s.dialect.IsConflict(err) {
		return err
	}
	return wrap(s.backend(), "atomic", err)
}

func (s *SQL) Close() error { return s.db.Close() }
