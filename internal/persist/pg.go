package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PGStore keeps snapshots in Postgres, one row per slot. It exists for
// deployments where saves outlive a machine: dedicated-server checkpoints and
// the replay archive the verify command reads from.
type PGStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// PGConfig carries the connection knobs.
type PGConfig struct {
	DSN             string
	MaxOpenConns    int
	MinIdleConns    int
	ConnMaxLifetime time.Duration
}

func NewPGStore(ctx context.Context, cfg PGConfig, log *zap.Logger) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MinIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &PGStore{pool: pool, log: log}, nil
}

func (s *PGStore) Close() { s.pool.Close() }

// Pool exposes the underlying pool, for migrations.
func (s *PGStore) Pool() *pgxpool.Pool { return s.pool }

func (s *PGStore) Save(ctx context.Context, slot string, snap Snapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshots (slot, session, frame, checksum, data, saved_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (slot) DO UPDATE
		 SET session = EXCLUDED.session, frame = EXCLUDED.frame,
		     checksum = EXCLUDED.checksum, data = EXCLUDED.data,
		     saved_at = EXCLUDED.saved_at`,
		slot, snap.Session, int64(snap.Frame), int64(snap.Checksum), snap.Data,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", slot, err)
	}
	return nil
}

func (s *PGStore) Load(ctx context.Context, slot string) (Snapshot, error) {
	var (
		snap     Snapshot
		frame    int64
		checksum int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT session, frame, checksum, data FROM snapshots WHERE slot = $1`,
		slot,
	).Scan(&snap.Session, &frame, &checksum, &snap.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrNoSnapshot, slot)
		}
		return Snapshot{}, fmt.Errorf("load snapshot %q: %w", slot, err)
	}
	snap.Frame = uint64(frame)
	snap.Checksum = uint64(checksum)
	if Checksum(snap.Data) != snap.Checksum {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", slot, ErrChecksumMismatch)
	}
	return snap, nil
}
