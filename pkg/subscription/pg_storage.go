package subscription

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPGOwner = "default"

// PGStorage persists the status record as a single JSONB row keyed by owner.
// The owner key allows a server-side deployment to hold one record per
// account while the mobile core keeps the singleton semantics.
type PGStorage struct {
	pool  *pgxpool.Pool
	owner string
}

// NewPGStorage returns a Storage backed by the given pgx pool.
// An empty owner selects the default single-record key.
func NewPGStorage(pool *pgxpool.Pool, owner string) *PGStorage {
	if owner == "" {
		owner = defaultPGOwner
	}
	return &PGStorage{pool: pool, owner: owner}
}

func (s *PGStorage) Load(ctx context.Context) (Status, error) {
	if s.pool == nil {
		return Status{}, ErrNotInitialized
	}

	var status Status
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM subscription_status WHERE owner = $1`,
		s.owner,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Status{}, ErrStatusNotFound
		}
		return Status{}, errors.Join(ErrStorageUnavailable, err)
	}
	return status, nil
}

func (s *PGStorage) Save(ctx context.Context, status Status) error {
	if s.pool == nil {
		return ErrNotInitialized
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscription_status (owner, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (owner) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		s.owner, status,
	)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PGStorage) Delete(ctx context.Context) error {
	if s.pool == nil {
		return ErrNotInitialized
	}

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM subscription_status WHERE owner = $1`,
		s.owner,
	); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}
