package assignment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
	"github.com/vasiliy-maslov/marketplace-ops/internal/order"
	"github.com/vasiliy-maslov/marketplace-ops/internal/worker"
)

// Store hands out the repositories assignment works against, either bound to
// the pool or to a single transaction.
type Store interface {
	Orders() order.Repository
	Workers() worker.Repository
	WithinTx(ctx context.Context, fn func(orders order.Repository, workers worker.Repository) error) error
}

type postgresStore struct {
	conn db.DBTX
}

func NewStore(conn db.DBTX) Store {
	return &postgresStore{conn: conn}
}

func (s *postgresStore) Orders() order.Repository {
	return order.NewRepository(s.conn)
}

func (s *postgresStore) Workers() worker.Repository {
	return worker.NewRepository(s.conn)
}

// WithinTx runs fn in one transaction, committing only when fn returns nil.
func (s *postgresStore) WithinTx(ctx context.Context, fn func(orders order.Repository, workers worker.Repository) error) (err error) {
	tx, beginErr := s.conn.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Msg("Panic recovered during assignment, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Msg("Assignment transaction failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	return fn(order.NewRepository(tx), worker.NewRepository(tx))
}
