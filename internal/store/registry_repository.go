/**
 * @description
 * This file implements the data access layer for the wallet_registry read
 * model. The registry is written by the wallet.created projection and read
 * (under lock) by the sequence allocator in account_repository.go.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - The service's internal domain package for the WalletRegistry model.
 */
package store

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lipaflow/account-service/internal/domain"
)

// PostgresWalletRegistryRepository is the PostgreSQL implementation of the
// WalletRegistryRepository.
type PostgresWalletRegistryRepository struct {
	db *pgxpool.Pool
}

// NewPostgresWalletRegistryRepository creates a new instance of PostgresWalletRegistryRepository.
func NewPostgresWalletRegistryRepository(db *pgxpool.Pool) *PostgresWalletRegistryRepository {
	return &PostgresWalletRegistryRepository{db: db}
}

// WalletExists reports whether a registry row exists for the given wallet id.
func (r *PostgresWalletRegistryRepository) WalletExists(ctx context.Context, walletID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM wallet_registry WHERE wallet_id = $1`
	var one int
	err := r.db.QueryRow(ctx, query, walletID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		log.Printf("ERROR: Failed to check wallet registry for %s: %v", walletID, err)
		return false, err
	}
	return true, nil
}

// InsertWallet inserts a new registry row. A concurrent duplicate insert is
// reported as ErrWalletAlreadyRegistered so the projector can ack the message.
func (r *PostgresWalletRegistryRepository) InsertWallet(ctx context.Context, registry *domain.WalletRegistry) error {
	query := `
        INSERT INTO wallet_registry (wallet_id, company_id, company_account_prefix, sequence_no)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `
	err := r.db.QueryRow(ctx, query,
		registry.WalletID,
		registry.CompanyID,
		registry.CompanyAccountPrefix,
		registry.SequenceNo,
	).Scan(&registry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrWalletAlreadyRegistered
		}
		log.Printf("ERROR: Failed to insert wallet registry row for %s: %v", registry.WalletID, err)
		return err
	}
	return nil
}
