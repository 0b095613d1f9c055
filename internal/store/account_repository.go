/**
 * @description
 * This file implements the data access layer for customer accounts, including
 * the locked sequence allocation that produces collision-free account numbers.
 *
 * Allocation algorithm: inside one transaction, SELECT ... FOR UPDATE the
 * wallet's registry row (blocking wait), increment its sequence counter,
 * format the account number from the company prefix and the new sequence, and
 * insert the account. The row lock is held until commit, so concurrent
 * allocations for the same wallet serialize; different wallets proceed in
 * parallel.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: Transactions and row scanning.
 * - github.com/jackc/pgx/v5/pgconn: Unique-violation detection.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lipaflow/account-service/internal/domain"
)

// PostgresAccountRepository is the PostgreSQL implementation of the AccountRepository.
type PostgresAccountRepository struct {
	db       *pgxpool.Pool
	padWidth int
}

// NewPostgresAccountRepository creates a new instance of PostgresAccountRepository.
// padWidth is the zero-pad width for the sequence part of account numbers.
func NewPostgresAccountRepository(db *pgxpool.Pool, padWidth int) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db, padWidth: padWidth}
}

// CreateAccount allocates the next sequence number for the wallet and inserts
// the account row in the same transaction. Returns ErrWalletNotRegistered when
// the wallet has no registry row.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, walletID uuid.UUID, fullname string) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accountNo, sequenceNo, err := allocateAccountNumber(ctx, tx, walletID, r.padWidth)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		WalletID:   walletID,
		Fullname:   fullname,
		AccountNo:  accountNo,
		SequenceNo: sequenceNo,
		IsActive:   true,
	}

	insert := `
        INSERT INTO accounts (id, wallet_id, fullname, account_no, sequence_no, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at
    `
	account.ID = uuid.New()
	err = tx.QueryRow(ctx, insert,
		account.ID,
		account.WalletID,
		account.Fullname,
		account.AccountNo,
		account.SequenceNo,
		account.IsActive,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			log.Printf("ERROR: Account number collision on %s (constraint %s)", accountNo, pgErr.ConstraintName)
			return nil, ErrDuplicateAccountNumber
		}
		log.Printf("ERROR: Failed to insert account for wallet %s: %v", walletID, err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return account, nil
}

// allocateAccountNumber reserves the next sequence number for the wallet under
// an exclusive row lock and formats it into an account number. The lock is
// held until the enclosing transaction commits or rolls back.
func allocateAccountNumber(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, padWidth int) (string, int, error) {
	var prefix string
	var sequenceNo int
	err := tx.QueryRow(ctx,
		`SELECT company_account_prefix, sequence_no FROM wallet_registry WHERE wallet_id = $1 FOR UPDATE`,
		walletID,
	).Scan(&prefix, &sequenceNo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, ErrWalletNotRegistered
		}
		return "", 0, err
	}

	next := sequenceNo + 1
	if _, err := tx.Exec(ctx,
		`UPDATE wallet_registry SET sequence_no = $1 WHERE wallet_id = $2`,
		next, walletID,
	); err != nil {
		return "", 0, err
	}

	return formatAccountNumber(prefix, next, padWidth), next, nil
}

// formatAccountNumber renders "<prefix>-<zero-padded sequence>".
func formatAccountNumber(prefix string, sequenceNo, padWidth int) string {
	return fmt.Sprintf("%s-%0*d", prefix, padWidth, sequenceNo)
}

// ListAccountsByWallet returns all accounts under a wallet ordered by
// ascending sequence number.
func (r *PostgresAccountRepository) ListAccountsByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Account, error) {
	query := `
        SELECT id, wallet_id, fullname, account_no, sequence_no, is_active, created_at, updated_at
        FROM accounts
        WHERE wallet_id = $1
        ORDER BY sequence_no ASC
    `
	rows, err := r.db.Query(ctx, query, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.ID,
			&a.WalletID,
			&a.Fullname,
			&a.AccountNo,
			&a.SequenceNo,
			&a.IsActive,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeactivateAccount soft-deletes an account. Returns ErrAccountNotFound when
// the account does not exist or is already inactive; the row is retained.
func (r *PostgresAccountRepository) DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	query := `
        UPDATE accounts
        SET is_active = FALSE, updated_at = NOW()
        WHERE id = $1 AND is_active = TRUE
        RETURNING id, wallet_id, fullname, account_no, sequence_no, is_active, created_at, updated_at
    `
	var a domain.Account
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&a.ID,
		&a.WalletID,
		&a.Fullname,
		&a.AccountNo,
		&a.SequenceNo,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		log.Printf("ERROR: Failed to deactivate account %s: %v", accountID, err)
		return nil, err
	}
	return &a, nil
}

// FindActiveAccountByNumber resolves an active account by its account number.
// Returns ErrAccountNotFound for unknown or deactivated accounts.
func (r *PostgresAccountRepository) FindActiveAccountByNumber(ctx context.Context, accountNo string) (*domain.Account, error) {
	query := `
        SELECT id, wallet_id, fullname, account_no, sequence_no, is_active, created_at, updated_at
        FROM accounts
        WHERE account_no = $1 AND is_active = TRUE
    `
	var a domain.Account
	err := r.db.QueryRow(ctx, query, accountNo).Scan(
		&a.ID,
		&a.WalletID,
		&a.Fullname,
		&a.AccountNo,
		&a.SequenceNo,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}
