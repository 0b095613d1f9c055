/**
 * @description
 * This file implements the data access layer for the payment_references
 * idempotency ledger. Rows are write-once: the primary key on trans_id is the
 * deduplication boundary for at-least-once callback delivery.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - github.com/jackc/pgx/v5/pgconn: Unique-violation detection.
 */
package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lipaflow/account-service/internal/domain"
)

// PostgresPaymentReferenceRepository is the PostgreSQL implementation of the
// PaymentReferenceRepository.
type PostgresPaymentReferenceRepository struct {
	db *pgxpool.Pool
}

// NewPostgresPaymentReferenceRepository creates a new instance of PostgresPaymentReferenceRepository.
func NewPostgresPaymentReferenceRepository(db *pgxpool.Pool) *PostgresPaymentReferenceRepository {
	return &PostgresPaymentReferenceRepository{db: db}
}

// FindPaymentByTransID returns the payment reference for a transaction id, or
// nil when none has been recorded.
func (r *PostgresPaymentReferenceRepository) FindPaymentByTransID(ctx context.Context, transID string) (*domain.PaymentReference, error) {
	query := `
        SELECT trans_id, account_no, amount, received_at
        FROM payment_references
        WHERE trans_id = $1
    `
	var ref domain.PaymentReference
	err := r.db.QueryRow(ctx, query, transID).Scan(
		&ref.TransID,
		&ref.AccountNo,
		&ref.Amount,
		&ref.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

// InsertPaymentReference records a processed callback. A concurrent duplicate
// insert is reported as ErrDuplicatePayment; the existing row is never
// updated or overwritten.
func (r *PostgresPaymentReferenceRepository) InsertPaymentReference(ctx context.Context, ref *domain.PaymentReference) error {
	query := `
        INSERT INTO payment_references (trans_id, account_no, amount)
        VALUES ($1, $2, $3)
        RETURNING received_at
    `
	err := r.db.QueryRow(ctx, query, ref.TransID, ref.AccountNo, ref.Amount).Scan(&ref.ReceivedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrDuplicatePayment
		}
		log.Printf("ERROR: Failed to insert payment reference %s: %v", ref.TransID, err)
		return err
	}
	return nil
}
