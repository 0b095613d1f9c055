/**
 * @description
 * This file defines the interfaces for the data access layer (repositories)
 * and the sentinel errors it surfaces. Application logic depends on these
 * interfaces, not on the concrete PostgreSQL implementations, which keeps the
 * handlers and event consumers testable with in-memory fakes.
 */
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lipaflow/account-service/internal/domain"
)

var (
	// ErrWalletNotRegistered means the wallet has no registry row yet: either
	// the wallet.created projection has not caught up or the id is invalid.
	ErrWalletNotRegistered = errors.New("wallet not registered")
	// ErrWalletAlreadyRegistered means a registry row already exists for the
	// wallet id; duplicate projections must treat this as a no-op.
	ErrWalletAlreadyRegistered = errors.New("wallet already registered")
	// ErrAccountNotFound means no matching (active) account row exists.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateAccountNumber means the storage layer rejected an account
	// insert because the account number is already taken.
	ErrDuplicateAccountNumber = errors.New("account number already exists")
	// ErrDuplicatePayment means a payment reference with the same transaction
	// id was already recorded.
	ErrDuplicatePayment = errors.New("payment reference already recorded")
)

// WalletRegistryRepository is the contract for the wallet registry read model.
type WalletRegistryRepository interface {
	WalletExists(ctx context.Context, walletID uuid.UUID) (bool, error)
	InsertWallet(ctx context.Context, registry *domain.WalletRegistry) error
}

// AccountRepository is the contract for customer account storage, including
// the locked sequence allocation performed inside CreateAccount.
type AccountRepository interface {
	CreateAccount(ctx context.Context, walletID uuid.UUID, fullname string) (*domain.Account, error)
	ListAccountsByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	FindActiveAccountByNumber(ctx context.Context, accountNo string) (*domain.Account, error)
}

// PaymentReferenceRepository is the contract for the callback idempotency
// ledger. Rows are write-once; there is no update or delete.
type PaymentReferenceRepository interface {
	FindPaymentByTransID(ctx context.Context, transID string) (*domain.PaymentReference, error)
	InsertPaymentReference(ctx context.Context, ref *domain.PaymentReference) error
}
