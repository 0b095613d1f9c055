/**
 * @description
 * This file defines the core domain models owned by the account-service: the
 * wallet registry read model, customer accounts, and the payment reference
 * idempotency ledger.
 *
 * @notes
 * - WalletRegistry is populated exclusively by the wallet.created projection
 *   and mutated only by the sequence allocator. Rows are never deleted.
 * - Account rows are soft-deleted: deactivation flips IsActive, the row stays.
 * - PaymentReference rows are write-once; one row per provider transaction id.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRegistry maps a wallet to the account-number prefix and the sequence
// counter used to allocate account numbers under that wallet.
type WalletRegistry struct {
	WalletID             uuid.UUID `json:"wallet_id"`
	CompanyID            uuid.UUID `json:"company_id"`
	CompanyAccountPrefix string    `json:"company_account_prefix"`
	SequenceNo           int       `json:"sequence_no"`
	CreatedAt            time.Time `json:"created_at"`
}

// Account represents a customer account under a wallet.
type Account struct {
	ID         uuid.UUID `json:"id"`
	WalletID   uuid.UUID `json:"wallet_id"`
	Fullname   string    `json:"fullname"`
	AccountNo  string    `json:"account_no"`
	SequenceNo int       `json:"sequence_no"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PaymentReference records a processed provider callback, keyed by the
// provider's transaction id. Its presence is what makes callback ingestion
// idempotent.
type PaymentReference struct {
	TransID    string          `json:"trans_id"`
	AccountNo  string          `json:"account_no"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt time.Time       `json:"received_at"`
}
