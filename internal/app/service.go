/**
 * @description
 * This file contains the core application service for the account-service:
 * account creation (with locked sequence allocation delegated to the store),
 * listing, and soft-deletion, plus the account.created event emission.
 *
 * @notes
 * - Event publishing happens after the database commit and is fire-and-forget:
 *   a publish failure is logged and never rolls back the persisted account.
 *   A crash between commit and publish drops the event; there is no outbox.
 */
package app

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/lipaflow/account-service/internal/domain"
	"github.com/lipaflow/account-service/internal/store"
)

// EventPublisher is the contract the service needs from the message transport.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// AccountService implements the account provisioning and payment ingestion
// operations.
type AccountService struct {
	accounts  store.AccountRepository
	payments  store.PaymentReferenceRepository
	publisher EventPublisher
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(accounts store.AccountRepository, payments store.PaymentReferenceRepository, publisher EventPublisher) *AccountService {
	return &AccountService{
		accounts:  accounts,
		payments:  payments,
		publisher: publisher,
	}
}

// CreateAccountInput carries the fields needed to open a customer account.
type CreateAccountInput struct {
	WalletID uuid.UUID
	Fullname string
}

// CreateAccount allocates the next account number for the wallet, persists the
// account, and emits account.created. Returns store.ErrWalletNotRegistered
// when the wallet.created projection has not seen the wallet yet.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	account, err := s.accounts.CreateAccount(ctx, input.WalletID, input.Fullname)
	if err != nil {
		return nil, err
	}

	payload := domain.AccountCreatedPayload{
		AccountID: account.ID.String(),
		WalletID:  account.WalletID.String(),
		Fullname:  account.Fullname,
		AccountNo: account.AccountNo,
	}
	if err := s.publisher.Publish(ctx, domain.EventAccountCreated, payload); err != nil {
		log.Printf("WARN: Failed to publish %s for account %s: %v", domain.EventAccountCreated, account.ID, err)
	}

	return account, nil
}

// ListAccountsByWallet returns the wallet's accounts ordered by sequence number.
func (s *AccountService) ListAccountsByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Account, error) {
	return s.accounts.ListAccountsByWallet(ctx, walletID)
}

// DeactivateAccount soft-deletes an account. Returns store.ErrAccountNotFound
// when the account is missing or already inactive.
func (s *AccountService) DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.accounts.DeactivateAccount(ctx, accountID)
}

// ActiveAccountExists reports whether an active account with the given account
// number exists.
func (s *AccountService) ActiveAccountExists(ctx context.Context, accountNo string) (bool, error) {
	_, err := s.accounts.FindActiveAccountByNumber(ctx, accountNo)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
