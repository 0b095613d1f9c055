package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lipaflow/account-service/internal/domain"
	"github.com/lipaflow/account-service/internal/store"
)

type fakeAccounts struct {
	created   *domain.Account
	createErr error
	accounts  []domain.Account
}

func (f *fakeAccounts) CreateAccount(_ context.Context, walletID uuid.UUID, fullname string) (*domain.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	account := &domain.Account{
		ID:         uuid.New(),
		WalletID:   walletID,
		Fullname:   fullname,
		AccountNo:  "100-000001",
		SequenceNo: 1,
		IsActive:   true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.created = account
	return account, nil
}

func (f *fakeAccounts) ListAccountsByWallet(_ context.Context, _ uuid.UUID) ([]domain.Account, error) {
	return f.accounts, nil
}

func (f *fakeAccounts) DeactivateAccount(_ context.Context, _ uuid.UUID) (*domain.Account, error) {
	return nil, store.ErrAccountNotFound
}

func (f *fakeAccounts) FindActiveAccountByNumber(_ context.Context, accountNo string) (*domain.Account, error) {
	for i := range f.accounts {
		if f.accounts[i].AccountNo == accountNo && f.accounts[i].IsActive {
			return &f.accounts[i], nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func TestCreateAccount_PublishesAccountCreated(t *testing.T) {
	accounts := &fakeAccounts{}
	publisher := &fakePublisher{}
	svc := NewAccountService(accounts, newFakePayments(), publisher)
	walletID := uuid.New()

	account, err := svc.CreateAccount(context.Background(), CreateAccountInput{WalletID: walletID, Fullname: "Jane Wanjiku"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	if publisher.events[0].eventType != domain.EventAccountCreated {
		t.Fatalf("expected event type %s, got %s", domain.EventAccountCreated, publisher.events[0].eventType)
	}
	payload, ok := publisher.events[0].payload.(domain.AccountCreatedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", publisher.events[0].payload)
	}
	if payload.AccountID != account.ID.String() {
		t.Fatalf("expected account id %s in payload, got %s", account.ID, payload.AccountID)
	}
	if payload.WalletID != walletID.String() {
		t.Fatalf("expected wallet id %s in payload, got %s", walletID, payload.WalletID)
	}
	if payload.AccountNo != "100-000001" {
		t.Fatalf("expected account no 100-000001, got %s", payload.AccountNo)
	}
}

func TestCreateAccount_UnregisteredWalletDoesNotPublish(t *testing.T) {
	accounts := &fakeAccounts{createErr: store.ErrWalletNotRegistered}
	publisher := &fakePublisher{}
	svc := NewAccountService(accounts, newFakePayments(), publisher)

	_, err := svc.CreateAccount(context.Background(), CreateAccountInput{WalletID: uuid.New(), Fullname: "Jane Wanjiku"})
	if !errors.Is(err, store.ErrWalletNotRegistered) {
		t.Fatalf("expected ErrWalletNotRegistered, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events for failed creation, got %d", len(publisher.events))
	}
}

func TestCreateAccount_PublishFailureStillReturnsAccount(t *testing.T) {
	accounts := &fakeAccounts{}
	publisher := &fakePublisher{publishErr: errors.New("broker down")}
	svc := NewAccountService(accounts, newFakePayments(), publisher)

	account, err := svc.CreateAccount(context.Background(), CreateAccountInput{WalletID: uuid.New(), Fullname: "Jane Wanjiku"})
	if err != nil {
		t.Fatalf("publish failure must not fail the creation: %v", err)
	}
	if account == nil || account.AccountNo == "" {
		t.Fatal("expected persisted account back despite publish failure")
	}
}

func TestActiveAccountExists(t *testing.T) {
	accounts := &fakeAccounts{accounts: []domain.Account{
		{AccountNo: "100-000001", IsActive: true},
		{AccountNo: "100-000002", IsActive: false},
	}}
	svc := NewAccountService(accounts, newFakePayments(), &fakePublisher{})

	tests := []struct {
		name      string
		accountNo string
		want      bool
	}{
		{
			name:      "active account is found",
			accountNo: "100-000001",
			want:      true,
		},
		{
			name:      "deactivated account reports missing",
			accountNo: "100-000002",
			want:      false,
		},
		{
			name:      "unknown account reports missing",
			accountNo: "999-000001",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ActiveAccountExists(context.Background(), tt.accountNo)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ActiveAccountExists(%q) = %t, want %t", tt.accountNo, got, tt.want)
			}
		})
	}
}
