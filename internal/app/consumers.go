/**
 * @description
 * This file contains the event handler that projects wallet.created events
 * into the wallet_registry read model. The registry is what the sequence
 * allocator reads, so account creation for a wallet only succeeds once this
 * projection has observed the wallet.
 *
 * @notes
 * - The handler returns true to ack and false to nack-and-requeue. Malformed
 *   events and duplicates are acked so they never block the queue; only
 *   transient storage errors are requeued.
 */
package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lipaflow/account-service/internal/domain"
	"github.com/lipaflow/account-service/internal/store"
)

const walletEventTimeout = 30 * time.Second

// WalletEventHandler processes wallet.created events from the message broker.
type WalletEventHandler struct {
	registry store.WalletRegistryRepository
}

// NewWalletEventHandler creates a new instance of WalletEventHandler.
func NewWalletEventHandler(registry store.WalletRegistryRepository) *WalletEventHandler {
	return &WalletEventHandler{registry: registry}
}

// HandleWalletCreatedEvent upserts a registry row for a newly created wallet.
// Duplicate deliveries are no-ops: an existing row's prefix and counter are
// never overwritten.
func (h *WalletEventHandler) HandleWalletCreatedEvent(body []byte) bool {
	event, err := domain.DecodeWalletCreated(body)
	if err != nil {
		log.Printf("WARN: Dropping malformed wallet.created event: %v", err)
		return true
	}

	if event.WalletID == "" || event.CompanyID == "" {
		log.Printf("WARN: wallet.created missing wallet_id or company_id; acking")
		return true
	}

	walletID, err := uuid.Parse(event.WalletID)
	if err != nil {
		log.Printf("WARN: wallet.created carries invalid wallet_id %q; acking", event.WalletID)
		return true
	}
	companyID, err := uuid.Parse(event.CompanyID)
	if err != nil {
		log.Printf("WARN: wallet.created carries invalid company_id %q; acking", event.CompanyID)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), walletEventTimeout)
	defer cancel()

	exists, err := h.registry.WalletExists(ctx, walletID)
	if err != nil {
		log.Printf("ERROR: Failed to check registry for wallet %s: %v", walletID, err)
		return false // Retryable database error.
	}
	if exists {
		log.Printf("INFO: Wallet %s already in registry, skipping duplicate event", walletID)
		return true
	}

	registry := &domain.WalletRegistry{
		WalletID:             walletID,
		CompanyID:            companyID,
		CompanyAccountPrefix: deriveAccountPrefix(event.CompanyAccountNumber),
		SequenceNo:           0,
	}
	if err := h.registry.InsertWallet(ctx, registry); err != nil {
		if errors.Is(err, store.ErrWalletAlreadyRegistered) {
			log.Printf("INFO: Wallet %s registered concurrently, skipping", walletID)
			return true
		}
		log.Printf("ERROR: Failed to insert registry row for wallet %s: %v", walletID, err)
		return false // Requeue for transient database errors.
	}

	log.Printf("Registered wallet %s with prefix %s", walletID, registry.CompanyAccountPrefix)
	return true
}

// deriveAccountPrefix takes the first three characters of the company account
// number and right-pads with '0' to exactly three. An empty or absent source
// yields "000".
func deriveAccountPrefix(companyAccountNumber string) string {
	prefix := companyAccountNumber
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if len(prefix) < 3 {
		prefix = prefix + strings.Repeat("0", 3-len(prefix))
	}
	return prefix
}
