/**
 * @description
 * This file implements the idempotent payment ingestion path: recording a
 * provider callback keyed by its transaction id and emitting exactly one
 * ledger.credit.requested event per unique transaction.
 *
 * @notes
 * - The lookup-then-insert sequence is raced by concurrent deliveries of the
 *   same callback; the unique constraint on trans_id is the real boundary, so
 *   an insert-time duplicate is also reported as already-processed.
 * - The amount travels as a fixed two-decimal string, never a float.
 */
package app

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/lipaflow/account-service/internal/domain"
	"github.com/lipaflow/account-service/internal/store"
)

// RecordPayment records a provider callback exactly once per transaction id.
// It returns true when the payment was newly recorded (and a credit event was
// emitted), false when the transaction id had already been processed.
func (s *AccountService) RecordPayment(ctx context.Context, transID, accountNo string, amount decimal.Decimal) (bool, error) {
	existing, err := s.payments.FindPaymentByTransID(ctx, transID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	ref := &domain.PaymentReference{
		TransID:   transID,
		AccountNo: accountNo,
		Amount:    amount,
	}
	if err := s.payments.InsertPaymentReference(ctx, ref); err != nil {
		if errors.Is(err, store.ErrDuplicatePayment) {
			// Lost the race against a concurrent delivery of the same callback.
			return false, nil
		}
		return false, err
	}

	payload := domain.LedgerCreditPayload{
		TransID:   transID,
		AccountNo: accountNo,
		Amount:    amount.StringFixed(2),
	}
	if err := s.publisher.Publish(ctx, domain.EventLedgerCreditRequested, payload); err != nil {
		log.Printf("WARN: Failed to publish %s for trans %s: %v", domain.EventLedgerCreditRequested, transID, err)
	}

	return true, nil
}
