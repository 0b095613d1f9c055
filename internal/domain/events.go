/**
 * @description
 * This file defines the event contracts consumed and produced by the
 * account-service. These structs are the wire format for messages crossing the
 * broker (RabbitMQ topic exchange).
 *
 * @notes
 * - The upstream company-service wraps payloads in an envelope
 *   {event_id, event_type, occurred_at, payload}, but older producers emitted
 *   the payload fields at the top level. DecodeWalletCreated accepts both.
 * - Produced event payloads render identifiers as strings so consumers in any
 *   language can parse them without UUID support.
 */
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event types produced and consumed by this service. The event type doubles as
// the routing key on the topic exchange.
const (
	EventWalletCreated         = "wallet.created"
	EventAccountCreated        = "account.created"
	EventLedgerCreditRequested = "ledger.credit.requested"
)

// WalletCreatedEvent is the payload of a wallet.created event from the
// company-service: a new wallet was provisioned against a paybill and is ready
// to receive customer accounts.
type WalletCreatedEvent struct {
	WalletID             string `json:"wallet_id"`
	CompanyID            string `json:"company_id"`
	CompanyAccountNumber string `json:"company_account_number"`
}

// AccountCreatedPayload is published after a customer account is persisted.
type AccountCreatedPayload struct {
	AccountID string `json:"account_id"`
	WalletID  string `json:"wallet_id"`
	Fullname  string `json:"fullname"`
	AccountNo string `json:"account_no"`
}

// LedgerCreditPayload is published once per unique provider transaction to
// request a ledger credit. Amount is a decimal string, never a float.
type LedgerCreditPayload struct {
	TransID   string `json:"trans_id"`
	AccountNo string `json:"account_no"`
	Amount    string `json:"amount"`
}

// DecodeWalletCreated parses a wallet.created message body. The fields may sit
// at the top level of the message or nested under an envelope's "payload" key;
// the nested form wins when present. The company account number is coerced to
// a string whether the producer sent it as a JSON string or a number.
func DecodeWalletCreated(body []byte) (WalletCreatedEvent, error) {
	var envelope struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return WalletCreatedEvent{}, fmt.Errorf("decode wallet.created: %w", err)
	}

	raw := body
	if len(envelope.Payload) > 0 && !bytes.Equal(envelope.Payload, []byte("null")) {
		raw = envelope.Payload
	}

	var wire struct {
		WalletID             string          `json:"wallet_id"`
		CompanyID            string          `json:"company_id"`
		CompanyAccountNumber json.RawMessage `json:"company_account_number"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return WalletCreatedEvent{}, fmt.Errorf("decode wallet.created payload: %w", err)
	}

	return WalletCreatedEvent{
		WalletID:             wire.WalletID,
		CompanyID:            wire.CompanyID,
		CompanyAccountNumber: rawToString(wire.CompanyAccountNumber),
	}, nil
}

// rawToString renders a raw JSON scalar as a plain string. Strings are
// unquoted, numbers keep their literal form, null and absent values become "".
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(bytes.TrimSpace(raw))
}
