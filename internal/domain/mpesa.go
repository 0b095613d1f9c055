/**
 * @description
 * This file implements the parser for M-PESA payment callbacks. Providers send
 * two body shapes: a flat form with TransID/BillRefNumber/Amount at the top
 * level, and the STK-push form where the fields hide inside
 * Body.stkCallback.CallbackMetadata.Item as {Name, Value} pairs. The parser
 * probes both shapes explicitly and returns either the extracted fields or a
 * parse error.
 *
 * @notes
 * - The first non-empty value wins, top-level fields before nested ones.
 * - A missing amount defaults to zero; a missing transaction id or account
 *   number is a parse failure (ErrCallbackMissingFields).
 */
package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCallbackMissingFields is returned when a callback body carries no
// transaction id or no account number in any recognized position.
var ErrCallbackMissingFields = errors.New("callback missing TransID or BillRefNumber")

// MpesaCallback holds the fields extracted from a provider callback.
type MpesaCallback struct {
	TransID   string
	AccountNo string
	Amount    decimal.Decimal
}

// Item names carried in STK callback metadata.
const (
	itemTransactionID = "TransactionId"
	itemAmount        = "Amount"
	itemBillRef       = "BillRefNumber"
)

type callbackItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

type callbackMetadata struct {
	Item []callbackItem `json:"Item"`
}

type stkCallback struct {
	TransID          string            `json:"TransID"`
	CallbackMetadata *callbackMetadata `json:"CallbackMetadata"`
}

type callbackBody struct {
	BillRefNumber    string       `json:"BillRefNumber"`
	StkCallback      *stkCallback `json:"stkCallback"`
	CallbackMetadata *stkCallback `json:"CallbackMetadata"`
}

type mpesaWire struct {
	TransID       string          `json:"TransID"`
	BillRefNumber string          `json:"BillRefNumber"`
	Amount        json.RawMessage `json:"Amount"`
	Body          *callbackBody   `json:"Body"`
}

// ParseMpesaCallback extracts (trans_id, account_no, amount) from a callback
// body in either the flat or the nested STK shape.
func ParseMpesaCallback(body []byte) (*MpesaCallback, error) {
	var wire mpesaWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse mpesa callback: %w", err)
	}

	transID := wire.TransID
	accountNo := wire.BillRefNumber
	amountRaw := wire.Amount

	if b := wire.Body; b != nil {
		sc := b.StkCallback
		if sc == nil {
			sc = b.CallbackMetadata
		}
		if sc != nil {
			if transID == "" {
				transID = sc.TransID
			}
			if accountNo == "" {
				accountNo = b.BillRefNumber
			}
			if sc.CallbackMetadata != nil {
				for _, item := range sc.CallbackMetadata.Item {
					switch item.Name {
					case itemTransactionID:
						if transID == "" {
							transID = rawToString(item.Value)
						}
					case itemAmount:
						if len(amountRaw) == 0 {
							amountRaw = item.Value
						}
					case itemBillRef:
						if accountNo == "" {
							accountNo = rawToString(item.Value)
						}
					}
				}
			}
		}
	}

	if transID == "" || accountNo == "" {
		return nil, ErrCallbackMissingFields
	}

	amount := decimal.Zero
	if s := rawToString(amountRaw); s != "" {
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse mpesa callback amount %q: %w", s, err)
		}
		amount = parsed
	}

	return &MpesaCallback{TransID: transID, AccountNo: accountNo, Amount: amount}, nil
}
