package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMpesaCallback_FlatShape(t *testing.T) {
	body := []byte(`{
		"TransID": "RKTQDM7W6S",
		"BillRefNumber": "100-000001",
		"TransAmount": "250.00",
		"Amount": "250.00"
	}`)

	cb, err := ParseMpesaCallback(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.TransID != "RKTQDM7W6S" {
		t.Fatalf("expected trans id RKTQDM7W6S, got %q", cb.TransID)
	}
	if cb.AccountNo != "100-000001" {
		t.Fatalf("expected account no 100-000001, got %q", cb.AccountNo)
	}
	if !cb.Amount.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("expected amount 250.00, got %s", cb.Amount)
	}
}

func TestParseMpesaCallback_StkMetadataWithTopLevelRef(t *testing.T) {
	// Amount and TransactionId live in the STK metadata items while the
	// bill reference arrives at the top level.
	body := []byte(`{
		"BillRefNumber": "100-000001",
		"Body": {
			"stkCallback": {
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 50},
						{"Name": "TransactionId", "Value": "T1"}
					]
				}
			}
		}
	}`)

	cb, err := ParseMpesaCallback(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.TransID != "T1" {
		t.Fatalf("expected trans id T1, got %q", cb.TransID)
	}
	if cb.AccountNo != "100-000001" {
		t.Fatalf("expected account no 100-000001, got %q", cb.AccountNo)
	}
	if !cb.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected amount 50, got %s", cb.Amount)
	}
}

func TestParseMpesaCallback_MetadataBillRef(t *testing.T) {
	body := []byte(`{
		"Body": {
			"stkCallback": {
				"CallbackMetadata": {
					"Item": [
						{"Name": "TransactionId", "Value": "T2"},
						{"Name": "Amount", "Value": "75.50"},
						{"Name": "BillRefNumber", "Value": "200-000003"}
					]
				}
			}
		}
	}`)

	cb, err := ParseMpesaCallback(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.AccountNo != "200-000003" {
		t.Fatalf("expected account no from metadata, got %q", cb.AccountNo)
	}
	if !cb.Amount.Equal(decimal.RequireFromString("75.50")) {
		t.Fatalf("expected amount 75.50, got %s", cb.Amount)
	}
}

func TestParseMpesaCallback_TopLevelWinsOverMetadata(t *testing.T) {
	body := []byte(`{
		"TransID": "TOP1",
		"BillRefNumber": "100-000001",
		"Body": {
			"stkCallback": {
				"CallbackMetadata": {
					"Item": [
						{"Name": "TransactionId", "Value": "META1"},
						{"Name": "BillRefNumber", "Value": "999-000009"}
					]
				}
			}
		}
	}`)

	cb, err := ParseMpesaCallback(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.TransID != "TOP1" {
		t.Fatalf("top-level TransID must win, got %q", cb.TransID)
	}
	if cb.AccountNo != "100-000001" {
		t.Fatalf("top-level BillRefNumber must win, got %q", cb.AccountNo)
	}
}

func TestParseMpesaCallback_MissingAmountDefaultsToZero(t *testing.T) {
	body := []byte(`{
		"TransID": "RKTQDM7W6S",
		"BillRefNumber": "100-000001"
	}`)

	cb, err := ParseMpesaCallback(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cb.Amount.IsZero() {
		t.Fatalf("expected zero amount, got %s", cb.Amount)
	}
}

func TestParseMpesaCallback_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "no trans id",
			body: `{"BillRefNumber": "100-000001", "Amount": "10"}`,
		},
		{
			name: "no bill reference",
			body: `{"TransID": "RKTQDM7W6S", "Amount": "10"}`,
		},
		{
			name: "empty payload",
			body: `{}`,
		},
		{
			name: "invalid json",
			body: `{not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMpesaCallback([]byte(tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.body[0] == '{' && tt.body != `{not json` && !errors.Is(err, ErrCallbackMissingFields) {
				t.Fatalf("expected ErrCallbackMissingFields, got %v", err)
			}
		})
	}
}

func TestParseMpesaCallback_AmountEncodings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "quoted string amount",
			body: `{"TransID": "T1", "BillRefNumber": "100-000001", "Amount": "123.45"}`,
			want: "123.45",
		},
		{
			name: "bare number amount",
			body: `{"TransID": "T1", "BillRefNumber": "100-000001", "Amount": 123.45}`,
			want: "123.45",
		},
		{
			name: "integer amount",
			body: `{"TransID": "T1", "BillRefNumber": "100-000001", "Amount": 1000}`,
			want: "1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := ParseMpesaCallback([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !cb.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected amount %s, got %s", tt.want, cb.Amount)
			}
		})
	}
}
