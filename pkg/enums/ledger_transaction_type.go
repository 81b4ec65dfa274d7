package enums

import "slices"

// LedgerTransactionType maps to the ledger_transaction_type enum in Postgres.
type LedgerTransactionType string

const (
	LedgerTransactionCreditPurchase LedgerTransactionType = "credit_purchase"
	LedgerTransactionPayment        LedgerTransactionType = "payment"
	LedgerTransactionAdjustment     LedgerTransactionType = "adjustment"
)

var validLedgerTransactionTypes = []LedgerTransactionType{
	LedgerTransactionCreditPurchase,
	LedgerTransactionPayment,
	LedgerTransactionAdjustment,
}

// IsValid reports whether the value matches the canonical ledger transaction enum.
func (t LedgerTransactionType) IsValid() bool {
	return slices.Contains(validLedgerTransactionTypes, t)
}

// ParseLedgerTransactionType converts raw input into LedgerTransactionType.
func ParseLedgerTransactionType(value string) (LedgerTransactionType, error) {
	return parse(value, validLedgerTransactionTypes, "ledger transaction type")
}
