package enums

import "slices"

// PaymentTerms maps to the payment_terms enum in Postgres.
type PaymentTerms string

const (
	PaymentTermsPayNow      PaymentTerms = "pay_now"
	PaymentTermsCreditNet30 PaymentTerms = "credit_net_30"
	PaymentTermsCreditNet60 PaymentTerms = "credit_net_60"
)

var validPaymentTerms = []PaymentTerms{
	PaymentTermsPayNow,
	PaymentTermsCreditNet30,
	PaymentTermsCreditNet60,
}

// String implements fmt.Stringer.
func (p PaymentTerms) String() string {
	return string(p)
}

// IsValid reports whether the value matches the canonical payment_terms enum.
func (p PaymentTerms) IsValid() bool {
	return slices.Contains(validPaymentTerms, p)
}

// IsCredit reports whether the terms defer payment against the credit ledger.
func (p PaymentTerms) IsCredit() bool {
	return p == PaymentTermsCreditNet30 || p == PaymentTermsCreditNet60
}

// ParsePaymentTerms converts raw input into PaymentTerms.
func ParsePaymentTerms(value string) (PaymentTerms, error) {
	return parse(value, validPaymentTerms, "payment terms")
}
