package models

// All lists every persisted model, in dependency order, for sqlite schema bootstrap.
func All() []any {
	return []any{
		&RetailerAccount{},
		&Product{},
		&PricingTier{},
		&Order{},
		&OrderItem{},
		&CreditLedgerEntry{},
		&OutboxEvent{},
	}
}
