package lock

import "github.com/google/uuid"

// AccountKey is the lock key that serializes credit-affecting writes for one account.
func AccountKey(accountID uuid.UUID) string {
	return "account:" + accountID.String()
}
