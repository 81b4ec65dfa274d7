package enums

import "slices"

// AccountStatus represents the approval state of a retailer account.
type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusApproved AccountStatus = "approved"
	AccountStatusRejected AccountStatus = "rejected"
)

var validAccountStatuses = []AccountStatus{
	AccountStatusPending,
	AccountStatusApproved,
	AccountStatusRejected,
}

// IsValid reports whether the value is a known AccountStatus.
func (s AccountStatus) IsValid() bool {
	return slices.Contains(validAccountStatuses, s)
}

// ParseAccountStatus converts raw input into AccountStatus.
func ParseAccountStatus(value string) (AccountStatus, error) {
	return parse(value, validAccountStatuses, "account status")
}

// AccountRole is the platform role carried in access tokens.
type AccountRole string

const (
	AccountRoleRetailer AccountRole = "retailer"
	AccountRoleAdmin    AccountRole = "admin"
)

var validAccountRoles = []AccountRole{
	AccountRoleRetailer,
	AccountRoleAdmin,
}

// String implements fmt.Stringer.
func (r AccountRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known AccountRole.
func (r AccountRole) IsValid() bool {
	return slices.Contains(validAccountRoles, r)
}

// ParseAccountRole converts raw input into AccountRole.
func ParseAccountRole(value string) (AccountRole, error) {
	return parse(value, validAccountRoles, "account role")
}
