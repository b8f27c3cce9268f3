package enums

import "fmt"

// CustomerRole separates storefront customers from back-office admins.
type CustomerRole string

const (
	CustomerRoleCustomer CustomerRole = "customer"
	CustomerRoleAdmin    CustomerRole = "admin"
)

var validCustomerRoles = []CustomerRole{
	CustomerRoleCustomer,
	CustomerRoleAdmin,
}

// String implements fmt.Stringer.
func (c CustomerRole) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomerRole.
func (c CustomerRole) IsValid() bool {
	for _, candidate := range validCustomerRoles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerRole converts raw input into a CustomerRole.
func ParseCustomerRole(value string) (CustomerRole, error) {
	for _, candidate := range validCustomerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer role %q", value)
}
