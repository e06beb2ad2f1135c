package entity

// Role is a user's role inside a company
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Rule type constants for ApprovalRule
const (
	RuleTypeSequential = "SEQUENTIAL"
)

// DefaultCurrency is used when a company row has no default currency
const DefaultCurrency = "USD"
