// Package domain holds the types shared by more than one marketplace module.
package domain

// Role is the account type of a user
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleFarmer   Role = "farmer"
	RoleConsumer Role = "consumer"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFarmer, RoleConsumer:
		return true
	}
	return false
}

// SelfRegistrable reports whether users may sign up with this role.
// Admins are only created from configuration or the CLI.
func (r Role) SelfRegistrable() bool {
	return r == RoleFarmer || r == RoleConsumer
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderPending  OrderStatus = "Pending"
	OrderAccepted OrderStatus = "Accepted"
	OrderRejected OrderStatus = "Rejected"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderRejected:
		return true
	}
	return false
}
