package domain

// Role names shipped as seed data. Assignments live in the user_roles join
// table and are addressed by role id; the service itself only compares names.
const (
	RoleCustomer  = "Customer"
	RoleSeller    = "Seller"
	RoleAdmin     = "Admin"
	RoleSupport   = "Support"
	RoleManager   = "Manager"
	RoleInvestor  = "Investor"
	RoleSupplier  = "Supplier"
	RoleDelivery  = "Delivery"
	RoleMarketing = "Marketing"
)
