package domain

import "time"

// Audit actions recorded by the auth flow.
const (
	AuditActionLogin    = "LOGIN"
	AuditActionLogout   = "LOGOUT"
	AuditActionRegister = "REGISTER"

	AuditResourceUser = "USER"
)

// AuditEntry is an append-only record of a security-relevant action. Entries
// are never mutated or deleted by the application.
type AuditEntry struct {
	ID           int64     `json:"id,omitempty"`
	UserID       string    `json:"user_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	CreatedAt    time.Time `json:"created_at"`
}
