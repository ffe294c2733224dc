package model

import "time"

// Help message workflow statuses.
const (
	HelpPending  = "pending"
	HelpRead     = "read"
	HelpResolved = "resolved"
)

// HelpMessage mirrors the `help_messages` table. Residents write to
// support from inside the app; admins review and respond from the
// dashboard.
type HelpMessage struct {
	ID            string     // help_messages.id (uuid)
	UserID        string     // help_messages.user_id
	UserName      string     // help_messages.user_name
	UserEmail     string     // help_messages.user_email
	UserAddress   string     // help_messages.user_address (formatted)
	Message       string     // help_messages.message
	Status        string     // pending | read | resolved
	AdminResponse *string    // help_messages.admin_response (nullable)
	ResolvedAt    *time.Time // help_messages.resolved_at (nullable)
	CreatedAt     time.Time  // help_messages.created_at
}
