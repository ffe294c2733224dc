package model

import (
	"strings"
	"time"
)

// User represents a registered resident account as stored in the
// `users` table. Address fields follow the convention the product
// launched with (state / city / neighborhood / street / number) and are
// used both for display and for scoping alerts to a street.
//
// ResidentNames lists the people living at the address (length >= 1);
// it is stored as a JSON array in the resident_names column.
// IsAdmin grants access to the administrative endpoints. IsVIP bypasses
// subscription billing; VIPExpiresAt nil means the status is permanent.
type User struct {
	ID            string     // users.id (uuid)
	Name          string     // users.name
	Email         string     // users.email
	PasswordHash  string     // users.password_hash
	State         string     // users.state
	City          string     // users.city
	Neighborhood  string     // users.neighborhood
	Street        string     // users.street
	Number        string     // users.number
	CountryCode   string     // users.country_code (ISO 3166-1 alpha-2, default "BR")
	ResidentNames []string   // users.resident_names (JSON array)
	IsAdmin       bool       // users.is_admin
	IsVIP         bool       // users.is_vip
	VIPExpiresAt  *time.Time // users.vip_expires_at (nullable, nil = permanent)
	CreatedAt     time.Time  // users.created_at
}

// DisplayName returns the first non-empty resident name, falling back
// to the account holder's name. Alerts are announced under this name.
func (u *User) DisplayName() string {
	for _, n := range u.ResidentNames {
		if strings.TrimSpace(n) != "" {
			return n
		}
	}
	return u.Name
}

// FullAddress formats the address the way notifications present it:
// "Rua X, 123, Bairro, Cidade - UF".
func (u *User) FullAddress() string {
	return u.Street + ", " + u.Number + ", " + u.Neighborhood + ", " + u.City + " - " + u.State
}

// VIPActive reports whether the user currently holds VIP status.
// A nil expiry means permanent VIP.
func (u *User) VIPActive(now time.Time) bool {
	if !u.IsVIP {
		return false
	}
	if u.VIPExpiresAt == nil {
		return true
	}
	return u.VIPExpiresAt.After(now)
}

// FilterResidentNames trims entries and drops empty ones so that a
// registration form with more slots than filled names never sends
// blanks to storage.
func FilterResidentNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if t := strings.TrimSpace(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}
