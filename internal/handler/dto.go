package handler

import (
	"time"

	"github.com/juliovp13-web/SafeZone/internal/model"
)

// ----- shared DTOs -----

// userPayload is the wire shape of a user, shared by login, register
// and profile responses.
type userPayload struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	State         string   `json:"state"`
	City          string   `json:"city"`
	Neighborhood  string   `json:"neighborhood"`
	Street        string   `json:"street"`
	Number        string   `json:"number"`
	CountryCode   string   `json:"country_code"`
	ResidentNames []string `json:"resident_names"`
	IsAdmin       bool     `json:"is_admin"`
	IsVIP         bool     `json:"is_vip"`
	VIPExpiresAt  string   `json:"vip_expires_at,omitempty"`
}

func toUserPayload(u model.User) userPayload {
	p := userPayload{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		State:         u.State,
		City:          u.City,
		Neighborhood:  u.Neighborhood,
		Street:        u.Street,
		Number:        u.Number,
		CountryCode:   u.CountryCode,
		ResidentNames: u.ResidentNames,
		IsAdmin:       u.IsAdmin,
		IsVIP:         u.IsVIP,
	}
	if u.VIPExpiresAt != nil {
		p.VIPExpiresAt = u.VIPExpiresAt.Format(time.RFC3339)
	}
	return p
}

type authResp struct {
	User        userPayload `json:"user"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
}

// alertPayload is the wire shape of an alert in the history feed. The
// timestamp format matches what the mobile clients render verbatim.
type alertPayload struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	UserName     string `json:"user_name"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Timestamp    string `json:"timestamp"`
	IsActive     bool   `json:"is_active"`
}

const alertTimeLayout = "02/01/2006 15:04"

func toAlertPayload(a model.Alert) alertPayload {
	return alertPayload{
		ID:           a.ID,
		Type:         string(a.Type),
		UserName:     a.UserName,
		State:        a.State,
		City:         a.City,
		Neighborhood: a.Neighborhood,
		Street:       a.Street,
		Number:       a.Number,
		Timestamp:    a.Timestamp.Format(alertTimeLayout),
		IsActive:     a.IsActive,
	}
}
