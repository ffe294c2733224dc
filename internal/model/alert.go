package model

import (
	"errors"
	"time"
)

// AlertType is the closed set of alert categories a resident can raise.
// The wire values keep the Portuguese tags the mobile clients ship with;
// anything outside the set is rejected at parse time.
type AlertType string

const (
	AlertBreakIn   AlertType = "invasão"
	AlertRobbery   AlertType = "roubo"
	AlertEmergency AlertType = "emergência"
)

var ErrUnknownAlertType = errors.New("unknown alert type")

// ParseAlertType validates a wire tag against the closed set.
func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(s) {
	case AlertBreakIn, AlertRobbery, AlertEmergency:
		return AlertType(s), nil
	}
	return "", ErrUnknownAlertType
}

// Slug returns the language-neutral identifier used in logs and events.
func (t AlertType) Slug() string {
	switch t {
	case AlertBreakIn:
		return "break-in"
	case AlertRobbery:
		return "robbery"
	case AlertEmergency:
		return "emergency"
	}
	return "unknown"
}

// Alert mirrors the `alerts` table. An alert stays active from the
// moment a resident raises it until the same resident stops it; only
// active alerts are shown to neighbors on the same street.
type Alert struct {
	ID           string    // alerts.id (uuid)
	Type         AlertType // alerts.type
	UserID       string    // alerts.user_id
	UserName     string    // alerts.user_name (first resident name at raise time)
	State        string    // alerts.state
	City         string    // alerts.city
	Neighborhood string    // alerts.neighborhood
	Street       string    // alerts.street
	Number       string    // alerts.number
	Timestamp    time.Time // alerts.timestamp
	IsActive     bool      // alerts.is_active
}

// EmergencyNotification records who should be alarmed about an alert.
// It targets every other resident on the requester's street; the
// requester themselves gets a silent treatment so their own phone does
// not ring while they handle the emergency.
type EmergencyNotification struct {
	ID               string    // emergency_notifications.id (uuid)
	AlertID          string    // emergency_notifications.alert_id
	AlertType        AlertType // emergency_notifications.alert_type
	RequesterName    string    // emergency_notifications.requester_name
	RequesterAddress string    // emergency_notifications.requester_address
	TargetUserIDs    []string  // emergency_notification_targets rows
	CreatedAt        time.Time // emergency_notifications.created_at
}
