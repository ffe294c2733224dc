// Package queue defines message payloads exchanged over the message broker.
package queue

// AlertRaisedEvent is published when a resident raises an alert. It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type AlertRaisedEvent struct {
	AlertID       string `json:"alert_id"`
	Type          string `json:"type"` // language-neutral slug: break-in | robbery | emergency
	UserName      string `json:"user_name"`
	Street        string `json:"street"`
	Number        string `json:"number"`
	Neighborhood  string `json:"neighborhood"`
	City          string `json:"city"`
	State         string `json:"state"`
	NotifiedCount int    `json:"notified_count"`
	RaisedAt      string `json:"raised_at"`
}
