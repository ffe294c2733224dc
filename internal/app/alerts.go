package app

import (
	"context"
	"errors"
	"time"

	"github.com/juliovp13-web/SafeZone/internal/model"
)

// ErrAlertInProgress is returned by SendAlert while another alert from
// this user is still active.
var ErrAlertInProgress = errors.New("an alert is already in progress")

// SendAlert posts an alert of the given type, switches to the
// full-screen alert view and starts the retransmission loop. Neighbors
// keep being re-notified every few seconds until StopAlert.
func (a *App) SendAlert(ctx context.Context, alertType string) error {
	if _, err := model.ParseAlertType(alertType); err != nil {
		return err
	}

	s := a.Store
	s.mu.Lock()
	if s.alert != nil {
		s.mu.Unlock()
		return ErrAlertInProgress
	}
	if s.user == nil {
		s.mu.Unlock()
		return &AuthError{Message: "not logged in"}
	}
	u := *s.user
	s.mu.Unlock()

	ack, err := a.API.SendAlert(ctx, alertType)
	if err != nil {
		// stay IDLE, no timer, caller surfaces the error
		return err
	}

	active := &ActiveAlert{
		ID:           ack.AlertID,
		Type:         alertType,
		UserName:     u.DisplayName(),
		Street:       u.Street,
		Number:       u.Number,
		Neighborhood: u.Neighborhood,
		StartedAt:    time.Now(),
	}

	s.mu.Lock()
	s.alert = active
	s.reroute()
	s.mu.Unlock()

	prev := s.swapStop(&s.stopRetransmit, startLoop(a.Intervals.Retransmit, func() {
		a.retransmit(alertType)
	}))
	if prev != nil {
		prev()
	}
	return nil
}

// retransmit re-POSTs the active alert so neighbors keep being pinged.
// Failures are logged and retried on the next tick.
func (a *App) retransmit(alertType string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := a.API.SendAlert(ctx, alertType); err != nil {
		a.Logger.Printf("alert: retransmit failed: %v", err)
	}
}

// StopAlert cancels the retransmission loop, tells the server to
// deactivate the alert, refreshes the history and returns to main.
func (a *App) StopAlert(ctx context.Context) {
	s := a.Store

	if prev := s.swapStop(&s.stopRetransmit, nil); prev != nil {
		prev()
	}

	s.mu.Lock()
	active := s.alert
	s.alert = nil
	s.reroute()
	s.mu.Unlock()

	if active != nil && active.ID != "" {
		if err := a.API.StopAlert(ctx, active.ID); err != nil {
			a.Logger.Printf("alert: stop on server failed: %v", err)
		}
	}
	a.RefreshHistory(ctx)
}

// RefreshHistory reloads the street's alert feed into the store.
func (a *App) RefreshHistory(ctx context.Context) {
	alerts, err := a.API.Alerts(ctx)
	if err != nil {
		a.Logger.Printf("alert: history fetch failed: %v", err)
		return
	}
	s := a.Store
	s.mu.Lock()
	s.history = alerts
	s.mu.Unlock()
}

// pollNotifications is the independent emergency-notification check.
// Any fresh notification from another resident trips the alarm.
func (a *App) pollNotifications(ctx context.Context) {
	notifs, err := a.API.EmergencyNotifications(ctx)
	if err != nil {
		a.Logger.Printf("alert: notification poll failed: %v", err)
		return
	}
	if len(notifs) == 0 {
		return
	}
	n := notifs[0]
	a.Store.setNotice(NoticeWarn, "Emergência: "+n.RequesterName+" em "+n.RequesterAddress)
	a.StartAlarm()
}
