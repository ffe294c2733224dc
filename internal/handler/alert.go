package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/juliovp13-web/SafeZone/internal/middleware"
	"github.com/juliovp13-web/SafeZone/internal/model"
	"github.com/juliovp13-web/SafeZone/internal/queue"
	"github.com/juliovp13-web/SafeZone/internal/repository"
)

// notificationWindow bounds how long a raised alert keeps showing up in
// the emergency-notification poll. Clients poll every 10 seconds, so a
// minute keeps the alarm ringing while the alert is active without
// resurfacing stale incidents.
const notificationWindow = time.Minute

// UserGetter is the slice of the user repository the alert endpoints
// need. Satisfied by *repository.UserRepo.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// AlertStore is the alert persistence surface. Satisfied by
// *repository.AlertRepo; tests substitute an in-memory fake.
type AlertStore interface {
	Create(ctx context.Context, a model.Alert, requesterAddress string, targetUserIDs []string) (model.Alert, error)
	ActiveByUser(ctx context.Context, userID string) (model.Alert, error)
	RefreshActive(ctx context.Context, alertID string, now time.Time) error
	ListActiveByStreet(ctx context.Context, state, city, neighborhood, street string, limit int) ([]model.Alert, error)
	Deactivate(ctx context.Context, alertID, userID string) error
	FreshNotificationsFor(ctx context.Context, userID string, cutoff time.Time) ([]model.EmergencyNotification, error)
	NeighborsOnStreet(ctx context.Context, u model.User) ([]string, error)
}

// AlertHandler bundles dependencies for the alerting endpoints.
// Publish is injected so tests can observe events without a broker.
type AlertHandler struct {
	Users   UserGetter
	Alerts  AlertStore
	Publish func(ctx context.Context, ev queue.AlertRaisedEvent) error
}

func NewAlertHandler(u UserGetter, a AlertStore,
	publish func(ctx context.Context, ev queue.AlertRaisedEvent) error) *AlertHandler {
	return &AlertHandler{Users: u, Alerts: a, Publish: publish}
}

type createAlertReq struct {
	Type string `json:"type"`
}

type notificationPayload struct {
	ID               string `json:"id"`
	AlertID          string `json:"alert_id"`
	AlertType        string `json:"alert_type"`
	RequesterName    string `json:"requester_name"`
	RequesterAddress string `json:"requester_address"`
	CreatedAt        string `json:"created_at"`
}

// Create raises an alert for the caller's street. Every other resident
// on the street is targeted by an emergency notification, and an
// alert.raised event is published for offline processing. Publishing is
// best effort: neighbors are notified through the database either way.
func (h *AlertHandler) Create(c echo.Context) error {
	var req createAlertReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	alertType, err := model.ParseAlertType(req.Type)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid alert type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	neighbors, err := h.Alerts.NeighborsOnStreet(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	now := time.Now().UTC()

	// Clients re-POST their active alert every few seconds so neighbors
	// keep being pinged. Reuse the row instead of stacking a new active
	// alert per retransmission.
	existing, err := h.Alerts.ActiveByUser(ctx, u.ID)
	switch err {
	case nil:
		if err := h.Alerts.RefreshActive(ctx, existing.ID, now); err != nil && err != repository.ErrNotFound {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh alert failed"})
		}
		return c.JSON(http.StatusOK, alertAck(req.Type, existing.ID, len(neighbors), u))
	case repository.ErrNotFound:
		// first send, create below
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	alert := model.Alert{
		Type:         alertType,
		UserID:       u.ID,
		UserName:     u.DisplayName(),
		State:        u.State,
		City:         u.City,
		Neighborhood: u.Neighborhood,
		Street:       u.Street,
		Number:       u.Number,
		Timestamp:    now,
	}
	alert, err = h.Alerts.Create(ctx, alert, u.FullAddress(), neighbors)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create alert failed"})
	}

	if h.Publish != nil {
		ev := queue.AlertRaisedEvent{
			AlertID:       alert.ID,
			Type:          alertType.Slug(),
			UserName:      alert.UserName,
			Street:        alert.Street,
			Number:        alert.Number,
			Neighborhood:  alert.Neighborhood,
			City:          alert.City,
			State:         alert.State,
			NotifiedCount: len(neighbors),
			RaisedAt:      now.Format(time.RFC3339),
		}
		if err := h.Publish(ctx, ev); err != nil {
			c.Logger().Warnf("alert: publish event failed for %s: %v", alert.ID, err)
		}
	}

	return c.JSON(http.StatusOK, alertAck(req.Type, alert.ID, len(neighbors), u))
}

func alertAck(wireType, alertID string, notified int, u model.User) echo.Map {
	return echo.Map{
		"message":              fmt.Sprintf("Alerta de %s enviado com sucesso!", wireType),
		"alert_id":             alertID,
		"notification_sent_to": notified,
		"silent_for_requester": true,
		"target_address":       fmt.Sprintf("Rua %s, %s", u.Street, u.Neighborhood),
	}
}

// List returns the latest active alerts on the caller's street.
func (h *AlertHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	alerts, err := h.Alerts.ListActiveByStreet(ctx, u.State, u.City, u.Neighborhood, u.Street, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]alertPayload, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertPayload(a))
	}
	return c.JSON(http.StatusOK, out)
}

// Stop deactivates an alert. Only its creator may stop it.
func (h *AlertHandler) Stop(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Alerts.Deactivate(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Alerta não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stop failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Alerta interrompido com sucesso"})
}

// Notifications returns fresh notifications targeting the caller,
// raised by other residents on the same street.
func (h *AlertHandler) Notifications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-notificationWindow)
	notifs, err := h.Alerts.FreshNotificationsFor(ctx, middleware.UserID(c), cutoff)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]notificationPayload, 0, len(notifs))
	for _, n := range notifs {
		out = append(out, notificationPayload{
			ID:               n.ID,
			AlertID:          n.AlertID,
			AlertType:        string(n.AlertType),
			RequesterName:    n.RequesterName,
			RequesterAddress: n.RequesterAddress,
			CreatedAt:        n.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, out)
}
