package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/juliovp13-web/SafeZone/internal/model"
	"github.com/juliovp13-web/SafeZone/internal/repository"
)

// AdminHandler bundles dependencies for the administrative dashboard.
// Every route it serves sits behind the RequireAdmin middleware.
type AdminHandler struct {
	Users *repository.UserRepo
	Subs  *repository.SubscriptionRepo
	Alert *repository.AlertRepo
	Help  *repository.HelpRepo
}

func NewAdminHandler(u *repository.UserRepo, s *repository.SubscriptionRepo,
	a *repository.AlertRepo, h *repository.HelpRepo) *AdminHandler {
	return &AdminHandler{Users: u, Subs: s, Alert: a, Help: h}
}

type adminStats struct {
	TotalUsers           int `json:"total_users"`
	TotalSubscriptions   int `json:"total_subscriptions"`
	ActiveSubscriptions  int `json:"active_subscriptions"`
	TrialSubscriptions   int `json:"trial_subscriptions"`
	BlockedSubscriptions int `json:"blocked_subscriptions"`
	TotalAlerts          int `json:"total_alerts"`
	PendingHelpMessages  int `json:"pending_help_messages"`
}

type setAdminReq struct {
	Email        string `json:"email"`
	IsAdmin      bool   `json:"is_admin"`
	IsVIP        bool   `json:"is_vip"`
	VIPPermanent bool   `json:"vip_permanent"`
}

type adminUserPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Neighborhood string `json:"neighborhood"`
	IsAdmin      bool   `json:"is_admin"`
	IsVIP        bool   `json:"is_vip"`
	CreatedAt    string `json:"created_at"`
}

type helpMessagePayload struct {
	ID            string  `json:"id"`
	UserName      string  `json:"user_name"`
	UserEmail     string  `json:"user_email"`
	UserAddress   string  `json:"user_address"`
	Message       string  `json:"message"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	AdminResponse *string `json:"admin_response,omitempty"`
}

type respondReq struct {
	Response string `json:"response"`
}

// Stats aggregates the dashboard counters.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		stats adminStats
		err   error
	)
	if stats.TotalUsers, err = h.Users.CountAll(ctx); err != nil {
		return countError(c, err)
	}
	if stats.TotalSubscriptions, err = h.Subs.CountAll(ctx); err != nil {
		return countError(c, err)
	}
	if stats.ActiveSubscriptions, err = h.Subs.CountByStatus(ctx, model.SubActive); err != nil {
		return countError(c, err)
	}
	if stats.TrialSubscriptions, err = h.Subs.CountByStatus(ctx, model.SubTrial); err != nil {
		return countError(c, err)
	}
	if stats.BlockedSubscriptions, err = h.Subs.CountByStatus(ctx, model.SubBlocked); err != nil {
		return countError(c, err)
	}
	if stats.TotalAlerts, err = h.Alert.CountAll(ctx); err != nil {
		return countError(c, err)
	}
	if stats.PendingHelpMessages, err = h.Help.CountPending(ctx); err != nil {
		return countError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func countError(c echo.Context, err error) error {
	c.Logger().Errorf("admin stats: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats query failed"})
}

// ListUsers returns every account for the management table.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminUserPayload, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserPayload{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Neighborhood: u.Neighborhood,
			IsAdmin:      u.IsAdmin,
			IsVIP:        u.IsVIP,
			CreatedAt:    u.CreatedAt.Format(alertTimeLayout),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ListHelpMessages returns the whole support inbox, newest first.
func (h *AdminHandler) ListHelpMessages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Help.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]helpMessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, helpMessagePayload{
			ID:            m.ID,
			UserName:      m.UserName,
			UserEmail:     m.UserEmail,
			UserAddress:   m.UserAddress,
			Message:       m.Message,
			Status:        m.Status,
			CreatedAt:     m.CreatedAt.Format(alertTimeLayout),
			AdminResponse: m.AdminResponse,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// RespondHelpMessage stores the admin answer and resolves the message.
func (h *AdminHandler) RespondHelpMessage(c echo.Context) error {
	var req respondReq
	if err := c.Bind(&req); err != nil || req.Response == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Resposta é obrigatória"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Help.Respond(ctx, c.Param("id"), req.Response, time.Now().UTC())
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Mensagem não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Resposta enviada com sucesso"})
}

// SetAdmin flips admin/VIP flags for a user found by email. VIP granted
// here is permanent unless vip_permanent is false (a temporary expiry
// picker is a dashboard follow-up; both paths clear the expiry today).
func (h *AdminHandler) SetAdmin(c echo.Context) error {
	var req setAdminReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Users.SetRoles(ctx, req.Email, req.IsAdmin, req.IsVIP, nil)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Usuário não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	action := "removido de"
	if req.IsAdmin {
		action = "promovido a"
	}
	vipText := ""
	if req.IsVIP {
		vipText = " e VIP"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": fmt.Sprintf("Usuário %s %s admin%s com sucesso", req.Email, action, vipText),
	})
}
