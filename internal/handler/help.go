package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/juliovp13-web/SafeZone/internal/middleware"
	"github.com/juliovp13-web/SafeZone/internal/model"
	"github.com/juliovp13-web/SafeZone/internal/repository"
)

// HelpHandler bundles dependencies for the support inbox.
type HelpHandler struct {
	Users *repository.UserRepo
	Help  *repository.HelpRepo
}

func NewHelpHandler(u *repository.UserRepo, h *repository.HelpRepo) *HelpHandler {
	return &HelpHandler{Users: u, Help: h}
}

type helpReq struct {
	Message string `json:"message"`
}

// Send stores a support message from the authenticated resident.
func (h *HelpHandler) Send(c echo.Context) error {
	var req helpReq
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
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

	if _, err := h.Help.Create(ctx, model.HelpMessage{
		UserID:      u.ID,
		UserName:    u.Name,
		UserEmail:   u.Email,
		UserAddress: u.FullAddress(),
		Message:     req.Message,
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save message failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Sua mensagem foi enviada com sucesso! Nossa equipe responderá em breve.",
	})
}
