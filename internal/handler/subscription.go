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

// Payment collateral returned when a subscription is created. The PIX
// code and boleto URL are placeholders handed to the real payment
// gateway integration.
const (
	pixCode        = "09b74dd4-64da-4563-b769-95cec83659f0"
	boletoURL      = "https://exemplo.com/boleto/123456"
	cardPaymentURL = "link.mercadopago.com.br/hopez"
)

// SubscriptionHandler bundles dependencies for billing endpoints.
type SubscriptionHandler struct {
	Users *repository.UserRepo
	Subs  *repository.SubscriptionRepo
}

func NewSubscriptionHandler(u *repository.UserRepo, s *repository.SubscriptionRepo) *SubscriptionHandler {
	return &SubscriptionHandler{Users: u, Subs: s}
}

type createSubscriptionReq struct {
	PaymentMethod string `json:"paymentMethod"`
	CardNumber    string `json:"cardNumber,omitempty"`
	CardName      string `json:"cardName,omitempty"`
	CardExpiry    string `json:"cardExpiry,omitempty"`
	CardCvv       string `json:"cardCvv,omitempty"`
}

type paymentResp struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PaymentURL string `json:"payment_url,omitempty"`
	PixCode    string `json:"pix_code,omitempty"`
	BoletoURL  string `json:"boleto_url,omitempty"`
	SwiftCode  string `json:"swift_code,omitempty"`
}

type confirmPaymentReq struct {
	SubscriptionID string `json:"subscription_id"`
	PaymentMethod  string `json:"payment_method"`
	TransactionID  string `json:"transaction_id"`
}

// Create starts the 30-day trial subscription for the caller.
func (h *SubscriptionHandler) Create(c echo.Context) error {
	var req createSubscriptionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.PaymentMethod {
	case "credit-card", "pix", "boleto":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment method"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err := h.Subs.Create(ctx, middleware.UserID(c), req.PaymentMethod, time.Now().UTC())
	if err != nil {
		if err == repository.ErrSubscriptionExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Usuário já possui assinatura ativa"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create subscription failed"})
	}

	resp := paymentResp{Success: true, Message: "Assinatura criada com sucesso! Período gratuito de 30 dias iniciado."}
	switch req.PaymentMethod {
	case "pix":
		resp.PixCode = pixCode
		resp.Message = "Assinatura criada! Você terá 30 dias gratuitos. Use este código PIX quando necessário."
	case "boleto":
		resp.BoletoURL = boletoURL
		resp.Message = "Assinatura criada! Você terá 30 dias gratuitos. Boleto disponível quando necessário."
	case "credit-card":
		resp.PaymentURL = cardPaymentURL
		resp.Message = "Assinatura criada! Você terá 30 dias gratuitos. Cartão será cobrado após o período."
	}
	return c.JSON(http.StatusOK, resp)
}

// Status derives the caller's subscription state. Transitions observed
// along the way (trial run out, grace window expired) are persisted
// before responding, so the stored row never lags more than one read
// behind.
func (h *SubscriptionHandler) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var subPtr *model.Subscription
	sub, err := h.Subs.GetCurrentByUser(ctx, u.ID)
	switch err {
	case nil:
		subPtr = &sub
	case repository.ErrNotFound:
		// derived status handles the missing-subscription case
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	status, change := model.EvaluateSubscription(&u, subPtr, time.Now().UTC())
	if change != nil && subPtr != nil {
		if err := h.Subs.ApplyChange(ctx, subPtr.ID, *change); err != nil {
			c.Logger().Warnf("subscription: persist transition failed for %s: %v", subPtr.ID, err)
		}
	}
	return c.JSON(http.StatusOK, status)
}

// ConfirmPayment reactivates a subscription after a successful charge.
func (h *SubscriptionHandler) ConfirmPayment(c echo.Context) error {
	var req confirmPaymentReq
	if err := c.Bind(&req); err != nil || req.SubscriptionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subscription_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sub, err := h.Subs.GetByIDForUser(ctx, req.SubscriptionID, middleware.UserID(c))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Assinatura não encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Subs.ConfirmPayment(ctx, sub.ID, time.Now().UTC()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm payment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Pagamento confirmado! Assinatura reativada com sucesso.",
	})
}

// Cancel ends the caller's subscription. VIP accounts have nothing to
// cancel.
func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.VIPActive(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Usuários VIP não possuem assinatura para cancelar"})
	}

	sub, err := h.Subs.GetCurrentByUser(ctx, u.ID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Nenhuma assinatura ativa encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Subs.Cancel(ctx, sub.ID, time.Now().UTC()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Assinatura cancelada com sucesso"})
}
