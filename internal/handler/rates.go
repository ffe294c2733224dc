package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/juliovp13-web/SafeZone/internal/model"
	"github.com/juliovp13-web/SafeZone/internal/rates"
)

// RatesHandler serves the currency table used to display the monthly
// price in the viewer's language.
type RatesHandler struct {
	Provider rates.Provider
}

func NewRatesHandler(p rates.Provider) *RatesHandler { return &RatesHandler{Provider: p} }

// Get returns the conversion table with BRL base. On provider failure
// the static fallback is served; price display must always work.
func (h *RatesHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	source := "live"
	table, err := h.Provider.Rates(ctx)
	if err != nil {
		c.Logger().Warnf("rates: provider failed, using fallback: %v", err)
		table = rates.Fallback
		source = "fallback"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"base":              "BRL",
		"monthly_price_brl": model.MonthlyPriceBRL,
		"rates":             table,
		"source":            source,
	})
}
