package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/juliovp13-web/SafeZone/internal/rates"
)

type failingProvider struct{}

func (failingProvider) Rates(context.Context) (rates.Table, error) {
	return nil, errors.New("rate service down")
}

func serveRates(t *testing.T, p rates.Provider) map[string]any {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/rates", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewRatesHandler(p).Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestRatesServesLiveTable(t *testing.T) {
	body := serveRates(t, rates.Static{Table: rates.Table{"BRL": 1.0, "USD": 0.2}})
	if body["source"] != "live" {
		t.Fatalf("source = %v, want live", body["source"])
	}
	table := body["rates"].(map[string]any)
	if table["USD"] != 0.2 {
		t.Fatalf("USD = %v, want 0.2", table["USD"])
	}
}

func TestRatesFallsBackWhenProviderFails(t *testing.T) {
	body := serveRates(t, failingProvider{})
	if body["source"] != "fallback" {
		t.Fatalf("source = %v, want fallback", body["source"])
	}
	table := body["rates"].(map[string]any)
	if table["BRL"] != 1.0 {
		t.Fatalf("BRL = %v, want 1.0", table["BRL"])
	}
}
