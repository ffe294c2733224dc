package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/juliovp13-web/SafeZone/internal/model"
	"github.com/juliovp13-web/SafeZone/internal/queue"
	"github.com/juliovp13-web/SafeZone/internal/repository"
)

type fakeUsers struct{ user model.User }

func (f *fakeUsers) GetByID(ctx context.Context, id string) (model.User, error) {
	return f.user, nil
}

// fakeAlertStore keeps alerts in memory and records refreshes.
type fakeAlertStore struct {
	alerts    []model.Alert
	refreshed []string
	neighbors []string
}

func (f *fakeAlertStore) Create(ctx context.Context, a model.Alert, requesterAddress string, targetUserIDs []string) (model.Alert, error) {
	a.ID = uuid.NewString()
	a.IsActive = true
	f.alerts = append(f.alerts, a)
	return a, nil
}

func (f *fakeAlertStore) ActiveByUser(ctx context.Context, userID string) (model.Alert, error) {
	for _, a := range f.alerts {
		if a.UserID == userID && a.IsActive {
			return a, nil
		}
	}
	return model.Alert{}, repository.ErrNotFound
}

func (f *fakeAlertStore) RefreshActive(ctx context.Context, alertID string, now time.Time) error {
	for i, a := range f.alerts {
		if a.ID == alertID && a.IsActive {
			f.alerts[i].Timestamp = now
			f.refreshed = append(f.refreshed, alertID)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAlertStore) ListActiveByStreet(ctx context.Context, state, city, neighborhood, street string, limit int) ([]model.Alert, error) {
	var out []model.Alert
	for _, a := range f.alerts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) Deactivate(ctx context.Context, alertID, userID string) error {
	for i, a := range f.alerts {
		if a.ID == alertID && a.UserID == userID && a.IsActive {
			f.alerts[i].IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAlertStore) FreshNotificationsFor(ctx context.Context, userID string, cutoff time.Time) ([]model.EmergencyNotification, error) {
	return nil, nil
}

func (f *fakeAlertStore) NeighborsOnStreet(ctx context.Context, u model.User) ([]string, error) {
	return f.neighbors, nil
}

func alertTestUser() model.User {
	return model.User{
		ID:            "user-1",
		Name:          "Conta",
		State:         "SP",
		City:          "São Paulo",
		Neighborhood:  "Centro",
		Street:        "Rua das Flores",
		Number:        "10",
		ResidentNames: []string{"Maria"},
	}
}

func postAlert(t *testing.T, h *AlertHandler, wireType string) map[string]any {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/alerts",
		strings.NewReader(`{"type":"`+wireType+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user-1")

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestCreateAlertReusesActiveRowOnRetransmission(t *testing.T) {
	store := &fakeAlertStore{neighbors: []string{"user-2", "user-3"}}
	published := 0
	h := NewAlertHandler(&fakeUsers{user: alertTestUser()}, store,
		func(ctx context.Context, ev queue.AlertRaisedEvent) error {
			published++
			return nil
		})

	first := postAlert(t, h, "emergência")
	second := postAlert(t, h, "emergência")
	third := postAlert(t, h, "emergência")

	if len(store.alerts) != 1 {
		t.Fatalf("%d alert rows stored, want 1", len(store.alerts))
	}
	if second["alert_id"] != first["alert_id"] || third["alert_id"] != first["alert_id"] {
		t.Fatalf("retransmission changed alert id: %v / %v / %v",
			first["alert_id"], second["alert_id"], third["alert_id"])
	}
	if len(store.refreshed) != 2 {
		t.Fatalf("%d refreshes recorded, want 2", len(store.refreshed))
	}
	if published != 1 {
		t.Fatalf("%d events published, want 1 (first send only)", published)
	}
	if second["notification_sent_to"] != float64(2) {
		t.Fatalf("notification_sent_to = %v, want 2", second["notification_sent_to"])
	}
}

func TestCreateAlertAfterStopStartsFresh(t *testing.T) {
	store := &fakeAlertStore{}
	h := NewAlertHandler(&fakeUsers{user: alertTestUser()}, store, nil)

	first := postAlert(t, h, "roubo")
	if err := store.Deactivate(context.Background(), first["alert_id"].(string), "user-1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	second := postAlert(t, h, "roubo")
	if second["alert_id"] == first["alert_id"] {
		t.Fatal("stopped alert was reused instead of creating a new one")
	}
	if len(store.alerts) != 2 {
		t.Fatalf("%d alert rows stored, want 2 (one stopped, one active)", len(store.alerts))
	}
	active, err := store.ActiveByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ActiveByUser: %v", err)
	}
	if active.ID != second["alert_id"] {
		t.Fatalf("active alert = %s, want %v", active.ID, second["alert_id"])
	}
}
