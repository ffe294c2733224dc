package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeAPI is an in-process stand-in for the SafeZone server. It records
// every call it receives and lets tests flip the subscription status
// between healthy, blocked and failing.
type fakeAPI struct {
	mu sync.Mutex

	calls        []string
	user         User
	statusFail   bool
	statusBody   SubscriptionStatus
	lastRegister RegisterRequest
	notifs       []Notification
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		u := f.user
		f.mu.Unlock()
		writeJSON(w, AuthResult{User: u, AccessToken: "t1", TokenType: "bearer"})
	})
	mux.HandleFunc("/api/register", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		json.Unmarshal(raw, &f.lastRegister)
		u := f.user
		f.mu.Unlock()
		writeJSON(w, AuthResult{User: u, AccessToken: "t1", TokenType: "bearer"})
	})
	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.Header.Get("Authorization") != "Bearer t1" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"error": "invalid token"})
			return
		}
		f.mu.Lock()
		u := f.user
		f.mu.Unlock()
		writeJSON(w, u)
	})
	mux.HandleFunc("/api/subscription-status", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		fail, body := f.statusFail, f.statusBody
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"error": "status unavailable"})
			return
		}
		writeJSON(w, body)
	})
	mux.HandleFunc("/api/confirm-payment", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.Method == http.MethodPost {
			writeJSON(w, AlertAck{Message: "ok", AlertID: "alert-1", NotificationSentTo: 2})
			return
		}
		writeJSON(w, []Alert{})
	})
	mux.HandleFunc("/api/alerts/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, map[string]string{"message": "stopped"})
	})
	mux.HandleFunc("/api/emergency-notifications", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		ns := f.notifs
		f.mu.Unlock()
		if ns == nil {
			ns = []Notification{}
		}
		writeJSON(w, ns)
	})

	return mux
}

// recordingSounder captures alarm tones for inspection.
type recordingSounder struct {
	mu       sync.Mutex
	tones    []int
	silenced int
}

func (s *recordingSounder) Tone(freqHz int, d time.Duration) {
	s.mu.Lock()
	s.tones = append(s.tones, freqHz)
	s.mu.Unlock()
}

func (s *recordingSounder) Silence() {
	s.mu.Lock()
	s.silenced++
	s.mu.Unlock()
}

func (s *recordingSounder) snapshot() ([]int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.tones...), s.silenced
}

func newTestApp(t *testing.T, f *fakeAPI) (*App, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	a := New(NewAPIClient(srv.URL), &MemoryTokenStore{}, &recordingSounder{}, log.New(io.Discard, "", 0))
	a.Intervals = Intervals{
		StatusPoll: time.Hour, // ticks driven by hand in tests
		NotifyPoll: time.Hour,
		Retransmit: 10 * time.Millisecond,
		AlarmTone:  5 * time.Millisecond,
		AlarmMax:   time.Hour,
	}
	t.Cleanup(a.Logout)
	return a, srv
}

func resident() User {
	return User{
		ID:            "user-1",
		Name:          "Conta",
		Email:         "a@b.com",
		Street:        "Rua das Flores",
		Number:        "10",
		Neighborhood:  "Centro",
		City:          "São Paulo",
		State:         "SP",
		ResidentNames: []string{"Maria", "José"},
	}
}

func healthyStatus() SubscriptionStatus {
	return SubscriptionStatus{
		HasSubscription: true,
		Status:          "trial",
		Message:         "Período gratuito!",
		SubscriptionID:  "sub-1",
	}
}

func TestLoginRoutesToMainAndFetchesAlerts(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := a.Store.Screen(); got != ScreenMain {
		t.Fatalf("screen = %q, want main", got)
	}
	if f.count("GET /api/alerts") == 0 {
		t.Fatal("login must be followed by an alert history fetch")
	}
}

func TestLoginThenLogoutLeavesNoToken(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	a.Logout()

	if a.API.Token() != "" {
		t.Fatal("api client still holds a token after logout")
	}
	if tok, _ := a.Tokens.Load(); tok != "" {
		t.Fatal("persisted token survives logout")
	}
	snap := a.Store.Snapshot()
	if snap.Token != "" || snap.User != nil {
		t.Fatalf("session state survives logout: %+v", snap)
	}
	if snap.Screen != ScreenLogin {
		t.Fatalf("screen = %q, want login", snap.Screen)
	}
}

func TestLogoutWhilePollersAreMidRequest(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)
	a.Intervals.StatusPoll = time.Millisecond
	a.Intervals.NotifyPoll = time.Millisecond

	// Logout rewrites the shared token while poll ticks are in flight;
	// run the cycle repeatedly so the race detector gets its chances.
	for i := 0; i < 20; i++ {
		if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
			t.Fatalf("Login %d: %v", i, err)
		}
		time.Sleep(3 * time.Millisecond)
		a.Logout()
	}

	if a.API.Token() != "" {
		t.Fatal("token survives logout")
	}
	if got := a.Store.Screen(); got != ScreenLogin {
		t.Fatalf("screen = %q, want login", got)
	}
}

func TestAdminLoginRoutesToDashboard(t *testing.T) {
	admin := resident()
	admin.IsAdmin = true
	f := &fakeAPI{user: admin, statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "admin@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := a.Store.Screen(); got != ScreenAdminDashboard {
		t.Fatalf("screen = %q, want admin-dashboard", got)
	}
}

func TestStatusFetchFailureIsFailClosed(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.mu.Lock()
	f.statusFail = true
	f.mu.Unlock()

	// any number of consecutive failures leaves the gate blocked
	for i := 0; i < 3; i++ {
		a.refreshStatus(context.Background())
		snap := a.Store.Snapshot()
		if snap.Gate != GateBlocked {
			t.Fatalf("after %d failures gate = %v, want BLOCKED", i+1, snap.Gate)
		}
		if snap.Screen != ScreenPayment {
			t.Fatalf("after %d failures screen = %q, want payment", i+1, snap.Screen)
		}
	}
}

func TestBlockedStatusForcesPaymentWithNotice(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := a.Store.Screen(); got != ScreenMain {
		t.Fatalf("precondition: screen = %q, want main", got)
	}
	a.Store.LastNotice() // drop anything from login

	f.mu.Lock()
	f.statusBody = SubscriptionStatus{HasSubscription: true, Status: "blocked", IsBlocked: true, Message: "Expired"}
	f.mu.Unlock()

	a.refreshStatus(context.Background())

	if got := a.Store.Screen(); got != ScreenPayment {
		t.Fatalf("screen = %q, want payment", got)
	}
	n := a.Store.LastNotice()
	if n.Level != NoticeDestructive || n.Text != "Expired" {
		t.Fatalf("notice = %+v, want destructive %q", n, "Expired")
	}
}

func TestRegisterFiltersBlankResidentNames(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	err := a.Register(context.Background(), RegisterRequest{
		Name:          "Conta",
		Email:         "a@b.com",
		Password:      "x",
		Street:        "Rua das Flores",
		Number:        "10",
		Neighborhood:  "Centro",
		ResidentNames: []string{"Maria", "", "José"}, // 3 slots, 2 filled
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	f.mu.Lock()
	sent := f.lastRegister.ResidentNames
	f.mu.Unlock()
	if len(sent) != 2 || sent[0] != "Maria" || sent[1] != "José" {
		t.Fatalf("sent resident names %v, want [Maria José]", sent)
	}

	// a fresh registration always starts on the payment screen
	if got := a.Store.Screen(); got != ScreenPayment {
		t.Fatalf("screen = %q, want payment", got)
	}
}

func TestRegisterRejectsAllBlankResidentNames(t *testing.T) {
	f := &fakeAPI{user: resident()}
	a, _ := newTestApp(t, f)

	err := a.Register(context.Background(), RegisterRequest{
		Name:          "Conta",
		Email:         "a@b.com",
		Password:      "x",
		Street:        "Rua das Flores",
		Number:        "10",
		Neighborhood:  "Centro",
		ResidentNames: []string{"", "  "},
	})
	if err != ErrNoResidentNames {
		t.Fatalf("err = %v, want ErrNoResidentNames", err)
	}
	if f.count("POST /api/register") != 0 {
		t.Fatal("invalid registration must not reach the network")
	}
}

func TestSendAlertThenStopCancelsRetransmission(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.SendAlert(context.Background(), "emergência"); err != nil {
		t.Fatalf("SendAlert: %v", err)
	}
	if got := a.Store.Screen(); got != ScreenAlert {
		t.Fatalf("screen = %q, want alert", got)
	}

	// let a few retransmissions happen
	time.Sleep(50 * time.Millisecond)
	if f.count("POST /api/alerts") < 2 {
		t.Fatal("no retransmission observed while the alert is active")
	}

	a.StopAlert(context.Background())

	if got := a.Store.Screen(); got != ScreenMain {
		t.Fatalf("screen = %q, want main after stop", got)
	}
	if f.count("PUT /api/alerts/alert-1/stop") == 0 {
		t.Fatal("server was not told to deactivate the alert")
	}

	time.Sleep(20 * time.Millisecond) // drain any in-flight retransmit
	before := f.count("POST /api/alerts")
	time.Sleep(50 * time.Millisecond)
	if after := f.count("POST /api/alerts"); after != before {
		t.Fatalf("retransmission continued after stop: %d -> %d", before, after)
	}
}

func TestSendAlertFailureStaysIdle(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, srv := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	srv.Close() // initial POST fails
	if err := a.SendAlert(context.Background(), "roubo"); err == nil {
		t.Fatal("want error when the initial send fails")
	}
	snap := a.Store.Snapshot()
	if snap.Alert != nil {
		t.Fatal("alert state set despite failed send")
	}
	if snap.Screen == ScreenAlert {
		t.Fatal("screen switched to alert despite failed send")
	}
}

func TestSendAlertRejectsUnknownType(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.SendAlert(context.Background(), "fire"); err == nil {
		t.Fatal("unknown alert type must be rejected")
	}
	if f.count("POST /api/alerts") != 0 {
		t.Fatal("invalid type must not reach the network")
	}
}

func TestNotificationPollTriggersAlarm(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	a.Store.LastNotice()

	f.mu.Lock()
	f.notifs = []Notification{{
		ID:               "n1",
		AlertID:          "alert-9",
		AlertType:        "emergência",
		RequesterName:    "Vizinho",
		RequesterAddress: "Rua das Flores, 12",
	}}
	f.mu.Unlock()

	a.pollNotifications(context.Background())

	n := a.Store.LastNotice()
	if n.Text == "" {
		t.Fatal("notification did not surface a notice")
	}

	time.Sleep(30 * time.Millisecond)
	snd := a.Sounder.(*recordingSounder)
	tones, _ := snd.snapshot()
	if len(tones) < 2 {
		t.Fatalf("alarm produced %d tones, want an alternating loop", len(tones))
	}

	a.StopAlarm()
	time.Sleep(20 * time.Millisecond)
	tonesAfterStop, silenced := snd.snapshot()
	if silenced == 0 {
		t.Fatal("dismissing the alarm must silence the sounder")
	}
	time.Sleep(20 * time.Millisecond)
	tonesLater, _ := snd.snapshot()
	if len(tonesLater) != len(tonesAfterStop) {
		t.Fatal("alarm kept playing after dismissal")
	}
}

func TestAlarmAutoStopsAtCap(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)
	a.Intervals.AlarmMax = 25 * time.Millisecond

	a.StartAlarm()
	time.Sleep(60 * time.Millisecond)

	snd := a.Sounder.(*recordingSounder)
	tones, silenced := snd.snapshot()
	if silenced == 0 {
		t.Fatal("alarm did not auto-stop at the cap")
	}
	n := len(tones)
	time.Sleep(20 * time.Millisecond)
	tones, _ = snd.snapshot()
	if len(tones) != n {
		t.Fatal("alarm kept playing past the cap")
	}
}

func TestAlarmTonesAlternate(t *testing.T) {
	f := &fakeAPI{user: resident()}
	a, _ := newTestApp(t, f)

	a.StartAlarm()
	time.Sleep(30 * time.Millisecond)
	a.StopAlarm()

	tones, _ := a.Sounder.(*recordingSounder).snapshot()
	if len(tones) < 3 {
		t.Fatalf("only %d tones recorded", len(tones))
	}
	for i := 1; i < len(tones); i++ {
		if tones[i] == tones[i-1] {
			t.Fatalf("tones %d and %d did not alternate: %v", i-1, i, tones)
		}
	}
}

func TestRestoreWithStaleTokenClearsIt(t *testing.T) {
	f := &fakeAPI{user: resident()}
	a, _ := newTestApp(t, f)

	a.Tokens.Save("stale-token") // profile fetch will 401

	if a.Restore(context.Background()) {
		t.Fatal("stale token must not restore a session")
	}
	if tok, _ := a.Tokens.Load(); tok != "" {
		t.Fatal("stale token not cleared")
	}
	if got := a.Store.Screen(); got != ScreenLogin {
		t.Fatalf("screen = %q, want login", got)
	}
}

func TestRestoreWithValidToken(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: healthyStatus()}
	a, _ := newTestApp(t, f)

	a.Tokens.Save("t1")

	if !a.Restore(context.Background()) {
		t.Fatal("valid token must restore the session")
	}
	if got := a.Store.Screen(); got != ScreenMain {
		t.Fatalf("screen = %q, want main", got)
	}
}

func TestConfirmPaymentUnblocksAndReturnsToMain(t *testing.T) {
	f := &fakeAPI{user: resident(), statusBody: SubscriptionStatus{
		HasSubscription: true, Status: "blocked", IsBlocked: true, Message: "Expired", SubscriptionID: "sub-1",
	}}
	a, _ := newTestApp(t, f)

	if err := a.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := a.Store.Screen(); got != ScreenPayment {
		t.Fatalf("precondition: screen = %q, want payment", got)
	}

	f.mu.Lock()
	f.statusBody = healthyStatus()
	f.mu.Unlock()

	if err := a.ConfirmPayment(context.Background(), "pix", "tx-1"); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if got := a.Store.Screen(); got != ScreenMain {
		t.Fatalf("screen = %q, want main after successful payment", got)
	}
}
