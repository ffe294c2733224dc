package app

import (
	"context"
	"errors"

	"github.com/juliovp13-web/SafeZone/internal/model"
)

// ErrMissingFields is returned by Register before any network call when
// required fields are absent.
var ErrMissingFields = errors.New("name, email, password and address are required")

// ErrNoResidentNames is returned by Register when every resident name
// is blank.
var ErrNoResidentNames = errors.New("at least one resident name is required")

// Login authenticates, validates the token against the profile
// endpoint and starts the background pollers. Admins land on the
// dashboard, residents on main.
func (a *App) Login(ctx context.Context, email, password string) error {
	res, err := a.API.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.API.SetToken(res.AccessToken)

	// The login response already carries the user, but the profile
	// fetch is what validates the token end to end.
	u, err := a.API.Profile(ctx)
	if err != nil {
		a.API.SetToken("")
		return err
	}

	a.persistToken(res.AccessToken)
	a.installSession(res.AccessToken, u, false)

	a.refreshStatus(ctx)
	a.startPollers()
	if !u.IsAdmin {
		a.RefreshHistory(ctx)
	}
	return nil
}

// Register creates the account and routes straight to the payment
// screen; a fresh registration always starts unpaid. Blank resident
// names are filtered before the request goes out.
func (a *App) Register(ctx context.Context, req RegisterRequest) error {
	req.ResidentNames = model.FilterResidentNames(req.ResidentNames)
	if req.Name == "" || req.Email == "" || req.Password == "" ||
		req.Street == "" || req.Number == "" || req.Neighborhood == "" {
		return ErrMissingFields
	}
	if len(req.ResidentNames) == 0 {
		return ErrNoResidentNames
	}

	res, err := a.API.Register(ctx, req)
	if err != nil {
		return err
	}
	a.API.SetToken(res.AccessToken)
	a.persistToken(res.AccessToken)
	a.installSession(res.AccessToken, res.User, true)

	a.startPollers()
	return nil
}

// Logout tears the session down: every timer is cancelled, the token is
// cleared from memory and disk, and the screen returns to login.
func (a *App) Logout() {
	a.stopAllLoops()
	a.StopAlarm()

	a.API.SetToken("")
	if a.Tokens != nil {
		if err := a.Tokens.Clear(); err != nil {
			a.Logger.Printf("session: clear persisted token: %v", err)
		}
	}

	s := a.Store
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.gate = GateUnknown
	s.gateMessage = ""
	s.subID = ""
	s.needsPayment = false
	s.alert = nil
	s.history = nil
	s.notice = Notice{}
	s.loginChoice = ScreenLogin
	s.reroute()
	s.mu.Unlock()
}

// Restore revives a persisted token on startup. A failed profile fetch
// means the token is stale: it is discarded silently and the app stays
// on the login screen.
func (a *App) Restore(ctx context.Context) bool {
	if a.Tokens == nil {
		return false
	}
	tok, err := a.Tokens.Load()
	if err != nil || tok == "" {
		return false
	}

	a.API.SetToken(tok)
	u, err := a.API.Profile(ctx)
	if err != nil {
		a.API.SetToken("")
		if cerr := a.Tokens.Clear(); cerr != nil {
			a.Logger.Printf("session: clear stale token: %v", cerr)
		}
		return false
	}

	a.installSession(tok, u, false)
	a.refreshStatus(ctx)
	a.startPollers()
	if !u.IsAdmin {
		a.RefreshHistory(ctx)
	}
	return true
}

func (a *App) installSession(token string, u User, needsPayment bool) {
	s := a.Store
	s.mu.Lock()
	s.token = token
	s.user = &u
	s.needsPayment = needsPayment
	s.gate = GateUnknown
	s.reroute()
	s.mu.Unlock()
}

func (a *App) persistToken(token string) {
	if a.Tokens == nil {
		return
	}
	if err := a.Tokens.Save(token); err != nil {
		a.Logger.Printf("session: persist token: %v", err)
	}
}

func (a *App) startPollers() {
	iv := a.Intervals
	prev := a.Store.swapStop(&a.Store.stopStatusPoll, startLoop(iv.StatusPoll, func() {
		a.refreshStatus(context.Background())
	}))
	if prev != nil {
		prev()
	}
	prev = a.Store.swapStop(&a.Store.stopNotifyPoll, startLoop(iv.NotifyPoll, func() {
		a.pollNotifications(context.Background())
	}))
	if prev != nil {
		prev()
	}
}

func (a *App) stopAllLoops() {
	s := a.Store
	for _, slot := range []*stopFn{&s.stopStatusPoll, &s.stopNotifyPoll, &s.stopRetransmit} {
		if prev := s.swapStop(slot, nil); prev != nil {
			prev()
		}
	}
}
