package app

import (
	"sync"
	"time"
)

// GateState is the subscription gate's view of the account.
type GateState int

const (
	GateUnknown GateState = iota
	GateActive
	GateBlocked
)

func (s GateState) String() string {
	switch s {
	case GateActive:
		return "ACTIVE"
	case GateBlocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// NoticeLevel grades how loudly a notice should be surfaced.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeDestructive
)

// Notice is a dismissible message shown to the user. The zero value
// means "no notice".
type Notice struct {
	Level NoticeLevel
	Text  string
}

// ActiveAlert is the alert this user currently has in flight, kept only
// while the alert screen is up.
type ActiveAlert struct {
	ID           string
	Type         string
	UserName     string
	Street       string
	Number       string
	Neighborhood string
	StartedAt    time.Time
}

// stopFn cancels a background loop. Safe to call more than once.
type stopFn func()

// Store holds all client state behind one mutex. Every mutation
// recomputes the current screen through Route, so readers always see a
// screen consistent with the rest of the snapshot.
type Store struct {
	mu sync.Mutex

	token       string
	user        *User
	loginChoice Screen

	gate         GateState
	gateMessage  string
	subID        string
	needsPayment bool

	alert   *ActiveAlert
	history []Alert

	notice Notice
	screen Screen

	// cancellation handles for the background loops; nil when the loop
	// is not running
	stopStatusPoll stopFn
	stopNotifyPoll stopFn
	stopRetransmit stopFn
	stopAlarm      stopFn
}

// NewStore starts on the login screen with no session.
func NewStore() *Store {
	return &Store{loginChoice: ScreenLogin, screen: ScreenLogin}
}

// Snapshot is a read-only copy of the store for rendering and tests.
type Snapshot struct {
	Token        string
	User         *User
	Gate         GateState
	GateMessage  string
	Alert        *ActiveAlert
	History      []Alert
	Notice       Notice
	Screen       Screen
	NeedsPayment bool
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Token:        s.token,
		Gate:         s.gate,
		GateMessage:  s.gateMessage,
		History:      s.history,
		Notice:       s.notice,
		Screen:       s.screen,
		NeedsPayment: s.needsPayment,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.alert != nil {
		a := *s.alert
		snap.Alert = &a
	}
	return snap
}

// Screen returns the current screen.
func (s *Store) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// LastNotice returns the pending notice and clears it.
func (s *Store) LastNotice() Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = Notice{}
	return n
}

// ChooseScreen switches among the unauthenticated screens. Ignored when
// a session is active.
func (s *Store) ChooseScreen(choice Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch choice {
	case ScreenLogin, ScreenRegister, ScreenAdminLogin:
		s.loginChoice = choice
		s.reroute()
	}
}

// routeInput must be called with the lock held.
func (s *Store) routeInput() RouteInput {
	return RouteInput{
		Authenticated: s.token != "" && s.user != nil,
		IsAdmin:       s.user != nil && s.user.IsAdmin,
		Blocked:       s.gate == GateBlocked || s.needsPayment,
		AlertActive:   s.alert != nil,
		LoginChoice:   s.loginChoice,
	}
}

// reroute recomputes the screen. Must be called with the lock held.
func (s *Store) reroute() {
	s.screen = Route(s.routeInput())
}

func (s *Store) setNotice(level NoticeLevel, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = Notice{Level: level, Text: text}
}

// swapStop installs a new cancellation handle in *slot and returns the
// previous one so the caller can cancel it outside the lock.
func (s *Store) swapStop(slot *stopFn, next stopFn) stopFn {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := *slot
	*slot = next
	return prev
}
