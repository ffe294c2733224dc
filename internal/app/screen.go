package app

// Screen names the finite set of top-level views.
type Screen string

const (
	ScreenLogin          Screen = "login"
	ScreenRegister       Screen = "register"
	ScreenAdminLogin     Screen = "admin-login"
	ScreenPayment        Screen = "payment"
	ScreenMain           Screen = "main"
	ScreenAdminDashboard Screen = "admin-dashboard"
	ScreenAlert          Screen = "alert"
)

// RouteInput is everything the router is allowed to look at.
type RouteInput struct {
	// Authenticated is true when a validated token and a loaded user are
	// both present.
	Authenticated bool
	IsAdmin       bool
	// Blocked is true when the subscription gate is BLOCKED or the user
	// registered and has not paid yet.
	Blocked     bool
	AlertActive bool
	// LoginChoice picks among the unauthenticated screens: login,
	// register or admin-login. Ignored once authenticated.
	LoginChoice Screen
}

// Route maps state to a screen. Precedence: unauthenticated wins over
// everything, then admin, then blocked, then an active alert.
func Route(in RouteInput) Screen {
	if !in.Authenticated {
		switch in.LoginChoice {
		case ScreenRegister, ScreenAdminLogin:
			return in.LoginChoice
		default:
			return ScreenLogin
		}
	}
	if in.IsAdmin {
		return ScreenAdminDashboard
	}
	if in.Blocked {
		return ScreenPayment
	}
	if in.AlertActive {
		return ScreenAlert
	}
	return ScreenMain
}
