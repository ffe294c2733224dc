package app

import "testing"

func TestRoutePrecedence(t *testing.T) {
	cases := []struct {
		name string
		in   RouteInput
		want Screen
	}{
		{"no session", RouteInput{}, ScreenLogin},
		{"no session, register chosen", RouteInput{LoginChoice: ScreenRegister}, ScreenRegister},
		{"no session, admin login chosen", RouteInput{LoginChoice: ScreenAdminLogin}, ScreenAdminLogin},
		{"no session ignores other state", RouteInput{IsAdmin: true, Blocked: true, AlertActive: true}, ScreenLogin},
		{"resident", RouteInput{Authenticated: true}, ScreenMain},
		{"admin beats everything", RouteInput{Authenticated: true, IsAdmin: true, Blocked: true, AlertActive: true}, ScreenAdminDashboard},
		{"blocked beats alert", RouteInput{Authenticated: true, Blocked: true, AlertActive: true}, ScreenPayment},
		{"active alert", RouteInput{Authenticated: true, AlertActive: true}, ScreenAlert},
		{"login choice ignored once authenticated", RouteInput{Authenticated: true, LoginChoice: ScreenRegister}, ScreenMain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Route(tc.in); got != tc.want {
				t.Fatalf("Route(%+v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
