package app

import "context"

// placeholderSubID is sent to confirm-payment when no subscription id
// has been observed yet.
const placeholderSubID = "pending"

const failClosedMessage = "Não foi possível verificar sua assinatura. Acesso bloqueado por segurança."

// refreshStatus runs one subscription-status fetch and applies the
// result. A failed fetch counts as BLOCKED: the gate fails closed.
func (a *App) refreshStatus(ctx context.Context) {
	s := a.Store

	s.mu.Lock()
	if s.token == "" || s.user == nil {
		s.mu.Unlock()
		return
	}
	isVIP := s.user.IsVIP || s.user.IsAdmin
	s.mu.Unlock()

	// VIPs and admins bypass billing entirely.
	if isVIP {
		s.mu.Lock()
		s.gate = GateActive
		s.needsPayment = false
		s.reroute()
		s.mu.Unlock()
		return
	}

	st, err := a.API.SubscriptionStatus(ctx)
	if err != nil {
		a.Logger.Printf("gate: status fetch failed: %v", err)
		a.applyGate(GateBlocked, failClosedMessage, "")
		return
	}

	if st.SubscriptionID != "" {
		s.mu.Lock()
		s.subID = st.SubscriptionID
		s.mu.Unlock()
	}
	if st.IsBlocked {
		a.applyGate(GateBlocked, st.Message, st.SubscriptionID)
		return
	}
	a.applyGate(GateActive, st.Message, st.SubscriptionID)
}

// applyGate records the new gate state and handles the forced redirect:
// entering BLOCKED while on any paid-area screen drags the user to the
// payment screen with a destructive notice carrying the status message.
func (a *App) applyGate(next GateState, message, subID string) {
	s := a.Store
	s.mu.Lock()
	before := s.screen
	s.gate = next
	s.gateMessage = message
	if subID != "" {
		s.subID = subID
	}
	if next == GateActive {
		s.needsPayment = false
	}
	s.reroute()
	forced := next == GateBlocked &&
		before != ScreenLogin && before != ScreenRegister &&
		before != ScreenAdminLogin && before != ScreenPayment &&
		s.screen == ScreenPayment
	if forced {
		s.notice = Notice{Level: NoticeDestructive, Text: message}
	}
	s.mu.Unlock()
}

// ConfirmPayment reports a payment for the current subscription and, if
// the account comes back unblocked, returns the user to main.
func (a *App) ConfirmPayment(ctx context.Context, paymentMethod, transactionID string) error {
	s := a.Store
	s.mu.Lock()
	subID := s.subID
	s.mu.Unlock()
	if subID == "" {
		subID = placeholderSubID
	}

	if err := a.API.ConfirmPayment(ctx, subID, paymentMethod, transactionID); err != nil {
		return err
	}

	s.mu.Lock()
	s.needsPayment = false
	s.mu.Unlock()
	a.refreshStatus(ctx)
	return nil
}

// CreateSubscription opens a subscription with the chosen payment
// method and returns the server's payment instructions.
func (a *App) CreateSubscription(ctx context.Context, paymentMethod string) (map[string]any, error) {
	out, err := a.API.CreateSubscription(ctx, paymentMethod)
	if err != nil {
		return nil, err
	}
	a.refreshStatus(ctx)
	return out, nil
}
