package model

import (
	"fmt"
	"time"
)

// Subscription lifecycle statuses as stored in subscriptions.status.
const (
	SubTrial     = "trial"
	SubActive    = "active"
	SubOverdue   = "overdue"
	SubBlocked   = "blocked"
	SubCancelled = "cancelled"
	SubExpired   = "expired"
)

// Billing constants. Every plan is the same: 30 days free, then a
// monthly charge with a 5 day grace window before the app is blocked.
const (
	TrialPeriod     = 30 * 24 * time.Hour
	GracePeriod     = 5 * 24 * time.Hour
	BillingCycle    = 30 * 24 * time.Hour
	MonthlyPriceBRL = 30.00
)

// Subscription mirrors the `subscriptions` table.
type Subscription struct {
	ID              string     // subscriptions.id (uuid)
	UserID          string     // subscriptions.user_id
	PaymentMethod   string     // credit-card | pix | boleto
	Status          string     // one of the Sub* constants
	StartDate       time.Time  // subscriptions.start_date
	TrialEndDate    time.Time  // subscriptions.trial_end_date
	NextPayment     time.Time  // subscriptions.next_payment
	PaymentDueDate  *time.Time // subscriptions.payment_due_date (nullable)
	GracePeriodEnd  *time.Time // subscriptions.grace_period_end (nullable)
	IsTrial         bool       // subscriptions.is_trial
	AmountCents     int64      // subscriptions.amount_cents
	LastPaymentDate *time.Time // subscriptions.last_payment_date (nullable)
	BlockedAt       *time.Time // subscriptions.blocked_at (nullable)
	CreatedAt       time.Time  // subscriptions.created_at
}

// SubscriptionStatus is the derived state returned by
// GET /api/subscription-status. IsBlocked drives the client's forced
// redirect to the payment screen.
type SubscriptionStatus struct {
	HasSubscription bool   `json:"has_subscription"`
	Status          string `json:"status"`
	DaysRemaining   *int   `json:"days_remaining,omitempty"`
	IsBlocked       bool   `json:"is_blocked"`
	TrialEndDate    string `json:"trial_end_date,omitempty"`
	PaymentDueDate  string `json:"payment_due_date,omitempty"`
	GracePeriodEnd  string `json:"grace_period_end,omitempty"`
	Message         string `json:"message"`
	NeedsPayment    bool   `json:"needs_payment"`
	SubscriptionID  string `json:"subscription_id,omitempty"`
}

// StatusChange describes a lazy transition observed while deriving the
// status (trial running out, grace window expiring). The caller is
// expected to persist it so the stored row catches up with reality.
type StatusChange struct {
	Status         string
	PaymentDueDate *time.Time
	BlockedAt      *time.Time
}

const dateLayout = "02/01/2006"

// EvaluateSubscription derives the subscription status for a user at a
// given instant. It is a pure function: any transition it detects is
// reported through the returned StatusChange instead of being written
// anywhere. VIP users bypass billing entirely. A missing subscription
// blocks the app until one is created.
func EvaluateSubscription(u *User, sub *Subscription, now time.Time) (SubscriptionStatus, *StatusChange) {
	if u.VIPActive(now) {
		msg := "Status VIP ativo"
		if u.IsAdmin {
			msg = "Status VIP - Acesso liberado permanentemente!"
		}
		return SubscriptionStatus{
			HasSubscription: true,
			Status:          "vip",
			Message:         msg,
		}, nil
	}

	if sub == nil {
		return SubscriptionStatus{
			Status:       "none",
			IsBlocked:    true,
			Message:      "Nenhuma assinatura encontrada. Faça sua assinatura para usar o aplicativo.",
			NeedsPayment: true,
		}, nil
	}

	switch sub.Status {
	case SubTrial:
		if now.Before(sub.TrialEndDate) {
			days := daysUntil(now, sub.TrialEndDate)
			return SubscriptionStatus{
				HasSubscription: true,
				Status:          SubTrial,
				DaysRemaining:   &days,
				TrialEndDate:    sub.TrialEndDate.Format(dateLayout),
				Message:         fmt.Sprintf("Período gratuito! Restam %d dias até vencimento.", days),
				SubscriptionID:  sub.ID,
			}, nil
		}
		graceEnd := sub.TrialEndDate.Add(GracePeriod)
		if sub.GracePeriodEnd != nil {
			graceEnd = *sub.GracePeriodEnd
		}
		if now.Before(graceEnd) {
			days := daysUntil(now, graceEnd)
			return SubscriptionStatus{
					HasSubscription: true,
					Status:          SubOverdue,
					DaysRemaining:   &days,
					PaymentDueDate:  graceEnd.Format(dateLayout),
					GracePeriodEnd:  graceEnd.Format(dateLayout),
					Message:         fmt.Sprintf("Período de pagamento! Restam %d dias para pagar R$30,00.", days),
					NeedsPayment:    true,
					SubscriptionID:  sub.ID,
				}, &StatusChange{
					Status: SubOverdue,
				}
		}
		return blockedStatus(sub), blockChange(sub, now)

	case SubActive:
		if now.Before(sub.NextPayment) {
			days := daysUntil(now, sub.NextPayment)
			return SubscriptionStatus{
				HasSubscription: true,
				Status:          SubActive,
				DaysRemaining:   &days,
				Message:         fmt.Sprintf("Assinatura ativa! Próximo pagamento em %d dias.", days),
				SubscriptionID:  sub.ID,
			}, nil
		}
		graceEnd := sub.NextPayment.Add(GracePeriod)
		if now.Before(graceEnd) {
			days := daysUntil(now, graceEnd)
			return SubscriptionStatus{
					HasSubscription: true,
					Status:          SubOverdue,
					DaysRemaining:   &days,
					PaymentDueDate:  graceEnd.Format(dateLayout),
					Message:         fmt.Sprintf("Pagamento em atraso! Restam %d dias para pagar R$30,00.", days),
					NeedsPayment:    true,
					SubscriptionID:  sub.ID,
				}, &StatusChange{
					Status:         SubOverdue,
					PaymentDueDate: &graceEnd,
				}
		}
		return blockedStatus(sub), blockChange(sub, now)

	case SubOverdue:
		// An overdue row keeps its recorded grace window; either the
		// window is still open or the account gets blocked now.
		graceEnd := sub.NextPayment.Add(GracePeriod)
		if sub.PaymentDueDate != nil {
			graceEnd = *sub.PaymentDueDate
		}
		if now.Before(graceEnd) {
			days := daysUntil(now, graceEnd)
			return SubscriptionStatus{
				HasSubscription: true,
				Status:          SubOverdue,
				DaysRemaining:   &days,
				PaymentDueDate:  graceEnd.Format(dateLayout),
				Message:         fmt.Sprintf("Pagamento em atraso! Restam %d dias para pagar R$30,00.", days),
				NeedsPayment:    true,
				SubscriptionID:  sub.ID,
			}, nil
		}
		return blockedStatus(sub), blockChange(sub, now)

	case SubBlocked:
		return blockedStatus(sub), nil
	}

	return SubscriptionStatus{
		Status:       "unknown",
		IsBlocked:    true,
		Message:      "Status desconhecido. Entre em contato com o suporte.",
		NeedsPayment: true,
	}, nil
}

func blockedStatus(sub *Subscription) SubscriptionStatus {
	return SubscriptionStatus{
		HasSubscription: true,
		Status:          SubBlocked,
		IsBlocked:       true,
		Message:         "Assinatura bloqueada! Pague R$30,00 para reativar o aplicativo.",
		NeedsPayment:    true,
		SubscriptionID:  sub.ID,
	}
}

func blockChange(sub *Subscription, now time.Time) *StatusChange {
	if sub.Status == SubBlocked {
		return nil
	}
	return &StatusChange{Status: SubBlocked, BlockedAt: &now}
}

func daysUntil(now, t time.Time) int {
	d := int(t.Sub(now) / (24 * time.Hour))
	if d < 0 {
		return 0
	}
	return d
}
