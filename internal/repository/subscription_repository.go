package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/juliovp13-web/SafeZone/internal/model"
)

type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

const subColumns = "id,user_id,payment_method,status,start_date,trial_end_date,next_payment,payment_due_date,grace_period_end,is_trial,amount_cents,last_payment_date,blocked_at,created_at"

// Create inserts a trial subscription for a user. Only one
// non-cancelled subscription per user is allowed.
func (r *SubscriptionRepo) Create(ctx context.Context, userID, paymentMethod string, now time.Time) (model.Subscription, error) {
	if _, err := r.GetCurrentByUser(ctx, userID); err == nil {
		return model.Subscription{}, ErrSubscriptionExists
	} else if err != ErrNotFound {
		return model.Subscription{}, err
	}

	trialEnd := now.Add(model.TrialPeriod)
	paymentDue := trialEnd.Add(model.GracePeriod)
	sub := model.Subscription{
		ID:             uuid.NewString(),
		UserID:         userID,
		PaymentMethod:  paymentMethod,
		Status:         model.SubTrial,
		StartDate:      now,
		TrialEndDate:   trialEnd,
		NextPayment:    trialEnd,
		PaymentDueDate: &paymentDue,
		GracePeriodEnd: &paymentDue,
		IsTrial:        true,
		AmountCents:    int64(model.MonthlyPriceBRL * 100),
		CreatedAt:      now,
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO subscriptions (id,user_id,payment_method,status,start_date,trial_end_date,next_payment,payment_due_date,grace_period_end,is_trial,amount_cents) VALUES (?,?,?,?,?,?,?,?,?,?,?)",
		sub.ID, sub.UserID, sub.PaymentMethod, sub.Status, sub.StartDate,
		sub.TrialEndDate, sub.NextPayment, sub.PaymentDueDate, sub.GracePeriodEnd,
		sub.IsTrial, sub.AmountCents)
	if err != nil {
		return model.Subscription{}, err
	}
	return sub, nil
}

// GetCurrentByUser returns the user's live subscription, i.e. any row
// that is not cancelled or expired. ErrNotFound when there is none.
func (r *SubscriptionRepo) GetCurrentByUser(ctx context.Context, userID string) (model.Subscription, error) {
	return scanSubscription(r.DB.QueryRowContext(ctx,
		"SELECT "+subColumns+" FROM subscriptions WHERE user_id=? AND status NOT IN (?,?) ORDER BY created_at DESC LIMIT 1",
		userID, model.SubCancelled, model.SubExpired))
}

// GetByIDForUser returns a subscription only when it belongs to the
// given user.
func (r *SubscriptionRepo) GetByIDForUser(ctx context.Context, id, userID string) (model.Subscription, error) {
	return scanSubscription(r.DB.QueryRowContext(ctx,
		"SELECT "+subColumns+" FROM subscriptions WHERE id=? AND user_id=? LIMIT 1",
		id, userID))
}

// ApplyChange persists a lazy status transition detected while deriving
// the subscription status.
func (r *SubscriptionRepo) ApplyChange(ctx context.Context, id string, ch model.StatusChange) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE subscriptions SET status=?, payment_due_date=COALESCE(?,payment_due_date), blocked_at=COALESCE(?,blocked_at) WHERE id=?",
		ch.Status, ch.PaymentDueDate, ch.BlockedAt, id)
	return err
}

// ConfirmPayment reactivates a subscription: the row becomes active,
// the next charge is scheduled one billing cycle ahead and any block is
// lifted.
func (r *SubscriptionRepo) ConfirmPayment(ctx context.Context, id string, now time.Time) error {
	next := now.Add(model.BillingCycle)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE subscriptions SET status=?, last_payment_date=?, next_payment=?, is_trial=0, blocked_at=NULL WHERE id=?",
		model.SubActive, now, next, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Cancel marks the subscription cancelled.
func (r *SubscriptionRepo) Cancel(ctx context.Context, id string, now time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE subscriptions SET status=?, cancelled_at=? WHERE id=?",
		model.SubCancelled, now, id)
	return err
}

// CountAll returns the total number of subscriptions ever created.
func (r *SubscriptionRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions").Scan(&n)
	return n, err
}

// CountByStatus returns the number of subscriptions in a given status.
func (r *SubscriptionRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE status=?", status).Scan(&n)
	return n, err
}

func scanSubscription(row *sql.Row) (model.Subscription, error) {
	var (
		s          model.Subscription
		paymentDue sql.NullTime
		graceEnd   sql.NullTime
		lastPay    sql.NullTime
		blockedAt  sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &s.PaymentMethod, &s.Status,
		&s.StartDate, &s.TrialEndDate, &s.NextPayment,
		&paymentDue, &graceEnd, &s.IsTrial, &s.AmountCents,
		&lastPay, &blockedAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Subscription{}, ErrNotFound
	}
	if err != nil {
		return model.Subscription{}, err
	}
	if paymentDue.Valid {
		t := paymentDue.Time
		s.PaymentDueDate = &t
	}
	if graceEnd.Valid {
		t := graceEnd.Time
		s.GracePeriodEnd = &t
	}
	if lastPay.Valid {
		t := lastPay.Time
		s.LastPaymentDate = &t
	}
	if blockedAt.Valid {
		t := blockedAt.Time
		s.BlockedAt = &t
	}
	return s, nil
}
