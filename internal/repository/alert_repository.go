package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/juliovp13-web/SafeZone/internal/model"
)

type AlertRepo struct{ DB *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{DB: db} }

// Create stores the alert together with its emergency notification and
// per-user target rows in a single transaction, so neighbors are never
// notified about an alert that was not persisted (or vice versa).
// targetUserIDs must already exclude the requester.
func (r *AlertRepo) Create(ctx context.Context, a model.Alert, requesterAddress string, targetUserIDs []string) (model.Alert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Alert{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO alerts (id,type,user_id,user_name,state,city,neighborhood,street,number,timestamp,is_active) VALUES (?,?,?,?,?,?,?,?,?,?,1)",
		a.ID, string(a.Type), a.UserID, a.UserName,
		a.State, a.City, a.Neighborhood, a.Street, a.Number, a.Timestamp); err != nil {
		return model.Alert{}, err
	}

	notifID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO emergency_notifications (id,alert_id,alert_type,requester_name,requester_address,created_at) VALUES (?,?,?,?,?,?)",
		notifID, a.ID, string(a.Type), a.UserName, requesterAddress, a.Timestamp); err != nil {
		return model.Alert{}, err
	}
	for _, uid := range targetUserIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO emergency_notification_targets (notification_id,user_id) VALUES (?,?)",
			notifID, uid); err != nil {
			return model.Alert{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Alert{}, err
	}
	a.IsActive = true
	return a, nil
}

// ActiveByUser returns the caller's alert that is still active, or
// ErrNotFound when none is in flight. At most one row matches while
// alert creation goes through the refresh path.
func (r *AlertRepo) ActiveByUser(ctx context.Context, userID string) (model.Alert, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,type,user_id,user_name,state,city,neighborhood,street,number,timestamp,is_active FROM alerts WHERE user_id=? AND is_active=1 ORDER BY timestamp DESC LIMIT 1",
		userID)
	var (
		a   model.Alert
		typ string
	)
	err := row.Scan(&a.ID, &typ, &a.UserID, &a.UserName,
		&a.State, &a.City, &a.Neighborhood, &a.Street, &a.Number,
		&a.Timestamp, &a.IsActive)
	if err == sql.ErrNoRows {
		return model.Alert{}, ErrNotFound
	}
	if err != nil {
		return model.Alert{}, err
	}
	a.Type = model.AlertType(typ)
	return a, nil
}

// RefreshActive bumps an active alert's timestamp together with the
// freshness of its notifications, so a retransmission keeps neighbors
// alarmed without stacking duplicate alert rows.
func (r *AlertRepo) RefreshActive(ctx context.Context, alertID string, now time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE alerts SET timestamp=? WHERE id=? AND is_active=1", now, alertID)
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
	if _, err := tx.ExecContext(ctx,
		"UPDATE emergency_notifications SET created_at=? WHERE alert_id=?", now, alertID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListActiveByStreet returns the latest active alerts raised on a
// street, newest first.
func (r *AlertRepo) ListActiveByStreet(ctx context.Context, state, city, neighborhood, street string, limit int) ([]model.Alert, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,type,user_id,user_name,state,city,neighborhood,street,number,timestamp,is_active FROM alerts WHERE state=? AND city=? AND neighborhood=? AND street=? AND is_active=1 ORDER BY timestamp DESC LIMIT ?",
		state, city, neighborhood, street, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Alert
	for rows.Next() {
		var (
			a   model.Alert
			typ string
		)
		if err := rows.Scan(&a.ID, &typ, &a.UserID, &a.UserName,
			&a.State, &a.City, &a.Neighborhood, &a.Street, &a.Number,
			&a.Timestamp, &a.IsActive); err != nil {
			return nil, err
		}
		a.Type = model.AlertType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Deactivate stops an alert. Only the resident who raised it may stop
// it; ErrNotFound otherwise.
func (r *AlertRepo) Deactivate(ctx context.Context, alertID, userID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE alerts SET is_active=0 WHERE id=? AND user_id=? AND is_active=1",
		alertID, userID)
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

// FreshNotificationsFor returns notifications targeting the given user
// that were created after the cutoff and whose alert is still active.
// Clients poll this every few seconds to decide whether to sound the
// alarm.
func (r *AlertRepo) FreshNotificationsFor(ctx context.Context, userID string, cutoff time.Time) ([]model.EmergencyNotification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT n.id, n.alert_id, n.alert_type, n.requester_name, n.requester_address, n.created_at
		 FROM emergency_notifications n
		 JOIN emergency_notification_targets t ON t.notification_id = n.id
		 JOIN alerts a ON a.id = n.alert_id
		 WHERE t.user_id=? AND n.created_at>=? AND a.is_active=1
		 ORDER BY n.created_at DESC`,
		userID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EmergencyNotification
	for rows.Next() {
		var (
			n   model.EmergencyNotification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.AlertID, &typ, &n.RequesterName,
			&n.RequesterAddress, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.AlertType = model.AlertType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

// NeighborsOnStreet returns ids of every other user registered on the
// same street as the requester.
func (r *AlertRepo) NeighborsOnStreet(ctx context.Context, u model.User) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id FROM users WHERE state=? AND city=? AND neighborhood=? AND street=? AND id<>?",
		u.State, u.City, u.Neighborhood, u.Street, u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CountAll returns the total number of alerts ever raised.
func (r *AlertRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts").Scan(&n)
	return n, err
}
