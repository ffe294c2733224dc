package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/juliovp13-web/SafeZone/internal/model"
)

type HelpRepo struct{ DB *sql.DB }

func NewHelpRepo(db *sql.DB) *HelpRepo { return &HelpRepo{DB: db} }

// Create stores a support message sent from inside the app.
func (r *HelpRepo) Create(ctx context.Context, m model.HelpMessage) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO help_messages (id,user_id,user_name,user_email,user_address,message,status) VALUES (?,?,?,?,?,?,?)",
		id, m.UserID, m.UserName, m.UserEmail, m.UserAddress, m.Message, model.HelpPending)
	return id, err
}

// ListAll returns every help message, newest first, for admin review.
func (r *HelpRepo) ListAll(ctx context.Context) ([]model.HelpMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,user_name,user_email,user_address,message,status,admin_response,resolved_at,created_at FROM help_messages ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HelpMessage
	for rows.Next() {
		var (
			m        model.HelpMessage
			response sql.NullString
			resolved sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.UserName, &m.UserEmail,
			&m.UserAddress, &m.Message, &m.Status, &response, &resolved, &m.CreatedAt); err != nil {
			return nil, err
		}
		if response.Valid {
			s := response.String
			m.AdminResponse = &s
		}
		if resolved.Valid {
			t := resolved.Time
			m.ResolvedAt = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Respond stores the admin answer and marks the message resolved.
func (r *HelpRepo) Respond(ctx context.Context, id, response string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE help_messages SET admin_response=?, status=?, resolved_at=? WHERE id=?",
		response, model.HelpResolved, now, id)
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

// CountPending returns the number of unanswered messages.
func (r *HelpRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM help_messages WHERE status=?", model.HelpPending).Scan(&n)
	return n, err
}
