package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/juliovp13-web/SafeZone/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,state,city,neighborhood,street,number,country_code,resident_names,is_admin,is_vip,vip_expires_at,created_at"

// Create inserts a user and returns the generated uuid.
// resident_names is stored as a JSON array.
func (r *UserRepo) Create(ctx context.Context, u model.User, passwordHash string) (string, error) {
	id := uuid.NewString()
	names, err := json.Marshal(u.ResidentNames)
	if err != nil {
		return "", err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id,name,email,password_hash,state,city,neighborhood,street,number,country_code,resident_names,is_admin,is_vip,vip_expires_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		id, u.Name, strings.ToLower(strings.TrimSpace(u.Email)), passwordHash,
		u.State, u.City, u.Neighborhood, u.Street, u.Number, u.CountryCode, string(names),
		u.IsAdmin, u.IsVIP, u.VIPExpiresAt)
	if err != nil {
		// 1062 = duplicate key on the unique email index
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email))))
}

// GetByID fetches a user by uuid.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetRoles updates the admin/VIP flags for a user found by email.
// A nil expiry makes the VIP status permanent.
func (r *UserRepo) SetRoles(ctx context.Context, email string, isAdmin, isVIP bool, vipExpiresAt *time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_admin=?, is_vip=?, vip_expires_at=? WHERE email=?",
		isAdmin, isVIP, vipExpiresAt, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing user and for a no-op
		// update; distinguish with an existence probe.
		var one int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE email=? LIMIT 1",
			strings.ToLower(strings.TrimSpace(email))).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// ListAll returns every user, newest first. Used by the admin dashboard.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountAll returns the total number of users.
func (r *UserRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	return scanUser(row)
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		names   string
		vipExp  sql.NullTime
		created time.Time
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.State, &u.City, &u.Neighborhood, &u.Street, &u.Number, &u.CountryCode,
		&names, &u.IsAdmin, &u.IsVIP, &vipExp, &created)
	if err != nil {
		return model.User{}, err
	}
	if err := json.Unmarshal([]byte(names), &u.ResidentNames); err != nil {
		return model.User{}, err
	}
	if vipExp.Valid {
		t := vipExp.Time
		u.VIPExpiresAt = &t
	}
	u.CreatedAt = created
	return u, nil
}
