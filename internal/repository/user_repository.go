package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// UserRepo persists café/restaurant accounts.
type UserRepo struct {
	DB    *sql.DB
	NewID utils.IDGenerator
}

func NewUserRepo(db *sql.DB, ids utils.IDGenerator) *UserRepo {
	return &UserRepo{DB: db, NewID: ids}
}

const userColumns = "id, unique_id, name, email, mobile, password_hash, created_at, updated_at"

// Create inserts a user with a freshly generated unique id and a bcrypt hash
// of the supplied password. On success u.UniqueID is populated.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Mobile = strings.TrimSpace(u.Mobile)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.UniqueID = r.NewID()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (unique_id, name, email, mobile, password_hash) VALUES (?,?,?,?,?)",
		u.UniqueID, u.Name, u.Email, u.Mobile, hash)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByLoginID fetches a user by email or mobile number; the same column set
// backs both login types.
func (r *UserRepo) GetByLoginID(ctx context.Context, loginID string) (model.User, error) {
	loginID = strings.TrimSpace(loginID)
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR mobile=? LIMIT 1",
		strings.ToLower(loginID), loginID).
		Scan(&u.ID, &u.UniqueID, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByUniqueID fetches a user by its opaque identifier.
func (r *UserRepo) GetByUniqueID(ctx context.Context, uniqueID string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE unique_id=? LIMIT 1",
		uniqueID).
		Scan(&u.ID, &u.UniqueID, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UpdatePassword replaces the stored hash for a user.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE unique_id=?",
		hash, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
