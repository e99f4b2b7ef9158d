package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/game-social-network/internal/model"
	"github.com/iliyamo/game-social-network/internal/utils"
)

// UserRepo provides access to the users table and owns the account
// deletion cascade.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrUserNotFound   = errors.New("user not found")
)

const userColumns = "id,username,email,password_hash,is_active,created_at,updated_at"

// Create inserts a user with a freshly hashed password and returns its ID.
// Duplicate username/email map to their respective sentinels.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?,?,?)",
		username, email, hash)
	if err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(err.Error(), "uq_users_email") {
				return 0, ErrEmailExists
			}
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// Exists reports whether an active user with the given id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE id=? AND is_active=1 LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a user and everything the account owns in one
// transaction: refresh tokens, friend requests, friendships, blocks,
// wishlist entries, califications, comments and likes. Partial
// deletion is never visible to concurrent readers.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmts := []string{
		"DELETE FROM refresh_tokens WHERE user_id=?",
		"DELETE FROM friend_requests WHERE requester_id=? OR recipient_id=?",
		"DELETE FROM friendships WHERE user_lo_id=? OR user_hi_id=?",
		"DELETE FROM user_blocks WHERE user_id=? OR blocked_user_id=?",
		"DELETE FROM wishlists WHERE user_id=?",
		"DELETE FROM calification_games WHERE user_id=?",
		"DELETE FROM comment_likes WHERE user_id=?",
		// likes on replies (by anyone) to the user's comments
		"DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE parent_id IN (SELECT id FROM (SELECT id FROM comments WHERE user_id=?) AS own))",
		"DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE user_id=?)",
		// replies (by anyone) to the user's comments; derived table
		// avoids MySQL's same-table subquery restriction
		"DELETE FROM comments WHERE parent_id IN (SELECT id FROM (SELECT id FROM comments WHERE user_id=?) AS own)",
		"DELETE FROM comments WHERE user_id=?",
	}
	for _, q := range stmts {
		args := []interface{}{id}
		if strings.Count(q, "?") == 2 {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *UserRepo) scanOne(ctx context.Context, q string, args ...interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, args...).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
