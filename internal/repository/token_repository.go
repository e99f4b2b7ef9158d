package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/game-social-network/internal/model"
)

// TokenRepo persists refresh tokens and implements single-use rotation.
// Tokens are stored by SHA-256 hash only and grouped into chains: the
// token minted at login starts a chain and every rotation appends a
// successor. Consuming a token is an atomic check-and-mark so that two
// concurrent rotations of the same token cannot both succeed.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

var (
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrRefreshExpired  = errors.New("refresh token expired")
	ErrRefreshRevoked  = errors.New("refresh token revoked")
	// ErrRefreshReused marks presentation of an already-rotated token.
	// The whole chain is revoked before this is returned; callers should
	// treat it as a security event.
	ErrRefreshReused = errors.New("refresh token reuse detected")
)

// StoreRefresh inserts a refresh token row. parentID is nil for the
// first token of a chain and references the consumed predecessor on
// rotation.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, chainID string, parentID *uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, chain_id, parent_id, token_hash, expires_at) VALUES (?,?,?,?,?)",
		userID, chainID, parentID, tokenHash, exp)
	return err
}

// RotateRefresh atomically marks the token identified by tokenHash as
// used and inserts its successor in the same transaction. Exactly one
// of two concurrent calls with the same token wins; the loser observes
// the used row. A used or revoked token fails with
// ErrRefreshReused/ErrRefreshRevoked, and reuse additionally revokes
// every live token in the chain. Because the successor insert commits
// together with the used_at mark, a losing caller's chain revocation
// always covers the winner's new token: the loser cannot observe the
// used row before the winner's commit, and by then the successor is in
// the chain.
func (r *TokenRepo) RotateRefresh(ctx context.Context, tokenHash, successorHash string, successorExp time.Time) (model.RefreshToken, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.RefreshToken{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var t model.RefreshToken
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, chain_id, parent_id, token_hash, expires_at, used_at, revoked_at, created_at
		 FROM refresh_tokens WHERE token_hash=? LIMIT 1`,
		tokenHash).Scan(&t.ID, &t.UserID, &t.ChainID, &t.ParentID, &t.TokenHash,
		&t.ExpiresAt, &t.UsedAt, &t.RevokedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrRefreshNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}

	if t.RevokedAt != nil {
		return model.RefreshToken{}, ErrRefreshRevoked
	}
	if t.UsedAt != nil {
		// Rotated-out token presented again: possible theft. Kill the
		// whole chain so neither party keeps a session.
		if err := revokeChainTx(ctx, tx, t.ChainID); err != nil {
			return model.RefreshToken{}, err
		}
		if err := tx.Commit(); err != nil {
			return model.RefreshToken{}, err
		}
		committed = true
		return t, ErrRefreshReused
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return model.RefreshToken{}, ErrRefreshExpired
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET used_at=UTC_TIMESTAMP() WHERE id=? AND used_at IS NULL AND revoked_at IS NULL",
		t.ID)
	if err != nil {
		return model.RefreshToken{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.RefreshToken{}, err
	}
	if n == 0 {
		// Lost the race to a concurrent rotation. Same treatment as reuse.
		if err := revokeChainTx(ctx, tx, t.ChainID); err != nil {
			return model.RefreshToken{}, err
		}
		if err := tx.Commit(); err != nil {
			return model.RefreshToken{}, err
		}
		committed = true
		return t, ErrRefreshReused
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, chain_id, parent_id, token_hash, expires_at) VALUES (?,?,?,?,?)",
		t.UserID, t.ChainID, t.ID, successorHash, successorExp); err != nil {
		return model.RefreshToken{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.RefreshToken{}, err
	}
	committed = true
	return t, nil
}

// RevokeByHash marks a single live token as revoked. Returns
// ErrRefreshNotFound when no live row matches.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefreshNotFound
	}
	return nil
}

// RevokeAllForUser revokes every live token the user holds, across all
// chains (logout everywhere).
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

func revokeChainTx(ctx context.Context, tx *sql.Tx, chainID string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE chain_id=? AND revoked_at IS NULL",
		chainID)
	return err
}
