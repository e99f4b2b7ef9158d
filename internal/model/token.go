package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and to a rotation chain. The plain
// token is never stored; only its SHA-256 hash.
//
// A token is live while UsedAt and RevokedAt are both null and
// ExpiresAt is in the future. Rotation marks the presented token used
// and inserts a successor carrying the same ChainID with ParentID set
// to the predecessor, which gives an auditable chain per login.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  ChainID   – rotation chain the token belongs to (uuid, set at login).
//  ParentID  – id of the token this one replaced (null for the first in a chain).
//  TokenHash – SHA-256 hex digest of the raw token value.
//  ExpiresAt – expiration timestamp.
//  UsedAt    – when the token was consumed by a rotation (null while live).
//  RevokedAt – when the token was revoked (null while live).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	ChainID   string     // refresh_tokens.chain_id
	ParentID  *uint64    // refresh_tokens.parent_id (nullable)
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	UsedAt    *time.Time // refresh_tokens.used_at (nullable)
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
