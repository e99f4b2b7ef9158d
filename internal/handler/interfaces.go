package handler

import (
	"context"
	"time"

	"github.com/iliyamo/game-social-network/internal/model"
)

// The handler layer depends on narrow store interfaces rather than the
// concrete repositories so tests can substitute in-memory fakes. The
// repository types satisfy these interfaces.

// UserStore is the identity persistence surface used by handlers.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
}

// TokenStore persists refresh tokens and implements single-use rotation.
// RotateRefresh consumes the presented token and inserts its successor
// atomically so chain revocation can never miss an in-flight rotation.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, chainID string, parentID *uint64, tokenHash string, exp time.Time) error
	RotateRefresh(ctx context.Context, tokenHash, successorHash string, successorExp time.Time) (model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// FriendStore is the social-graph state machine surface.
type FriendStore interface {
	SendRequest(ctx context.Context, requesterID, recipientID uint64) (model.FriendRequest, *model.Friendship, error)
	Accept(ctx context.Context, requestID, actingUserID uint64) (model.Friendship, error)
	Reject(ctx context.Context, requestID, actingUserID uint64) error
	RemoveFriendship(ctx context.Context, userID, friendID uint64) error
	AreFriends(ctx context.Context, a, b uint64) (bool, error)
	ListFriends(ctx context.Context, userID uint64) ([]model.User, error)
	ListPendingReceived(ctx context.Context, userID uint64) ([]model.FriendRequest, error)
	ListPendingSent(ctx context.Context, userID uint64) ([]model.FriendRequest, error)
	Block(ctx context.Context, userID, targetID uint64) error
	Unblock(ctx context.Context, userID, targetID uint64) error
}

// GameStore is the minimal catalog surface.
type GameStore interface {
	Create(ctx context.Context, g *model.Game) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Game, error)
	Exists(ctx context.Context, id uint64) (bool, error)
}

// WishlistStore persists per-user wishlist entries.
type WishlistStore interface {
	Add(ctx context.Context, userID, gameID uint64, url *string) (model.WishlistEntry, error)
	Remove(ctx context.Context, userID, gameID uint64) error
	ListGames(ctx context.Context, userID uint64) ([]model.Game, error)
}

// CalificationStore persists ratings and serves the read-side aggregate.
type CalificationStore interface {
	Upsert(ctx context.Context, userID, gameID uint64, score int, review *string) (model.Calification, bool, error)
	Delete(ctx context.Context, califID, actingUserID uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Calification, error)
	ListByGame(ctx context.Context, gameID uint64) ([]model.Calification, error)
	AggregateForGame(ctx context.Context, gameID uint64) (model.GameRatingStats, error)
}

// CommentStore persists game comments, replies and likes. Read methods
// take a viewerID (0 for anonymous) and only surface private comments
// to their author.
type CommentStore interface {
	Create(ctx context.Context, userID, gameID uint64, parentID *uint64, content string, isPublic bool) (model.Comment, error)
	GetWithReplies(ctx context.Context, commentID, viewerID uint64) (model.Comment, []model.Comment, error)
	ListByGame(ctx context.Context, gameID, viewerID uint64) ([]model.Comment, error)
	ListByUser(ctx context.Context, userID, viewerID uint64) ([]model.Comment, error)
	Update(ctx context.Context, commentID, actingUserID uint64, content *string, isPublic *bool) (model.Comment, error)
	Delete(ctx context.Context, commentID, actingUserID uint64) error
	Like(ctx context.Context, commentID, userID uint64) (int, error)
	Unlike(ctx context.Context, commentID, userID uint64) (int, error)
}

// Denylist revokes access tokens by jti for the remainder of their
// lifetime. A nil Denylist disables the feature.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// EventPublisher emits domain events to the message broker. Publish
// failures are logged by implementations and never fail the request.
type EventPublisher interface {
	FriendshipAccepted(ctx context.Context, fs model.Friendship, requestID uint64)
	TokenReuseDetected(ctx context.Context, userID uint64, chainID string)
}
