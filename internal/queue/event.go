// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. One durable queue per event type.
const (
	FriendshipAcceptedQueue = "friendship.accepted"
	TokenReuseQueue         = "security.token_reuse"
)

// FriendshipAcceptedEvent is published when a friend request turns into
// a friendship, either by an explicit accept or by two users requesting
// each other. It carries enough for downstream consumers to notify both
// sides without querying the primary database.
type FriendshipAcceptedEvent struct {
	FriendshipID uint64 `json:"friendship_id"`
	RequestID    uint64 `json:"request_id"`
	UserLoID     uint64 `json:"user_lo_id"`
	UserHiID     uint64 `json:"user_hi_id"`
	AcceptedAt   string `json:"accepted_at"`
}

// TokenReuseEvent is published when a rotated-out refresh token is
// presented again. By then the whole token chain has been revoked; the
// event exists for audit trails and alerting.
type TokenReuseEvent struct {
	UserID     uint64 `json:"user_id"`
	ChainID    string `json:"chain_id"`
	DetectedAt string `json:"detected_at"`
}
