package model

import "time"

// Friend request states. A request is created PENDING and transitions
// exactly once to ACCEPTED or REJECTED; both are terminal. Re-requesting
// after a rejection creates a new row.
const (
	FriendRequestPending  = "PENDING"
	FriendRequestAccepted = "ACCEPTED"
	FriendRequestRejected = "REJECTED"
)

// FriendRequest mirrors the `friend_requests` table.
//
// Fields:
//  ID          – primary key identifier.
//  RequesterID – user who sent the request.
//  RecipientID – user the request was sent to. Never equal to RequesterID.
//  Status      – PENDING, ACCEPTED or REJECTED.
//  CreatedAt   – when the request was sent.
//  RespondedAt – when it was accepted/rejected (null while pending).
type FriendRequest struct {
	ID          uint64     // friend_requests.id
	RequesterID uint64     // friend_requests.requester_id
	RecipientID uint64     // friend_requests.recipient_id
	Status      string     // friend_requests.status
	CreatedAt   time.Time  // friend_requests.created_at
	RespondedAt *time.Time // friend_requests.responded_at (nullable)
}

// Friendship mirrors the `friendships` table. The relation is symmetric
// and stored once per pair with UserLoID < UserHiID, so a lookup must
// normalize the queried pair before matching.
type Friendship struct {
	ID        uint64    // friendships.id
	UserLoID  uint64    // friendships.user_lo_id (smaller of the pair)
	UserHiID  uint64    // friendships.user_hi_id (larger of the pair)
	CreatedAt time.Time // friendships.created_at
}

// UserBlock mirrors the `user_blocks` table. A block is directional:
// UserID blocked BlockedUserID. Friend requests between a blocked pair
// are rejected in either direction.
type UserBlock struct {
	ID            uint64    // user_blocks.id
	UserID        uint64    // user_blocks.user_id
	BlockedUserID uint64    // user_blocks.blocked_user_id
	CreatedAt     time.Time // user_blocks.created_at
}

// NormalizePair orders two user ids so that the smaller one comes
// first, matching the (user_lo_id, user_hi_id) friendship key.
func NormalizePair(a, b uint64) (lo, hi uint64) {
	if a < b {
		return a, b
	}
	return b, a
}
