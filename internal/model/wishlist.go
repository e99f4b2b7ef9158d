package model

import "time"

// WishlistEntry mirrors the `wishlists` table. The (UserID, GameID)
// pair is unique; adding the same game twice is a conflict, not a
// duplicate row.
type WishlistEntry struct {
	ID      uint64    // wishlists.id
	UserID  uint64    // wishlists.user_id
	GameID  uint64    // wishlists.game_id
	URL     *string   // wishlists.url, optional store link (nullable)
	AddedAt time.Time // wishlists.added_at
}
