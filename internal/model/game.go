package model

import "time"

// Game mirrors the `games` table. Catalog entries are created on demand
// so that wishlist entries and ratings always reference a known game.
// Optional metadata mirrors what the external games API provides.
type Game struct {
	ID          uint64    // games.id
	Name        string    // games.name
	Genre       *string   // games.genre (nullable)
	APIID       *string   // games.api_id, external catalog key (nullable, unique)
	Description *string   // games.description (nullable)
	CoverImage  *string   // games.cover_image (nullable)
	ReleaseDate *string   // games.release_date (nullable)
	Platforms   *string   // games.platforms, JSON-encoded list (nullable)
	Developer   *string   // games.developer (nullable)
	Publisher   *string   // games.publisher (nullable)
	CreatedAt   time.Time // games.created_at
	UpdatedAt   time.Time // games.updated_at
}
