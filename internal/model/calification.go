package model

import "time"

// Score bounds for a calification. Scores outside [ScoreMin, ScoreMax]
// are rejected before reaching the repository.
const (
	ScoreMin = 1
	ScoreMax = 10
)

// Calification mirrors the `calification_games` table: one user's
// rating of one game. The (UserID, GameID) pair is unique; rating the
// same game again updates the existing row in place.
type Calification struct {
	ID        uint64    // calification_games.id
	UserID    uint64    // calification_games.user_id
	GameID    uint64    // calification_games.game_id
	Score     int       // calification_games.score, 1..10
	Review    *string   // calification_games.review (nullable, max 1000 chars)
	CreatedAt time.Time // calification_games.created_at
	UpdatedAt time.Time // calification_games.updated_at
}

// GameRatingStats is the read-side aggregate for a game's ratings.
// Distribution maps each score value 1..10 to the number of users who
// gave it; Count is the total and Average the arithmetic mean.
type GameRatingStats struct {
	GameID       uint64      // aggregated game
	Count        int         // number of distinct raters
	Average      float64     // mean score, 0 when Count is 0
	Distribution map[int]int // score -> raters
}
