package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-social-network/internal/model"
)

// CalificationRepo stores per-(user, game) ratings with upsert
// semantics: the unique (user_id, game_id) index plus ON DUPLICATE KEY
// UPDATE guarantees at most one row per pair no matter how writes
// interleave.
type CalificationRepo struct{ DB *sql.DB }

func NewCalificationRepo(db *sql.DB) *CalificationRepo { return &CalificationRepo{DB: db} }

var ErrCalificationNotFound = errors.New("calification not found")

const califColumns = "id, user_id, game_id, score, review, created_at, updated_at"

// Upsert creates the user's rating of a game or updates it in place.
// The returned flag is true when a new row was inserted. MySQL reports
// 1 affected row for an insert and 2 for an update of an existing row.
// The write and the read-back share one transaction so a concurrent
// delete cannot make the freshly upserted row vanish between them.
func (r *CalificationRepo) Upsert(ctx context.Context, userID, gameID uint64, score int, review *string) (model.Calification, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Calification{}, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO calification_games (user_id, game_id, score, review)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE score=VALUES(score), review=VALUES(review), updated_at=UTC_TIMESTAMP()`,
		userID, gameID, score, review)
	if err != nil {
		return model.Calification{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Calification{}, false, err
	}
	created := n == 1

	var c model.Calification
	err = tx.QueryRowContext(ctx,
		"SELECT "+califColumns+" FROM calification_games WHERE user_id=? AND game_id=? LIMIT 1",
		userID, gameID).
		Scan(&c.ID, &c.UserID, &c.GameID, &c.Score, &c.Review, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Calification{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return model.Calification{}, false, err
	}
	committed = true
	return c, created, nil
}

// Delete removes a rating. Only the owner may delete; a mismatch
// surfaces as ErrForbidden so handlers can answer 403 instead of 404.
func (r *CalificationRepo) Delete(ctx context.Context, califID, actingUserID uint64) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM calification_games WHERE id=? LIMIT 1", califID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrCalificationNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != actingUserID {
		return ErrForbidden
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM calification_games WHERE id=? AND user_id=?", califID, actingUserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Deleted concurrently between the ownership check and here.
		return ErrCalificationNotFound
	}
	return nil
}

// ListByUser returns a user's ratings, newest first.
func (r *CalificationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Calification, error) {
	return r.list(ctx, "user_id", userID)
}

// ListByGame returns all ratings of a game, newest first.
func (r *CalificationRepo) ListByGame(ctx context.Context, gameID uint64) ([]model.Calification, error) {
	return r.list(ctx, "game_id", gameID)
}

func (r *CalificationRepo) list(ctx context.Context, col string, id uint64) ([]model.Calification, error) {
	q := "SELECT " + califColumns + " FROM calification_games WHERE " + col + "=? ORDER BY updated_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Calification, 0)
	for rows.Next() {
		var c model.Calification
		if err := rows.Scan(&c.ID, &c.UserID, &c.GameID, &c.Score, &c.Review, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AggregateForGame computes count, mean and the per-score distribution
// for a game in a single scan. Grouping in one query keeps the numbers
// consistent with each other even under concurrent writes.
func (r *CalificationRepo) AggregateForGame(ctx context.Context, gameID uint64) (model.GameRatingStats, error) {
	stats := model.GameRatingStats{
		GameID:       gameID,
		Distribution: make(map[int]int, model.ScoreMax),
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT score, COUNT(*) FROM calification_games WHERE game_id=? GROUP BY score", gameID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	sum := 0
	for rows.Next() {
		var score, n int
		if err := rows.Scan(&score, &n); err != nil {
			return stats, err
		}
		stats.Distribution[score] = n
		stats.Count += n
		sum += score * n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}
