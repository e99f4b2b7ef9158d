package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-social-network/internal/model"
)

// WishlistRepo stores per-user wishlist entries. Uniqueness of the
// (user_id, game_id) pair is enforced by the database; the duplicate
// key error is surfaced as ErrWishlistDuplicate rather than treated as
// a fault.
type WishlistRepo struct{ DB *sql.DB }

func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{DB: db} }

var (
	ErrWishlistDuplicate = errors.New("game already in wishlist")
	ErrWishlistNotFound  = errors.New("wishlist entry not found")
)

// Add inserts an entry and returns it.
func (r *WishlistRepo) Add(ctx context.Context, userID, gameID uint64, url *string) (model.WishlistEntry, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO wishlists (user_id, game_id, url) VALUES (?,?,?)",
		userID, gameID, url)
	if err != nil {
		if isDuplicateKey(err) {
			return model.WishlistEntry{}, ErrWishlistDuplicate
		}
		return model.WishlistEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.WishlistEntry{}, err
	}
	var e model.WishlistEntry
	err = r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, game_id, url, added_at FROM wishlists WHERE id=?", id).
		Scan(&e.ID, &e.UserID, &e.GameID, &e.URL, &e.AddedAt)
	return e, err
}

// Remove deletes the (user, game) entry; ErrWishlistNotFound when absent.
func (r *WishlistRepo) Remove(ctx context.Context, userID, gameID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM wishlists WHERE user_id=? AND game_id=?", userID, gameID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrWishlistNotFound
	}
	return nil
}

// ListGames returns the games on a user's wishlist, oldest entry first.
func (r *WishlistRepo) ListGames(ctx context.Context, userID uint64) ([]model.Game, error) {
	const q = `SELECT g.id, g.name, g.genre, g.api_id, g.description, g.cover_image,
	                  g.release_date, g.platforms, g.developer, g.publisher, g.created_at, g.updated_at
	           FROM wishlists w
	           JOIN games g ON g.id = w.game_id
	           WHERE w.user_id=?
	           ORDER BY w.added_at ASC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	games := make([]model.Game, 0)
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Genre, &g.APIID, &g.Description, &g.CoverImage,
			&g.ReleaseDate, &g.Platforms, &g.Developer, &g.Publisher, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Contains reports whether the game is on the user's wishlist.
func (r *WishlistRepo) Contains(ctx context.Context, userID, gameID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM wishlists WHERE user_id=? AND game_id=? LIMIT 1", userID, gameID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
