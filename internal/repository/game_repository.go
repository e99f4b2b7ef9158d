package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/game-social-network/internal/model"
)

// GameRepo provides minimal catalog access: games are created on
// demand (usually mirrored from an external catalog by api_id) so that
// wishlist entries and ratings always reference a known row. Search
// and listing live elsewhere.
type GameRepo struct{ DB *sql.DB }

func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{DB: db} }

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

const gameColumns = "id, name, genre, api_id, description, cover_image, release_date, platforms, developer, publisher, created_at, updated_at"

// Create inserts a catalog entry and returns its ID. A duplicate
// api_id maps to ErrGameExists.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO games (name, genre, api_id, description, cover_image, release_date, platforms, developer, publisher)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		g.Name, g.Genre, g.APIID, g.Description, g.CoverImage, g.ReleaseDate, g.Platforms, g.Developer, g.Publisher)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrGameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a game by id; ErrGameNotFound when absent.
func (r *GameRepo) GetByID(ctx context.Context, id uint64) (model.Game, error) {
	return r.scanOne(ctx, "SELECT "+gameColumns+" FROM games WHERE id=? LIMIT 1", id)
}

// GetByAPIID fetches a game by its external catalog key.
func (r *GameRepo) GetByAPIID(ctx context.Context, apiID string) (model.Game, error) {
	return r.scanOne(ctx, "SELECT "+gameColumns+" FROM games WHERE api_id=? LIMIT 1", apiID)
}

// Exists reports whether a game with the given id exists.
func (r *GameRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM games WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *GameRepo) scanOne(ctx context.Context, q string, args ...interface{}) (model.Game, error) {
	var g model.Game
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&g.ID, &g.Name, &g.Genre, &g.APIID, &g.Description, &g.CoverImage,
		&g.ReleaseDate, &g.Platforms, &g.Developer, &g.Publisher, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Game{}, ErrGameNotFound
	}
	return g, err
}
