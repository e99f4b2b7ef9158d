package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-social-network/internal/model"
	"github.com/iliyamo/game-social-network/internal/repository"
)

// GameHandler serves the game catalog. Entries are keyed internally by
// id and deduplicated on the external provider id when one is given.
type GameHandler struct {
	Games GameStore
}

func NewGameHandler(g GameStore) *GameHandler { return &GameHandler{Games: g} }

type createGameReq struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Genre       *string `json:"genre" validate:"omitempty,max=100"`
	APIID       *string `json:"api_id" validate:"omitempty,max=64"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	CoverImage  *string `json:"cover_image" validate:"omitempty,url,max=2048"`
	ReleaseDate *string `json:"release_date" validate:"omitempty,max=32"`
	Platforms   *string `json:"platforms" validate:"omitempty,max=255"`
	Developer   *string `json:"developer" validate:"omitempty,max=255"`
	Publisher   *string `json:"publisher" validate:"omitempty,max=255"`
}

// Create registers a game in the catalog.
func (h *GameHandler) Create(c echo.Context) error {
	var req createGameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "detail": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g := model.Game{
		Name:        req.Name,
		Genre:       req.Genre,
		APIID:       req.APIID,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		ReleaseDate: req.ReleaseDate,
		Platforms:   req.Platforms,
		Developer:   req.Developer,
		Publisher:   req.Publisher,
	}
	id, err := h.Games.Create(ctx, &g)
	if err != nil {
		if err == repository.ErrGameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "game already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create game failed"})
	}
	g.ID = id
	return c.JSON(http.StatusCreated, echo.Map{"game": toGamePart(g)})
}

// Get returns a game by id.
func (h *GameHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Games.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrGameNotFound || err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"game": toGamePart(g)})
}
