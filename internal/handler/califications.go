package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-social-network/internal/model"
	"github.com/iliyamo/game-social-network/internal/repository"
)

// CalificationHandler serves game ratings: one score (with optional
// review text) per user per game, plus the public aggregate.
type CalificationHandler struct {
	Califications CalificationStore
	Games         GameStore
}

func NewCalificationHandler(ca CalificationStore, g GameStore) *CalificationHandler {
	return &CalificationHandler{Califications: ca, Games: g}
}

type calificationReq struct {
	GameID uint64  `json:"game_id" validate:"required,gt=0"`
	Score  int     `json:"score" validate:"required,min=1,max=10"`
	Review *string `json:"review" validate:"omitempty,max=1000"`
}

// Upsert creates the caller's rating of a game or replaces it. A fresh
// rating answers 201, a replacement 200.
func (h *CalificationHandler) Upsert(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req calificationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "detail": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.Games.Exists(ctx, req.GameID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	}

	calif, created, err := h.Califications.Upsert(ctx, uid, req.GameID, req.Score, req.Review)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save rating failed"})
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"calification": toCalificationPart(calif)})
}

// Delete removes one of the caller's ratings by id.
func (h *CalificationHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	califID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid calification id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Califications.Delete(ctx, califID, uid); err != nil {
		switch err {
		case repository.ErrCalificationNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "calification not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your calification"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMine returns the caller's ratings, most recently updated first.
func (h *CalificationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	califs, err := h.Califications.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"califications": toCalificationParts(califs), "count": len(califs)})
}

// ListForGame returns all ratings of a game.
func (h *CalificationHandler) ListForGame(c echo.Context) error {
	gameID, ok := pathID(c, "game_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.Games.Exists(ctx, gameID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	}

	califs, err := h.Califications.ListByGame(ctx, gameID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"game_id": gameID, "califications": toCalificationParts(califs)})
}

// Rating returns the aggregated score of a game: count, mean and the
// per-score distribution. Responses for this route are cached.
func (h *CalificationHandler) Rating(c echo.Context) error {
	gameID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.Games.Exists(ctx, gameID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	}

	stats, err := h.Califications.AggregateForGame(ctx, gameID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rating": ratingPart(stats)})
}

func toCalificationParts(califs []model.Calification) []calificationPart {
	out := make([]calificationPart, 0, len(califs))
	for _, ca := range califs {
		out = append(out, toCalificationPart(ca))
	}
	return out
}

// ratingPart renders a full 1..10 distribution so clients always see
// every bucket, including empty ones.
func ratingPart(s model.GameRatingStats) echo.Map {
	dist := make(map[int]int, model.ScoreMax)
	for score := model.ScoreMin; score <= model.ScoreMax; score++ {
		dist[score] = s.Distribution[score]
	}
	return echo.Map{
		"game_id":      s.GameID,
		"count":        s.Count,
		"average":      s.Average,
		"distribution": dist,
	}
}
