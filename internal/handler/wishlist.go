package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-social-network/internal/repository"
)

// WishlistHandler serves per-user wishlists. A wishlist is private to
// its owner except towards confirmed friends.
type WishlistHandler struct {
	Wishlists WishlistStore
	Games     GameStore
	Friends   FriendStore
	Users     UserStore
}

func NewWishlistHandler(w WishlistStore, g GameStore, f FriendStore, u UserStore) *WishlistHandler {
	return &WishlistHandler{Wishlists: w, Games: g, Friends: f, Users: u}
}

type wishlistAddReq struct {
	GameID uint64  `json:"game_id" validate:"required,gt=0"`
	URL    *string `json:"url" validate:"omitempty,url,max=2048"`
}

// Add puts a game on the caller's wishlist, optionally with a store
// link. Re-adding the same game answers 409.
func (h *WishlistHandler) Add(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req wishlistAddReq
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

	entry, err := h.Wishlists.Add(ctx, uid, req.GameID, req.URL)
	if err != nil {
		if err == repository.ErrWishlistDuplicate {
			return c.JSON(http.StatusConflict, echo.Map{"error": "game already in wishlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"entry": echo.Map{
		"id":       entry.ID,
		"game_id":  entry.GameID,
		"url":      entry.URL,
		"added_at": entry.AddedAt,
	}})
}

// Remove takes a game off the caller's wishlist.
func (h *WishlistHandler) Remove(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	gameID, ok := pathID(c, "game_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Wishlists.Remove(ctx, uid, gameID); err != nil {
		if err == repository.ErrWishlistNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not in wishlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMine returns the caller's wishlist, oldest entries first.
func (h *WishlistHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	games, err := h.Wishlists.ListGames(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"games": toGameParts(games), "count": len(games)})
}

// ListForUser returns another user's wishlist. Only confirmed friends
// of the owner may look; everyone else gets 403.
func (h *WishlistHandler) ListForUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ownerID, ok := pathID(c, "user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ownerID != uid {
		if ok, err := h.Users.Exists(ctx, ownerID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		} else if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		friends, err := h.Friends.AreFriends(ctx, uid, ownerID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !friends {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "wishlist is only visible to friends"})
		}
	}

	games, err := h.Wishlists.ListGames(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": ownerID, "games": toGameParts(games), "count": len(games)})
}
