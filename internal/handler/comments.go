package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-social-network/internal/repository"
)

// CommentHandler serves game comments: top-level comments, one level of
// replies, and per-user likes. Comments default to public; a private
// comment only ever surfaces to its author.
type CommentHandler struct {
	Comments CommentStore
	Games    GameStore
}

func NewCommentHandler(cs CommentStore, g GameStore) *CommentHandler {
	return &CommentHandler{Comments: cs, Games: g}
}

type commentCreateReq struct {
	GameID   uint64  `json:"game_id" validate:"required,gt=0"`
	Content  string  `json:"content" validate:"required,min=1,max=2000"`
	IsPublic *bool   `json:"is_public"`
	ParentID *uint64 `json:"parent_comment_id" validate:"omitempty,gt=0"`
}

type commentUpdateReq struct {
	Content  *string `json:"content" validate:"omitempty,min=1,max=2000"`
	IsPublic *bool   `json:"is_public"`
}

// Create posts a comment or a reply. Replies must name an existing
// parent on the same game.
func (h *CommentHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req commentCreateReq
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

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	comment, err := h.Comments.Create(ctx, uid, req.GameID, req.ParentID, req.Content, isPublic)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "parent comment not found"})
		case repository.ErrCommentParentMismatch:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent comment is not for this game"})
		case repository.ErrCommentReplyDepth:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot reply to a reply"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"comment": toCommentPart(comment)})
}

// Get returns one comment with its direct replies, oldest reply first.
func (h *CommentHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comment, replies, err := h.Comments.GetWithReplies(ctx, commentID, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"comment": toCommentPart(comment),
		"replies": toCommentParts(replies),
	})
}

// ListForGame returns a game's top-level comments. The route is public:
// anonymous viewers see public comments only.
func (h *CommentHandler) ListForGame(c echo.Context) error {
	gameID, ok := pathID(c, "game_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	viewer, _ := getUserID(c) // 0 when unauthenticated

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.Games.Exists(ctx, gameID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
	}

	comments, err := h.Comments.ListByGame(ctx, gameID, viewer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"game_id": gameID, "comments": toCommentParts(comments)})
}

// ListMine returns the caller's comments, private ones included.
func (h *CommentHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comments, err := h.Comments.ListByUser(ctx, uid, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": toCommentParts(comments), "count": len(comments)})
}

// Update edits the caller's comment. Changing the content marks the
// comment as edited.
func (h *CommentHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req commentUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "detail": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comment, err := h.Comments.Update(ctx, commentID, uid, req.Content, req.IsPublic)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your comment"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update comment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"comment": toCommentPart(comment)})
}

// Delete removes the caller's comment along with its replies and likes.
func (h *CommentHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Comments.Delete(ctx, commentID, uid); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your comment"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Like records the caller's like. Liking twice is idempotent.
func (h *CommentHandler) Like(c echo.Context) error {
	return h.setLike(c, true)
}

// Unlike removes the caller's like. Unliking something never liked is
// idempotent.
func (h *CommentHandler) Unlike(c echo.Context) error {
	return h.setLike(c, false)
}

func (h *CommentHandler) setLike(c echo.Context, like bool) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var likes int
	if like {
		likes, err = h.Comments.Like(ctx, commentID, uid)
		if err == repository.ErrConflict {
			// Already liked; answer with the current count.
			err = nil
		}
	} else {
		likes, err = h.Comments.Unlike(ctx, commentID, uid)
	}
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update like failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"comment_id": commentID, "likes": likes, "liked": like})
}
