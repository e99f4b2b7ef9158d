package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-social-network/internal/model"
	"github.com/iliyamo/game-social-network/internal/repository"
)

// FriendHandler serves the friend-request state machine and the
// resulting friendship graph.
type FriendHandler struct {
	Friends FriendStore
	Users   UserStore
	Events  EventPublisher // optional; nil disables event publishing
}

func NewFriendHandler(f FriendStore, u UserStore, ev EventPublisher) *FriendHandler {
	return &FriendHandler{Friends: f, Users: u, Events: ev}
}

type sendRequestReq struct {
	RecipientID uint64 `json:"recipient_id" validate:"required,gt=0"`
}

// SendRequest creates a pending friend request. When the recipient
// already has a pending request towards the sender the two are matched
// up and the friendship is created immediately.
func (h *FriendHandler) SendRequest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.Users.Exists(ctx, req.RecipientID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipient not found"})
	}

	fr, fs, err := h.Friends.SendRequest(ctx, uid, req.RecipientID)
	if err != nil {
		switch err {
		case repository.ErrSelfRequest:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot friend yourself"})
		case repository.ErrAlreadyFriends:
			return c.JSON(http.StatusConflict, echo.Map{"error": "already friends"})
		case repository.ErrDuplicatePending:
			return c.JSON(http.StatusConflict, echo.Map{"error": "request already pending"})
		case repository.ErrBlocked:
			// Blocked pairs answer like the user does not exist.
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recipient not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send request failed"})
	}

	if fs != nil {
		// Mutual pending requests collapse into an accepted friendship.
		h.publishAccepted(ctx, *fs, fr.ID)
		return c.JSON(http.StatusOK, echo.Map{
			"request":    toFriendRequestPart(fr),
			"friendship": toFriendshipPart(*fs),
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{"request": toFriendRequestPart(fr)})
}

// Accept transitions a pending request to ACCEPTED and creates the
// friendship. Only the recipient may accept.
func (h *FriendHandler) Accept(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fs, err := h.Friends.Accept(ctx, reqID, uid)
	if err != nil {
		switch err {
		case repository.ErrRequestNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case repository.ErrNotRecipient:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the recipient"})
		case repository.ErrRequestNotPending:
			return c.JSON(http.StatusConflict, echo.Map{"error": "request already handled"})
		case repository.ErrAlreadyFriends:
			return c.JSON(http.StatusConflict, echo.Map{"error": "already friends"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "accept failed"})
	}

	h.publishAccepted(ctx, fs, reqID)
	return c.JSON(http.StatusOK, echo.Map{"friendship": toFriendshipPart(fs)})
}

// Reject transitions a pending request to REJECTED. Only the recipient
// may reject.
func (h *FriendHandler) Reject(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Friends.Reject(ctx, reqID, uid); err != nil {
		switch err {
		case repository.ErrRequestNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case repository.ErrNotRecipient:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not the recipient"})
		case repository.ErrRequestNotPending:
			return c.JSON(http.StatusConflict, echo.Map{"error": "request already handled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reject failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Remove deletes an existing friendship between the caller and
// :friend_id. Either side may remove.
func (h *FriendHandler) Remove(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	friendID, ok := pathID(c, "friend_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid friend id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Friends.RemoveFriendship(ctx, uid, friendID); err != nil {
		if err == repository.ErrFriendshipNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "friendship not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns the caller's friends, oldest friendship first.
func (h *FriendHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	friends, err := h.Friends.ListFriends(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userPart, 0, len(friends))
	for _, u := range friends {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"friends": out, "count": len(out)})
}

// ListRequests returns the caller's pending requests, split into
// received and sent, oldest first.
func (h *FriendHandler) ListRequests(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	received, err := h.Friends.ListPendingReceived(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	sent, err := h.Friends.ListPendingSent(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	rp := make([]friendRequestPart, 0, len(received))
	for _, fr := range received {
		rp = append(rp, toFriendRequestPart(fr))
	}
	sp := make([]friendRequestPart, 0, len(sent))
	for _, fr := range sent {
		sp = append(sp, toFriendRequestPart(fr))
	}
	return c.JSON(http.StatusOK, echo.Map{"received": rp, "sent": sp})
}

// Block blocks :user_id, removing any friendship and pending requests
// between the pair. Blocking is idempotent.
func (h *FriendHandler) Block(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if targetID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot block yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, err := h.Users.Exists(ctx, targetID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	} else if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err := h.Friends.Block(ctx, uid, targetID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Unblock removes a block. Unblocking someone never restores removed
// friendships or requests.
func (h *FriendHandler) Unblock(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Friends.Unblock(ctx, uid, targetID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unblock failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FriendHandler) publishAccepted(ctx context.Context, fs model.Friendship, requestID uint64) {
	log.Printf("friends: friendship created id=%d pair=(%d,%d) request_id=%d",
		fs.ID, fs.UserLoID, fs.UserHiID, requestID)
	if h.Events != nil {
		h.Events.FriendshipAccepted(ctx, fs, requestID)
	}
}
