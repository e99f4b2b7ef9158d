package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-social-network/internal/model"
)

func newCommentFixture(t *testing.T) (*CommentHandler, *fakeComments, *fakeGames) {
	t.Helper()
	games := newFakeGames()
	comments := newFakeComments()
	_, err := games.Create(context.Background(), &model.Game{Name: "Hades"})
	require.NoError(t, err)
	return NewCommentHandler(comments, games), comments, games
}

func postComment(t *testing.T, h *CommentHandler, userID uint64, body map[string]any) (*http.Response, map[string]any) {
	t.Helper()
	e := newTestEcho()
	c, rec := newRequest(e, http.MethodPost, "/v1/comments", body)
	asUser(c, userID)
	require.NoError(t, h.Create(c))
	res := rec.Result()
	if res.StatusCode != http.StatusCreated {
		return res, nil
	}
	return res, decodeBody(t, rec)["comment"].(map[string]any)
}

func TestCommentCreateAndListForGame(t *testing.T) {
	h, _, _ := newCommentFixture(t)

	res, comment := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "instant classic"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, true, comment["is_public"])

	// a private comment from another user
	res, _ = postComment(t, h, 2, map[string]any{"game_id": 1, "content": "notes to self", "is_public": false})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	e := newTestEcho()

	// anonymous viewer sees only the public comment
	c, rec := newRequest(e, http.MethodGet, "/v1/games/1/comments", nil)
	c.SetParamNames("game_id")
	c.SetParamValues("1")
	require.NoError(t, h.ListForGame(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["comments"], 1)

	// the private author sees both
	c, rec = newRequest(e, http.MethodGet, "/v1/games/1/comments", nil)
	c.SetParamNames("game_id")
	c.SetParamValues("1")
	asUser(c, 2)
	require.NoError(t, h.ListForGame(c))
	assert.Len(t, decodeBody(t, rec)["comments"], 2)
}

func TestCommentCreateUnknownGame(t *testing.T) {
	h, _, _ := newCommentFixture(t)
	res, _ := postComment(t, h, 1, map[string]any{"game_id": 42, "content": "where am I"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCommentReplyValidation(t *testing.T) {
	h, _, games := newCommentFixture(t)
	_, err := games.Create(context.Background(), &model.Game{Name: "Celeste"})
	require.NoError(t, err)

	res, parent := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "top level"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	parentID := uint64(parent["id"].(float64))

	// unknown parent
	res, _ = postComment(t, h, 2, map[string]any{"game_id": 1, "content": "reply", "parent_comment_id": 99})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// parent belongs to another game
	res, _ = postComment(t, h, 2, map[string]any{"game_id": 2, "content": "reply", "parent_comment_id": parentID})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// valid reply
	res, reply := postComment(t, h, 2, map[string]any{"game_id": 1, "content": "reply", "parent_comment_id": parentID})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	replyID := uint64(reply["id"].(float64))

	// threads are one level deep
	res, _ = postComment(t, h, 1, map[string]any{"game_id": 1, "content": "nested", "parent_comment_id": replyID})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCommentGetWithReplies(t *testing.T) {
	h, _, _ := newCommentFixture(t)

	_, parent := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "top level"})
	parentID := uint64(parent["id"].(float64))
	postComment(t, h, 2, map[string]any{"game_id": 1, "content": "public reply", "parent_comment_id": parentID})
	postComment(t, h, 3, map[string]any{"game_id": 1, "content": "private reply", "is_public": false, "parent_comment_id": parentID})

	get := func(viewer uint64) (*http.Response, map[string]any) {
		e := newTestEcho()
		c, rec := newRequest(e, http.MethodGet, "/v1/comments/"+strconv.FormatUint(parentID, 10), nil)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(parentID, 10))
		asUser(c, viewer)
		require.NoError(t, h.Get(c))
		res := rec.Result()
		if res.StatusCode != http.StatusOK {
			return res, nil
		}
		return res, decodeBody(t, rec)
	}

	// a stranger sees only the public reply
	_, body := get(5)
	assert.Len(t, body["replies"], 1)

	// the private reply's author sees both
	_, body = get(3)
	assert.Len(t, body["replies"], 2)
}

func TestCommentPrivateHiddenFromOthers(t *testing.T) {
	h, _, _ := newCommentFixture(t)
	_, comment := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "secret", "is_public": false})
	id := strconv.FormatUint(uint64(comment["id"].(float64)), 10)

	e := newTestEcho()
	c, rec := newRequest(e, http.MethodGet, "/v1/comments/"+id, nil)
	c.SetParamNames("id")
	c.SetParamValues(id)
	asUser(c, 2)
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentUpdateOwnershipAndEditedFlag(t *testing.T) {
	h, _, _ := newCommentFixture(t)
	_, comment := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "first draft"})
	id := strconv.FormatUint(uint64(comment["id"].(float64)), 10)

	update := func(userID uint64, body map[string]any) (*http.Response, map[string]any) {
		e := newTestEcho()
		c, rec := newRequest(e, http.MethodPut, "/v1/comments/"+id, body)
		c.SetParamNames("id")
		c.SetParamValues(id)
		asUser(c, userID)
		require.NoError(t, h.Update(c))
		res := rec.Result()
		if res.StatusCode != http.StatusOK {
			return res, nil
		}
		return res, decodeBody(t, rec)["comment"].(map[string]any)
	}

	res, _ := update(2, map[string]any{"content": "vandalism"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	_, updated := update(1, map[string]any{"content": "second draft"})
	assert.Equal(t, "second draft", updated["content"])
	assert.Equal(t, true, updated["is_edited"])

	// visibility change alone does not mark the comment edited
	_, c2 := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "other"})
	id = strconv.FormatUint(uint64(c2["id"].(float64)), 10)
	_, updated = update(1, map[string]any{"is_public": false})
	assert.Equal(t, false, updated["is_public"])
	assert.Equal(t, false, updated["is_edited"])
}

func TestCommentDeleteCascadesReplies(t *testing.T) {
	h, comments, _ := newCommentFixture(t)
	_, parent := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "top level"})
	parentID := uint64(parent["id"].(float64))
	postComment(t, h, 2, map[string]any{"game_id": 1, "content": "reply", "parent_comment_id": parentID})

	id := strconv.FormatUint(parentID, 10)
	e := newTestEcho()

	// only the author may delete
	c, rec := newRequest(e, http.MethodDelete, "/v1/comments/"+id, nil)
	c.SetParamNames("id")
	c.SetParamValues(id)
	asUser(c, 2)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newRequest(e, http.MethodDelete, "/v1/comments/"+id, nil)
	c.SetParamNames("id")
	c.SetParamValues(id)
	asUser(c, 1)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, comments.rows)

	// gone now
	c, rec = newRequest(e, http.MethodDelete, "/v1/comments/"+id, nil)
	c.SetParamNames("id")
	c.SetParamValues(id)
	asUser(c, 1)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentLikeIdempotent(t *testing.T) {
	h, _, _ := newCommentFixture(t)
	_, comment := postComment(t, h, 1, map[string]any{"game_id": 1, "content": "like me"})
	id := strconv.FormatUint(uint64(comment["id"].(float64)), 10)

	setLike := func(userID uint64, method string) (int, map[string]any) {
		e := newTestEcho()
		c, rec := newRequest(e, method, "/v1/comments/"+id+"/like", nil)
		c.SetParamNames("id")
		c.SetParamValues(id)
		asUser(c, userID)
		if method == http.MethodPost {
			require.NoError(t, h.Like(c))
		} else {
			require.NoError(t, h.Unlike(c))
		}
		if rec.Code != http.StatusOK {
			return rec.Code, nil
		}
		return rec.Code, decodeBody(t, rec)
	}

	code, body := setLike(2, http.MethodPost)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["likes"])

	// liking twice keeps the count at one
	code, body = setLike(2, http.MethodPost)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["likes"])

	code, body = setLike(3, http.MethodPost)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["likes"])

	code, body = setLike(2, http.MethodDelete)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["likes"])

	// unliking twice is a no-op
	code, body = setLike(2, http.MethodDelete)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["likes"])
}

func TestCommentLikeUnknownComment(t *testing.T) {
	h, _, _ := newCommentFixture(t)
	e := newTestEcho()
	c, rec := newRequest(e, http.MethodPost, "/v1/comments/99/like", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	asUser(c, 1)
	require.NoError(t, h.Like(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
