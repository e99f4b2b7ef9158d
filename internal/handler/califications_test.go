package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-social-network/internal/model"
)

func newCalifFixture(t *testing.T) (*CalificationHandler, *fakeCalifications, *fakeGames) {
	t.Helper()
	games := newFakeGames()
	califs := newFakeCalifications()
	_, err := games.Create(context.Background(), &model.Game{Name: "Hades"})
	require.NoError(t, err)
	return NewCalificationHandler(califs, games), califs, games
}

func rate(t *testing.T, h *CalificationHandler, userID, gameID uint64, score int) *http.Response {
	t.Helper()
	e := newTestEcho()
	c, rec := newRequest(e, http.MethodPost, "/v1/califications", map[string]any{
		"game_id": gameID,
		"score":   score,
	})
	asUser(c, userID)
	require.NoError(t, h.Upsert(c))
	return rec.Result()
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	h, califs, _ := newCalifFixture(t)

	res := rate(t, h, 1, 1, 9)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	// the second rating replaces the first, no extra row
	res = rate(t, h, 1, 1, 4)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	rows, err := califs.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Score)
}

func TestUpsertScoreBounds(t *testing.T) {
	h, _, _ := newCalifFixture(t)
	e := newTestEcho()

	for _, score := range []int{0, 11, -3} {
		c, rec := newRequest(e, http.MethodPost, "/v1/califications", map[string]any{
			"game_id": 1,
			"score":   score,
		})
		asUser(c, 1)
		require.NoError(t, h.Upsert(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "score %d must be rejected", score)
	}
}

func TestUpsertUnknownGame(t *testing.T) {
	h, _, _ := newCalifFixture(t)
	res := rate(t, h, 1, 42, 5)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestDeleteOwnershipEnforced(t *testing.T) {
	h, _, _ := newCalifFixture(t)
	rate(t, h, 1, 1, 9)

	e := newTestEcho()

	// another user cannot delete alice's rating
	c, rec := newRequest(e, http.MethodDelete, "/v1/califications/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 2)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the owner can
	c, rec = newRequest(e, http.MethodDelete, "/v1/califications/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 1)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// gone now
	c, rec = newRequest(e, http.MethodDelete, "/v1/califications/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, 1)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRatingAggregate(t *testing.T) {
	h, _, _ := newCalifFixture(t)
	rate(t, h, 1, 1, 10)
	rate(t, h, 2, 1, 8)
	rate(t, h, 3, 1, 8)

	e := newTestEcho()
	c, rec := newRequest(e, http.MethodGet, "/v1/games/1/rating", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Rating(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rating := decodeBody(t, rec)["rating"].(map[string]any)
	assert.Equal(t, float64(3), rating["count"])
	assert.InDelta(t, 26.0/3.0, rating["average"].(float64), 1e-9)

	dist := rating["distribution"].(map[string]any)
	assert.Equal(t, float64(2), dist["8"])
	assert.Equal(t, float64(1), dist["10"])
	assert.Equal(t, float64(0), dist["5"]) // empty buckets are rendered
}

func TestRatingUnknownGame(t *testing.T) {
	h, _, _ := newCalifFixture(t)
	e := newTestEcho()
	c, rec := newRequest(e, http.MethodGet, "/v1/games/42/rating", nil)
	c.SetParamNames("id")
	c.SetParamValues("42")
	require.NoError(t, h.Rating(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
