package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/game-social-network/internal/validator"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	return e
}

// newRequest builds an Echo context for a handler-level test. body is
// marshalled to JSON when non-nil.
func newRequest(e *echo.Echo, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// asUser marks the context as authenticated, the way the JWT
// middleware would.
func asUser(c echo.Context, id uint64) {
	c.Set("user_id", id)
}

func decodeBody(t interface{ Fatalf(string, ...any) }, rec *httptest.ResponseRecorder) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return m
}
