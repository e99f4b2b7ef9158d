// Package router wires handlers and middleware onto the Echo instance.
// Unauthenticated operations live under /v1/auth and the public
// catalog routes; everything else lives under /v1 behind JWT auth.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/game-social-network/internal/config"
	"github.com/iliyamo/game-social-network/internal/handler"
	"github.com/iliyamo/game-social-network/internal/middleware"
)

// Handlers collects every handler the router needs.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Friends       *handler.FriendHandler
	Games         *handler.GameHandler
	Wishlists     *handler.WishlistHandler
	Califications *handler.CalificationHandler
	Comments      *handler.CommentHandler
}

// RegisterRoutes registers the full HTTP surface. rdb may be nil, which
// disables rate limiting, response caching and the token denylist.
func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", h.Health.Check)

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Session lifecycle. No JWT required; refresh/logout authenticate
	// with the refresh token itself.
	authGroup := e.Group("/v1/auth", rl)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Public catalog reads. The rating aggregate is the hot path and is
	// served from the response cache.
	e.GET("/v1/games/:id", h.Games.Get, rl)
	e.GET("/v1/games/:id/rating", h.Califications.Rating, rl, cache)
	e.GET("/v1/games/:game_id/califications", h.Califications.ListForGame, rl)
	e.GET("/v1/games/:game_id/comments", h.Comments.ListForGame, rl)

	// Everything below requires a valid access token.
	auth := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret, rdb), rl)

	auth.GET("/me", h.Auth.Me)
	auth.DELETE("/me", h.Auth.DeleteMe)

	auth.POST("/friends/request", h.Friends.SendRequest)
	auth.PUT("/friends/accept/:id", h.Friends.Accept)
	auth.PUT("/friends/reject/:id", h.Friends.Reject)
	auth.DELETE("/friends/:friend_id", h.Friends.Remove)
	auth.GET("/friends", h.Friends.List)
	auth.GET("/friends/requests", h.Friends.ListRequests)
	auth.POST("/friends/block/:user_id", h.Friends.Block)
	auth.DELETE("/friends/block/:user_id", h.Friends.Unblock)

	auth.POST("/games", h.Games.Create)

	auth.POST("/wishlist", h.Wishlists.Add)
	auth.DELETE("/wishlist/:game_id", h.Wishlists.Remove)
	auth.GET("/wishlist", h.Wishlists.ListMine)
	auth.GET("/wishlist/shared/:user_id", h.Wishlists.ListForUser)

	auth.POST("/califications", h.Califications.Upsert)
	auth.DELETE("/califications/:id", h.Califications.Delete)
	auth.GET("/califications", h.Califications.ListMine)

	auth.POST("/comments", h.Comments.Create)
	auth.GET("/comments", h.Comments.ListMine)
	auth.GET("/comments/:id", h.Comments.Get)
	auth.PUT("/comments/:id", h.Comments.Update)
	auth.DELETE("/comments/:id", h.Comments.Delete)
	auth.POST("/comments/:id/like", h.Comments.Like)
	auth.DELETE("/comments/:id/like", h.Comments.Unlike)
}
