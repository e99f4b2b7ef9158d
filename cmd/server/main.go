package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/game-social-network/internal/config"
	"github.com/iliyamo/game-social-network/internal/database"
	"github.com/iliyamo/game-social-network/internal/handler"
	"github.com/iliyamo/game-social-network/internal/queue"
	"github.com/iliyamo/game-social-network/internal/repository"
	"github.com/iliyamo/game-social-network/internal/router"
	"github.com/iliyamo/game-social-network/internal/service"
	"github.com/iliyamo/game-social-network/internal/validator"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis is optional: without it the server runs with rate limiting,
	// response caching and the token denylist disabled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting, caching and denylist disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	friends := repository.NewFriendRepo(db)
	games := repository.NewGameRepo(db)
	wishlists := repository.NewWishlistRepo(db)
	califications := repository.NewCalificationRepo(db)
	comments := repository.NewCommentRepo(db)

	var denylist handler.Denylist
	if rdb != nil {
		denylist = service.NewRedisDenylist(rdb)
	}
	events := service.NewQueuePublisher()

	h := router.Handlers{
		Health:        handler.NewHealthHandler(db, rdb),
		Auth:          handler.NewAuthHandler(cfg, users, tokens, denylist, events),
		Friends:       handler.NewFriendHandler(friends, users, events),
		Games:         handler.NewGameHandler(games),
		Wishlists:     handler.NewWishlistHandler(wishlists, games, friends, users),
		Califications: handler.NewCalificationHandler(califications, games),
		Comments:      handler.NewCommentHandler(comments, games),
	}

	// Background consumer writes audit lines for friendship and token
	// reuse events. It reconnects forever on its own.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
