package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/moimlab/moim-server/internal/config"
	"github.com/moimlab/moim-server/internal/database"
	"github.com/moimlab/moim-server/internal/handler"
	"github.com/moimlab/moim-server/internal/middleware"
	"github.com/moimlab/moim-server/internal/queue"
	"github.com/moimlab/moim-server/internal/repository"
	"github.com/moimlab/moim-server/internal/router"
)

func main() {
	// Missing .env is fine; values may come from the real environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	members := repository.NewMemberRepo(db)
	carpools := repository.NewCarpoolRepo(db)
	notices := repository.NewNoticeRepo(db)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limiter)
	router.RegisterPublic(e, handler.NewInviteHandler(events, members), cache)
	router.RegisterEvents(e,
		handler.NewEventHandler(events, members),
		handler.NewMemberHandler(events, members),
		handler.NewSettlementHandler(events, members),
		handler.NewNoticeHandler(events, members, notices),
		cfg.JWTSecret)
	router.RegisterCarpools(e, handler.NewCarpoolHandler(events, carpools), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(events, members), cfg.JWTSecret)

	go func() {
		if err := queue.StartRSVPConsumer(); err != nil {
			log.Printf("rsvp consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
