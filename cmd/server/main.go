package main // Entry point package

import (
	"context"
	"log" // Logging library
	"time"

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/juliovp13-web/SafeZone/internal/config"   // Internal config loader
	"github.com/juliovp13-web/SafeZone/internal/database" // MySQL pool
	"github.com/juliovp13-web/SafeZone/internal/handler"
	"github.com/juliovp13-web/SafeZone/internal/queue"
	"github.com/juliovp13-web/SafeZone/internal/rates"
	"github.com/juliovp13-web/SafeZone/internal/repository"
	"github.com/juliovp13-web/SafeZone/internal/router"
	queuepub "github.com/juliovp13-web/SafeZone/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config (.env honored)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; rate limiting and rate caching degrade
	// gracefully when it is absent.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and rates cache disabled")
	}

	users := repository.NewUserRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	alerts := repository.NewAlertRepo(db)
	help := repository.NewHelpRepo(db)

	var provider rates.Provider = rates.Static{Table: rates.Fallback}
	if cfg.RatesURL != "" {
		provider = rates.NewCached(rates.NewHTTPProvider(cfg.RatesURL), rdb, time.Hour)
	}

	h := router.Handlers{
		Auth: handler.NewAuthHandler(cfg, users),
		Subs: handler.NewSubscriptionHandler(users, subs),
		Alert: handler.NewAlertHandler(users, alerts, func(ctx context.Context, ev queue.AlertRaisedEvent) error {
			return queuepub.PublishAlertRaised(ctx, ev)
		}),
		Help:  handler.NewHelpHandler(users, help),
		Admin: handler.NewAdminHandler(users, subs, alerts, help),
		Rates: handler.NewRatesHandler(provider),
	}

	e := echo.New() // Create Echo instance
	router.Register(e, h, cfg.JWTSecret, rdb)

	// Background consumer mirrors alert events into logs/alerts.log.
	go func() {
		if err := queue.StartAlertConsumer(); err != nil {
			log.Printf("alert consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
