package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/apartment-portal/internal/backend"
	"github.com/iliyamo/apartment-portal/internal/config"
	"github.com/iliyamo/apartment-portal/internal/database"
	"github.com/iliyamo/apartment-portal/internal/handler"
	"github.com/iliyamo/apartment-portal/internal/middleware"
	"github.com/iliyamo/apartment-portal/internal/queue"
	"github.com/iliyamo/apartment-portal/internal/repository"
	"github.com/iliyamo/apartment-portal/internal/router"
	"github.com/iliyamo/apartment-portal/internal/session"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	var sessions session.Store
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, "session", cfg.SessionTTL)
	} else {
		log.Printf("redis unavailable: sessions are kept in memory, rate limiting and caching are off")
		sessions = session.NewMemoryStore()
	}

	client := backend.New(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout))
	cookie := middleware.Cookie{Name: cfg.SessionCookie, TTL: cfg.SessionTTL, Secure: cfg.CookieSecure}
	deps := handler.NewDeps(client, sessions, cookie, cfg.ListTTL)

	if cfg.DB.Enabled {
		db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("mysql: %v", err)
		}
		deps.Audit = repository.NewAuditRepo(db)
	}

	if cfg.EventsEnabled {
		deps.Publisher = queue.NewPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartBillConsumer(ctx, cfg.RabbitURL, cfg.EventsLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("bill-consumer: stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.Register(e, deps, router.Options{
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, backend=%s)", addr, cfg.Env, cfg.BackendURL)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
