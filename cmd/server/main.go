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
	"github.com/labstack/echo/v4/middleware"

	"github.com/yudha-ap/absensi-backend/internal/config"
	"github.com/yudha-ap/absensi-backend/internal/es"
	"github.com/yudha-ap/absensi-backend/internal/handlers"
	"github.com/yudha-ap/absensi-backend/internal/logging"
	authmw "github.com/yudha-ap/absensi-backend/internal/middleware/auth"
	"github.com/yudha-ap/absensi-backend/internal/middleware/hmacguard"
	"github.com/yudha-ap/absensi-backend/internal/mykafka"
	"github.com/yudha-ap/absensi-backend/internal/nonce"
	"github.com/yudha-ap/absensi-backend/internal/push"
	"github.com/yudha-ap/absensi-backend/internal/service/auth"
	"github.com/yudha-ap/absensi-backend/internal/service/token"
	httpserver "github.com/yudha-ap/absensi-backend/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(configuration.HMAC_SECRET, "HMAC_SECRET")

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	prod := mykafka.NewProducer(configuration.KafkaBrokers())

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	tokens := token.NewService(
		[]byte(configuration.JWT_SECRET),
		configuration.RefreshSecretBytes(logger),
	)
	authSvc := &auth.Service{DB: db, Tokens: tokens}
	guard := hmacguard.New([]byte(configuration.HMAC_SECRET), nonce.NewMemoryStore())
	mw := &authmw.Middleware{DB: db, Tokens: tokens, Producer: prod}
	sender := &push.KafkaSender{Producer: prod, Topic: "push_events"}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Svc: authSvc},
		AbsensiHandler: &handlers.AbsensiHandler{DB: db, Producer: prod, Push: sender},
		LokasiHandler:  &handlers.LokasiHandler{DB: db},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "absensi"},
		Auth:           mw,
		Hmac:           guard,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
