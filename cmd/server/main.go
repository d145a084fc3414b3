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

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/avdeev/storefront/internal/config"
	"github.com/avdeev/storefront/internal/db"
	"github.com/avdeev/storefront/internal/es"
	"github.com/avdeev/storefront/internal/handlers"
	"github.com/avdeev/storefront/internal/httpserver"
	"github.com/avdeev/storefront/internal/images"
	"github.com/avdeev/storefront/internal/logging"
	authmw "github.com/avdeev/storefront/internal/middleware/auth"
	loggingmw "github.com/avdeev/storefront/internal/middleware/logging"
	"github.com/avdeev/storefront/internal/mykafka"
	"github.com/avdeev/storefront/internal/payments"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	database, err := db.Open(context.Background(), configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	ingestor := &images.Ingestor{StaticDir: configuration.STATIC_DIR}
	if err := ingestor.EnsureDirs(); err != nil {
		log.Fatalf("static dirs error: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer(configuration.KAFKA_ADDRESS)
	}

	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	provider := payments.NewStripeProvider(configuration.STRIPE_API, configuration.BASE_URL)

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	e := echo.New()
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:            database,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
			Producer:      producer,
		},
		CatalogHandler: &handlers.CatalogHandler{
			DB:       database,
			Ingestor: ingestor,
			Producer: producer,
			ES:       esClient,
			Index:    "items",
		},
		CartHandler: &handlers.CartHandler{
			DB:       database,
			Producer: producer,
		},
		CheckoutHandler: &handlers.CheckoutHandler{
			DB:       database,
			Provider: provider,
			Producer: producer,
		},
		SearchHandler: &handlers.SearchHandler{
			ES:    esClient,
			Index: "items",
		},
		TokenService: &authmw.TokenService{
			DB:            database,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
		},
		StaticDir: configuration.STATIC_DIR,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
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

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
