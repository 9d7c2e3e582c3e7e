package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-admission/internal/admission"
	"ms-admission/internal/auditlog"
	"ms-admission/internal/config"
	"ms-admission/internal/gatelock"
	"ms-admission/internal/kafka"
	"ms-admission/internal/logger"
	"ms-admission/internal/scan_api"
	"ms-admission/internal/tickets"
	ticket_db "ms-admission/internal/tickets/db"
	"ms-admission/internal/tickettype"
)

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open postgres: %v", err))
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to postgres: %v", err))
	}
	log.Info("DATABASE", "Postgres connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger("admission")
	defer log.Close()

	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	store := ticket_db.New(bunDB)
	registry := tickettype.Default()

	var producer *kafka.Producer
	audit := auditlog.NewMultiSink(auditlog.NewDBSink(bunDB))
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{kafka.TopicScanLog, kafka.TopicTicketLifecycle}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic bootstrap failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		audit = auditlog.NewMultiSink(auditlog.NewDBSink(bunDB), producer)
		log.Info("KAFKA", fmt.Sprintf("Producer connected to %v", cfg.Kafka.Brokers))
	}

	coordinator := admission.NewCoordinator(store, audit, log)
	coordinator.MaxRetries = cfg.Admission.MaxTxRetries
	coordinator.AllowPartialUseCancel = cfg.Admission.AllowPartialUseCancel
	if producer != nil {
		coordinator.Events = producer
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis unavailable, gate lock disabled: %v", err))
		} else {
			defer rdb.Close()
			coordinator.Lock = gatelock.New(rdb, cfg.Admission.GateLockTTL)
			log.Info("REDIS", fmt.Sprintf("Gate lock connected to %s", cfg.Redis.Addr))
		}
	}

	var ticketService *tickets.Service
	if producer != nil {
		ticketService = tickets.NewService(store, registry, producer, log)
	} else {
		ticketService = tickets.NewService(store, registry, nil, log)
	}

	handler := scan_api.NewHandler(coordinator, ticketService, log)

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Admission service on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Admission service shutdown complete")
}
