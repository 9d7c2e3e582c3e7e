package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-admission/internal/admission"
	"ms-admission/internal/auditlog"
	"ms-admission/internal/logger"
	"ms-admission/internal/scan_api"
	"ms-admission/internal/tickets"
	ticket_db "ms-admission/internal/tickets/db"
	"ms-admission/internal/tickettype"
)

// gate-service is the trimmed deployment for venue gates: scan intake only,
// no issuance, no kafka. Audit goes to the database sink.
func verifyConnections() *bun.DB {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("[Database] POSTGRES_DSN not set")
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("[Database] Failed to open postgres: %v", err)
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatalf("[Database] Failed to connect to postgres: %v", err)
	}
	log.Println("[Database] Postgres connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	_ = godotenv.Load()

	bunDB := verifyConnections()
	defer bunDB.Close()

	appLog := logger.NewLogger("gate")
	defer appLog.Close()

	store := ticket_db.New(bunDB)
	coordinator := admission.NewCoordinator(store, auditlog.NewDBSink(bunDB), appLog)
	ticketService := tickets.NewService(store, tickettype.Default(), nil, appLog)
	handler := scan_api.NewHandler(coordinator, ticketService, appLog)

	r := chi.NewRouter()
	r.Post("/scan", handler.SubmitScan)
	r.Post("/scan/manual", handler.ManualScan)

	server := &http.Server{
		Addr:    ":8081",
		Handler: r,
	}

	go func() {
		log.Println("Gate service on :8081")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Println("Gate service shutdown complete")
}
