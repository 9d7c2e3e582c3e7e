package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-admission/internal/models"
)

// migrate creates the admission tables. Pass -reset to drop them first.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open postgres: %v", err)
	}
	defer sqldb.Close()

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	tables := []interface{}{
		(*models.Ticket)(nil),
		(*models.ScanLogEntry)(nil),
		(*models.AdminAction)(nil),
	}

	if len(os.Args) > 1 && os.Args[1] == "-reset" {
		log.Println("Dropping tables...")
		for _, model := range tables {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				log.Fatalf("Failed to drop table: %v", err)
			}
		}
	}

	log.Println("Creating tables...")
	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("Failed to create table: %v", err)
		}
	}

	log.Println("Done.")
}
