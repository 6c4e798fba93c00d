/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the flower distribution book server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Open the SQLite snapshot database
  3. Restore the in-memory book from the last snapshot
  4. Create API handler and router
  5. Start server with graceful shutdown

CONFIGURATION:
  -port          HTTP server port (default: 8080, env PORT)
  -db            SQLite database path (default: flowers.db, env DB_PATH)
                 Use ":memory:" for an in-memory database
  BUSINESS_NAME  Header printed on receipts (env only)
  BUSINESS_PHONE Phone printed on receipts (env only)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Save a final snapshot and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/flowers.db"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Snapshot persistence
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/florade/flower-engine/api"
	"github.com/florade/flower-engine/engine"
	"github.com/florade/flower-engine/receipt"
	"github.com/florade/flower-engine/store/sqlite"
)

func main() {
	// .env is optional; flags override environment defaults.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "flowers.db"), "SQLite database path")
	flag.Parse()

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Restore the book from the last snapshot, if any.
	store := engine.NewStore()
	snap, ok, err := db.Load(context.Background())
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}
	if ok {
		store.Restore(snap)
		log.Printf("Restored %d shops, %d transactions", len(snap.Shops), len(snap.Transactions))
	}

	business := receipt.Business{
		Name:  envStr("BUSINESS_NAME", "Coconut Flower"),
		Phone: envStr("BUSINESS_PHONE", ""),
	}

	handler := api.NewHandler(store, business, db)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌼 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Final snapshot so the book on disk matches the book in memory.
	if err := db.Save(ctx, store.Snapshot()); err != nil {
		log.Printf("Final snapshot save failed: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
