/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the front-desk ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Seed or repair the persisted header row, resolve the schema
  4. Open the ledger and wire the engine, calculator, invoice service
  5. Start the HTTP server and the historical sweeper

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080, env PORT)
  -db        SQLite database path (default: frontdesk.db, env DATABASE_PATH)
             Use ":memory:" for an in-memory database
  -invoices  Directory for generated invoice documents (env INVOICE_DIR)
  -tax       Default tax rate as a fraction (default: 0.13, env DEFAULT_TAX_RATE)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper, close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/frontdesk.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
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
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/innkeep/frontdesk/api"
	"github.com/innkeep/frontdesk/engine"
	"github.com/innkeep/frontdesk/invoice"
	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/lifecycle"
	"github.com/innkeep/frontdesk/quote"
	"github.com/innkeep/frontdesk/schema"
	"github.com/innkeep/frontdesk/store/sqlite"
)

func main() {
	// .env is optional; flags and real env vars win.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "frontdesk.db"), "SQLite database path")
	invoiceDir := flag.String("invoices", envStr("INVOICE_DIR", "./invoices"), "Invoice output directory")
	taxRate := flag.String("tax", envStr("DEFAULT_TAX_RATE", "0.13"), "Default tax rate (fraction)")
	flag.Parse()

	defaultTax, err := decimal.NewFromString(*taxRate)
	if err != nil {
		log.Fatalf("Invalid default tax rate %q: %v", *taxRate, err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Seed or repair the header row before anything reads the schema.
	headers, err := store.LoadHeaders(ctx)
	if err != nil {
		log.Fatalf("Failed to load headers: %v", err)
	}
	if len(headers) == 0 {
		headers = schema.CanonicalHeaders()
		if err := store.SaveHeaders(ctx, headers); err != nil {
			log.Fatalf("Failed to seed headers: %v", err)
		}
		log.Printf("Seeded canonical header row (%d columns)", len(headers))
	} else if repaired := schema.Repair(headers); !slices.Equal(repaired, headers) {
		if err := store.SaveHeaders(ctx, repaired); err != nil {
			log.Fatalf("Failed to save repaired headers: %v", err)
		}
		headers = repaired
		log.Printf("Repaired header row")
	}

	sch := schema.Resolve(headers)
	if missing := sch.MissingRequired(); len(missing) > 0 {
		log.Printf("Warning: required columns missing, dependent operations degrade: %v", missing)
	}

	// Open the ledger
	led, err := ledger.Open(ctx, store)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	log.Printf("Ledger opened: %d rows, %d rooms", led.Len(), len(led.Rooms()))

	// Wire the domain
	calc := quote.NewCalculator(defaultTax)
	seq := invoice.NewSequence(store)
	invoices := invoice.NewService(seq, invoice.FileGenerator{Dir: *invoiceDir}, calc)
	eng := engine.New(led, store)
	controller := lifecycle.New(led, sch, calc, invoices, eng)

	handler := &api.Handler{
		Ledger:      led,
		Schema:      sch,
		Headers:     headers,
		Controller:  controller,
		Engine:      eng,
		Invoices:    invoices,
		Calc:        calc,
		SetOverride: store.SetOverride,
	}

	// Background repair of historical marking
	sweeper := api.NewHistoricalSweeper(led)
	sweeper.Start()
	defer sweeper.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
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
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
