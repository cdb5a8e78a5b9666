package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phishguard/internal/auth"
	"phishguard/internal/classifier"
	"phishguard/internal/config"
	"phishguard/internal/proxy"
	"phishguard/internal/queue"
	"phishguard/internal/scanner"
	"phishguard/internal/storage"
	"phishguard/internal/storage/postgres"
	"phishguard/internal/storage/sqlite"
)

// Shared handler state, initialized once in main.
var (
	cfg    config.Config
	db     storage.Storer
	engine *scanner.Scanner
	tokens *auth.Manager
)

func main() {
	cfg = config.Load()

	// 1. Load the classifier model. A missing file is fine; the engine
	// falls back to the heuristic score alone.
	clf, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		log.Fatalf("❌ Failed to load model: %v", err)
	}
	if _, absent := clf.(classifier.Absent); absent {
		fmt.Printf("⚠️  No model at %s. Running heuristic-only.\n", cfg.ModelPath)
	} else {
		fmt.Printf("✅ Loaded classifier model from %s\n", cfg.ModelPath)
	}
	engine = scanner.New(clf)

	// 2. Initialize Redis
	fmt.Printf("🔌 Connecting to Redis at %s...\n", cfg.RedisAddr)
	if err := queue.Init(cfg.RedisAddr); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	fmt.Println("✅ Connected to Redis Queue")

	// 3. Initialize Database
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("🔌 Connecting to %s store...\n", cfg.DatabaseDriver)
	db, err = openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	defer db.Close()
	fmt.Println("✅ Store ready & migrations applied")

	// 4. Initialize Proxy Manager
	if len(cfg.ProxyList) > 0 {
		if err := proxy.Init(cfg.ProxyList, cfg.ProxyConcurrency); err != nil {
			log.Fatalf("❌ Failed to initialize proxy manager: %v", err)
		}
		fmt.Printf("🛡️  Proxy rotation enabled (%d proxies, max %d concurrent)\n", len(cfg.ProxyList), cap(proxy.Semaphore))
	} else {
		fmt.Println("⚠️  No proxies configured. Running with direct connections.")
	}

	tokens = auth.NewManager(cfg.JWTSecret, 24*time.Hour)

	// 5. Define Handlers
	mux := newMux()

	// 6. Server Configuration
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful shutdown on SIGTERM / SIGINT.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		fmt.Printf("🚀 PhishGuard Engine running on :%s\n", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	<-quit
	fmt.Println("⏳ Shutdown signal received, draining in-flight requests...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}
	fmt.Println("✅ Server shut down cleanly.")
}

// newMux wires the routes. Single-URL scans and the auth endpoints are
// open so the dashboard works out of the box; only the batch endpoints
// require the API key.
func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/scan", enableCORS(scanHandler))
	mux.HandleFunc("/upload", enableCORS(requireAPIKey(uploadHandler)))
	mux.HandleFunc("/status", enableCORS(requireAPIKey(statusHandler)))
	mux.HandleFunc("/results", enableCORS(requireAPIKey(resultsHandler)))
	mux.HandleFunc("/api/login", enableCORS(loginHandler))
	mux.HandleFunc("/api/signup", enableCORS(signupHandler))
	mux.HandleFunc("/info", enableCORS(infoHandler))
	mux.Handle("/", http.FileServer(http.Dir("./static")))
	return mux
}

func openStore(ctx context.Context, cfg config.Config) (storage.Storer, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	case "sqlite":
		return sqlite.New(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// enableCORS middleware sets CORS headers for frontend access.
// Access-Control-Allow-Origin is permissive; restrict it to the real
// frontend origin in production.
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	guide := map[string]interface{}{
		"service": "PhishGuard Engine",
		"version": "1.0.0",
		"capabilities": []string{
			"TLS Certificate Forensics",
			"Domain Age (RDAP)",
			"Server Geolocation",
			"Content Keyword Analysis",
			"Redirect Chain Tracing",
			"ML Verdict (when model present)",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(guide); err != nil {
		log.Printf("❌ Error encoding /info response: %v", err)
	}
}
