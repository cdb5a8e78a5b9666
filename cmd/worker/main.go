package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"phishguard/internal/classifier"
	"phishguard/internal/config"
	"phishguard/internal/proxy"
	"phishguard/internal/queue"
	"phishguard/internal/scanner"
	"phishguard/internal/storage"
	"phishguard/internal/storage/postgres"
	"phishguard/internal/storage/sqlite"
	"phishguard/internal/worker"
)

func main() {
	log.Println("🚀 Starting PhishGuard Worker...")
	cfg := config.Load()

	// 1. Initialize Redis
	if err := queue.Init(cfg.RedisAddr); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// 2. Initialize Database
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store storage.Storer
		err   error
	)
	switch cfg.DatabaseDriver {
	case "postgres":
		store, err = postgres.New(ctx, cfg.DatabaseURL)
	case "sqlite":
		store, err = sqlite.New(ctx, cfg.DatabaseURL)
	default:
		log.Fatalf("❌ Unknown database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	defer store.Close()
	log.Println("✅ Store ready")

	// 3. Proxies are optional for the worker too.
	if len(cfg.ProxyList) > 0 {
		if err := proxy.Init(cfg.ProxyList, cfg.ProxyConcurrency); err != nil {
			log.Fatalf("❌ Failed to initialize proxy manager: %v", err)
		}
		log.Printf("🛡️  Proxy rotation enabled (%d proxies)", len(cfg.ProxyList))
	}

	// 4. Load the classifier model.
	clf, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		log.Fatalf("❌ Failed to load model: %v", err)
	}
	if _, absent := clf.(classifier.Absent); absent {
		log.Printf("⚠️  No model at %s. Running heuristic-only.", cfg.ModelPath)
	}

	// 5. Start the processing loop; stop cleanly on SIGTERM / SIGINT.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
		<-quit
		cancel()
	}()

	worker.NewRunner(store, scanner.New(clf), cfg.ScanTimeout).Start(ctx)
}
