package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	HTTPPort string

	// DatabaseDriver selects the scan store backend: "sqlite" or "postgres".
	DatabaseDriver string
	DatabaseURL    string

	RedisAddr string

	// ModelPath points at the exported forest model. An absent file is
	// not an error; the engine runs heuristic-only without it.
	ModelPath string

	JWTSecret string
	APIKey    string

	// ProxyList is a comma separated list of proxy URLs. Empty disables
	// proxy rotation and all requests go out directly.
	ProxyList        []string
	ProxyConcurrency int

	ScanTimeout time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is merged in first when present.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("📄 Loaded environment from .env")
	}

	return Config{
		HTTPPort:         getEnv("PHISHGUARD_PORT", "8080"),
		DatabaseDriver:   getEnv("PHISHGUARD_DB_DRIVER", "sqlite"),
		DatabaseURL:      getEnv("PHISHGUARD_DB_URL", "phishguard.db"),
		RedisAddr:        getEnv("PHISHGUARD_REDIS_ADDR", "localhost:6379"),
		ModelPath:        getEnv("PHISHGUARD_MODEL_PATH", "phishing_model.json"),
		JWTSecret:        getEnv("PHISHGUARD_JWT_SECRET", "dev-secret-change-me"),
		APIKey:           getEnv("PHISHGUARD_API_KEY", ""),
		ProxyList:        getEnvList("PHISHGUARD_PROXIES"),
		ProxyConcurrency: getEnvInt("PHISHGUARD_PROXY_CONCURRENCY", 10),
		ScanTimeout:      getEnvDuration("PHISHGUARD_SCAN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
