package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agentauth/core/internal/engine"
	"github.com/agentauth/core/internal/guard"
	"github.com/agentauth/core/internal/httpapi"
	"github.com/agentauth/core/internal/metrics"
	"github.com/agentauth/core/internal/store"
	"github.com/agentauth/core/internal/store/pgstore"
	"github.com/agentauth/core/internal/store/redisstore"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting agentauth challenge engine")

	secret := []byte(requireEnv(log, "AGENTAUTH_SECRET"))

	cfg := engine.DefaultConfig(secret)
	if v := os.Getenv("CHALLENGE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChallengeTTL = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("TOKEN_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TokenTTL = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinScore = f
		}
	}
	if os.Getenv("POMI_DISABLED") == "true" {
		cfg.PoMI.Enabled = false
	}
	if os.Getenv("SESSION_TRACKING_ENABLED") == "true" {
		cfg.Timing.SessionTrackingEnabled = true
	}

	st, closeStore := buildStore(log)
	if closeStore != nil {
		defer closeStore()
	}

	eng := engine.New(cfg, st)
	eng.SetLogger(log)
	g := guard.New(guard.Config{Secret: secret, MinScore: cfg.MinScore})

	router := httpapi.SetupRouter(eng, g, log)

	// Serve Prometheus metrics on a private mux, never mixed into the
	// public gin router — same separation the teacher keeps between its
	// API router and its WebSocket hub's internal bookkeeping.
	go serveMetrics(log, getEnvOrDefault("METRICS_PORT", "9090"))

	port := getEnvOrDefault("PORT", "8080")
	log.Info("engine listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func serveMetrics(log *zap.Logger, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	log.Info("metrics listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error("metrics server exited", zap.Error(err))
	}
}

// buildStore picks the challenge store backend from STORE_BACKEND
// (memory|postgres|redis), defaulting to the in-memory reference
// store. Returns an optional close func for backends holding external
// connections.
func buildStore(log *zap.Logger) (store.ChallengeStore, func()) {
	switch getEnvOrDefault("STORE_BACKEND", "memory") {
	case "postgres":
		dsn := requireEnv(log, "DATABASE_URL")
		pg, err := pgstore.Connect(context.Background(), dsn)
		if err != nil {
			log.Fatal("postgres store connect failed", zap.Error(err))
		}
		return pg, pg.Close
	case "redis":
		addr := requireEnv(log, "REDIS_ADDR")
		rs, err := redisstore.New(context.Background(), redisstore.Config{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			KeyPrefix: getEnvOrDefault("REDIS_KEY_PREFIX", "agentauth:challenge:"),
		})
		if err != nil {
			log.Fatal("redis store connect failed", zap.Error(err))
		}
		closeFn := func() {
			if err := rs.Close(); err != nil {
				log.Warn("redis store close failed", zap.Error(err))
			}
		}
		return rs, closeFn
	default:
		log.Info("using in-memory challenge store; set STORE_BACKEND=postgres|redis for a durable backend")
		return store.NewMemoryStore(), nil
	}
}

// requireEnv reads a required environment variable and exits if unset,
// the same fail-loud posture the teacher's main.go uses for
// credentials.
func requireEnv(log *zap.Logger, key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatal("required environment variable not set", zap.String("key", key))
	}
	return val
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
