// Command arenacore is the composition root: it wires the matchmaker,
// coordinator, ledger bridge, event hub, and HTTP/WS surface into one
// process and runs until SIGINT/SIGTERM (spec §5, §6).
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wagerlab/arenacore/infrastructure/config"
	"github.com/wagerlab/arenacore/infrastructure/logging"
	"github.com/wagerlab/arenacore/infrastructure/metrics"
	"github.com/wagerlab/arenacore/infrastructure/middleware"
	"github.com/wagerlab/arenacore/internal/api"
	"github.com/wagerlab/arenacore/internal/coordinator"
	"github.com/wagerlab/arenacore/internal/domain"
	"github.com/wagerlab/arenacore/internal/engine"
	"github.com/wagerlab/arenacore/internal/hub"
	"github.com/wagerlab/arenacore/internal/ledger"
	"github.com/wagerlab/arenacore/internal/matchmaker"
	"github.com/wagerlab/arenacore/internal/repository"
	"github.com/wagerlab/arenacore/internal/repository/migrations"
)

func main() {
	logger := logging.NewFromEnv("arenacore")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := config.RequireEnv("DATABASE_URL")
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	db, err := repository.Open(rootCtx, dsn,
		config.GetEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
		config.GetEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
	)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()

	if err := migrations.Apply(rootCtx, db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	store := repository.New(db)

	oracle, err := ledger.NewOracleFromEnv()
	if err != nil {
		log.Fatalf("load oracle key: %v", err)
	}

	rpcURL := config.GetEnv("SOLANA_RPC_URL", "")
	programID := config.GetEnv("LEDGER_PROGRAM_ID", oracle.PublicKeyBase58())
	ledgerClient := ledger.NewClient(rpcURL, programID, logger)
	bridge := ledger.NewBridge(ledgerClient, oracle, programID, logger)
	signer := ledger.NewOracleSigner(oracle)

	eventHub := hub.New(nil)

	mode := domain.ModeImmediate
	if config.GetEnvBool("ENABLE_STAKING", false) {
		mode = domain.ModeWagering
	}

	coord := coordinator.New(store, bridge, eventHub, engine.Run, coordinator.Options{
		Mode:                 mode,
		MaxConcurrentBattles: config.GetEnvInt("MAX_CONCURRENT_BATTLES", coordinator.DefaultMaxConcurrentBattles),
	})
	mm := matchmaker.New(store, coord, nil)

	if err := coord.Start(rootCtx); err != nil {
		log.Fatalf("start coordinator: %v", err)
	}
	defer coord.Stop()
	if err := mm.Start(rootCtx); err != nil {
		log.Fatalf("start matchmaker: %v", err)
	}
	defer mm.Stop()

	rateLimiter := middleware.NewRateLimiterWithWindow(100, time.Minute, 20, logger)
	stopCleanup := rateLimiter.StartCleanup(5 * time.Minute)
	defer stopCleanup()

	health := middleware.NewHealthChecker(config.GetEnv("ARENA_VERSION", "dev"))
	health.RegisterCheck("database", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	})
	health.RegisterCheck("solanaRpc", func() error {
		if rpcURL == "" {
			return fmt.Errorf("SOLANA_RPC_URL not configured")
		}
		return nil
	})
	health.RegisterCheck("oracle", func() error {
		if oracle == nil {
			return fmt.Errorf("oracle key not loaded")
		}
		return nil
	})

	var metricsInstance *metrics.Metrics
	if metrics.Enabled() {
		metricsInstance = metrics.Init("arenacore")
	}

	router := api.NewRouter(api.Deps{
		Coordinator: coord,
		Matchmaker:  mm,
		Repo:        store,
		Bridge:      bridge,
		Hub:         eventHub,
		Oracle:      oracle,
		Signer:      signer,
		Auth:        api.NewWalletAuthenticator(),
		RateLimiter: rateLimiter,
		Log:         logger,
		Health:      health,
		Metrics:     metricsInstance,
		StartedAt:   time.Now(),
	})

	port := config.GetPort(8080)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  config.GetDefaultTimeouts().HTTPServer,
		WriteTimeout: config.GetDefaultTimeouts().HTTPServer,
	}

	go func() {
		log.Printf("arenacore listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDefaultTimeouts().Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
