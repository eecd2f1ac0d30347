package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gwi.com/pdf-chat/internal/api"
	"gwi.com/pdf-chat/internal/config"
	"gwi.com/pdf-chat/internal/core"
	"gwi.com/pdf-chat/internal/qaclient"
	"gwi.com/pdf-chat/internal/store"
)

const (
	sweepInterval = time.Minute
	pruneInterval = 24 * time.Hour
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Printf("Service starting in DEBUG mode (backend %s)", config.AppConfig.APIURL)
	}

	pruneFlag := flag.Bool("prune-activity", false, "Delete activity older than ACTIVITY_RETENTION_DAYS and exit")
	flag.Parse()

	// Initialize activity journal
	journal, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer journal.Close()

	if *pruneFlag {
		n, err := journal.PruneActivity(context.Background(), time.Now().Add(-config.AppConfig.ActivityRetention))
		if err != nil {
			log.Fatalf("Activity pruning failed: %v", err)
		}
		log.Printf("Pruned %d activity entries. Exiting.", n)
		return
	}

	client := qaclient.NewClient(config.AppConfig.APIURL)
	sessions := core.NewSessionService(client, journal, core.Options{
		ReplacePlaceholderOnError: config.AppConfig.ReplacePlaceholderOnError,
	})

	apiHandler := api.NewAPIHandler(sessions, journal, config.AppConfig.MaxUploadBytes, config.AppConfig.AllowedOrigins)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: answers take as long as the backend needs and
		// websockets stay open.
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", serverAddr, err)
		}
		return nil
	})

	g.Go(func() error {
		runJanitor(gctx, sessions, journal)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped with error: %v", err)
		journal.Close()
		os.Exit(1)
	}
	log.Println("Server exiting gracefully")
}

// runJanitor evicts idle sessions and trims the activity journal until ctx
// is done.
func runJanitor(ctx context.Context, sessions *core.SessionService, journal *store.SQLiteStore) {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			sessions.Sweep(config.AppConfig.SessionIdleTTL)
		case <-prune.C:
			n, err := journal.PruneActivity(ctx, time.Now().Add(-config.AppConfig.ActivityRetention))
			if err != nil {
				log.Printf("Error pruning activity: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Pruned %d activity entries", n)
			}
		}
	}
}
