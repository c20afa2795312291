// Package versus wires the room engine, storage, and HTTP surface into a
// runnable server.
package versus

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	httpapi "github.com/gridduel/gridduel/internal/api/http"
	"github.com/gridduel/gridduel/internal/platform/config"
	"github.com/gridduel/gridduel/internal/platform/otel"
	"github.com/gridduel/gridduel/internal/storage/sqlite"
	"github.com/gridduel/gridduel/internal/versus/notify"
	"github.com/gridduel/gridduel/internal/versus/puzzle"
	"github.com/gridduel/gridduel/internal/versus/service"
)

// Config holds the server settings. Environment variables provide defaults;
// flags override them.
type Config struct {
	Port            int           `env:"VERSUS_PORT" envDefault:"8080"`
	DBPath          string        `env:"VERSUS_DB_PATH" envDefault:"versus.db"`
	CleanupInterval time.Duration `env:"VERSUS_CLEANUP_INTERVAL" envDefault:"10m"`
}

// ParseConfig loads configuration from the environment, then applies flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.DurationVar(&cfg.CleanupInterval, "cleanup-interval", cfg.CleanupInterval, "interval between expired-room sweeps")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	return cfg, nil
}

// logResultRecorder logs finished games. Completion bookkeeping stays
// best-effort, so the log is the durable record until a stats sink exists.
type logResultRecorder struct{}

func (logResultRecorder) RecordResult(_ context.Context, result service.GameResult) error {
	for _, player := range result.Players {
		log.Printf("room %s finished: %s (%s) score=%d mistakes=%d won=%t",
			result.RoomID, player.Name, player.Slot, player.Score, player.Mistakes, player.Won)
	}
	return nil
}

// Run starts the server and blocks until the context is cancelled or a
// component fails.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := otel.Setup(ctx, "versus")
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("shut down tracing: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	svc := service.New(
		service.Stores{Rooms: store, Purchases: store},
		notify.New(store),
		puzzle.NewBacktrackGenerator(),
		service.WithResultRecorder(logResultRecorder{}),
	)
	api := httpapi.New(svc, store)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				deleted, err := svc.CleanupExpired(ctx)
				if err != nil {
					log.Printf("cleanup expired rooms: %v", err)
					continue
				}
				if deleted > 0 {
					log.Printf("reclaimed %d expired rooms", deleted)
				}
			}
		}
	})

	return g.Wait()
}
