package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/agrirelief/internal/config"
	"github.com/iliyamo/agrirelief/internal/database"
	"github.com/iliyamo/agrirelief/internal/handler"
	"github.com/iliyamo/agrirelief/internal/identity"
	"github.com/iliyamo/agrirelief/internal/middleware"
	"github.com/iliyamo/agrirelief/internal/queue"
	"github.com/iliyamo/agrirelief/internal/repository"
	"github.com/iliyamo/agrirelief/internal/router"
	"github.com/iliyamo/agrirelief/internal/seed"
	"github.com/iliyamo/agrirelief/internal/service"
	"github.com/iliyamo/agrirelief/internal/storage"
)

// stores groups the repositories selected by STORE_DRIVER.
type stores struct {
	reports  service.ReportStore
	users    identity.ProfileStore
	contacts handler.ContactStore
	ping     handler.Pinger
	close    func() error
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		reports := repository.NewMemoryReportRepo()
		users := repository.NewMemoryUserRepo()
		contacts := repository.NewMemoryContactRepo()
		if err := seed.Run(ctx, users, contacts, nil); err != nil {
			return stores{}, err
		}
		log.Printf("store: using in-memory store (seeded %d profiles)", len(seed.Users()))
		return stores{reports: reports, users: users, contacts: contacts, close: func() error { return nil }}, nil
	}
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, err
	}
	return stores{
		reports:  repository.NewReportRepo(db),
		users:    repository.NewUserRepo(db),
		contacts: repository.NewContactRepo(db),
		ping:     db,
		close:    db.Close,
	}, nil
}

func main() {
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.close()

	blobs, blobCloser, err := storage.New(ctx, cfg.UseGCS, cfg.GCSBucket, cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer blobCloser.Close()
	uploadDir := ""
	if local, ok := blobs.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}

	// Redis is optional: without it rate limiting and caching are disabled
	// and idempotency keys live in process memory.
	rdb := config.NewRedisClient()
	var idem service.Idempotency = service.NewMemoryIdempotency(cfg.IdempotencyTTL)
	if rdb != nil {
		defer rdb.Close()
		idem = service.NewRedisIdempotency(rdb, cfg.IdempotencyTTL)
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	rlCfg := config.LoadRateLimitConfig()
	limiter := middleware.NewRateLimiter(rlCfg, rdb)

	var events service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.RabbitMQURL)
		go func() {
			if err := queue.StartReportConsumer(ctx, cfg.RabbitMQURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report-consumer: stopped: %v", err)
			}
		}()
	}

	resolver := identity.NewResolver(st.users)
	reports := service.NewReportService(service.Deps{
		Reports:     st.reports,
		Identity:    resolver,
		Blobs:       blobs,
		Events:      events,
		Idempotency: idem,
		Cache:       cache,
	}, service.Options{
		StoreTimeout:   cfg.StoreTimeout,
		HideUnverified: cfg.HideUnverified,
		MaxImages:      cfg.MaxImages,
		MaxImageBytes:  cfg.MaxImageBytes,
	})

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.BodyLimit(bodyLimit(cfg)))

	router.Register(e, router.Handlers{
		Reports:  handler.NewReportHandler(reports),
		Official: handler.NewOfficialHandler(reports),
		Profiles: handler.NewProfileHandler(resolver),
		Contacts: handler.NewContactHandler(st.contacts),
		Ready:    handler.Ready(st.ping),
	}, router.Options{
		JWTSecret:      cfg.JWTSecret,
		Identity:       resolver,
		Cache:          cache,
		Limiter:        limiter,
		Capacity:       rlCfg.Capacity,
		SubmitCapacity: rlCfg.SubmitCapacity,
		UploadDir:      uploadDir,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s, hide_unverified=%t)", addr, cfg.Env, cfg.StoreDriver, cfg.HideUnverified)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// bodyLimit allows every image of a submission plus a margin for the
// form fields.
func bodyLimit(cfg config.Config) string {
	kb := int64(cfg.MaxImages)*cfg.MaxImageBytes/1024 + 1024
	return fmt.Sprintf("%dK", kb)
}
