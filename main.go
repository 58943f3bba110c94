package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"car-listing-service/internal/config"
	"car-listing-service/internal/handler"
	"car-listing-service/internal/logging"
	"car-listing-service/internal/middleware"
	mongoclient "car-listing-service/internal/mongo"
	"car-listing-service/internal/repository"
	"car-listing-service/internal/repository/memory"
	"car-listing-service/internal/repository/postgres"
	"car-listing-service/internal/search"
	"car-listing-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.LoggingConfig())
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		logging.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer closeStore()

	deps.Auth = middleware.NewJWTAuth(cfg.Auth.JWTSecret, cfg.Auth.Algorithms)
	deps.RequestTimeout = cfg.Server.RequestTimeout
	deps.TrustedProxies = cfg.Server.TrustedProxies
	if !cfg.RateLimit.Disabled {
		deps.Limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		deps.Limiter.StartCleanup(10 * time.Minute)
		defer deps.Limiter.Stop()
	}

	router, err := handler.NewRouter(deps)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build router")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Str("driver", cfg.Store.Driver).Msg("car listing service started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	logging.Info().Msg("server stopped")
}

// openStore connects the configured backend and builds the services on
// top of it. The returned func releases the connection.
func openStore(ctx context.Context, sc config.StoreConfig) (handler.Deps, func(), error) {
	switch sc.Driver {
	case config.DriverMongo:
		client, err := mongoclient.NewMongoClient(ctx, sc.MongoURI, sc.DialTimeout)
		if err != nil {
			return handler.Deps{}, nil, err
		}
		db := client.Database(sc.MongoDB)
		if err := mongoclient.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return handler.Deps{}, nil, err
		}
		st := repository.NewStore(db)
		deps := handler.Deps{
			Search:    search.NewService(st.Listings, st.Reviews, st.Views),
			Cars:      service.NewCarService(st.Listings, st.Photos),
			Reviews:   service.NewReviewService(st.Reviews, st.Listings),
			Views:     service.NewViewService(st.Listings, st.Views, st.Favorites),
			Favorites: service.NewFavoriteService(st.Favorites, st.Listings),
		}
		return deps, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				logging.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}, nil

	case config.DriverPostgres:
		st, err := postgres.Connect(ctx, sc.DatabaseURL, sc.DialTimeout)
		if err != nil {
			return handler.Deps{}, nil, err
		}
		deps := handler.Deps{
			Search:    search.NewService(st.Listings, st.Reviews, st.Views),
			Cars:      service.NewCarService(st.Listings, nil),
			Reviews:   service.NewReviewService(st.Reviews, st.Listings),
			Views:     service.NewViewService(st.Listings, st.Views, st.Favorites),
			Favorites: service.NewFavoriteService(st.Favorites, st.Listings),
		}
		return deps, func() {
			if err := st.Close(); err != nil {
				logging.Warn().Err(err).Msg("postgres close failed")
			}
		}, nil

	default:
		logging.Warn().Msg("using the in-memory store; data is lost on restart")
		st := memory.NewStore()
		deps := handler.Deps{
			Search:    search.NewService(st.Listings, st.Reviews, st.Views),
			Cars:      service.NewCarService(st.Listings, nil),
			Reviews:   service.NewReviewService(st.Reviews, st.Listings),
			Views:     service.NewViewService(st.Listings, st.Views, st.Favorites),
			Favorites: service.NewFavoriteService(st.Favorites, st.Listings),
		}
		return deps, func() {}, nil
	}
}
