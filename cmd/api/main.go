package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"candyshop/internal/cart"
	"candyshop/internal/config"
	"candyshop/internal/db"
	"candyshop/internal/httpserver"
	"candyshop/internal/logging"
	categoryrepo "candyshop/internal/repository/category"
	orderrepo "candyshop/internal/repository/order"
	productrepo "candyshop/internal/repository/product"
	publisherrepo "candyshop/internal/repository/publisher"
	userrepo "candyshop/internal/repository/user"
	catalogsvc "candyshop/internal/service/catalog"
	ordersvc "candyshop/internal/service/order"
	usersvc "candyshop/internal/service/user"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	var cartKV cart.KV
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("connect to redis")
		}
		defer client.Close()
		cartKV = cart.NewRedisKV(client, cfg.CartTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("cart storage: redis")
	} else {
		cartKV = cart.NewMemoryKV()
		logger.Warn().Msg("cart storage: in-memory, carts are lost on restart")
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool, logger)
	publisherRepo := publisherrepo.NewPostgres(dbpool, logger)
	userRepo := userrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	catalogService := catalogsvc.New(productRepo, categoryRepo, publisherRepo, logger)
	orderService := ordersvc.New(orderRepo, productRepo, cfg.ShippingFee, logger)
	userService := usersvc.New(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.OTPTTL, logger)

	pricePolicy := cart.PricePinned
	if cfg.PricePolicy == "live" {
		pricePolicy = cart.PriceLive
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:        catalogService,
		Orders:         orderService,
		Users:          userService,
		CartKV:         cartKV,
		PricePolicy:    pricePolicy,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}
