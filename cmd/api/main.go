package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limitermw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/shopfront/internal/auth"
	"github.com/noah-isme/shopfront/internal/catalog"
	"github.com/noah-isme/shopfront/internal/checkout"
	"github.com/noah-isme/shopfront/internal/common"
	"github.com/noah-isme/shopfront/internal/config"
	"github.com/noah-isme/shopfront/internal/coupon"
	"github.com/noah-isme/shopfront/internal/health"
	"github.com/noah-isme/shopfront/internal/obs"
	"github.com/noah-isme/shopfront/internal/order"
	"github.com/noah-isme/shopfront/internal/shipping"
	"github.com/noah-isme/shopfront/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "shopfront-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	queries := store.New(pool)

	authSvc := &auth.Service{Q: queries, R: redisClient, TTL: cfg.SessionTTL}
	authHandler := &auth.Handler{
		Svc:          authSvc,
		CookieName:   cfg.SessionCookieName,
		CookieSecure: cfg.SessionCookieSecure,
		SessionTTL:   cfg.SessionTTL,
	}
	requireAdmin := auth.RequireAdmin(authSvc, cfg.SessionCookieName)

	catalogHandler := &catalog.Handler{
		Q:     queries,
		Cache: &catalog.Cache{Client: redisClient, TTL: cfg.CatalogCacheTTL},
		Log:   logger,
	}

	shippingSvc := &shipping.Service{Q: queries}
	shippingHandler := &shipping.Handler{Svc: shippingSvc, Q: queries}

	couponSvc := &coupon.Service{Q: queries}
	couponHandler := &coupon.Handler{Svc: couponSvc, Q: queries}

	orderSvc := &order.Service{Tx: order.PoolRunner{Pool: pool}}
	orderHandler := &order.Handler{Svc: orderSvc, Q: queries}

	checkoutSvc := &checkout.Service{
		R:       redisClient,
		TTL:     cfg.CheckoutSessionTTL,
		TaxBps:  cfg.TaxRateBPS,
		Coupons: couponSvc,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	loginRate, err := limiter.NewRateFromFormatted(cfg.LoginRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse login rate limit")
	}
	loginLimiterStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "ratelimit:login"})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise login rate limiter")
	}
	loginLimiter := limitermw.NewMiddleware(limiter.New(loginLimiterStore, loginRate))

	buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
	httpMetrics := obs.NewHTTPMetrics("shopfront", buckets, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{Checker: health.Probes{Pool: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Get("/categories", catalogHandler.ListCategories)
		api.Get("/categories/{id}", catalogHandler.GetCategory)
		api.Get("/products", catalogHandler.ListProducts)
		api.Get("/products/{id}", catalogHandler.GetProduct)
		api.Get("/shipping/carriers", shippingHandler.ListCarriers)
		api.Post("/shipping/calculate", shippingHandler.Calculate)
		api.Post("/coupons/validate", couponHandler.Validate)

		api.With(idem.Middleware).Post("/orders", orderHandler.Create)

		api.Route("/checkout", func(c chi.Router) {
			c.With(idem.Middleware).Post("/", checkoutHandler.Create)
			c.Get("/{id}", checkoutHandler.Get)
			c.Put("/{id}/information", checkoutHandler.PutInformation)
			c.Put("/{id}/shipping", checkoutHandler.PutShipping)
			c.Put("/{id}/payment", checkoutHandler.PutPayment)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.With(loginLimiter.Handler).Post("/login", authHandler.Login)
			admin.Post("/setup", authHandler.Setup)
			admin.Get("/session", authHandler.Session)

			admin.Group(func(priv chi.Router) {
				priv.Use(requireAdmin)
				priv.Post("/logout", authHandler.Logout)

				priv.Post("/categories", catalogHandler.CreateCategory)
				priv.Put("/categories/{id}", catalogHandler.UpdateCategory)
				priv.Delete("/categories/{id}", catalogHandler.DeleteCategory)

				priv.Post("/products", catalogHandler.CreateProduct)
				priv.Put("/products/{id}", catalogHandler.UpdateProduct)
				priv.Delete("/products/{id}", catalogHandler.DeleteProduct)

				priv.Post("/shipping/carriers", shippingHandler.CreateCarrier)
				priv.Put("/shipping/carriers/{id}", shippingHandler.UpdateCarrier)
				priv.Delete("/shipping/carriers/{id}", shippingHandler.DeleteCarrier)
				priv.Get("/shipping/rates", shippingHandler.ListRates)
				priv.Post("/shipping/rates", shippingHandler.CreateRate)
				priv.Put("/shipping/rates/{id}", shippingHandler.UpdateRate)
				priv.Delete("/shipping/rates/{id}", shippingHandler.DeleteRate)

				priv.Get("/coupons", couponHandler.List)
				priv.Post("/coupons", couponHandler.Create)
				priv.Patch("/coupons/{id}", couponHandler.Update)
				priv.Delete("/coupons/{id}", couponHandler.Delete)

				priv.Get("/orders", orderHandler.List)
				priv.Get("/orders/{id}", orderHandler.Get)
				priv.Patch("/orders/{id}/status", orderHandler.UpdateStatus)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()
	stop()

	logger.Info().Msg("shutting down")
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelDrain()
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
