package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/cart"
	"github.com/xenking/shop-api/internal/domain/order"
	"github.com/xenking/shop-api/internal/domain/shipment"
	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/internal/events"
	"github.com/xenking/shop-api/internal/handler"
	"github.com/xenking/shop-api/internal/seed"
	"github.com/xenking/shop-api/internal/storage/memory"
	"github.com/xenking/shop-api/internal/storage/postgres"
	"github.com/xenking/shop-api/pkg/health"
	"github.com/xenking/shop-api/pkg/httpmiddleware"
)

// storage is the set of repositories the order service runs on.
type storage struct {
	users     user.Repository
	shipments shipment.Repository
	carts     cart.Repository
	tx        order.Transactor
	orders    order.Repository
	close     func()
}

func openPostgres(ctx context.Context, cfg *Config, hc *health.Health) (*storage, error) {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	hc.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))

	return &storage{
		users:     postgres.NewUserRepository(pool),
		shipments: postgres.NewShipmentRepository(pool),
		carts:     postgres.NewCartRepository(pool),
		tx:        postgres.NewTransactor(pool, cfg.Order.RollbackTimeout),
		orders:    postgres.NewOrderRepository(pool),
		close:     pool.Close,
	}, nil
}

func openMemory(ctx context.Context, cfg *Config) (*storage, error) {
	store := memory.NewStore()
	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return nil, errors.Wrap(err, "load seed")
		}
		if err := f.Apply(ctx, store.Seeder()); err != nil {
			return nil, errors.Wrap(err, "apply seed")
		}
	}
	return &storage{
		users:     store.Users(),
		shipments: store.Shipments(),
		carts:     store.Carts(),
		tx:        store,
		orders:    store.Orders(),
		close:     func() {},
	}, nil
}

// newPublisher returns a Kafka publisher, or a no-op one when no brokers are
// configured, and its close function.
func newPublisher(lg *zap.Logger, cfg KafkaConfig) (order.Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		lg.Info("Kafka brokers not configured, order events disabled")
		return events.Nop{}, func() {}, nil
	}
	p, err := events.NewPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create event publisher")
	}
	return p, func() {
		if err := p.Close(); err != nil {
			lg.Warn("Close event publisher", zap.Error(err))
		}
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	// Health check service.
	healthSvc := health.New()
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Add(health.Liveness, "gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	var (
		st  *storage
		err error
	)
	switch cfg.Storage {
	case StorageMemory:
		st, err = openMemory(ctx, cfg)
	default:
		st, err = openPostgres(ctx, cfg, healthSvc)
	}
	if err != nil {
		return err
	}
	defer st.close()

	publisher, closePublisher, err := newPublisher(lg, cfg.Kafka)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Domain services.
	orderService, err := order.NewService(
		st.users,
		st.shipments,
		cart.NewReader(st.users, st.carts),
		st.tx,
		st.orders,
		order.ServiceConfig{
			Timeout:        cfg.Order.Timeout,
			MeterProvider:  m.MeterProvider(),
			TracerProvider: m.TracerProvider(),
			Events:         publisher,
		},
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.NewHandler(
		handler.HandlerConfig{JWTSecret: []byte(cfg.JWTSecret), Health: healthSvc},
		st.users,
		orderService,
	)
	routeFinder := httpmiddleware.MakeRouteFinder(h.Mux())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Order.Timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(h,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				ExposeHeaders:    []string{httpmiddleware.HeaderRequestID},
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("shop-api", routeFinder, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
