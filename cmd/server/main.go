package main // Entry point package

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // .env loading for local runs
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/hospitality-reservation/internal/audit"
	"github.com/iliyamo/hospitality-reservation/internal/booking"
	"github.com/iliyamo/hospitality-reservation/internal/config" // Internal config loader
	"github.com/iliyamo/hospitality-reservation/internal/coupon"
	"github.com/iliyamo/hospitality-reservation/internal/database"
	"github.com/iliyamo/hospitality-reservation/internal/handler"
	"github.com/iliyamo/hospitality-reservation/internal/logger"
	"github.com/iliyamo/hospitality-reservation/internal/middleware"
	"github.com/iliyamo/hospitality-reservation/internal/notify"
	"github.com/iliyamo/hospitality-reservation/internal/pricing"
	"github.com/iliyamo/hospitality-reservation/internal/queue"
	"github.com/iliyamo/hospitality-reservation/internal/repository"
	"github.com/iliyamo/hospitality-reservation/internal/router" // Internal router setup
	"github.com/iliyamo/hospitality-reservation/internal/store"
	"github.com/iliyamo/hospitality-reservation/internal/store/memory"
)

func main() {
	_ = godotenv.Load()  // a missing .env is fine outside local development
	cfg := config.Load() // Load environment config
	logger.InitLogger(cfg.Env)
	log := logger.Log
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, db, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	holidays, err := pricing.ParseMonthDays(cfg.ExtraHolidays)
	if err != nil {
		log.Fatal("invalid PRICING_EXTRA_HOLIDAYS", zap.Error(err))
	}
	pricer := pricing.NewEngine(holidays...)

	notifiers := notify.Fanout{notify.NewLogNotifier(log)}
	if cfg.EventsEnabled {
		notifiers = append(notifiers, queue.NewPublisher(cfg.RabbitMQURL, log))
	}
	auditor := audit.NewZapAuditor(log)

	bookings := booking.NewService(st, pricer, notifiers, auditor, log, booking.SystemClock, cfg.TimeZone)
	coupons := coupon.NewEngine(st, auditor, log, time.Now)

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}
	auth := router.Auth{
		JWTSecret: cfg.JWTSecret,
		Limiter:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	bookingHandler := handler.NewBookingHandler(bookings, log)
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db}) // Register application routes
	router.RegisterPublic(e, handler.NewPublicHandler(bookings, log), middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterCustomer(e, bookingHandler, handler.NewCouponHandler(coupons, log), auth)
	router.RegisterBookingRead(e, bookingHandler, auth)
	router.RegisterHost(e, bookingHandler, auth)
	router.RegisterAdmin(e, handler.NewAdminHandler(bookings, log), auth)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port // Address string with port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if cfg.EventsConsumerEnabled {
		consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.EventsLogPath, log)
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return
	}
	log.Info("server stopped")
}

// openStore selects the storage backend.  The returned *sql.DB is nil for
// the in-memory store.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, *sql.DB, error) {
	if !cfg.UsesSQL() {
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil, nil
	}
	dialect, err := repository.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(database.Config{
		Driver:  string(dialect),
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		SSLMode: cfg.DBSSLMode,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBMigrate {
		if err := database.RunMigrations(ctx, db, string(dialect)); err != nil {
			_ = db.Close()
			return nil, nil, errors.Wrap(err, "migrate")
		}
		log.Info("database migrated", zap.String("driver", string(dialect)))
	}
	return repository.NewStore(db, dialect), db, nil
}
