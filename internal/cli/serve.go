package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/payment"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/router"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Migrate     bool
	Consumer    bool
	ShutdownTTL time.Duration
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply the schema before serving")
	cmd.Flags().BoolVar(&opts.Consumer, "consumer", false, "also run the booking log consumer in-process")
	cmd.Flags().DurationVar(&opts.ShutdownTTL, "shutdown-timeout", 10*time.Second, "graceful shutdown limit")
	return cmd
}

func serve(ctx context.Context, opts *ServeOptions) error {
	rt, err := openRuntime(ctx, opts.RootOptions, opts.Migrate)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log
	bcfg := config.LoadBookingConfig()

	// Redis is optional: without it rate limiting and the catalog cache
	// are off and cart locks are process-local.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var locker service.Locker = service.NewLocalLocker()
	if rdb != nil {
		defer rdb.Close()
		locker = service.NewRedisLocker(rdb, "lock:", bcfg.LockTTL)
		log.Info("redis connected")
	} else {
		log.Warn("redis unavailable; rate limiting, catalog cache and shared cart locks disabled")
	}

	var notifier service.Notifier = service.NopNotifier{}
	if bcfg.NotifyEnabled {
		notifier = queue.NewPublisher(bcfg.AMQPURL, bcfg.Queue, bcfg.NotifyTimeout, log)
	}
	if opts.Consumer {
		go func() {
			cc := queue.ConsumerConfig{URL: bcfg.AMQPURL, Queue: bcfg.Queue, LogPath: bcfg.LogPath}
			if err := queue.StartBookingConsumer(ctx, cc, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking consumer stopped", zap.Error(err))
			}
		}()
	}

	svcOpts := service.Options{Locker: locker, Logger: log, HoldTTL: bcfg.HoldTTL}
	rooms := service.NewRoomService(rt.db, svcOpts)
	carts := service.NewCartService(rt.db, svcOpts)
	bookings := service.NewBookingService(rt.db, notifier, svcOpts)
	var gw payment.Gateway = payment.NewOffline()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPublicHandler(rooms, log), middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterCustomer(e, handler.NewCustomerHandler(carts, bookings, gw, bcfg.Currency, log), rt.cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(rooms, bookings, gw, log), rt.cfg.JWTSecret)

	addr := ":" + rt.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", rt.cfg.Env))
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTTL)
	defer cancel()
	return e.Shutdown(sctx)
}
