package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/houserent/configs"
	"github.com/anjiri1684/houserent/database"
	"github.com/anjiri1684/houserent/handlers"
	"github.com/anjiri1684/houserent/jobs"
	"github.com/anjiri1684/houserent/notifications"
	"github.com/anjiri1684/houserent/payments"
	"github.com/anjiri1684/houserent/pricing"
	"github.com/anjiri1684/houserent/registry"
	"github.com/anjiri1684/houserent/repository"
	"github.com/anjiri1684/houserent/routes"
	"github.com/anjiri1684/houserent/services"
	"github.com/anjiri1684/houserent/websocket"
	"github.com/go-redis/redis"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// runner is a job queue that polls in the background.
type runner interface {
	Run(ctx context.Context) error
}

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("🔥 database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("🔥 migration failed")
	}
	store := repository.New(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dead jobs.DeadLetter = jobs.NewLogDeadLetter(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaDead := jobs.NewKafkaDeadLetter(cfg.KafkaBrokers, cfg.KafkaDeadLetterTopic)
		defer kafkaDead.Close()
		dead = kafkaDead
	}
	router := jobs.NewRouter(dead, log)

	var (
		reg       registry.Registry
		bus       websocket.Bus
		scheduler jobs.Scheduler
		queue     runner
		redisCli  *redis.Client
	)
	if cfg.RedisAddr != "" {
		cli := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := cli.Ping().Err(); err != nil {
			log.WithError(err).Fatal("🔥 redis unavailable")
		}
		defer cli.Close()
		redisCli = cli

		redisQueue := jobs.NewRedisQueue(cli, router, cfg.QueuePollInterval, cfg.QueueWorkers, log)
		reg, bus, scheduler, queue = registry.NewRedisRegistry(cli), websocket.NewRedisBus(cli), redisQueue, redisQueue
		log.WithField("node_id", cfg.NodeID).Info("✅ Redis registry and job queue enabled")
	} else {
		memoryQueue := jobs.NewMemoryQueue(router)
		defer memoryQueue.Close()
		reg, scheduler = registry.NewMemoryRegistry(), memoryQueue
		log.Warn("REDIS_ADDR not set, running as a single node with in-memory registry and timers")
	}

	hub := websocket.NewHub(cfg.NodeID, bus, log)
	dispatcher := notifications.NewDispatcher(reg, hub, log)

	prices := pricing.NewResolver(store, pricing.Config{
		Size:          cfg.PriceCacheSize,
		TTL:           cfg.PriceCacheTTL,
		StrictDisplay: cfg.PriceMatchStrict,
	})
	if redisCli != nil {
		prices.Broadcast(pricing.NewRedisInvalidations(redisCli), log)
	}

	var mailer services.Mailer
	if brevo := notifications.NewBrevoService(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName, log); brevo != nil {
		mailer = brevo
	}
	gateway := payments.NewClient(payments.Config{
		BaseURL:     cfg.PaymentBaseURL,
		MerchantID:  cfg.PaymentMerchantID,
		TestingMode: cfg.PaymentTestingMode,
	}, payments.MD5Signer{Secret: cfg.PaymentSecret}, log)

	matching := services.NewMatchingService(store, prices, dispatcher, scheduler, cfg.ExpiryDelay, cfg.MatchStrictAvailability, log)
	orders := services.NewOrderService(store, prices, dispatcher, log)
	offers := services.NewOfferService(store, store, dispatcher, scheduler, cfg.ExpiryDelay, log)
	services.RegisterExpiryJobs(router, orders, offers)

	h := handlers.NewHandler(handlers.Handler{
		Travels:   services.NewTravelService(store, matching, log),
		Listings:  services.NewListingService(store, prices, log),
		Orders:    orders,
		Offers:    offers,
		Payments:  services.NewPaymentService(store, store, offers, gateway, dispatcher, mailer, cfg.WebhookBaseURL+"/api/v1/payments/result", log),
		CatchUp:   services.NewCatchUpService(store, prices, dispatcher, log),
		Registry:  reg,
		Hub:       hub,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	c := cron.New()
	if _, err := jobs.NewSweeper(store, router, log).Start(c, cfg.SweepInterval); err != nil {
		log.WithError(err).Fatal("🔥 schedule expiry sweep")
	}
	c.Start()
	defer c.Stop()
	log.Info("✅ Cron job for expiry sweep scheduled successfully.")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return prices.Listen(gctx) })
	if queue != nil {
		g.Go(func() error { return queue.Run(gctx) })
	}

	app := fiber.New(fiber.Config{
		AppName:       "HouseRent",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler(log),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to HouseRent API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.Register(app, h, cfg.JWTSecret)

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	log.Infof("✅ Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("🔥 Server failed")
		stop()
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("background worker stopped")
	}
}
