// Package main Orders API
//
// Order creation and payment reconciliation. Payments are confirmed by the
// checkout client and by the gateway webhook; both paths converge on one
// idempotent state machine.
//
//	@title			Orders API
//	@version		1.0
//	@description	Order creation and payment reconciliation service
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.email	support@example.com
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8082
//	@BasePath	/
//	@schemes	https http
//
//	@securityDefinitions.apikey	PrincipalAuth
//	@in							header
//	@name						X-Principal-ID
package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	_ "go-orders/docs/swagger"
	"go-orders/internal/notifications"
	notifyadapters "go-orders/internal/notifications/adapters"
	"go-orders/internal/orders/adapters"
	"go-orders/internal/orders/application"
	"go-orders/internal/orders/infrastructure"
	"go-orders/internal/orders/ports"
	"go-orders/pkg/config"
	"go-orders/pkg/db"
	"go-orders/pkg/events"
	grpcpkg "go-orders/pkg/grpc"
	"go-orders/pkg/logger"
	"go-orders/pkg/metrics"
	"go-orders/pkg/middleware"
	"go-orders/pkg/rabbitmq"
	"go-orders/pkg/tls"
)

func main() {
	// Load configuration
	cfg := config.LoadForService("orders")

	// Initialize logger
	log := logger.NewWithFormat("orders-service", cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	log.Info("starting orders service")

	// Metrics
	var (
		registry *prometheus.Registry
		mt       *metrics.Metrics
	)
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		mt = metrics.New(registry)
	}

	// Order store
	repo, closeStore := setupOrderStore(cfg, log)
	defer closeStore()

	// Payment gateway and pricing
	gateway := adapters.NewRazorpayGateway(adapters.RazorpayConfig{
		KeyID:     cfg.PaymentKeyID,
		KeySecret: cfg.PaymentKeySecret,
		Timeout:   cfg.PaymentTimeout,
	}, log)

	pricing, err := application.NewPricing(cfg.PaymentCurrency, cfg.OrderTaxRate, cfg.OrderShippingFee, cfg.OrderFreeShippingThreshold)
	if err != nil {
		log.Fatal("invalid pricing configuration: " + err.Error())
	}

	// Customer directory via gRPC
	var customers ports.CustomerDirectory
	if cfg.CustomersGRPCAddr != "" {
		directory, err := adapters.NewGRPCCustomerDirectory(cfg)
		if err != nil {
			log.Warn("failed to connect to customer directory: " + err.Error())
		} else {
			defer directory.Close()
			customers = directory
			log.Info("connected to customer directory")
		}
	}

	// Connect to RabbitMQ
	var (
		publisher       ports.EventPublisher
		rabbitBroadcast notifications.Broadcaster
	)
	rabbitConn, err := rabbitmq.NewConnection(cfg.RabbitMQURL, log)
	if err != nil {
		log.Warn("failed to connect to RabbitMQ, events will be disabled: " + err.Error())
	} else {
		defer rabbitConn.Close()

		pub, err := rabbitmq.NewPublisher(rabbitConn, events.ExchangeOrders, log)
		if err != nil {
			log.Warn("failed to create publisher: " + err.Error())
		} else {
			publisher = adapters.NewRabbitMQPublisher(pub, log)
		}

		notifyPub, err := rabbitmq.NewPublisher(rabbitConn, events.ExchangeNotifications, log)
		if err != nil {
			log.Warn("failed to create notification publisher: " + err.Error())
		} else {
			rabbitBroadcast = notifyadapters.NewRabbitMQBroadcaster(notifyPub, log)
		}
	}

	// Notification fan-out
	broadcaster := setupBroadcaster(cfg, log, rabbitBroadcast)
	notifier := notifications.NewNotifier(
		broadcaster,
		setupMessenger(cfg, log),
		notifications.Config{
			AdminRoom:   cfg.NotifyAdminRoom,
			AdminPhones: cfg.NotifyAdminPhones,
			Timeout:     cfg.NotifyTimeout,
		},
		log, mt,
	)

	// Initialize use cases
	useCase := application.NewOrderUseCase(repo, gateway, customers, publisher, notifier, pricing, mt, log)
	machine := application.NewPaymentStateMachine(repo, cfg.StoreTimeout, mt, log)
	reconciler := application.NewPaymentReconciler(machine, repo, publisher, notifier, application.ReconcilerSecrets{
		KeySecret:     cfg.PaymentKeySecret,
		WebhookSecret: cfg.PaymentWebhookSecret,
	}, mt, log)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Inbound events from other services
	if rabbitConn != nil {
		consumer, err := adapters.NewInboundConsumer(rabbitConn, adapters.NewInboundEventHandler(repo, notifier, log), log)
		if err != nil {
			log.Warn("failed to create inbound consumer: " + err.Error())
		} else if err := consumer.Start(ctx); err != nil {
			log.Warn("failed to start consumer: " + err.Error())
		}
	}

	// Start HTTP server
	router := setupRouter(cfg, log, registry, rabbitConn, infrastructure.NewHTTPHandler(useCase, reconciler))
	httpServer := startHTTPServer(cfg, log, router)

	// Start gRPC server
	grpcServer := setupGRPCServer(cfg, log, infrastructure.NewGRPCServer(useCase, reconciler))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen for gRPC: " + err.Error())
	}

	go func() {
		log.Info("gRPC server listening on :" + cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("gRPC server error: " + err.Error())
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down servers...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown error: " + err.Error())
	}

	// Stop inbound deliveries before draining the notifications they may trigger
	cancel()
	if rabbitConn != nil {
		if err := rabbitConn.Close(); err != nil {
			log.Warn("rabbitmq close error: " + err.Error())
		}
	}
	if err := notifier.Shutdown(shutdownCtx); err != nil {
		log.Warn("notifications still in flight at shutdown: " + err.Error())
	}
	if closer, ok := broadcaster.(io.Closer); ok {
		_ = closer.Close()
	}

	log.Info("servers stopped")
}

func setupOrderStore(cfg *config.Config, log *logger.Logger) (ports.OrderRepository, func()) {
	if cfg.OrderStore == "memory" {
		log.Warn("using in-memory order store, orders are lost on restart")
		return adapters.NewMemoryOrderRepository(), func() {}
	}

	dbConn, err := db.NewConnection(db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Timeout:  cfg.DBTimeout,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database: " + err.Error())
	}
	log.Info("connected to database")

	repo := adapters.NewPostgresOrderRepository(dbConn)
	if err := repo.Migrate(); err != nil {
		log.Fatal("failed to migrate database: " + err.Error())
	}

	return repo, func() {
		if sqlDB, err := dbConn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func setupBroadcaster(cfg *config.Config, log *logger.Logger, rabbit notifications.Broadcaster) notifications.Broadcaster {
	switch cfg.NotifyBroadcastDriver {
	case "nats":
		b, err := notifyadapters.NewNATSBroadcaster(cfg.NATSURL, log)
		if err != nil {
			log.Warn("failed to connect to NATS, broadcasts will be disabled: " + err.Error())
			return nil
		}
		log.Info("broadcasting notifications over NATS")
		return b
	case "none":
		return nil
	default:
		return rabbit
	}
}

func setupMessenger(cfg *config.Config, log *logger.Logger) notifications.Messenger {
	if cfg.MessagingDriver == "twilio" {
		return notifyadapters.NewTwilioMessenger(notifyadapters.TwilioConfig{
			AccountSID:    cfg.MessagingAccountSID,
			AuthToken:     cfg.MessagingAuthToken,
			From:          cfg.MessagingFrom,
			ChannelPrefix: "whatsapp:",
			Timeout:       cfg.NotifyTimeout,
		}, log)
	}
	return notifyadapters.NewLogMessenger(log)
}

func setupRouter(cfg *config.Config, log *logger.Logger, registry *prometheus.Registry, rabbitConn *rabbitmq.Connection, handler *infrastructure.HTTPHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.TraceID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.CORS())
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok", "store": cfg.OrderStore}
		if rabbitConn != nil {
			body["rabbitmq_reconnects"] = rabbitConn.Reconnects()
		}
		c.JSON(http.StatusOK, body)
	})

	return router
}

func startHTTPServer(cfg *config.Config, log *logger.Logger, router *gin.Engine) *http.Server {
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	if cfg.TLSEnabled {
		tlsConfig, err := tls.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile, "", false)
		if err != nil {
			log.Fatal("failed to load TLS config: " + err.Error())
		}
		server.Addr = ":" + cfg.HTTPSPort
		server.TLSConfig = tlsConfig
	}

	go func() {
		var err error
		if server.TLSConfig != nil {
			log.Info("HTTPS server listening on " + server.Addr)
			err = server.ListenAndServeTLS("", "")
		} else {
			log.Info("HTTP server listening on " + server.Addr)
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error: " + err.Error())
		}
	}()

	return server
}

func setupGRPCServer(cfg *config.Config, log *logger.Logger, srv infrastructure.OrderServiceServer) *grpc.Server {
	var opts []grpc.ServerOption

	// Add interceptors
	opts = append(opts, grpc.UnaryInterceptor(grpcpkg.UnaryServerInterceptor(log, cfg.GRPCTimeout)))

	// Configure mTLS if enabled
	if cfg.GRPCMTLSEnabled {
		tlsConfig, err := tls.ServerConfig(
			cfg.TLSCertFile,
			cfg.TLSKeyFile,
			cfg.TLSCAFile,
			true, // require client cert
		)
		if err != nil {
			log.Fatal("failed to load TLS config: " + err.Error())
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
		log.Info("gRPC mTLS enabled")
	}

	server := grpc.NewServer(opts...)
	infrastructure.RegisterOrderServiceServer(server, srv)

	return server
}
