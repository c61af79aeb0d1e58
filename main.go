package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-relay/internal/async"
	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/db"
	relaygrpc "chat-relay/internal/grpc"
	"chat-relay/internal/handlers"
	"chat-relay/internal/highlight"
	"chat-relay/internal/linkpreview"
	"chat-relay/internal/logger"
	"chat-relay/internal/middleware"
	"chat-relay/internal/models"
	"chat-relay/internal/notify"
	"chat-relay/internal/observability"
	"chat-relay/internal/persist"
	"chat-relay/internal/push"
	"chat-relay/internal/rabbitmq"
	"chat-relay/internal/relay"
	"chat-relay/internal/repositories"
	"chat-relay/internal/state"
	"chat-relay/internal/telemetry"
	"chat-relay/internal/ws"
)

const serviceName = "chat-relay"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Relay IRC messages to attached front ends",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getEnv("RELAY_CONFIG", ""), "path to the YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	root.AddCommand(newHashPasswordCmd())
	return root
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for a users[].password_hash entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Tracing.Endpoint, serviceName)
	if err != nil {
		log.Warn("tracing disabled", logger.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
	defer func() { _ = publisher.Close() }()
	if p, ok := publisher.(observability.Publisher); ok {
		observability.SetPublisher(p)
	}
	log.Info("amqp publisher ready",
		logger.String("mode", rabbitmq.PublisherMode(publisher)),
		logger.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)),
	)
	auditor := telemetry.NewAuditEmitter(publisher, cfg.AMQP.AuditRoutingKey, serviceName, cfg.Environment, log)

	registry := newRegistry(cfg)
	for _, s := range registry.All() {
		var networks []string
		for _, n := range s.Networks() {
			networks = append(networks, n.Name())
		}
		log.Info("session loaded", logger.String("user", s.Name()), logger.Strings("networks", networks))
	}
	hub := ws.NewHub(log)

	pipelineOpts := relay.Options{
		Engine:     highlight.NewEngine(),
		Dispatcher: notify.NewDispatcher(push.NewPublisher(publisher, async.Go, log), log),
		Emitter:    hub,
		Prefetcher: newPrefetcher(cfg, publisher, log),
		Logger:     log,
	}

	var saver relay.SessionSaver
	if cfg.Database.DSN != "" {
		database, err := db.Connect(cfg.Database.DSN, log)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer database.Close()
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("migrate db: %w", err)
		}

		store := persist.NewStore(persist.Options{
			Networks:     repositories.NewNetworkRepo(database),
			Messages:     repositories.NewMessageRepo(database),
			Sink:         hub,
			BacklogLimit: cfg.BacklogSize,
			Runner:       async.Go,
			Logger:       log,
		})
		for _, s := range registry.All() {
			if err := store.Restore(ctx, s); err != nil {
				log.Warn("restore session failed", logger.String("user", s.Name()), logger.Error(err))
			}
		}
		pipelineOpts.Saver = store
		pipelineOpts.Backlog = store
		pipelineOpts.MessageLog = store
		saver = store
	} else {
		log.Warn("database disabled, windows and messages are kept in memory only")
	}

	pipeline := relay.New(pipelineOpts)

	authenticator := auth.NewAuthenticator(log,
		auth.NewProxyStrategy(cfg.Auth.ProxyHeader, func(name string) bool {
			_, err := registry.Get(name)
			return err == nil
		}),
		auth.NewLocalStrategy(cfg.PasswordHashes()),
	)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	handlers.RegisterDebugRoutes(router, auditor, cfg.Debug)

	authMiddleware := middleware.AuthMiddleware(authenticator, cfg.Auth.ProxyHeader)
	api := router.Group("/api", authMiddleware)
	handlers.NewRelayHandler(registry, pipeline, saver, auditor).RegisterRoutes(api)
	router.GET("/ws", authMiddleware, ws.NewSessionWebSocketHandler(hub, registry, log).Handle)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := relaygrpc.NewServer(log)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.Info("http server listening", logger.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	grpcServer.SetServing(true)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("server error", logger.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	grpcServer.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", logger.Error(err))
	}
	return runErr
}

// newRegistry builds one session per configured user with the configured
// networks and channel windows.
func newRegistry(cfg *config.Config) *state.Registry {
	registry := state.NewRegistry()
	for _, u := range cfg.Users {
		s := state.NewSession(state.SessionOptions{
			Name:                u.Name,
			Highlights:          u.Highlights,
			HighlightExceptions: u.HighlightExceptions,
			MaxHistory:          cfg.MaxHistory,
		})
		for _, nc := range u.Networks {
			n := s.AddNetwork(state.NetworkOptions{
				UUID:       nc.UUID,
				Name:       nc.Name,
				Host:       nc.Host,
				Nick:       nc.Nick,
				IgnoreList: nc.Ignore,
			})
			for _, ch := range nc.Channels {
				n.FindOrCreateWindow(ch, models.WindowChannel)
			}
		}
		registry.Add(s)
	}
	return registry
}

func newPrefetcher(cfg *config.Config, publisher rabbitmq.Publisher, log logger.Logger) *linkpreview.Prefetcher {
	var cache linkpreview.Cache = linkpreview.NewMemoryCache()
	if cfg.Prefetch.Enabled && cfg.Redis.Addr != "" {
		client, err := linkpreview.Connect(linkpreview.ConnectOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.Warn("redis unavailable, using in-memory link cache", logger.Error(err))
		} else {
			cache = linkpreview.NewRedisCache(client)
		}
	}
	return linkpreview.NewPrefetcher(linkpreview.Options{
		Enabled:   cfg.Prefetch.Enabled,
		Cache:     cache,
		Publisher: publisher,
		TTL:       cfg.Prefetch.TTL,
		MaxLinks:  cfg.Prefetch.MaxLinks,
		Runner:    async.Go,
		Logger:    log,
	})
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
