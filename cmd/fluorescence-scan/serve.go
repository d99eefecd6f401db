package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"time"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/config"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/db"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/graph"
	ilogger "github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/redis"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/rest"
	igorm "github.com/ispyb/fluorescence-scan/internal/gorm"
	"github.com/ispyb/fluorescence-scan/internal/healthz"
	"github.com/ispyb/fluorescence-scan/internal/metrics"
	iredis "github.com/ispyb/fluorescence-scan/internal/redis"
	"github.com/ispyb/fluorescence-scan/internal/s3"
	"github.com/ispyb/fluorescence-scan/internal/telemetry"

	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// shutdownTimeout bounds the time in-flight requests have to complete once
// shutdown begins.
const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the subgraph over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if code := serve(cmd.Context(), logger); code != ecExit {
				return exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().Int("port", 80, "port the API listens on")
	cmd.Flags().String("database-url", "", "ISPyB database connection URL")
	cmd.Flags().String("redis-addr", "", "redis address of the scan cache; caching is disabled when empty")
	return cmd
}

func serve(ctx context.Context, logger *zap.Logger) int {
	ctx, stop := signal.NotifyContext(ctx, unix.SIGTERM, unix.SIGINT)
	defer stop()

	logger.Info("[Startup] Initializing tracer ...")
	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, version, config.OTELCollectorURL())
	if err != nil {
		logger.Error("[Startup] Failed to initialize tracer.", zap.Error(err))
		return ecTracer
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("[Shutdown] Failed to flush tracer.", zap.Error(err))
		}
	}()
	logger.Info("[Startup] Initialized tracer.")

	m := metrics.New(prometheus.DefaultRegisterer)

	logger.Info("[Startup] Connecting to DB ...")
	dbconn, err := db.Open(
		config.DatabaseURL(),
		igorm.WithLogger(logger),
		igorm.WithPool(
			config.DatabaseMaxOpenConns(),
			config.DatabaseMaxIdleConns(),
			config.DatabaseConnMaxLifetime(),
		),
	)
	if err != nil {
		logger.Error("[Startup] Failed to initialize database connection.", zap.Error(err))
		return ecDatabaseConnection
	}
	logger.Info("[Startup] Connected to DB.")

	store := db.NewStore(logger, dbconn, m)
	var source graph.IStore = store

	if addr := config.RedisAddr(); addr != "" {
		logger.Info("[Startup] Connecting to Redis ...")
		rdb, err := iredis.Open(ctx, addr, config.RedisPassword())
		if err != nil {
			logger.Error("[Startup] Failed to initialize Redis client.", zap.Error(err))
			return ecRedisConnection
		}
		defer func() { _ = rdb.Close() }()
		source = redis.New(logger, rdb, store, m, config.CacheTTL())
		logger.Info("[Startup] Connected to Redis.")
	}

	var presigner graph.Presigner
	if bucket := config.S3Bucket(); bucket != "" {
		logger.Info("[Startup] Loading object store configuration ...")
		p, err := s3.New(ctx, s3.Config{
			Bucket:          bucket,
			EndpointURL:     config.S3EndpointURL(),
			AccessKeyID:     config.S3AccessKeyID(),
			SecretAccessKey: config.S3SecretAccessKey(),
			ForcePathStyle:  config.S3ForcePathStyle(),
			Region:          config.S3Region(),
			Expiry:          config.S3PresignExpiry(),
		})
		if err != nil {
			logger.Error("[Startup] Failed to load object store configuration.", zap.Error(err))
			return ecObjectStore
		}
		presigner = p
		logger.Info("[Startup] Loaded object store configuration.")
	}

	logger.Info("[Startup] Building schema ...")
	executable, err := graph.NewExecutableSchema(
		graph.NewResolver(logger, source, presigner),
		graphqlgo.MaxParallelism(config.MaxParallelism()),
		graphqlgo.MaxDepth(config.MaxDepth()),
		graphqlgo.Logger(ilogger.NewPanicLogger(logger)),
	)
	if err != nil {
		logger.Error("[Startup] Failed to build schema.", zap.Error(err))
		return ecSchema
	}
	logger.Info("[Startup] Built schema.")

	health := healthz.NewHTTP(store.Ping)

	logger.Info("[Startup] Creating REST API ...")
	api := rest.NewAPI(
		logger,
		rest.Handlers{
			GraphQL: graph.NewHandler(logger, executable, m),
			Health:  health,
			Metrics: promhttp.Handler(),
		},
		config.RequestTimeout(),
	)
	logger.Info("[Startup] Created REST API.")

	srv := http.Server{
		Handler:      api.Mux,
		Addr:         fmt.Sprintf(":%d", config.Port()),
		ReadTimeout:  config.HTTPReadTimeout(),
		WriteTimeout: config.HTTPWriteTimeout(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Sugar().Infof("[Startup] %s API listening at :%d", serviceName, config.Port())
		health.Healthy()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("while listening and serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		health.Sick()
		logger.Info("[Shutdown] Shutting down API ...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("while shutting down: %w", err)
		}
		logger.Info("[Shutdown] Shut down API.")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("[Startup] Failed to serve API.", zap.Error(err))
		return ecServerAPI
	}
	return ecExit
}
