package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/docflow/docflow/handlers"
	"github.com/docflow/docflow/internal/config"
	"github.com/docflow/docflow/internal/database"
	docrepo "github.com/docflow/docflow/internal/document/repository"
	docservice "github.com/docflow/docflow/internal/document/service"
	lockrepo "github.com/docflow/docflow/internal/lock/repository"
	lockservice "github.com/docflow/docflow/internal/lock/service"
	"github.com/docflow/docflow/internal/oidc"
	"github.com/docflow/docflow/internal/storage"
	"github.com/docflow/docflow/internal/tokens"
	"github.com/docflow/docflow/internal/users"
	"github.com/docflow/docflow/pkg/logger"
	"github.com/docflow/docflow/pkg/metrics"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/docflow/docflow/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the documents API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Server.LogLevel)
			return serve(cmd.Context(), cfg)
		},
	}
	flags := cmd.Flags()
	flags.String("port", "5001", "listen port")
	flags.String("lock-store", "memory", "lock store: memory|mongo|redis")
	flags.Int("page-max-size", 100, "upper bound for the listing page size")
	mustBindFlag(v, "SERVER_PORT", flags.Lookup("port"))
	mustBindFlag(v, "LOCK_STORE", flags.Lookup("lock-store"))
	mustBindFlag(v, "PAGE_MAX_SIZE", flags.Lookup("page-max-size"))
	return cmd
}

// app is the assembled service plus whatever must be closed on shutdown.
type app struct {
	handler  http.Handler
	closers  []func(context.Context) error
	verifier string
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	a, err := buildApp(ctx, cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.close(shutdownCtx)
	}()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Infof("docflow listening on %s (auth=%s locks=%s)", srv.Addr, a.verifier, cfg.Lock.Store)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func buildApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	a := &app{}
	checks := map[string]handlers.ReadyCheck{}
	fail := func(err error) (*app, error) {
		a.close(context.Background())
		return nil, err
	}

	tp, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	var db *mongo.Database
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, client.Disconnect)
		db = client.Database(cfg.MongoDB.Database)
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	var rdb *redis.Client
	if cfg.Redis.Addr() != "" {
		rdb, err = database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var locks *lockservice.Manager
	switch cfg.Lock.Store {
	case "mongo":
		if db == nil {
			return fail(errors.New("LOCK_STORE=mongo requires MONGODB_URI"))
		}
		locks = lockservice.NewManager(lockrepo.NewMongoRepo(db.Collection("locks")))
	case "redis":
		if rdb == nil {
			return fail(errors.New("LOCK_STORE=redis requires REDIS_HOST"))
		}
		locks = lockservice.NewManager(lockrepo.NewRedisRepo(rdb, cfg.Lock.RedisPrefix))
	default:
		locks = lockservice.NewMemoryManager()
	}

	opts := []docservice.Option{docservice.WithMaxPageSize(cfg.Paging.MaxSize)}
	if cfg.MinIO.Endpoint != "" {
		s, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, docservice.WithArchiver(storage.NewDocumentArchive(s, "")))
	}

	var docs *docservice.Manager
	var userRepo users.UserRepository
	if db != nil {
		repo := docrepo.NewMongoRepo(db.Collection("documents"))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fail(err)
		}
		docs = docservice.NewManager(repo, locks, opts...)
		userRepo = users.NewMongoUserRepository(db.Collection("users"))
	} else {
		logger.Warnf("MONGODB_URI not set: documents are kept in memory")
		docs = docservice.NewMemoryManager(locks, opts...)
		userRepo = users.NewMemoryUserRepository()
	}

	auth, kind, err := selectAuth(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	a.verifier = kind

	var limit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			limit = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window)
		} else {
			limit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	metrics.RegisterCollectors(reg)
	r := handlers.NewRouter(handlers.Dependencies{
		Documents: docs,
		Locks:     locks,
		Users:     users.NewService(userRepo),
		Auth:      auth,
		RateLimit: limit,
		Checks:    checks,
		Gatherer:  gatherer,
	})
	a.handler = r
	if tp.Enabled() {
		a.handler = telemetry.Wrap(r)
	}
	return a, nil
}

// selectAuth picks, in order: Keycloak OIDC, shared-secret JWT, unsigned
// tokens (explicit opt-in), then a trusted header in development.
func selectAuth(ctx context.Context, cfg *config.Config) (gin.HandlerFunc, string, error) {
	if issuer := cfg.Keycloak.Issuer(); issuer != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			return nil, "", err
		}
		return middleware.AuthMiddleware(ver), "oidc", nil
	}
	if cfg.JWT.Secret != "" {
		ver, err := tokens.NewVerifier(cfg.JWT)
		if err != nil {
			return nil, "", err
		}
		return middleware.AuthMiddleware(ver), "jwt", nil
	}
	if cfg.AuthInsecure() {
		logger.Warnf("accepting unsigned tokens (AUTH_ALLOW_INSECURE_TOKEN)")
		return middleware.AuthMiddleware(oidc.NewInsecureVerifier()), "insecure", nil
	}
	if cfg.Development() && cfg.Auth.DevHeader != "" {
		logger.Warnf("no token verifier configured: trusting the %s header", cfg.Auth.DevHeader)
		return middleware.HeaderIdentity(cfg.Auth.DevHeader), "header", nil
	}
	return nil, "", errors.New("no authentication configured: set KEYCLOAK_URL/KEYCLOAK_REALM/KEYCLOAK_CLIENT_ID or JWT_SECRET")
}
