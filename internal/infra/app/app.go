package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/cleanops/backoffice-core/internal/core/port"
	"github.com/cleanops/backoffice-core/internal/infra/config"
	"github.com/cleanops/backoffice-core/internal/infra/database"
	"github.com/cleanops/backoffice-core/internal/infra/logger"
	"github.com/cleanops/backoffice-core/internal/infra/security"
	mongorepo "github.com/cleanops/backoffice-core/internal/repository/mongodb"
	"github.com/cleanops/backoffice-core/internal/transport/http/middleware"
	"github.com/cleanops/backoffice-core/internal/transport/http/routes"
	"github.com/cleanops/backoffice-core/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	db     *mongo.Database
}

// databaseChecker adapts the Mongo client to the readiness probe contract.
type databaseChecker struct {
	db *mongo.Database
}

func (c databaseChecker) Ping(ctx context.Context) error {
	return c.db.Client().Ping(ctx, nil)
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewMongoDatabase(ctx, cfg.Mongo, log)
	if err != nil {
		return nil, fmt.Errorf("init mongodb: %w", err)
	}

	if err := database.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	keyProvider, err := newKeyProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("init key provider: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	signer, err := security.NewTokenSigner(keyProvider, cfg.JWT.KeyID)
	if err != nil {
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	clock := port.SystemClock{}

	accounts := mongorepo.NewAccountRepository(db.Collection(database.CollectionAccounts))
	directory := mongorepo.NewPersonDirectory(
		db.Collection(database.CollectionModerators),
		db.Collection(database.CollectionWorkers),
	)
	crews := mongorepo.NewCrewRepository(db.Collection(database.CollectionCrews))
	securityLog := mongorepo.NewSecurityEventRepository(db.Collection(database.CollectionSecurityEvents))

	tokenService, err := usecase.NewTokenService(cfg, signer, clock)
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}

	authService, err := usecase.NewAuthService(cfg, accounts, directory, tokenService, securityLog, clock, log)
	if err != nil {
		return nil, fmt.Errorf("init auth service: %w", err)
	}

	crewService := usecase.NewCrewService(cfg, crews, directory, clock, log)
	provisioning := usecase.NewProvisioningService(cfg, accounts, directory, securityLog, clock, log)

	if err := provisioning.EnsureAdministrator(ctx); err != nil {
		return nil, fmt.Errorf("seed administrator: %w", err)
	}
	created, err := provisioning.SyncModerators(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync moderator accounts: %w", err)
	}
	if len(created) > 0 {
		log.Info("moderator accounts provisioned", zap.Int("count", len(created)))
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  metrics,
		Database: databaseChecker{db: db},
		Services: routes.ServiceSet{
			Auth:  authService,
			Crews: crewService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		db:     db,
	}, nil
}

// newKeyProvider loads PEM keys from disk outside development. Development
// falls back to an ephemeral in-memory key pair when no directory is
// configured so the service starts without secrets on disk.
func newKeyProvider(cfg *config.AppConfig) (security.KeyProvider, error) {
	provider, err := security.NewFileKeyProvider(cfg.JWT.KeyDirectory)
	if err == nil {
		return provider, nil
	}
	if cfg.App.Env == "development" {
		return security.NewEphemeralKeyProvider(cfg.JWT.KeyID)
	}
	return nil, err
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.db != nil {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.db.Client().Disconnect(disconnectCtx)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting back-office API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
