package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/user-access-management/internal"
	"github.com/frahmantamala/user-access-management/internal/auth"
	"github.com/frahmantamala/user-access-management/internal/transport/rest"
	"github.com/frahmantamala/user-access-management/internal/transport/swagger"
	"github.com/frahmantamala/user-access-management/internal/user"
	userMemory "github.com/frahmantamala/user-access-management/internal/user/memory"
	userPostgres "github.com/frahmantamala/user-access-management/internal/user/postgres"
	"github.com/frahmantamala/user-access-management/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle authentication and registration requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sql.DB
	Router      *chi.Mux
	AuthHandler *auth.Handler
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, deps.AuthHandler, deps.Config.Observability, deps.Logger)

	if err := swagger.ValidateSpec(context.Background(), "./api/openapi.yml"); err != nil {
		deps.Logger.Warn("openapi spec failed validation, docs may be broken", "error", err)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if deps.DB != nil {
			if err := deps.DB.Close(); err != nil {
				slog.Error("Database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	store, sqlDB, err := initStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user store: %w", err)
	}

	hasher := auth.NewBcryptHasher(config.Security.BCryptCost)
	tokens := auth.NewJWTTokenGenerator(config.Security.SessionSecret, config.Security.SessionDuration)
	authService := auth.NewService(store, hasher)
	registration := auth.NewRegistrationService(store, hasher)
	policy := auth.DefaultPolicy()

	return &Dependencies{
		Config:      config,
		DB:          sqlDB,
		Router:      chi.NewRouter(),
		AuthHandler: auth.NewHandler(authService, registration, tokens, policy),
		Logger:      lg,
	}, nil
}

// initStore opens the configured user store. The returned *sql.DB is nil for
// the memory store and otherwise used for pooling limits and health checks.
func initStore(cfg *internal.Config) (user.Store, *sql.DB, error) {
	if cfg.Database.Driver == "memory" {
		store := userMemory.New()
		if err := seedSampleUsers(store, cfg.Security.BCryptCost); err != nil {
			return nil, nil, fmt.Errorf("seed memory store: %w", err)
		}
		return store, nil, nil
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.Source)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Source)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	// TranslateError is required so unique violations surface as
	// gorm.ErrDuplicatedKey on both backends.
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return userPostgres.NewStore(db), sqlDB, nil
}

// seedSampleUsers installs the same fixture accounts the seed command loads
// into SQL backends. Without them a memory-backed server would start with no
// administrator, and registration could never be unlocked.
func seedSampleUsers(store *userMemory.Store, cost int) error {
	now := time.Now()
	for i, f := range sampleUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), cost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", f.Username, err)
		}
		store.Seed(user.User{
			ID:           int64(i + 1),
			Username:     f.Username,
			PasswordHash: string(hash),
			Role:         f.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return nil
}
