package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-ce/internal/api"
	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/logger"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/session"
	"github.com/helpdesk-io/helpdesk-ce/internal/shared"
	"github.com/helpdesk-io/helpdesk-ce/internal/storage"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Helpdesk ticketing system",
	Long: `Helpdesk Command Line Interface

A small ticketing system: users register, log in and file support
tickets; administrators review open tickets and respond to them.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the helpdesk web server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create an administrator account directly in the database.

Administrators cannot be created through the web registration form;
this command is the only way to grant the admin role.`,
	RunE: runCreateAdmin,
}

var (
	usernameFlag string
	passwordFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config file (default config.yaml, overridable with CONFIG_PATH)")

	createAdminCmd.Flags().StringVar(&usernameFlag, "username", "", "Username for the new administrator (required)")
	createAdminCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the new administrator (required)")
	createAdminCmd.MarkFlagRequired("username")
	createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPathFlag
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}
	if err := config.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config.Get(), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to start: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()
	log.Info("connected to database", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}

	var sessions session.Store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.Redis.Session.Prefix, cfg.Redis.Session.TTL)
		log.Info("using redis session store", zap.String("addr", cfg.Redis.GetRedisAddr()))
	} else {
		sessions = session.NewMemoryStore(cfg.Redis.Session.TTL)
		log.Info("using in-memory session store")
	}

	renderer, err := shared.NewTemplateRenderer(cfg.Server.TemplateDir)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	files, err := storage.NewFilesystemBackend(cfg.Storage.Attachments.Path, cfg.Storage.Attachments.MaxSize)
	if err != nil {
		return fmt.Errorf("failed to initialize attachment storage: %w", err)
	}

	accounts := repository.NewSQLAccountRepository(db)
	tickets := repository.NewSQLTicketRepository(db)

	hasher := auth.NewPasswordHasher(cfg.Auth.Password.BcryptCost)
	authSvc := auth.NewAuthService(accounts, hasher, cfg.Auth.Password.MinLength, log)
	ticketSvc := service.NewTicketService(tickets, files, log)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.AccessTokenTTL)
	gate := middleware.NewGate(sessions, jwtManager, cfg.Auth.Session.CookieName, cfg.Auth.Session.MaxAge, cfg.Auth.Session.Secure)

	router := api.NewRouter(renderer, gate, sessions, authSvc, ticketSvc, jwtManager, cfg, log)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	fmt.Println("Schema is up to date.")
	return nil
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	username := strings.TrimSpace(usernameFlag)
	if username == "" || passwordFlag == "" {
		return fmt.Errorf("username and password must not be blank")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	accounts := repository.NewSQLAccountRepository(db)
	if _, err := accounts.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("account %q already exists", username)
	}

	account := &models.Account{Username: username, IsAdmin: true}
	if err := account.SetPassword(passwordFlag, cfg.Auth.Password.BcryptCost); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := accounts.Create(ctx, account); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	fmt.Printf("Administrator %q created (id %d).\n", account.Username, account.ID)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
