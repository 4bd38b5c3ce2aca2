package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/yunxin2415/noke/internal/captcha"
	"github.com/yunxin2415/noke/internal/config"
	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/internal/server"
	"github.com/yunxin2415/noke/internal/server/files"
	"github.com/yunxin2415/noke/internal/server/handlers"
	"github.com/yunxin2415/noke/internal/server/storage"
	"github.com/yunxin2415/noke/internal/server/storage/postgres"
	"github.com/yunxin2415/noke/internal/server/storage/sqlite"
	"github.com/yunxin2415/noke/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	createAdmin := flag.Bool("create-admin", false, "Create an admin account and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))

	if err := run(logger, *createAdmin); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, createAdmin bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStorage(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	if createAdmin {
		return createAdminAccount(ctx, store)
	}

	challenges, err := openChallengeStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open captcha store: %w", err)
	}
	defer challenges.Close()

	var uploader handlers.Uploader
	if cfg.Uploads.Enabled {
		client, err := files.NewClient(ctx, files.Options{
			Endpoint:  cfg.Uploads.Endpoint,
			AccessKey: cfg.Uploads.AccessKey,
			SecretKey: cfg.Uploads.SecretKey,
			Bucket:    cfg.Uploads.Bucket,
			UseSSL:    cfg.Uploads.UseSSL,
			PublicURL: cfg.Uploads.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to init uploads: %w", err)
		}
		uploader = client
	}

	logger.Info("starting noke server",
		slog.String("version", Version),
		slog.String("addr", cfg.Addr),
		slog.String("captcha_backend", cfg.Captcha.Backend))

	srv := server.New(logger, cfg, store, challenges, uploader, Version)
	return srv.Run(ctx)
}

// openStorage выбирает backend по DSN: postgres:// подключает PostgreSQL,
// любой другой DSN трактуется как путь к файлу SQLite
func openStorage(ctx context.Context, dsn string) (storage.Storage, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.New(ctx, dsn)
	}
	return sqlite.New(ctx, dsn)
}

func openChallengeStore(cfg *config.Config) (captcha.Store, error) {
	if cfg.Captcha.Backend == "bolt" {
		return captcha.NewBoltStore(cfg.Captcha.BoltPath)
	}
	return captcha.NewMemoryStore(), nil
}

// createAdminAccount интерактивно создает администратора.
// Запускается оператором: noke-server -create-admin
func createAdminAccount(ctx context.Context, store storage.Storage) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Admin username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}

	fmt.Print("Admin email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	password, err := readPassword("Admin password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	hash, err := handlers.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			return fmt.Errorf("username %q is already taken", username)
		}
		if errors.Is(err, storage.ErrEmailTaken) {
			return fmt.Errorf("email %q is already registered", email)
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Admin account %q created\n", username)
	return nil
}

// readPassword читает пароль без отображения на экране
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Переход на новую строку после ввода пароля
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printVersion() {
	fmt.Printf("Noke Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
