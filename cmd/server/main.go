// Package main initializes and starts the my-notes vault server, setting
// up configuration, logging, storage backends, repositories, services,
// handlers, background jobs and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/auth"
	"github.com/palamut62/my-notes/internal/codec"
	"github.com/palamut62/my-notes/internal/config"
	"github.com/palamut62/my-notes/internal/db"
	"github.com/palamut62/my-notes/internal/gate"
	"github.com/palamut62/my-notes/internal/logger"
	"github.com/palamut62/my-notes/internal/objectstore"
	"github.com/palamut62/my-notes/internal/repository"
	"github.com/palamut62/my-notes/internal/server/handler/http"
	"github.com/palamut62/my-notes/internal/service"
	"github.com/palamut62/my-notes/internal/session"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(cmp.Or(options.LogLevel, "info")); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if options.JWTSecret == "" {
		zapLogger.Fatal("jwt secret is required")
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Service credentials are only needed to remove account records.
	var admin service.UserDeleter
	if options.AdminDatabaseDSN != "" {
		adminDB, err := db.OpenPostgres(options.AdminDatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot open admin database", zap.Error(err))
		}
		defer adminDB.Close()
		admin = repository.NewPostgresAdminRepository(adminDB)
	} else {
		zapLogger.Warn("admin database not configured, account deletion will stop before the account record")
	}

	format, err := codec.ParseFormat(options.CodecFormat)
	if err != nil {
		zapLogger.Fatal("invalid codec format", zap.Error(err))
	}
	var codecOpts []codec.Option
	codecOpts = append(codecOpts, codec.WithFormat(format))
	if options.CodecPepper != "" {
		codecOpts = append(codecOpts, codec.WithPepper([]byte(options.CodecPepper)))
	}
	sealer := codec.New(codecOpts...)

	store, err := newObjectStore(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init object storage", zap.Error(err))
	}

	limiter, err := newLimiter(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init verification limiter", zap.Error(err))
	}

	sessions := session.NewManager(options.SessionIdleTTL.Duration, limiter)
	sessions.StartSweeper(ctx, time.Minute, zapLogger)

	tokens, err := auth.NewTokenManager(options.JWTSecret, options.TokenTTL.Duration)
	if err != nil {
		zapLogger.Fatal("cannot init token manager", zap.Error(err))
	}

	providers := map[string]auth.Provider{}
	if options.GoogleClientID != "" {
		providers["google"] = auth.NewGoogleProvider(options.GoogleClientID, options.GoogleClientSecret, options.GoogleRedirectURL)
	}

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	profileRepo := repository.NewPostgresProfileRepository(postgresDB)
	noteRepo := repository.NewPostgresNoteRepository(postgresDB)
	passwordRepo := repository.NewPostgresPasswordRepository(postgresDB)
	fileRepo := repository.NewPostgresFileRepository(postgresDB)
	deletionRepo := repository.NewPostgresDeletionRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, profileRepo, sealer, sessions, tokens, providers, zapLogger)
	noteService := service.NewNoteService(noteRepo, sealer, zapLogger)
	passwordService := service.NewPasswordService(passwordRepo, sealer, zapLogger)
	fileService := service.NewFileService(fileRepo, store, zapLogger)
	accountService := service.NewAccountService(
		deletionRepo,
		service.UserDataRepos{Profiles: profileRepo, Files: fileRepo, Notes: noteRepo, Passwords: passwordRepo},
		store, admin, authService, sessions, zapLogger,
	)

	// Background jobs.
	db.StartTrashCleaner(ctx, noteRepo, time.Hour, options.TrashRetention.Duration, zapLogger)
	if options.DeletionResumeInterval.Duration > 0 {
		accountService.StartDeletionResumer(ctx, options.DeletionResumeInterval.Duration)
	}

	tlsEnabled := options.TLSCert != "" && options.TLSKey != ""

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth:      &http.AuthHandler{AuthService: authService, SecureCookies: tlsEnabled},
		Notes:     &http.NoteHandler{NoteService: noteService},
		Passwords: &http.PasswordHandler{PasswordService: passwordService},
		Files:     &http.FileHandler{FileService: fileService},
		Account:   &http.AccountHandler{AccountService: accountService},
	}, authService, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if tlsEnabled {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

// newObjectStore returns the S3 store when a bucket is configured and an
// in-memory store otherwise.
func newObjectStore(ctx context.Context, o *config.Options, log *zap.Logger) (objectstore.Store, error) {
	if o.S3Bucket == "" {
		log.Warn("s3 bucket not configured, files are kept in memory")
		return objectstore.NewMemory(), nil
	}
	return objectstore.NewS3(ctx, objectstore.S3Config{
		Bucket:    o.S3Bucket,
		Region:    o.S3Region,
		Endpoint:  o.S3Endpoint,
		PathStyle: o.S3PathStyle,
	}, log)
}

// newLimiter bounds failed code submissions when VerifyMaxAttempts is set,
// in Redis when an address is configured.
func newLimiter(ctx context.Context, o *config.Options, log *zap.Logger) (gate.Limiter, error) {
	if o.VerifyMaxAttempts <= 0 {
		return gate.Unlimited{}, nil
	}
	if o.RedisAddr == "" {
		log.Info("verification attempts limited in memory", zap.Int("max", o.VerifyMaxAttempts))
		return gate.NewMemoryLimiter(o.VerifyMaxAttempts, o.VerifyWindow.Duration), nil
	}

	client := redis.NewClient(&redis.Options{Addr: o.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("verification attempts limited in redis", zap.Int("max", o.VerifyMaxAttempts))
	return gate.NewRedisLimiter(client, o.VerifyMaxAttempts, o.VerifyWindow.Duration), nil
}
