package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/Regera24/AstraMindProject/internal/adapter/cache"
	oauthadapter "github.com/Regera24/AstraMindProject/internal/adapter/oauth"
	"github.com/Regera24/AstraMindProject/internal/bootstrap"
	"github.com/Regera24/AstraMindProject/internal/config"
	httptransport "github.com/Regera24/AstraMindProject/internal/http"
	"github.com/Regera24/AstraMindProject/internal/http/handler"
	httpmiddleware "github.com/Regera24/AstraMindProject/internal/http/middleware"
	"github.com/Regera24/AstraMindProject/internal/mail"
	apimiddleware "github.com/Regera24/AstraMindProject/internal/middleware"
	"github.com/Regera24/AstraMindProject/internal/otp"
	"github.com/Regera24/AstraMindProject/internal/repository"
	"github.com/Regera24/AstraMindProject/internal/server"
	"github.com/Regera24/AstraMindProject/internal/service"
	"github.com/Regera24/AstraMindProject/internal/telemetry"
	"github.com/Regera24/AstraMindProject/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newAccountRepository,
			newRedisClient,
			newSessionStore,
			newTokenCodec,
			newOtpStore,
			newFederator,
			newMailer,
			newRateLimiter,
			service.NewCredentialService,
			newAuthHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureAdmin, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return repository.NewPostgresAccountRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newSessionStore(client redis.UniversalClient) repository.SessionStore {
	return cacheadapter.NewRedisSessionStore(client)
}

func newTokenCodec(cfg config.Config) (*token.Codec, error) {
	return token.NewCodec(token.Config{
		Issuer:        cfg.JWTIssuer,
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
}

func newOtpStore(lc fx.Lifecycle, accounts repository.AccountRepository, cfg config.Config, logger *zap.Logger) *otp.Store {
	store := otp.NewStore(accounts, cfg.OTPTTL, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			store.Close()
			return nil
		},
	})
	return store
}

func newFederator(cfg config.Config) oauthadapter.Federator {
	return oauthadapter.NewGoogleClient(oauthadapter.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
		TokenURL:     cfg.GoogleTokenURL,
		UserInfoURL:  cfg.GoogleUserInfoURL,
	}, nil)
}

func newMailer(cfg config.Config, logger *zap.Logger) mail.Mailer {
	if cfg.Environment == "development" && cfg.SMTPUser == "" {
		return &mail.LogMailer{Logger: logger}
	}
	return mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthHandler(svc *service.CredentialService, cfg config.Config) *handler.AuthHandler {
	return &handler.AuthHandler{Svc: svc, Cfg: cfg}
}

func newAuthMiddleware(codec *token.Codec) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Codec: codec}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
