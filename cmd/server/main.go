package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/zenwallet/authbroker/auth"
	"github.com/zenwallet/authbroker/authcode"
	pgcoderepo "github.com/zenwallet/authbroker/authcode/pgrepo"
	codesrepofake "github.com/zenwallet/authbroker/authcode/repofake"
	"github.com/zenwallet/authbroker/clients"
	fakeclientrepo "github.com/zenwallet/authbroker/clients/fakerepo"
	pgclientrepo "github.com/zenwallet/authbroker/clients/pgrepo"
	"github.com/zenwallet/authbroker/internal/config"
	"github.com/zenwallet/authbroker/internal/db"
	"github.com/zenwallet/authbroker/internal/db/migrate"
	"github.com/zenwallet/authbroker/server"
	"github.com/zenwallet/authbroker/sso"
	pgssorepo "github.com/zenwallet/authbroker/sso/pgrepo"
	redisssorepo "github.com/zenwallet/authbroker/sso/redisrepo"
	ssorepofake "github.com/zenwallet/authbroker/sso/repofake"
	"github.com/zenwallet/authbroker/sweeper"
	"github.com/zenwallet/authbroker/token"
	pgpairrepo "github.com/zenwallet/authbroker/token/pgrepo"
	pairrepofake "github.com/zenwallet/authbroker/token/repofake"
	"github.com/zenwallet/authbroker/users"
	"github.com/zenwallet/authbroker/users/httpdirectory"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	displayAppname(cfg.AppName)
	logger = logger.With().Str("app", cfg.AppName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	defer st.close()

	validator := clients.NewValidator(st.clients)
	tokenManager, err := token.NewManager(st.pairs, validator,
		token.WithAccessTokenExpiry(cfg.AccessExpiry()))
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	authService, err := auth.NewService(validator, st.codes, tokenManager,
		auth.WithCodeExpiry(cfg.CodeExpiry()))
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	var directory users.Directory = users.NopDirectory()
	if cfg.UserDirectoryURL != "" {
		directory = httpdirectory.New(cfg.UserDirectoryURL)
	}
	broker, err := sso.NewBroker(st.ssoTokens, directory, sso.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("sso broker: %w", err)
	}

	srv, err := server.New(cfg, server.Deps{
		Auth:    authService,
		Broker:  broker,
		Clients: st.clients,
	}, logger)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	sweep := sweeper.New(st.ssoTokens, st.codes, st.pairs, logger,
		sweeper.WithInterval(cfg.SweeperInterval()))
	go sweep.Run(ctx)

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: srv}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// stores bundles the selected backends so run can wire services without
// caring which implementation it got.
type stores struct {
	clients   clients.Repo
	ssoTokens sso.Repo
	codes     authcode.Repo
	pairs     token.Repo
	closers   []func()
}

func (s *stores) close() {
	for _, fn := range s.closers {
		fn()
	}
}

func buildStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	out := &stores{}

	switch cfg.TokenStore {
	case config.StorePostgres:
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		out.closers = append(out.closers, pool.Close)
		out.clients = pgclientrepo.NewPgClientRepo(pool)
		out.ssoTokens = pgssorepo.NewPgSsoRepo(pool)
		out.codes = pgcoderepo.NewPgCodeRepo(pool)
		out.pairs = pgpairrepo.NewPgPairRepo(pool)
	default:
		logger.Warn().Msg("using in-memory stores; all state is lost on restart")
		out.clients = fakeclientrepo.NewFakeClientRepo()
		out.ssoTokens = ssorepofake.NewFakeSsoRepo()
		out.codes = codesrepofake.NewFakeCodeRepo()
		out.pairs = pairrepofake.NewFakePairRepo()
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		out.closers = append(out.closers, func() { _ = client.Close() })
		out.ssoTokens = redisssorepo.NewRedisSsoRepo(client)
	}

	return out, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
