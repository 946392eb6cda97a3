package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	router "github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/components/storefront/commands"
	"github.com/goliatone/go-storefront/components/storefront/gorouter"
	"github.com/goliatone/go-storefront/components/storefront/httpapi"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
	publicObjects   = "/storage/v1/object/public/"
)

type serveCmd struct {
	Config    string `type:"path" help:"YAML config file."`
	Transport string `help:"HTTP transport (fiber or http). Overrides the config."`
	Backend   string `help:"Backend kind (hosted or memory). Overrides the config."`
	Addr      string `help:"Listen address. Overrides the config."`
	SeedFile  string `name:"seed-file" type:"path" help:"Seed file loaded into the in-memory backend on start."`
}

func (cmd *serveCmd) Run(_ context.Context, logger *slog.Logger) error {
	cfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(nil)
	cmd.override(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if cmd.SeedFile != "" {
		if cfg.Backend.Kind != storefront.BackendMemory {
			return errors.New("storefront: --seed-file only applies to the memory backend; use the seed command")
		}
		seed := commands.NewSeedCatalogCommand(a.data, nil, a.telemetry)
		if err := seed.Execute(ctx, commands.SeedCatalogInput{Path: cmd.SeedFile}); err != nil {
			return err
		}
	}

	go a.sweep(ctx, sweepInterval)

	logger.Info("storefront.serve",
		slog.String("addr", cfg.Server.Addr),
		slog.String("transport", cfg.Server.Transport),
		slog.String("backend", cfg.Backend.Kind),
		slog.String("storage", cfg.Storage.Driver),
	)
	switch cfg.Server.Transport {
	case storefront.TransportHTTP:
		return a.serveHTTP(ctx)
	default:
		return a.serveFiber(ctx)
	}
}

func (cmd *serveCmd) override(cfg *storefront.Config) {
	if cmd.Transport != "" {
		cfg.Server.Transport = strings.ToLower(cmd.Transport)
	}
	if cmd.Backend != "" {
		cfg.Backend.Kind = strings.ToLower(cmd.Backend)
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
}

func (a *app) sessionSecret() []byte {
	secret := a.cfg.Server.SessionSecret
	if secret == "" {
		a.logger.Warn("storefront.session.ephemeral_secret",
			slog.String("hint", "set STOREFRONT_SESSION_SECRET to keep logins across restarts"))
		secret = uuid.NewString()
	}
	return []byte(secret)
}

func (a *app) serveHTTP(ctx context.Context) error {
	server, err := httpapi.NewServer(httpapi.ServerOptions{
		Sessions:    a.sessions,
		Controller:  a.controller,
		Handlers:    a.handlers,
		Broadcast:   a.broadcast,
		Cookies:     sessions.NewCookieStore(a.sessionSecret()),
		Secure:      a.cfg.Server.SecureCookies,
		MaxAge:      a.cfg.Server.SessionTTL,
		Metrics:     a.metricsHandler(),
		MetricsPath: a.cfg.Metrics.Path,
		Telemetry:   a.telemetry,
	})
	if err != nil {
		return err
	}
	var handler http.Handler = server
	if a.bucket != nil {
		mux := http.NewServeMux()
		mux.Handle("GET "+publicObjects, a.bucket)
		mux.Handle("/", server)
		handler = mux
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.logger.Info("storefront.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) serveFiber(ctx context.Context) error {
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: a.controller,
		Sessions:   a.sessions,
		API:        a.handlers,
		Broadcast:  a.broadcast,
	}); err != nil {
		return fmt.Errorf("storefront: register routes: %w", err)
	}
	app := server.WrappedRouter()
	if h := a.metricsHandler(); h != nil {
		app.Get(a.cfg.Metrics.Path, adaptor.HTTPHandler(h))
	}
	if a.bucket != nil {
		app.Get(publicObjects+"*", adaptor.HTTPHandler(a.bucket))
	}

	go func() {
		<-ctx.Done()
		a.logger.Info("storefront.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("storefront.shutdown_error", slog.String("error", err.Error()))
		}
	}()
	return server.Serve(a.cfg.Server.Addr)
}

