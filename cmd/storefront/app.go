package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/components/storefront/httpapi"
	"github.com/goliatone/go-storefront/pkg/activity"
	"github.com/goliatone/go-storefront/pkg/activity/usersink"
	"github.com/goliatone/go-storefront/pkg/backend"
	"github.com/goliatone/go-storefront/pkg/memstore"
	"github.com/goliatone/go-storefront/pkg/metrics"
	"github.com/goliatone/go-users/pkg/types"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin"
)

// app holds every collaborator built from the config.
type app struct {
	cfg        *storefront.Config
	logger     *slog.Logger
	telemetry  storefront.Telemetry
	metrics    *metrics.Telemetry
	broadcast  *storefront.BroadcastHook
	catalog    *storefront.Catalog
	sessions   *storefront.SessionManager
	controller *storefront.Controller
	handlers   *httpapi.Handlers
	// anonymous data access, used by the catalog and the seed command
	data storefront.DataStore
	// serves uploaded images when the in-memory backend is used
	bucket *memstore.Bucket
}

type backendParts struct {
	auth    storefront.Authenticator
	data    func(token string) storefront.DataStore
	storage func(token string) storefront.ObjectStorage
	bucket  *memstore.Bucket
}

func loadConfig(path string) (*storefront.Config, error) {
	if path == "" {
		cfg := storefront.DefaultConfig()
		return &cfg, nil
	}
	return storefront.ReadConfig(path)
}

func newApp(ctx context.Context, cfg *storefront.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, broadcast: storefront.NewBroadcastHook()}

	sinks := storefront.MultiTelemetry{storefront.SlogTelemetry{Logger: logger}}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(nil)
		sinks = append(sinks, a.metrics)
	}
	a.telemetry = sinks

	parts, err := buildBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.data = parts.data("")
	a.bucket = parts.bucket

	activityCfg := activity.Config{Enabled: cfg.Activity.Enabled, Channel: cfg.Activity.Channel}
	var hooks activity.Hooks
	if cfg.Activity.Enabled {
		hooks = append(hooks, usersink.Hook{Sink: logSink{logger: logger}})
	}

	a.catalog = storefront.NewCatalog(storefront.CatalogOptions{
		Data:           a.data,
		RefreshHook:    a.broadcast,
		Telemetry:      a.telemetry,
		ActivityHooks:  hooks,
		ActivityConfig: activityCfg,
	})
	a.sessions = storefront.NewSessionManager(storefront.SessionManagerOptions{
		Auth: parts.auth,
		DashboardOptions: func(session storefront.AuthSession) storefront.Options {
			return storefront.Options{
				Data:           parts.data(session.AccessToken),
				Storage:        parts.storage(session.AccessToken),
				RefreshHook:    a.broadcast,
				Telemetry:      a.telemetry,
				ActivityHooks:  hooks,
				ActivityConfig: activityCfg,
				Locale:         cfg.Dashboard.Locale,
				ImageBucket:    cfg.Storage.Bucket,
				LoginPath:      cfg.Dashboard.LoginPath,
			}
		},
		TTL:       cfg.Server.SessionTTL,
		Telemetry: a.telemetry,
	})

	renderer, err := storefront.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("storefront: templates: %w", err)
	}
	overview := storefront.NewOverviewRenderer(
		storefront.WithOverviewCache(storefront.NewChartCache(cfg.Dashboard.ChartCacheTTL)),
		storefront.WithOverviewTheme(cfg.Dashboard.ChartTheme),
		storefront.WithOverviewAssetsHost(cfg.Dashboard.AssetsHost),
	)
	a.controller = storefront.NewController(storefront.ControllerOptions{
		Catalog:   a.catalog,
		Overview:  overview,
		Renderer:  renderer,
		LoginPath: cfg.Dashboard.LoginPath,
		Locale:    cfg.Dashboard.Locale,
	})
	a.handlers = httpapi.CommandHandlers(a.sessions, a.catalog, a.telemetry)
	return a, nil
}

func buildBackend(ctx context.Context, cfg *storefront.Config) (backendParts, error) {
	var parts backendParts
	switch cfg.Backend.Kind {
	case storefront.BackendMemory:
		store := memstore.New()
		auth := memstore.NewAuth(cfg.Server.SessionTTL)
		email, password := adminCredentials()
		auth.AddUser(email, password, "admin")
		bucket := memstore.NewBucket(publicBaseURL(cfg.Server.Addr))
		parts = backendParts{
			auth:    auth,
			data:    func(string) storefront.DataStore { return store },
			storage: func(string) storefront.ObjectStorage { return bucket },
			bucket:  bucket,
		}
	case storefront.BackendHosted:
		client, err := backend.NewClient(backend.Options{
			URL:       cfg.Backend.URL,
			APIKey:    cfg.Backend.APIKey,
			JWTSecret: cfg.Backend.JWTSecret,
			Timeout:   cfg.Backend.Timeout,
		})
		if err != nil {
			return parts, err
		}
		parts = backendParts{
			auth:    client.Auth(),
			data:    func(token string) storefront.DataStore { return client.DataStore(token) },
			storage: func(token string) storefront.ObjectStorage { return client.Storage(token) },
		}
	default:
		return parts, fmt.Errorf("storefront: unsupported backend %q", cfg.Backend.Kind)
	}

	s3cfg := backend.S3Config{
		Region:          cfg.Storage.S3.Region,
		Endpoint:        cfg.Storage.S3.Endpoint,
		PublicBaseURL:   cfg.Storage.S3.PublicURL,
		AccessKeyID:     cfg.Storage.S3.AccessKeyID,
		SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		PathStyle:       cfg.Storage.S3.PathStyle,
	}
	var store storefront.ObjectStorage
	switch cfg.Storage.Driver {
	case storefront.StorageS3:
		s3store, err := backend.NewS3Storage(ctx, s3cfg)
		if err != nil {
			return parts, err
		}
		store = s3store
	case storefront.StorageMinIO:
		minioStore, err := backend.NewMinIOStorage(s3cfg)
		if err != nil {
			return parts, err
		}
		store = minioStore
	}
	if store != nil {
		parts.storage = func(string) storefront.ObjectStorage { return store }
	}
	return parts, nil
}

func adminCredentials() (string, string) {
	email := strings.TrimSpace(os.Getenv("STOREFRONT_ADMIN_EMAIL"))
	if email == "" {
		email = defaultAdminEmail
	}
	password := os.Getenv("STOREFRONT_ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}
	return email, password
}

func publicBaseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// sweep drops idle sessions until ctx is done.
func (a *app) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Sweep(); n > 0 {
				a.logger.Info("storefront.session.sweep", slog.Int("expired", n))
			}
		}
	}
}

func (a *app) metricsHandler() http.Handler {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.Handler()
}

func (a *app) close() {
	a.sessions.Close()
	a.broadcast.Close()
}

// logSink writes go-users activity records to the structured log.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Log(ctx context.Context, record types.ActivityRecord) error {
	if s.logger == nil {
		return errors.New("storefront: activity logger not configured")
	}
	s.logger.InfoContext(ctx, "storefront.activity",
		slog.String("verb", record.Verb),
		slog.String("object_type", record.ObjectType),
		slog.String("object_id", record.ObjectID),
		slog.String("channel", record.Channel),
		slog.Any("data", record.Data),
	)
	return nil
}
