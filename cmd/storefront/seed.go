package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/components/storefront/commands"
)

type seedCmd struct {
	File     string `required:"" type:"existingfile" help:"YAML seed file with categories and products."`
	Config   string `type:"path" help:"YAML config file."`
	Email    string `env:"STOREFRONT_ADMIN_EMAIL" help:"Admin email used to sign in before writing."`
	Password string `env:"STOREFRONT_ADMIN_PASSWORD" help:"Admin password used to sign in before writing."`
}

func (cmd *seedCmd) Run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(nil)
	if cfg.Backend.Kind == storefront.BackendMemory {
		return errors.New("storefront: the memory backend is not persistent; use serve --seed-file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	parts, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}

	token := ""
	if cmd.Email != "" {
		session, err := parts.auth.SignIn(ctx, cmd.Email, cmd.Password)
		if err != nil {
			return err
		}
		defer func() { _ = parts.auth.SignOut(context.WithoutCancel(ctx), session) }()
		token = session.AccessToken
	}

	telemetry := storefront.SlogTelemetry{Logger: logger}
	seed := commands.NewSeedCatalogCommand(parts.data(token), nil, telemetry)
	return seed.Execute(ctx, commands.SeedCatalogInput{Path: cmd.File})
}
