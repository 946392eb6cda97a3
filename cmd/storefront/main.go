package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type cli struct {
	Serve serveCmd `cmd:"" default:"withargs" help:"Serve the storefront and the admin dashboard."`
	Seed  seedCmd  `cmd:"" help:"Insert categories and products from a YAML seed file."`
}

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx := kong.Parse(&cli{},
		kong.Name("storefront"),
		kong.Description("Furniture storefront with an admin dashboard over a hosted backend."),
		kong.UsageOnError(),
		kong.Bind(logger),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}
