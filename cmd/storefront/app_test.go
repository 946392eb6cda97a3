package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/components/storefront"
)

func memoryConfig(t *testing.T) *storefront.Config {
	t.Helper()
	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.Backend.Kind = storefront.BackendMemory
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServeOverridesConfig(t *testing.T) {
	cfg := memoryConfig(t)
	cmd := serveCmd{Transport: "HTTP", Backend: "hosted", Addr: ":9000"}
	cmd.override(cfg)

	assert.Equal(t, storefront.TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, storefront.BackendHosted, cfg.Backend.Kind)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestMemoryBackendSignsInDefaultAdmin(t *testing.T) {
	t.Setenv("STOREFRONT_ADMIN_EMAIL", "")
	t.Setenv("STOREFRONT_ADMIN_PASSWORD", "")
	cfg := memoryConfig(t)

	parts, err := buildBackend(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, parts.bucket)

	session, err := parts.auth.SignIn(context.Background(), defaultAdminEmail, defaultAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, defaultAdminEmail, session.Identity.Email)

	_, err = parts.auth.SignIn(context.Background(), defaultAdminEmail, "nope")
	assert.Error(t, err)
}

func TestMemoryBackendSharesStoreAcrossTokens(t *testing.T) {
	cfg := memoryConfig(t)
	parts, err := buildBackend(context.Background(), cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, parts.data("").Insert(ctx, "messages", storefront.Record{"name": "Eve", "email": "eve@example.com", "message": "Hi"}))
	rows, err := parts.data("admin-token").SelectAll(ctx, "messages")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestHostedBackendRequiresAPIKey(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Backend.Kind = storefront.BackendHosted
	cfg.Backend.URL = "https://project.example.com"

	_, err := buildBackend(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Backend.APIKey = "anon"
	parts, err := buildBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, parts.bucket)
	assert.NotNil(t, parts.data("tok"))
}

func TestMinIODriverReplacesStorage(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Driver = storefront.StorageMinIO
	cfg.Storage.S3.Endpoint = "http://localhost:9000"
	cfg.Storage.S3.AccessKeyID = "minio"
	cfg.Storage.S3.SecretAccessKey = "minio123"

	parts, err := buildBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/product-images/public/a.png",
		parts.storage("tok").PublicURL("product-images", "public/a.png"))
}

func TestAdminCredentialsFromEnv(t *testing.T) {
	t.Setenv("STOREFRONT_ADMIN_EMAIL", " owner@example.com ")
	t.Setenv("STOREFRONT_ADMIN_PASSWORD", "s3cret")
	email, password := adminCredentials()
	assert.Equal(t, "owner@example.com", email)
	assert.Equal(t, "s3cret", password)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", publicBaseURL(":8080"))
	assert.Equal(t, "http://shop.internal:80", publicBaseURL("shop.internal:80"))
}

func TestLogSinkWritesActivity(t *testing.T) {
	var buf bytes.Buffer
	sink := logSink{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	err := sink.Log(context.Background(), types.ActivityRecord{
		Verb:       "storefront.orders.status",
		ObjectType: "orders",
		ObjectID:   "5",
		Channel:    "storefront",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "storefront.activity", line["msg"])
	assert.Equal(t, "storefront.orders.status", line["verb"])
	assert.Equal(t, "5", line["object_id"])

	assert.Error(t, logSink{}.Log(context.Background(), types.ActivityRecord{}))
}
