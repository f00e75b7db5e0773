package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/grepo-tools/grepo-proxy/internal/cache"
	"github.com/grepo-tools/grepo-proxy/internal/config"
	"github.com/grepo-tools/grepo-proxy/internal/resource"
	"github.com/grepo-tools/grepo-proxy/internal/server"
)

func TestStatusRouteReportsCacheLevels(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	memory := cache.NewMemoryCache(25, 15*time.Minute)
	failures := cache.NewFailureCache(15 * time.Minute)
	memory.Put("en12/towns.txt", []byte("x"))
	failures.Record("en12/players.txt")

	app, err := server.NewApp(server.AppOptions{
		Logger: logger,
		Proxy: server.ProxyHandlerFunc(func(c fiber.Ctx, res resource.Resource) error {
			return c.SendString("ok")
		}),
		ListenPort: 3000,
	})
	if err != nil {
		t.Fatalf("app error: %v", err)
	}

	cfg := &config.Config{
		CacheDir:            "/tmp/cache",
		CacheTTL:            config.Duration(15 * time.Minute),
		MemoryCacheCapacity: 25,
		UpstreamDomain:      "grepolis.com",
	}
	RegisterStatusRoutes(app, StatusOptions{
		Config:    cfg,
		Memory:    memory,
		Failures:  failures,
		StartedAt: time.Now().Add(-time.Minute),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/-/status", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("预期 200, 实际 %d", resp.StatusCode)
	}

	var payload struct {
		Version       string   `json:"version"`
		MemoryEntries int      `json:"memory_entries"`
		FailureKeys   int      `json:"failure_keys"`
		CacheTTL      string   `json:"cache_ttl"`
		Upstream      string   `json:"upstream_domain"`
		Datafiles     []string `json:"datafiles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if payload.MemoryEntries != 1 {
		t.Fatalf("memory_entries 不符: %d", payload.MemoryEntries)
	}
	if payload.FailureKeys != 1 {
		t.Fatalf("failure_keys 不符: %d", payload.FailureKeys)
	}
	if payload.CacheTTL != "15m0s" {
		t.Fatalf("cache_ttl 不符: %s", payload.CacheTTL)
	}
	if payload.Upstream != "grepolis.com" {
		t.Fatalf("upstream_domain 不符: %s", payload.Upstream)
	}
	if len(payload.Datafiles) != 4 {
		t.Fatalf("datafiles 不符: %v", payload.Datafiles)
	}
	if payload.Version == "" {
		t.Fatalf("version 不应为空")
	}
}
