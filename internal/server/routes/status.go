// Package routes 提供 /-/ 前缀下的诊断接口，与数据文件路由隔离。
package routes

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/grepo-tools/grepo-proxy/internal/cache"
	"github.com/grepo-tools/grepo-proxy/internal/config"
	"github.com/grepo-tools/grepo-proxy/internal/resource"
	"github.com/grepo-tools/grepo-proxy/internal/version"
)

// StatusOptions 注入诊断接口需要观测的共享组件。
type StatusOptions struct {
	Config    *config.Config
	Memory    *cache.MemoryCache
	Failures  *cache.FailureCache
	StartedAt time.Time
}

type statusPayload struct {
	Version       string   `json:"version"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	MemoryEntries int      `json:"memory_entries"`
	FailureKeys   int      `json:"failure_keys"`
	CacheTTL      string   `json:"cache_ttl"`
	MemoryCap     int      `json:"memory_capacity"`
	CacheDir      string   `json:"cache_dir"`
	Upstream      string   `json:"upstream_domain"`
	Datafiles     []string `json:"datafiles"`
}

// RegisterStatusRoutes 暴露 /-/status 诊断接口，供运维查询缓存水位与生效配置。
func RegisterStatusRoutes(app *fiber.App, opts StatusOptions) {
	if app == nil || opts.Config == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		files := resource.Datafiles()
		sort.Strings(files)

		payload := statusPayload{
			Version:       version.Full(),
			UptimeSeconds: int64(time.Since(opts.StartedAt).Seconds()),
			CacheTTL:      opts.Config.CacheTTL.DurationValue().String(),
			MemoryCap:     opts.Config.MemoryCacheCapacity,
			CacheDir:      opts.Config.CacheDir,
			Upstream:      opts.Config.UpstreamDomain,
			Datafiles:     files,
		}
		if opts.Memory != nil {
			payload.MemoryEntries = opts.Memory.Len()
		}
		if opts.Failures != nil {
			payload.FailureKeys = opts.Failures.Len()
		}
		return c.JSON(payload)
	})
}
