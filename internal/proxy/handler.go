// Package proxy 实现读穿透代理的核心编排：失败缓存 → 内存缓存 → 磁盘缓存 →
// 回源，严格按此优先级逐层下探。磁盘命中会回填内存（缓存晋升），内存命中
// 不触碰磁盘；任何一次回源失败都会写入失败缓存，在过期窗口内直接短路为
// 网关错误。
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/grepo-tools/grepo-proxy/internal/cache"
	"github.com/grepo-tools/grepo-proxy/internal/logging"
	"github.com/grepo-tools/grepo-proxy/internal/resource"
	"github.com/grepo-tools/grepo-proxy/internal/server"
)

// ErrUpstreamFailed 表示回源失败（网络错误、非成功状态或正文读取失败），
// HTTP 层统一映射为 502，不向客户端透传上游状态码。
var ErrUpstreamFailed = errors.New("upstream fetch failed")

// HandlerOptions 注入 Handler 依赖的共享组件，全部必填（UserAgent 除外，
// 空值表示不覆盖 Go 默认 UA，生产配置始终提供）。
type HandlerOptions struct {
	Client         *http.Client
	Logger         *logrus.Logger
	Memory         *cache.MemoryCache
	Failures       *cache.FailureCache
	Disk           cache.Store
	UpstreamDomain string
	UserAgent      string
}

// Handler 负责 orchestrate“负缓存短路 → 逐层查缓存 → 回源写缓存”的全流程，
// 对外暴露 Fiber handler，内部复用共享 http.Client 与各缓存层。
type Handler struct {
	client    *http.Client
	logger    *logrus.Logger
	memory    *cache.MemoryCache
	failures  *cache.FailureCache
	disk      cache.Store
	domain    string
	userAgent string
}

// NewHandler constructs a proxy handler with shared HTTP client/logger/tiers.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Client == nil {
		return nil, errors.New("http client is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Memory == nil {
		return nil, errors.New("memory cache is required")
	}
	if opts.Failures == nil {
		return nil, errors.New("failure cache is required")
	}
	if opts.Disk == nil {
		return nil, errors.New("disk store is required")
	}
	if opts.UpstreamDomain == "" {
		return nil, errors.New("upstream domain is required")
	}

	return &Handler{
		client:    opts.Client,
		logger:    opts.Logger,
		memory:    opts.Memory,
		failures:  opts.Failures,
		disk:      opts.Disk,
		domain:    opts.UpstreamDomain,
		userAgent: opts.UserAgent,
	}, nil
}

// Handle 按固定优先级服务一个已校验的资源请求。顺序不可调整：后一层只在
// 前一层 miss 时才会被触达。
func (h *Handler) Handle(c fiber.Ctx, res resource.Resource) error {
	key := res.Key()
	requestID := server.RequestID(c)

	if h.failures.IsRecent(key) {
		c.Set("X-Grepo-Cache", logging.ReasonFailedCache)
		h.logRequest(res, requestID, "fail", logging.ReasonFailedCache)
		// Send(nil) 保证 502 响应体为空，SendStatus 会写入默认状态文本。
		return c.Status(fiber.StatusBadGateway).Send(nil)
	}

	if data, ok := h.memory.Get(key); ok {
		c.Set("X-Grepo-Cache", logging.ReasonRAMCache)
		h.logRequest(res, requestID, "success", logging.ReasonRAMCache)
		return c.Status(fiber.StatusOK).Send(data)
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := h.disk.Get(ctx, key)
	switch {
	case err == nil:
		h.memory.Put(key, data)
		c.Set("X-Grepo-Cache", logging.ReasonFileCache)
		h.logRequest(res, requestID, "success", logging.ReasonFileCache)
		return c.Status(fiber.StatusOK).Send(data)
	case errors.Is(err, cache.ErrNotFound):
		// miss, continue
	default:
		h.logger.WithError(err).
			WithFields(logrus.Fields{"server": res.Server, "datafile": res.Datafile}).
			Warn("cache_get_failed")
	}

	data, err = h.fetchUpstream(ctx, res)
	if err != nil {
		c.Set("X-Grepo-Cache", logging.ReasonUpstream)
		h.logRequest(res, requestID, "fail", logging.ReasonUpstream)
		return c.Status(fiber.StatusBadGateway).Send(nil)
	}

	c.Set("X-Grepo-Cache", logging.ReasonUpstream)
	h.logRequest(res, requestID, "success", logging.ReasonUpstream)
	return c.Status(fiber.StatusOK).Send(data)
}

// fetchUpstream 执行单次回源。任何失败（传输错误、非 2xx、正文读取失败）
// 都会先写失败缓存再返回 ErrUpstreamFailed；成功则写磁盘（尽力而为）与
// 内存（必须）后返回正文。没有请求级重试。
func (h *Handler) fetchUpstream(ctx context.Context, res resource.Resource) ([]byte, error) {
	key := res.Key()
	url := fmt.Sprintf("https://%s.%s/data/%s", res.Server, h.domain, res.Datafile)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		h.failures.Record(key)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.failures.Record(key)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		h.failures.Record(key)
		return nil, fmt.Errorf("%w: 上游返回 %d", ErrUpstreamFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.failures.Record(key)
		return nil, fmt.Errorf("%w: 读取正文失败: %v", ErrUpstreamFailed, err)
	}

	// 磁盘写失败不影响响应，正文仍然返回并进入内存层。
	if err := h.disk.Put(ctx, key, data); err != nil {
		h.logger.WithError(err).
			WithFields(logrus.Fields{"server": res.Server, "datafile": res.Datafile}).
			Warn("cache_put_failed")
	}
	h.memory.Put(key, data)

	return data, nil
}

func (h *Handler) logRequest(res resource.Resource, requestID, result, reason string) {
	fields := logging.RequestFields(res.Server, res.Datafile, result, reason)
	if requestID != "" {
		fields["request_id"] = requestID
	}
	h.logger.WithFields(fields).Info("请求处理完成")
}
