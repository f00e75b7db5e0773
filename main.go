package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grepo-tools/grepo-proxy/internal/cache"
	"github.com/grepo-tools/grepo-proxy/internal/config"
	"github.com/grepo-tools/grepo-proxy/internal/logging"
	"github.com/grepo-tools/grepo-proxy/internal/proxy"
	"github.com/grepo-tools/grepo-proxy/internal/server"
	"github.com/grepo-tools/grepo-proxy/internal/server/routes"
	"github.com/grepo-tools/grepo-proxy/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(*cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["upstream_domain"] = cfg.UpstreamDomain
		fields["cache_dir"] = cfg.CacheDir
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序固定为“配置 → 缓存层 → HTTP 客户端 → Fiber server”，
	// 所有并发请求共享同一批缓存实例与上游客户端。
	ttl := cfg.CacheTTL.DurationValue()
	store, err := cache.NewStore(cfg.CacheDir, ttl)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存目录失败: %v\n", err)
		return 1
	}
	memory := cache.NewMemoryCache(cfg.MemoryCacheCapacity, ttl)
	failures := cache.NewFailureCache(ttl)

	httpClient := server.NewUpstreamClient(cfg)
	handler, err := proxy.NewHandler(proxy.HandlerOptions{
		Client:         httpClient,
		Logger:         logger,
		Memory:         memory,
		Failures:       failures,
		Disk:           store,
		UpstreamDomain: cfg.UpstreamDomain,
		UserAgent:      cfg.UserAgent,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "构建代理 handler 失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.ListenPort
	fields["cache_dir"] = cfg.CacheDir
	fields["cache_ttl"] = ttl.String()
	fields["memory_capacity"] = cfg.MemoryCacheCapacity
	fields["upstream_domain"] = cfg.UpstreamDomain
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, handler, memory, failures, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("grepo-proxy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 GREPO_PROXY_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("GREPO_PROXY_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, handler server.ProxyHandler, memory *cache.MemoryCache, failures *cache.FailureCache, logger *logrus.Logger) error {
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Proxy:      handler,
		ListenPort: cfg.ListenPort,
	})
	if err != nil {
		return err
	}
	routes.RegisterStatusRoutes(app, routes.StatusOptions{
		Config:    cfg,
		Memory:    memory,
		Failures:  failures,
		StartedAt: time.Now(),
	})

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   cfg.ListenPort,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", cfg.ListenPort))
}
