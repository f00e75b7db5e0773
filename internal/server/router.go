package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/grepo-tools/grepo-proxy/internal/logging"
	"github.com/grepo-tools/grepo-proxy/internal/resource"
)

// ProxyHandler describes the component responsible for serving a validated
// resource from cache or upstream. It allows injecting fake handlers during
// tests.
type ProxyHandler interface {
	Handle(fiber.Ctx, resource.Resource) error
}

// ProxyHandlerFunc adapts a function to the ProxyHandler interface.
type ProxyHandlerFunc func(fiber.Ctx, resource.Resource) error

// Handle makes ProxyHandlerFunc satisfy ProxyHandler.
func (f ProxyHandlerFunc) Handle(c fiber.Ctx, res resource.Resource) error {
	return f(c, res)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Proxy      ProxyHandler
	ListenPort int
}

const contextKeyRequestID = "_grepoproxy_request_id"

// NewApp builds a Fiber application with resource validation and structured
// error handling. Diagnostics paths (/-/...) are passed through so callers
// can register them after construction.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Proxy == nil {
		return nil, errors.New("proxy handler is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	app.Get("/:server/:datafile", func(c fiber.Ctx) error {
		if isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Next()
		}

		server := c.Params("server")
		datafile := c.Params("datafile")
		res, err := resource.Parse(server, datafile)
		if err != nil {
			fields := logging.RequestFields(server, datafile, "fail", "validation")
			fields["request_id"] = RequestID(c)
			opts.Logger.WithFields(fields).Info("资源校验未通过")
			// Send(nil) 保证 404 响应体为空。
			return c.Status(fiber.StatusNotFound).Send(nil)
		}
		return opts.Proxy.Handle(c, res)
	})

	return app, nil
}

// requestIDMiddleware 为每个请求生成 X-Request-ID，便于日志串联。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
