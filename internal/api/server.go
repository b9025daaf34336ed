package api

import (
	"strings"

	"voxcmd/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

type Options struct {
	BodyLimit   int
	CORSOrigins []string
}

// NewApp builds the fiber application with all routes registered
func NewApp(h *Handler, opts Options) *fiber.App {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 25 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:               "voxcmd",
		DisableStartupMessage: true,
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	if len(opts.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(opts.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept",
			AllowMethods: "GET, POST, OPTIONS",
		}))
	}

	app.Get("/ping", h.Ping)
	app.Post("/recognize", h.Recognize)
	app.Get("/intent", h.Intent)
	if h.journal != nil {
		app.Get("/recognitions", h.Recognitions)
	}

	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metrics(c.Context())
		return nil
	})

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	if code == fiber.StatusInternalServerError {
		logger.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
