// Package main provides the Convopilot API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/convopilot/convopilot/pkg/lifecycle"
	"github.com/convopilot/convopilot/pkg/nodelib"
	"github.com/convopilot/convopilot/pkg/web"
)

type API struct {
	logger     *slog.Logger
	controller *lifecycle.Controller
	registry   *nodelib.Registry
	validate   *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	controller *lifecycle.Controller,
	registry *nodelib.Registry,
) *API {
	return &API{
		logger:     logger,
		controller: controller,
		registry:   registry,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.controller, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Convopilot API")
	})

	handlers.RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
