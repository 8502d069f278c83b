// Package web provides HTTP handlers and REST API endpoints for workflow
// version management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/convopilot/convopilot/pkg/lifecycle"
	"github.com/convopilot/convopilot/pkg/nodelib"
)

type APIHandlers struct {
	controller *lifecycle.Controller
	validator  *validator.Validate
	registry   *nodelib.Registry
}

func NewAPIHandlers(
	controller *lifecycle.Controller,
	validator *validator.Validate,
	registry *nodelib.Registry,
) *APIHandlers {
	return &APIHandlers{
		controller: controller,
		validator:  validator,
		registry:   registry,
	}
}

// RegisterRoutes mounts the version API on the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Get("/node-types", h.GetNodeTypes)

	versions := app.Group("/bots/:botId/versions")
	versions.Post("/", h.SubmitBlueprint)
	versions.Post("/dry-run", h.DryRunValidate)
	versions.Get("/", h.GetVersions)
	versions.Get("/active", h.GetActiveVersion)
	versions.Get("/:version", h.GetVersion)
	versions.Post("/:version/activate", h.ActivateVersion)
	versions.Post("/:version/rollback", h.RollbackVersion)
	versions.Post("/:version/archive", h.ArchiveVersion)
}

// SubmitBlueprint validates, compiles and stores a blueprint as the bot's
// next draft version. A blueprint with validation errors returns 422 with
// the findings and creates nothing.
func (h *APIHandlers) SubmitBlueprint(c fiber.Ctx) error {
	botID := c.Params("botId")
	if botID == "" {
		return badRequest(c, "Bot ID is required")
	}

	var req SubmitBlueprintRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.controller.Submit(c.Context(), botID, req.ToBlueprint(botID))
	if err != nil {
		return handleLifecycleError(c, err)
	}

	if !result.Validation.Valid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// DryRunValidate validates and compiles a blueprint without storing anything.
func (h *APIHandlers) DryRunValidate(c fiber.Ctx) error {
	botID := c.Params("botId")
	if botID == "" {
		return badRequest(c, "Bot ID is required")
	}

	var req SubmitBlueprintRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, doc, err := h.controller.DryRunValidate(c.Context(), botID, req.ToBlueprint(botID))
	if err != nil {
		return handleLifecycleError(c, err)
	}

	return c.JSON(DryRunResponse{Validation: result, Compiled: doc})
}

func (h *APIHandlers) GetVersions(c fiber.Ctx) error {
	botID := c.Params("botId")
	if botID == "" {
		return badRequest(c, "Bot ID is required")
	}

	summaries, err := h.controller.ListVersions(c.Context(), botID)
	if err != nil {
		return handleLifecycleError(c, err)
	}

	return c.JSON(fiber.Map{
		"bot_id":   botID,
		"versions": summaries,
	})
}

func (h *APIHandlers) GetVersion(c fiber.Ctx) error {
	botID, version, err := h.versionParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	v, err := h.controller.GetVersion(c.Context(), botID, version)
	if err != nil {
		return handleLifecycleError(c, err)
	}

	return c.JSON(v)
}

func (h *APIHandlers) GetActiveVersion(c fiber.Ctx) error {
	botID := c.Params("botId")
	if botID == "" {
		return badRequest(c, "Bot ID is required")
	}

	v, err := h.controller.ActiveVersion(c.Context(), botID)
	if err != nil {
		return handleLifecycleError(c, err)
	}

	return c.JSON(v)
}

func (h *APIHandlers) ActivateVersion(c fiber.Ctx) error {
	botID, version, err := h.versionParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	v, err := h.controller.ActivateVersion(c.Context(), botID, version)
	if err != nil {
		return handleLifecycleError(c, err)
	}

	return c.JSON(v)
}

func (h *APIHandlers) RollbackVersion(c fiber.Ctx) error {
	botID, version, err := h.versionParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	v, err := h.controller.RollbackVersion(c.Context(), botID, version)
	if err != nil {
		return handleLifecycleError(c, err)
	}

	return c.JSON(v)
}

func (h *APIHandlers) ArchiveVersion(c fiber.Ctx) error {
	botID, version, err := h.versionParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	v, err := h.controller.ArchiveVersion(c.Context(), botID, version)
	if err != nil {
		return handleLifecycleError(c, err)
	}

	return c.JSON(v)
}

// GetNodeTypes lists the node vocabulary the engine accepts.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	types := h.registry.Types()

	nodeTypes := make([]fiber.Map, 0, len(types))

	for _, nodeType := range types {
		template, err := h.registry.Resolve(nodeType)
		if err != nil {
			continue
		}

		nodeTypes = append(nodeTypes, fiber.Map{
			"type":         template.Type,
			"kind":         template.Kind,
			"description":  template.Description,
			"output_ports": template.OutputPorts,
			"config_schema": template.Schema(),
		})
	}

	return c.JSON(fiber.Map{"node_types": nodeTypes})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeCheck, storeOk := h.controller.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Convopilot API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if storeOk {
		status = "healthy"
		message = "Convopilot API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) versionParams(c fiber.Ctx) (string, int, error) {
	botID := c.Params("botId")
	if botID == "" {
		return "", 0, errBotIDRequired
	}

	version, err := strconv.Atoi(c.Params("version"))
	if err != nil || version < 1 {
		return "", 0, errVersionInvalid
	}

	return botID, version, nil
}
