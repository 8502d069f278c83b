// Package lifecycle orchestrates the workflow version lifecycle: submission
// of blueprints through validation and compilation into draft versions, and
// the activate / rollback / archive transitions over the stored history.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/convopilot/convopilot/pkg/bots"
	"github.com/convopilot/convopilot/pkg/cache"
	"github.com/convopilot/convopilot/pkg/compiler"
	"github.com/convopilot/convopilot/pkg/eventbus"
	"github.com/convopilot/convopilot/pkg/events"
	"github.com/convopilot/convopilot/pkg/integrations"
	"github.com/convopilot/convopilot/pkg/models"
	"github.com/convopilot/convopilot/pkg/nodelib"
	"github.com/convopilot/convopilot/pkg/otelhelper"
	"github.com/convopilot/convopilot/pkg/store"
	"github.com/convopilot/convopilot/pkg/validation"
)

// Controller coordinates validation, compilation and the version store. It
// holds no version state of its own; the single-active invariant is the
// store's to enforce, the controller sequences the operations around it.
type Controller struct {
	store     store.VersionStore
	registry  *nodelib.Registry
	bots      bots.Repository
	allowList integrations.AllowList
	eventBus  eventbus.EventBus
	cache     *cache.ActiveDocumentCache
	tracer    trace.Tracer
	logger    *slog.Logger
}

// ControllerOption customizes optional controller collaborators.
type ControllerOption func(*Controller)

// WithEventBus publishes lifecycle audit events to the given bus.
func WithEventBus(bus eventbus.EventBus) ControllerOption {
	return func(c *Controller) {
		c.eventBus = bus
	}
}

// WithCache serves and invalidates the active compiled document through the
// given cache.
func WithCache(docCache *cache.ActiveDocumentCache) ControllerOption {
	return func(c *Controller) {
		c.cache = docCache
	}
}

// WithTracer records a span per lifecycle operation.
func WithTracer(tracer trace.Tracer) ControllerOption {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

func NewController(
	logger *slog.Logger,
	versionStore store.VersionStore,
	registry *nodelib.Registry,
	botRepo bots.Repository,
	allowList integrations.AllowList,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		store:     versionStore,
		registry:  registry,
		bots:      botRepo,
		allowList: allowList,
		tracer:    noop.NewTracerProvider().Tracer("lifecycle"),
		logger:    logger.With("module", "lifecycle"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SubmitResult carries the outcome of a blueprint submission. Version is nil
// when validation failed; Validation is always present.
type SubmitResult struct {
	Validation *models.ValidationResult `json:"validation"`
	Version    *models.WorkflowVersion  `json:"version,omitempty"`
}

// Submit validates and compiles a blueprint and, when validation passes,
// persists it as the bot's next draft version. A rejected blueprint leaves
// the version history untouched.
func (c *Controller) Submit(ctx context.Context, botID string, blueprint *models.Blueprint) (*SubmitResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "lifecycle.submit",
		attribute.String(otelhelper.BotIDKey, botID))
	defer span.End()

	if err := c.checkBot(ctx, "Submit", botID); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	blueprint.BotID = botID

	result := validation.Validate(blueprint, c.registry, c.allowList)
	if !result.Valid {
		c.logger.InfoContext(ctx, "Blueprint rejected",
			"bot_id", botID, "errors", len(result.Errors()), "findings", len(result.Findings))

		return &SubmitResult{Validation: result}, nil
	}

	doc, err := compiler.Compile(blueprint, c.registry)
	if err != nil {
		err = newLifecycleError("Submit", botID, fmt.Errorf("%w: %w", ErrCompilationFailed, err))
		otelhelper.SetError(span, err)

		return nil, err
	}

	version, err := c.store.CreateDraft(ctx, botID, blueprint, doc)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, newLifecycleError("Submit", botID, err)
	}

	span.SetAttributes(attribute.Int(otelhelper.VersionKey, version.Version))
	c.logger.InfoContext(ctx, "Draft version created",
		"bot_id", botID, "version", version.Version, "nodes", len(doc.Nodes), "warnings", len(result.Findings))

	c.publish(ctx, botID, events.NewVersionCreated(botID, version.Version, len(doc.Nodes)))

	return &SubmitResult{Validation: result, Version: version}, nil
}

// DryRunValidate validates and compiles a blueprint without writing anything.
// The compiled document is returned for preview when validation passes.
func (c *Controller) DryRunValidate(ctx context.Context, botID string, blueprint *models.Blueprint) (*models.ValidationResult, *models.CompiledDocument, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "lifecycle.dry_run",
		attribute.String(otelhelper.BotIDKey, botID))
	defer span.End()

	if err := c.checkBot(ctx, "DryRunValidate", botID); err != nil {
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	blueprint.BotID = botID

	result := validation.Validate(blueprint, c.registry, c.allowList)
	if !result.Valid {
		return result, nil, nil
	}

	doc, err := compiler.Compile(blueprint, c.registry)
	if err != nil {
		err = newLifecycleError("DryRunValidate", botID, fmt.Errorf("%w: %w", ErrCompilationFailed, err))
		otelhelper.SetError(span, err)

		return nil, nil, err
	}

	return result, doc, nil
}

// ActivateVersion promotes the version to active, demoting the current
// active version if any. Activating the already active version is a no-op.
func (c *Controller) ActivateVersion(ctx context.Context, botID string, version int) (*models.WorkflowVersion, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "lifecycle.activate",
		attribute.String(otelhelper.BotIDKey, botID),
		attribute.Int(otelhelper.VersionKey, version))
	defer span.End()

	previous := c.currentActiveVersion(ctx, botID)

	activated, err := c.store.Activate(ctx, botID, version)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, newLifecycleError("ActivateVersion", botID, err)
	}

	c.refreshCache(ctx, botID, activated.CompiledDocument)

	if previous != version {
		c.logger.InfoContext(ctx, "Version activated",
			"bot_id", botID, "version", version, "previous_version", previous)
		c.publish(ctx, botID, events.NewVersionActivated(botID, version, previous))
	}

	return activated, nil
}

// RollbackVersion restores a previously active version. It refuses versions
// that never served traffic; those are activated normally instead.
func (c *Controller) RollbackVersion(ctx context.Context, botID string, version int) (*models.WorkflowVersion, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "lifecycle.rollback",
		attribute.String(otelhelper.BotIDKey, botID),
		attribute.Int(otelhelper.VersionKey, version))
	defer span.End()

	target, err := c.store.Get(ctx, botID, version)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, newLifecycleError("RollbackVersion", botID, err)
	}

	if !target.WasActivated() {
		err = newLifecycleError("RollbackVersion", botID,
			fmt.Errorf("%w: version %d", ErrNotPreviouslyActive, version))
		otelhelper.SetError(span, err)

		return nil, err
	}

	replaced := c.currentActiveVersion(ctx, botID)

	restored, err := c.store.Activate(ctx, botID, version)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, newLifecycleError("RollbackVersion", botID, err)
	}

	c.refreshCache(ctx, botID, restored.CompiledDocument)

	if replaced != version {
		c.logger.WarnContext(ctx, "Version rolled back",
			"bot_id", botID, "version", version, "replaced_version", replaced)
		c.publish(ctx, botID, events.NewVersionRolledBack(botID, version, replaced))
	}

	return restored, nil
}

// ArchiveVersion moves a non-active version to the terminal archived state.
// Archiving an already archived version is a no-op.
func (c *Controller) ArchiveVersion(ctx context.Context, botID string, version int) (*models.WorkflowVersion, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "lifecycle.archive",
		attribute.String(otelhelper.BotIDKey, botID),
		attribute.Int(otelhelper.VersionKey, version))
	defer span.End()

	archived, err := c.store.Archive(ctx, botID, version)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, newLifecycleError("ArchiveVersion", botID, err)
	}

	c.logger.InfoContext(ctx, "Version archived", "bot_id", botID, "version", version)
	c.publish(ctx, botID, events.NewVersionArchived(botID, version))

	return archived, nil
}

// ListVersions returns the bot's version history, newest first.
func (c *Controller) ListVersions(ctx context.Context, botID string) ([]*models.VersionSummary, error) {
	summaries, err := c.store.List(ctx, botID)
	if err != nil {
		return nil, newLifecycleError("ListVersions", botID, err)
	}

	return summaries, nil
}

// GetVersion returns one version with its blueprint snapshot and compiled
// document.
func (c *Controller) GetVersion(ctx context.Context, botID string, version int) (*models.WorkflowVersion, error) {
	v, err := c.store.Get(ctx, botID, version)
	if err != nil {
		return nil, newLifecycleError("GetVersion", botID, err)
	}

	return v, nil
}

// ActiveVersion returns the bot's live version.
func (c *Controller) ActiveVersion(ctx context.Context, botID string) (*models.WorkflowVersion, error) {
	v, err := c.store.Active(ctx, botID)
	if err != nil {
		return nil, newLifecycleError("ActiveVersion", botID, err)
	}

	return v, nil
}

// ActiveDocument returns the compiled document of the bot's live version,
// served from the cache when possible.
func (c *Controller) ActiveDocument(ctx context.Context, botID string) (*models.CompiledDocument, error) {
	if c.cache != nil {
		doc, err := c.cache.Get(ctx, botID)
		if err == nil {
			return doc, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.WarnContext(ctx, "Active document cache read failed", "bot_id", botID, "error", err)
		}
	}

	v, err := c.store.Active(ctx, botID)
	if err != nil {
		return nil, newLifecycleError("ActiveDocument", botID, err)
	}

	c.refreshCache(ctx, botID, v.CompiledDocument)

	return v.CompiledDocument, nil
}

// HealthCheck checks the health of the version store.
func (c *Controller) HealthCheck(ctx context.Context) (string, bool) {
	if c.store == nil {
		return "Version store not initialized", false
	}

	if err := c.store.HealthCheck(ctx); err != nil {
		return "Version store is unhealthy: " + err.Error(), false
	}

	return "Version store is healthy", true
}

func (c *Controller) checkBot(ctx context.Context, op, botID string) error {
	exists, err := c.bots.Exists(ctx, botID)
	if err != nil {
		return newLifecycleError(op, botID, fmt.Errorf("failed to check bot: %w", err))
	}

	if !exists {
		return newLifecycleError(op, botID, ErrBotNotFound)
	}

	return nil
}

// currentActiveVersion returns the active version number, or zero when none.
func (c *Controller) currentActiveVersion(ctx context.Context, botID string) int {
	current, err := c.store.Active(ctx, botID)
	if err != nil {
		return 0
	}

	return current.Version
}

func (c *Controller) refreshCache(ctx context.Context, botID string, doc *models.CompiledDocument) {
	if c.cache == nil {
		return
	}

	if err := c.cache.Set(ctx, botID, doc); err != nil {
		// The cache is an accelerator; the store stays authoritative. Drop
		// the entry so readers do not keep serving the superseded document.
		c.logger.WarnContext(ctx, "Active document cache write failed", "bot_id", botID, "error", err)

		if err := c.cache.Invalidate(ctx, botID); err != nil {
			c.logger.WarnContext(ctx, "Active document cache invalidation failed", "bot_id", botID, "error", err)
		}
	}
}

func (c *Controller) publish(ctx context.Context, botID string, event eventbus.Event) {
	if c.eventBus == nil {
		return
	}

	if err := c.eventBus.Publish(ctx, botID, event); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish lifecycle event",
			"bot_id", botID, "event_type", event.GetType(), "error", err)
	}
}
