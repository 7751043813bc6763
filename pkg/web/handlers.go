// Package web exposes the engine over HTTP: workflow and template CRUD,
// execution control and health.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/replaykit/replaykit/pkg/execution"
	"github.com/replaykit/replaykit/pkg/persistence"
	"github.com/replaykit/replaykit/pkg/store"
	"github.com/replaykit/replaykit/pkg/templates"
)

type APIHandlers struct {
	store    *store.Store
	engine   *execution.Engine
	tmpl     *templates.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAPIHandlers(
	st *store.Store,
	engine *execution.Engine,
	tmpl *templates.Engine,
	validate *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		store:    st,
		engine:   engine,
		tmpl:     tmpl,
		validate: validate,
		logger:   logger.With("module", "web"),
	}
}

type executeRequest struct {
	Parameters map[string]string `json:"parameters"`
}

type generateTemplateRequest struct {
	Name string `json:"name" validate:"required,min=3"`
}

type instantiateRequest struct {
	Values map[string]string `json:"values"`
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.store.Workflows(c.Context())
	if err != nil {
		return problem(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.store.WorkflowByID(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return problem(c, http.StatusNotFound, "workflow not found")
		}

		return problem(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.store.DeleteWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return problem(c, http.StatusNotFound, "workflow not found")
		}

		return problem(c, http.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(http.StatusNoContent)
}

// ExecuteWorkflow runs the workflow synchronously and returns the final
// execution record. A failed run returns 422 with the execution attached so
// callers can see which step failed.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req executeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return problem(c, http.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.engine.Execute(c.Context(), c.Params("id"), req.Parameters)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return problem(c, http.StatusNotFound, "workflow not found")
		}

		if result != nil {
			return c.Status(http.StatusUnprocessableEntity).JSON(result)
		}

		return problem(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	result, ok := h.engine.Running(c.Params("id"))
	if !ok {
		return problem(c, http.StatusNotFound, "execution not running")
	}

	return c.JSON(result)
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	if err := h.engine.Cancel(c.Params("id")); err != nil {
		if errors.Is(err, execution.ErrExecutionNotFound) {
			return problem(c, http.StatusNotFound, "execution not running")
		}

		return problem(c, http.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(http.StatusAccepted)
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	result, err := h.store.Templates(c.Context())
	if err != nil {
		return problem(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(result)
}

func (h *APIHandlers) GenerateTemplate(c fiber.Ctx) error {
	var req generateTemplateRequest
	if err := c.Bind().Body(&req); err != nil {
		return problem(c, http.StatusBadRequest, "invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return problem(c, http.StatusBadRequest, err.Error())
	}

	template, err := h.tmpl.GenerateFromWorkflow(c.Context(), c.Params("id"), req.Name)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return problem(c, http.StatusNotFound, "workflow not found")
		}

		return problem(c, http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(template)
}

func (h *APIHandlers) InstantiateTemplate(c fiber.Ctx) error {
	var req instantiateRequest
	if err := c.Bind().Body(&req); err != nil {
		return problem(c, http.StatusBadRequest, "invalid request body")
	}

	workflow, err := h.tmpl.Instantiate(c.Context(), c.Params("id"), req.Values)
	if err != nil {
		switch {
		case persistence.IsTemplateNotFound(err):
			return problem(c, http.StatusNotFound, "template not found")
		case errors.Is(err, templates.ErrMissingRequiredVariable):
			return problem(c, http.StatusBadRequest, err.Error())
		default:
			return problem(c, http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.store.HealthCheck(c.Context())
	if !healthy {
		return problem(c, http.StatusServiceUnavailable, message)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func problem(c fiber.Ctx, status int, detail string) error {
	p := problems.NewDetailedProblem(status, detail)

	c.Set(fiber.HeaderContentType, problems.ProblemMediaType)

	return c.Status(status).JSON(p, problems.ProblemMediaType)
}
