package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
	"github.com/sumire/issuetracker/internal/service"
)

// IssueHandler handles the issue endpoints of a project.
type IssueHandler struct {
	issues  *service.IssueService
	metrics *Metrics
}

// NewIssueHandler creates a new IssueHandler. metrics may be nil.
func NewIssueHandler(issues *service.IssueService, metrics *Metrics) *IssueHandler {
	return &IssueHandler{issues: issues, metrics: metrics}
}

// List returns the project's issues matching the query parameters.
func (h *IssueHandler) List(c echo.Context) error {
	issues, err := h.issues.List(c.Request().Context(), projectParam(c), queryFilter(c))
	if err != nil {
		return h.observe("list", err)
	}
	h.observe("list", nil)
	return c.JSON(http.StatusOK, issues)
}

// Create stores a new issue from the request body.
func (h *IssueHandler) Create(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return h.observe("create", err)
	}

	issue, err := h.issues.Create(c.Request().Context(), projectParam(c), domain.NewIssueFromFields(body))
	if err != nil {
		return h.observe("create", err)
	}
	h.observe("create", nil)
	return c.JSON(http.StatusOK, issue)
}

// Update merges the supplied fields into an existing issue.
func (h *IssueHandler) Update(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return h.observe("update", err)
	}

	res, err := h.issues.Update(c.Request().Context(), projectParam(c), body)
	if err != nil {
		return h.observe("update", err)
	}
	h.observe("update", nil)
	return c.JSON(http.StatusOK, res)
}

// Delete removes an issue. The id is read from the body, falling back to the
// _id query parameter.
func (h *IssueHandler) Delete(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return h.observe("delete", err)
	}

	id, _ := domain.TextValue(body[domain.FieldID])
	if id == "" {
		id = c.QueryParam(domain.FieldID)
	}

	res, err := h.issues.Delete(c.Request().Context(), projectParam(c), id)
	if err != nil {
		return h.observe("delete", err)
	}
	h.observe("delete", nil)
	return c.JSON(http.StatusOK, res)
}

// Projects lists every project that has received an issue.
func (h *IssueHandler) Projects(c echo.Context) error {
	projects, err := h.issues.Projects(c.Request().Context())
	if err != nil {
		return h.observe("projects", err)
	}
	h.observe("projects", nil)
	return c.JSON(http.StatusOK, projects)
}

func (h *IssueHandler) observe(operation string, err error) error {
	if h.metrics != nil {
		h.metrics.ObserveOperation(operation, err)
	}
	return err
}
