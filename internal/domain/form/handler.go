package form

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/formentry/internal/domain/encounter"
	"github.com/ehr/formentry/internal/htmlform"
	"github.com/ehr/formentry/internal/platform/auth"
	"github.com/ehr/formentry/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Form design is an admin task
	admin := api.Group("/forms", auth.RequireRole("admin"))
	admin.POST("", h.CreateForm)
	admin.PUT("/:id", h.UpdateForm)
	admin.DELETE("/:id", h.DeleteForm)

	clinical := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	clinical.GET("/forms", h.ListForms)
	clinical.GET("/forms/:id", h.GetForm)
	clinical.POST("/forms/:id/$render", h.RenderForm)
	clinical.POST("/forms/:id/$submit", h.SubmitForm)
	clinical.POST("/htmlform/$render", h.RenderMarkup)
}

// RenderRequest is the body of the render endpoints.
type RenderRequest struct {
	Mode      string               `json:"mode"`
	Markup    string               `json:"markup,omitempty"`
	Encounter *encounter.Encounter `json:"encounter,omitempty"`
}

// SubmitRequest is the JSON body of the submit endpoint.
type SubmitRequest struct {
	Mode      string               `json:"mode"`
	Encounter *encounter.Encounter `json:"encounter,omitempty"`
	Fields    map[string]string    `json:"fields"`
}

func (h *Handler) CreateForm(c echo.Context) error {
	var f Form
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateForm(c.Request().Context(), &f); err != nil {
		return designError(err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) GetForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, err := h.svc.GetForm(c.Request().Context(), id)
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) ListForms(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForms(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var f Form
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	f.ID = id
	if err := h.svc.UpdateForm(c.Request().Context(), &f); err != nil {
		if errors.Is(err, ErrNotFound) {
			return lookupError(err)
		}
		return designError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteForm(c.Request().Context(), id); err != nil {
		return lookupError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RenderForm handles POST /api/v1/forms/:id/$render. Clients sending
// Accept: text/html get the bare HTML instead of a JSON envelope.
func (h *Handler) RenderForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req RenderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	mode, err := htmlform.ParseMode(req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.RenderForm(c.Request().Context(), id, mode, req.Encounter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return lookupError(err)
		}
		return designError(err)
	}
	return respondHTML(c, out)
}

// RenderMarkup handles POST /api/v1/htmlform/$render for markup that is not
// stored.
func (h *Handler) RenderMarkup(c echo.Context) error {
	var req RenderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	mode, err := htmlform.ParseMode(req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.RenderMarkup(c.Request().Context(), req.Markup, mode, req.Encounter)
	if err != nil {
		return designError(err)
	}
	return respondHTML(c, out)
}

// SubmitForm handles POST /api/v1/forms/:id/$submit. The body is either a
// SubmitRequest or url-encoded form fields with an optional mode field.
func (h *Handler) SubmitForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req SubmitRequest
	sub := htmlform.Submission{}
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		params, err := c.FormParams()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
		}
		req.Mode = params.Get("mode")
		for k, v := range params {
			sub[k] = v
		}
	} else {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		for k, v := range req.Fields {
			sub[k] = []string{v}
		}
	}

	mode, err := htmlform.ParseMode(req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.SubmitForm(c.Request().Context(), id, mode, req.Encounter, sub)
	if err != nil {
		var verr *htmlform.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": verr.Fields,
			})
		}
		if errors.Is(err, ErrNotFound) {
			return lookupError(err)
		}
		return designError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func respondHTML(c echo.Context, out string) error {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return c.HTML(http.StatusOK, out)
	}
	return c.JSON(http.StatusOK, map[string]string{"html": out})
}

func lookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "form not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// designError maps bad form designs and invalid requests to 400 and
// anything else to 500.
func designError(err error) error {
	if errors.Is(err, htmlform.ErrBadFormDesign) || errors.Is(err, ErrInvalid) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
