package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/server/models"
	"github.com/clamea-app/server/internal/server/validation"
	"github.com/labstack/echo/v4"
)

// respondCaseError maps an absent (or foreign) case to a plain 404; every
// other failure goes through the shared mapping.
func (h *Handler) respondCaseError(c echo.Context, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return respondMessage(c, http.StatusNotFound, "case not found")
	}
	return h.respondError(c, err)
}

type caseResponse struct {
	ID             string    `json:"id"`
	TypeOfInjury   string    `json:"type_of_injury"`
	DateOfIncident time.Time `json:"date_of_incident"`
	Description    string    `json:"description"`
	Files          []string  `json:"files"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newCaseResponse(c *models.Case) caseResponse {
	files := c.Files
	if files == nil {
		files = []string{}
	}
	return caseResponse{
		ID:             c.ID,
		TypeOfInjury:   c.TypeOfInjury,
		DateOfIncident: c.DateOfIncident,
		Description:    c.Description,
		Files:          files,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type caseRequest struct {
	TypeOfInjury   string    `json:"type_of_injury"`
	DateOfIncident time.Time `json:"date_of_incident"`
	Description    string    `json:"description"`
}

func (r *caseRequest) validate() error {
	var v validation.Errors
	v = v.Required("type_of_injury", r.TypeOfInjury)
	v = v.Required("description", r.Description)
	if r.DateOfIncident.IsZero() {
		v = append(v, validation.FieldError{Field: "date_of_incident", Message: "is required"})
	}
	return v.ErrorOrNil()
}

func (h *Handler) HandleCreateCase(c echo.Context) error {
	var body caseRequest
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}
	if err := body.validate(); err != nil {
		return h.respondCaseError(c, err)
	}

	created, err := h.cases.Create(c.Request().Context(), accountID(c),
		body.TypeOfInjury, body.DateOfIncident, body.Description)
	if err != nil {
		return h.respondCaseError(c, err)
	}
	return c.JSON(http.StatusCreated, newCaseResponse(created))
}

func (h *Handler) HandleListCases(c echo.Context) error {
	list, err := h.cases.List(c.Request().Context(), accountID(c))
	if err != nil {
		return h.respondCaseError(c, err)
	}
	result := make([]caseResponse, 0, len(list))
	for _, item := range list {
		result = append(result, newCaseResponse(item))
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleGetCase(c echo.Context) error {
	found, err := h.cases.Get(c.Request().Context(), accountID(c), c.Param("id"))
	if err != nil {
		return h.respondCaseError(c, err)
	}
	return c.JSON(http.StatusOK, newCaseResponse(found))
}

func (h *Handler) HandleUpdateCase(c echo.Context) error {
	var body caseRequest
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}
	if err := body.validate(); err != nil {
		return h.respondCaseError(c, err)
	}

	updated, err := h.cases.Update(c.Request().Context(), accountID(c), c.Param("id"),
		body.TypeOfInjury, body.DateOfIncident, body.Description)
	if err != nil {
		return h.respondCaseError(c, err)
	}
	return c.JSON(http.StatusOK, newCaseResponse(updated))
}

func (h *Handler) HandleDeleteCase(c echo.Context) error {
	if err := h.cases.Delete(c.Request().Context(), accountID(c), c.Param("id")); err != nil {
		return h.respondCaseError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleCaseAttachmentUpload reserves a storage key for a new attachment and
// returns a presigned URL the client PUTs the file to.
func (h *Handler) HandleCaseAttachmentUpload(c echo.Context) error {
	var body struct {
		Filename string `json:"filename"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	if err := v.Required("filename", body.Filename).ErrorOrNil(); err != nil {
		return h.respondCaseError(c, err)
	}

	key, url, err := h.cases.AttachmentUploadURL(c.Request().Context(), accountID(c), c.Param("id"), body.Filename)
	if err != nil {
		return h.respondCaseError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"key":        key,
		"upload_url": url,
	})
}

// HandleCaseAttachmentDownload returns a presigned GET URL for an attachment
// key already recorded on the case.
func (h *Handler) HandleCaseAttachmentDownload(c echo.Context) error {
	key := c.QueryParam("key")

	var v validation.Errors
	if err := v.Required("key", key).ErrorOrNil(); err != nil {
		return h.respondCaseError(c, err)
	}

	url, err := h.cases.AttachmentDownloadURL(c.Request().Context(), accountID(c), c.Param("id"), key)
	if err != nil {
		return h.respondCaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"download_url": url,
	})
}
