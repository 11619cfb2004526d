package http

import (
	"net/http"

	"github.com/clamea-app/server/internal/server/validation"
	"github.com/labstack/echo/v4"
)

func (h *Handler) HandleRegisterDevice(c echo.Context) error {
	var body struct {
		RegistrationID string `json:"registration_id"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	if err := v.Required("registration_id", body.RegistrationID).ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	created, err := h.devices.Register(c.Request().Context(), accountID(c), body.RegistrationID)
	if err != nil {
		return h.respondError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return respondMessage(c, status, "device registered")
}
