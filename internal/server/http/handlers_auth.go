package http

import (
	"errors"
	"net/http"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/server/models"
	"github.com/clamea-app/server/internal/server/services"
	"github.com/clamea-app/server/internal/server/validation"
	"github.com/labstack/echo/v4"
)

type accountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokensResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func newAccountResponse(a *models.Account) accountResponse {
	return accountResponse{ID: a.ID, Email: a.Email, Name: a.Name}
}

func newTokensResponse(p *services.TokenPair) tokensResponse {
	return tokensResponse{Access: p.AccessToken, Refresh: p.RefreshToken}
}

func (h *Handler) HandleRegister(c echo.Context) error {
	var body struct {
		Email           string `json:"email"`
		Name            string `json:"name"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	v = v.Required("email", body.Email).Email("email", body.Email)
	v = v.Required("name", body.Name)
	v = v.Required("password", body.Password).Password("password", body.Password)
	v = v.Match("password", body.Password, body.PasswordConfirm)
	if err := v.ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	staged, err := h.registration.Submit(c.Request().Context(), body.Email, body.Name, body.Password)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message": "verification code sent",
		"email":   staged.Email,
	})
}

func (h *Handler) HandleVerifyEmail(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	v = v.Required("email", body.Email).Email("email", body.Email)
	v = v.Required("code", body.Code).NumericCode("code", body.Code, h.otpLength)
	if err := v.ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	account, pair, err := h.registration.Verify(c.Request().Context(), body.Email, body.Code)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "email verified",
		"user":    newAccountResponse(account),
		"tokens":  newTokensResponse(pair),
	})
}

func (h *Handler) HandleResendVerification(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	if err := v.Required("email", body.Email).Email("email", body.Email).ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	if err := h.registration.Resend(c.Request().Context(), body.Email); err != nil {
		return h.respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "verification code sent")
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	v = v.Required("email", body.Email)
	v = v.Required("password", body.Password)
	if err := v.ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	account, pair, err := h.auth.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    newAccountResponse(account),
		"tokens":  newTokensResponse(pair),
	})
}

// HandleForgotPassword always reports success for well-formed requests, so
// the endpoint cannot be used to probe which email addresses exist.
func (h *Handler) HandleForgotPassword(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	if err := v.Required("email", body.Email).Email("email", body.Email).ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	err := h.reset.Request(c.Request().Context(), body.Email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return h.respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "if the email is registered, a reset code has been sent")
}

func (h *Handler) HandleVerifyResetCode(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	v = v.Required("email", body.Email).Email("email", body.Email)
	v = v.Required("code", body.Code).NumericCode("code", body.Code, h.otpLength)
	if err := v.ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	if err := h.reset.VerifyCode(c.Request().Context(), body.Email, body.Code); err != nil {
		return h.respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "code is valid")
}

func (h *Handler) HandleResetPassword(c echo.Context) error {
	var body struct {
		Email           string `json:"email"`
		Code            string `json:"code"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	v = v.Required("email", body.Email).Email("email", body.Email)
	v = v.Required("code", body.Code).NumericCode("code", body.Code, h.otpLength)
	v = v.Required("password", body.Password).Password("password", body.Password)
	v = v.Match("password", body.Password, body.PasswordConfirm)
	if err := v.ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	if err := h.reset.Reset(c.Request().Context(), body.Email, body.Code, body.Password); err != nil {
		return h.respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "password has been reset")
}

func (h *Handler) HandleRefreshToken(c echo.Context) error {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	if err := v.Required("refresh", body.Refresh).ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	pair, err := h.tokens.Refresh(c.Request().Context(), body.Refresh)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tokens": newTokensResponse(pair),
	})
}

func (h *Handler) HandleLogout(c echo.Context) error {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&body); err != nil {
		return respondMessage(c, http.StatusBadRequest, "invalid request body")
	}

	var v validation.Errors
	if err := v.Required("refresh", body.Refresh).ErrorOrNil(); err != nil {
		return h.respondError(c, err)
	}

	if err := h.tokens.Revoke(c.Request().Context(), body.Refresh); err != nil {
		return h.respondError(c, err)
	}
	return respondMessage(c, http.StatusOK, "logged out")
}

func (h *Handler) HandleProfile(c echo.Context) error {
	account, err := h.auth.Profile(c.Request().Context(), accountID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user": newAccountResponse(account),
	})
}
