// Package http exposes the server's JSON API over echo: the registration and
// password-reset flows, login and session endpoints, cases, and device
// registrations.
package http

import (
	"errors"
	"net/http"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/logging"
	"github.com/clamea-app/server/internal/server/services"
	"github.com/clamea-app/server/internal/server/validation"
	"github.com/labstack/echo/v4"
)

// accountIDKey is the echo context key the auth middleware stores the
// authenticated account ID under.
const accountIDKey = "account_id"

type Handler struct {
	registration *services.RegistrationService
	reset        *services.PasswordResetService
	auth         *services.AuthService
	tokens       *services.TokenService
	cases        *services.CaseService
	devices      *services.DeviceService
	otpLength    int
	logger       logging.Logger
}

func NewHandler(
	registration *services.RegistrationService,
	reset *services.PasswordResetService,
	auth *services.AuthService,
	tokens *services.TokenService,
	cases *services.CaseService,
	devices *services.DeviceService,
	otpLength int,
	logger logging.Logger,
) *Handler {
	return &Handler{
		registration: registration,
		reset:        reset,
		auth:         auth,
		tokens:       tokens,
		cases:        cases,
		devices:      devices,
		otpLength:    otpLength,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/register", h.HandleRegister)
	g.POST("/auth/verify-email", h.HandleVerifyEmail)
	g.POST("/auth/resend-verification", h.HandleResendVerification)
	g.POST("/auth/login", h.HandleLogin)
	g.POST("/auth/forgot-password", h.HandleForgotPassword)
	g.POST("/auth/resend-reset-code", h.HandleForgotPassword)
	g.POST("/auth/verify-reset-code", h.HandleVerifyResetCode)
	g.POST("/auth/reset-password", h.HandleResetPassword)
	g.POST("/auth/token/refresh", h.HandleRefreshToken)
	g.POST("/auth/logout", h.HandleLogout)

	protected := g.Group("")
	protected.Use(h.AuthMiddleware)
	protected.GET("/profile", h.HandleProfile)
	protected.POST("/cases", h.HandleCreateCase)
	protected.GET("/cases", h.HandleListCases)
	protected.GET("/cases/:id", h.HandleGetCase)
	protected.PUT("/cases/:id", h.HandleUpdateCase)
	protected.DELETE("/cases/:id", h.HandleDeleteCase)
	protected.POST("/cases/:id/attachments", h.HandleCaseAttachmentUpload)
	protected.GET("/cases/:id/attachments/url", h.HandleCaseAttachmentDownload)
	protected.POST("/devices", h.HandleRegisterDevice)
}

// AuthMiddleware validates the Bearer access token and stores the account ID
// in the request context.
func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return respondMessage(c, http.StatusUnauthorized, "authorization required")
		}
		accountID, err := h.tokens.Authenticate(token)
		if err != nil {
			return h.respondError(c, err)
		}
		c.Set(accountIDKey, accountID)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func accountID(c echo.Context) string {
	id, _ := c.Get(accountIDKey).(string)
	return id
}

// respondError translates service errors into JSON responses. Unrecognized
// errors are logged and reported as a plain 500 so internals never leak.
func (h *Handler) respondError(c echo.Context, err error) error {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr,
		})
	case errors.Is(err, common.ErrorConflict):
		return respondMessage(c, http.StatusConflict, "email address is already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		return respondMessage(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrAccountNotVerified):
		return respondMessage(c, http.StatusForbidden, "account is not verified")
	case errors.Is(err, common.ErrOTPExpired):
		return respondMessage(c, http.StatusBadRequest, "code has expired")
	case errors.Is(err, common.ErrNoPendingRegistration):
		return respondMessage(c, http.StatusBadRequest, "no registration pending for this email")
	case errors.Is(err, common.ErrorNotFound):
		return respondMessage(c, http.StatusBadRequest, "invalid code or email")
	case errors.Is(err, common.ErrTokenExpired):
		return respondMessage(c, http.StatusUnauthorized, "token has expired")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return respondMessage(c, http.StatusUnauthorized, "refresh token has expired")
	case errors.Is(err, common.ErrInvalidToken):
		return respondMessage(c, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, common.ErrDeliveryFailed):
		return respondMessage(c, http.StatusInternalServerError, "could not send email, please try again")
	default:
		h.logger.Error(c.Request().Context(), "internal error", "error", err.Error(), "path", c.Path())
		return respondMessage(c, http.StatusInternalServerError, "internal server error")
	}
}

func respondMessage(c echo.Context, status int, message string) error {
	key := "message"
	if status >= http.StatusBadRequest {
		key = "error"
	}
	return c.JSON(status, map[string]string{key: message})
}
