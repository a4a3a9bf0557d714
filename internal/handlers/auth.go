package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yudha-ap/absensi-backend/internal/logging"
	"github.com/yudha-ap/absensi-backend/internal/service/auth"
)

type AuthHandler struct {
	Svc *auth.Service
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return badRequest(c)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password, req.DeviceID)
	if err != nil {
		return authFailure(c, err)
	}

	return sessionJSON(c, res)
}

func (h *AuthHandler) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("admin_login_error", "status", 400, "error", err)
		return badRequest(c)
	}

	res, err := h.Svc.AdminLogin(ctx, req.Username, req.Password)
	if err != nil {
		return authFailure(c, err)
	}

	return sessionJSON(c, res)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refresh_token")

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return badRequest(c)
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return authFailure(c, err)
	}

	return sessionJSON(c, res)
}

// Logout always answers 200; whether the token matched anything is not
// the client's business.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "logout")

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_error", "status", 400, "error", err)
		return badRequest(c)
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		l.Error("logout_failed", "error", err)
		return internalError(c)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "berhasil logout",
	})
}

func sessionJSON(c echo.Context, res *auth.SessionResult) error {
	out := echo.Map{
		"success":       true,
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"user":          res.User,
	}
	if res.AdminOpd != nil {
		out["admin_opd"] = res.AdminOpd
	}
	if res.AdminUpt != nil {
		out["admin_upt"] = res.AdminUpt
	}
	return c.JSON(http.StatusOK, out)
}

// authFailure maps a *auth.Fault to its structured response; anything
// else is a 500 with the message suppressed.
func authFailure(c echo.Context, err error) error {
	var fault *auth.Fault
	if errors.As(err, &fault) {
		return c.JSON(fault.Status, echo.Map{
			"success": false,
			"error":   fault.Message,
			"code":    fault.Code,
		})
	}
	logging.FromContext(c.Request().Context()).Error("auth internal error", "error", err)
	return internalError(c)
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"success": false,
		"error":   "body tidak valid",
		"code":    "INVALID_REQUEST_BODY",
	})
}

func internalError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"error":   "terjadi kesalahan internal",
		"code":    "INTERNAL_ERROR",
	})
}
