package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/yudha-ap/absensi-backend/internal/level"
	"github.com/yudha-ap/absensi-backend/internal/logging"
	"github.com/yudha-ap/absensi-backend/internal/models"
	"github.com/yudha-ap/absensi-backend/internal/mykafka"
	"github.com/yudha-ap/absensi-backend/internal/service/token"
)

const HeaderDeviceID = "X-Device-Id"

// Context keys set after identity resolution.
const (
	CtxUser     = "user"
	CtxUserID   = "userID"
	CtxLevel    = "level"
	CtxAdminOpd = "adminOpd"
	CtxAdminUpt = "adminUpt"
)

type Middleware struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

// Options configures one protected route. Levels entries are numeric
// codes or symbolic names; an empty list admits any authenticated
// identity.
type Options struct {
	Levels          []string
	AllowDeviceAuth bool
	RequireAdminOpd bool
	RequireAdminUpt bool
}

// RequireAuth resolves the caller's identity, bearer token first. A
// present-but-bad bearer token is terminal: it never falls back to
// device auth, so a forged or stale token cannot downgrade to the
// weaker scheme. Device auth, when the route allows it, maps the
// X-Device-Id header to the account bound to that device.
func (m *Middleware) RequireAuth(opts Options) echo.MiddlewareFunc {
	allowed := level.ResolveSet(opts.Levels)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var user models.User

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			switch {
			case strings.HasPrefix(header, "Bearer "):
				claims, err := m.Tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
				if err != nil {
					if errors.Is(err, token.ErrTokenExpired) {
						return reject(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "token kedaluwarsa")
					}
					return reject(c, http.StatusUnauthorized, "INVALID_TOKEN", "token tidak valid")
				}
				if err := m.DB.First(&user, claims.UserID()).Error; err != nil {
					return reject(c, http.StatusUnauthorized, "INVALID_TOKEN", "token tidak valid")
				}
			case opts.AllowDeviceAuth:
				deviceID := c.Request().Header.Get(HeaderDeviceID)
				if deviceID == "" {
					return reject(c, http.StatusUnauthorized, "DEVICE_ID_REQUIRED", "header X-Device-Id wajib diisi")
				}
				if err := m.DB.Where("device_id = ?", deviceID).First(&user).Error; err != nil {
					return reject(c, http.StatusUnauthorized, "UNKNOWN_DEVICE", "perangkat tidak terdaftar")
				}
			default:
				return reject(c, http.StatusUnauthorized, "TOKEN_REQUIRED", "header Authorization wajib diisi")
			}

			lv := level.FromCode(user.Level)
			if len(allowed) > 0 && !allowed[lv] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success":  false,
					"error":    "level akses tidak mencukupi",
					"code":     "INSUFFICIENT_LEVEL",
					"required": opts.Levels,
					"current":  user.Level,
				})
			}

			c.Set(CtxUser, user)
			c.Set(CtxUserID, user.ID)
			c.Set(CtxLevel, user.Level)

			if opts.RequireAdminOpd && lv == level.AdminOpd {
				var rec models.AdminOpd
				if err := m.DB.Where("user_id = ?", user.ID).First(&rec).Error; err != nil {
					return reject(c, http.StatusForbidden, "MISSING_ROLE_RECORD", "data admin OPD tidak ditemukan")
				}
				c.Set(CtxAdminOpd, rec)
			}
			if opts.RequireAdminUpt && lv == level.AdminUpt {
				var rec models.AdminUpt
				if err := m.DB.Where("user_id = ?", user.ID).First(&rec).Error; err != nil {
					return reject(c, http.StatusForbidden, "MISSING_ROLE_RECORD", "data admin UPT tidak ditemukan")
				}
				c.Set(CtxAdminUpt, rec)
			}

			return next(c)
		}
	}
}

// RequireUserDeviceCheck runs after RequireAuth. For employee accounts
// it compares the request's device header with the bound device; a
// mismatch means the account logged in on another device since, so the
// stored refresh token is cleared (global logout) before rejecting.
func (m *Middleware) RequireUserDeviceCheck() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(CtxUser).(models.User)
			if !ok {
				return reject(c, http.StatusUnauthorized, "TOKEN_REQUIRED", "identitas belum terverifikasi")
			}
			if level.FromCode(user.Level).IsAdmin() {
				return next(c)
			}

			deviceID := c.Request().Header.Get(HeaderDeviceID)
			if user.DeviceID != nil && deviceID != *user.DeviceID {
				ctx := c.Request().Context()
				l := logging.FromContext(ctx).With("mw", "device_check", "user_id", user.ID)

				if err := m.DB.Model(&models.User{}).
					Where("id = ?", user.ID).Update("refresh_token", nil).Error; err != nil {
					l.Error("forced_logout_failed", "error", err)
				} else {
					l.Warn("forced_logout", "reason", "device mismatch")
				}
				m.publishForcedLogout(ctx, user.ID)

				return reject(c, http.StatusUnauthorized, "DEVICE_ID_MISMATCH", "akun digunakan pada perangkat lain, silakan login ulang")
			}
			return next(c)
		}
	}
}

func (m *Middleware) publishForcedLogout(ctx context.Context, userID uint) {
	if m.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	event := map[string]interface{}{
		"type":    "forced_logout",
		"user_id": userID,
	}
	if err := m.Producer.PublishEvent(pubCtx, "auth_events", "forced_logout", event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

func reject(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}
