package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/yudha-ap/absensi-backend/internal/handlers"
	authmw "github.com/yudha-ap/absensi-backend/internal/middleware/auth"
	"github.com/yudha-ap/absensi-backend/internal/middleware/hmacguard"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	AbsensiHandler *handlers.AbsensiHandler
	LokasiHandler  *handlers.LokasiHandler
	SearchHandler  *handlers.SearchHandler
	Auth           *authmw.Middleware
	Hmac           *hmacguard.Guard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/admin/login", d.AuthHandler.AdminLogin)
	v1.POST("/refresh-token", d.AuthHandler.Refresh)
	v1.POST("/logout", d.AuthHandler.Logout)

	// integrity guard runs before identity resolution
	v1.POST("/absensi", d.AbsensiHandler.Create,
		d.Hmac.Middleware(),
		d.Auth.RequireAuth(authmw.Options{AllowDeviceAuth: true}),
		d.Auth.RequireUserDeviceCheck(),
	)

	v1.GET("/absensi/search", d.SearchHandler.Handler,
		d.Auth.RequireAuth(authmw.Options{}),
	)

	v1.GET("/lokasi", d.LokasiHandler.List,
		d.Auth.RequireAuth(authmw.Options{AllowDeviceAuth: true}),
	)
	v1.POST("/lokasi", d.LokasiHandler.Create,
		d.Auth.RequireAuth(authmw.Options{
			Levels:          []string{"1", "2"},
			RequireAdminOpd: true,
		}),
	)
}
