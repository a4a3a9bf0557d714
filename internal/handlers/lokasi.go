package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/yudha-ap/absensi-backend/internal/models"
)

type LokasiHandler struct {
	DB *gorm.DB
}

func (h *LokasiHandler) List(c echo.Context) error {
	var rows []models.Lokasi
	if err := h.DB.WithContext(c.Request().Context()).Find(&rows).Error; err != nil {
		return internalError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"lokasi":  rows,
	})
}

func (h *LokasiHandler) Create(c echo.Context) error {
	var row models.Lokasi
	if err := c.Bind(&row); err != nil {
		return badRequest(c)
	}
	if row.Nama == "" {
		return badRequest(c)
	}
	row.ID = 0
	if err := h.DB.WithContext(c.Request().Context()).Create(&row).Error; err != nil {
		return internalError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"lokasi":  row,
	})
}
