package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/yudha-ap/absensi-backend/internal/middleware/auth"
	"github.com/yudha-ap/absensi-backend/internal/models"
	"github.com/yudha-ap/absensi-backend/internal/mykafka"
	"github.com/yudha-ap/absensi-backend/internal/push"
)

type AbsensiHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Push     push.Sender
}

type absensiRequest struct {
	Type       string  `json:"type"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	LokasiID   *uint   `json:"lokasi_id"`
	KegiatanID *uint   `json:"id_kegiatan"`
}

// Create records a check-in. The HMAC guard and the auth middlewares
// have already run; the handler itself is plain data access.
func (h *AbsensiHandler) Create(c echo.Context) error {
	user, ok := c.Get(authmw.CtxUser).(models.User)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false,
			"error":   "identitas belum terverifikasi",
			"code":    "TOKEN_REQUIRED",
		})
	}

	var req absensiRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if req.Type == "" {
		return badRequest(c)
	}

	row := models.Absensi{
		UserID:     user.ID,
		Type:       req.Type,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		LokasiID:   req.LokasiID,
		KegiatanID: req.KegiatanID,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&row).Error; err != nil {
		return internalError(c)
	}

	event := map[string]interface{}{
		"type":       "absensi_created",
		"absensi_id": row.ID,
		"user_id":    user.ID,
		"username":   user.Username,
		"jenis":      row.Type,
		"latitude":   row.Latitude,
		"longitude":  row.Longitude,
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "absensi_events", fmt.Sprint(user.ID), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}

	if h.Push != nil && user.FCMToken != nil {
		h.Push.Send(c.Request().Context(), *user.FCMToken, "Absensi tercatat",
			fmt.Sprintf("Absen %s berhasil direkam", row.Type))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"absensi": row,
	})
}
