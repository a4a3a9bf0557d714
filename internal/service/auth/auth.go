package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yudha-ap/absensi-backend/internal/hash"
	"github.com/yudha-ap/absensi-backend/internal/level"
	"github.com/yudha-ap/absensi-backend/internal/logging"
	"github.com/yudha-ap/absensi-backend/internal/models"
	"github.com/yudha-ap/absensi-backend/internal/service/token"
)

type Service struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// AdminOpdDetail is the role record enriched with organizational names.
// The names are best-effort lookups and stay null when absent.
type AdminOpdDetail struct {
	models.AdminOpd
	NamaSatker *string `json:"nama_satker"`
	NamaBidang *string `json:"nama_bidang"`
}

type AdminUptDetail struct {
	models.AdminUpt
	NamaSatker *string `json:"nama_satker"`
}

type SessionResult struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         models.User     `json:"user"`
	AdminOpd     *AdminOpdDetail `json:"admin_opd,omitempty"`
	AdminUpt     *AdminUptDetail `json:"admin_upt,omitempty"`
}

// Login authenticates a username/password pair and, for employee
// accounts, walks the device-binding state machine: a device id held by
// another account is rejected, an unbound account binds the supplied id,
// a bound account must present the same id again. Clients that send no
// device id skip binding entirely; that tolerance is load-bearing for
// pre-device-header clients.
func (s *Service) Login(ctx context.Context, username, password, deviceID string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "reason", "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	lv := level.FromCode(user.Level)
	if !lv.IsAdmin() && deviceID != "" {
		var holder models.User
		err := s.DB.WithContext(ctx).Where("device_id = ? AND id <> ?", deviceID, user.ID).First(&holder).Error
		if err == nil {
			l.Warn("login_failed", "reason", "device bound to another account", "user_id", user.ID)
			return nil, ErrDeviceAlreadyInUse
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		switch {
		case user.DeviceID == nil:
			if err := s.DB.WithContext(ctx).Model(&models.User{}).
				Where("id = ?", user.ID).Update("device_id", deviceID).Error; err != nil {
				return nil, err
			}
			user.DeviceID = &deviceID
			l.Info("device_bound", "user_id", user.ID)
		case *user.DeviceID != deviceID:
			l.Warn("login_failed", "reason", "device mismatch", "user_id", user.ID)
			return nil, ErrDeviceMismatch
		}
	}

	res, err := s.issueSession(ctx, &user)
	if err != nil {
		return nil, err
	}
	l.Info("login_successful", "user_id", user.ID, "level", user.Level)
	return res, nil
}

// AdminLogin is Login restricted to levels 1/2/3. Device binding never
// applies; the issued claims embed the resolved role-record id so
// downstream services can scope queries without a lookup.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.admin_login", "username", username)

	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("admin_login_failed", "reason", "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("admin_login_failed", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !level.FromCode(user.Level).IsAdmin() {
		l.Warn("admin_login_failed", "reason", "not an admin", "user_id", user.ID)
		return nil, ErrInsufficientLevel
	}

	res, err := s.issueSession(ctx, &user)
	if err != nil {
		return nil, err
	}
	l.Info("admin_login_successful", "user_id", user.ID, "level", user.Level)
	return res, nil
}

// Refresh rotates a token pair. The presented token must verify against
// the refresh secret and match the account's stored token exactly; a
// superseded or stolen token fails the second check even while its
// signature is still good.
func (s *Service) Refresh(ctx context.Context, oldRefresh string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.ParseRefresh(oldRefresh)
	if err != nil {
		l.Warn("refresh_failed", "reason", "token did not verify", "error", err)
		return nil, ErrRefreshTokenExpired
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, claims.UserID()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "reason", "account gone", "user_id", claims.UserID())
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if user.RefreshToken == nil || *user.RefreshToken != oldRefresh {
		l.Warn("refresh_failed", "reason", "token superseded", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}

	res, err := s.issueSession(ctx, &user)
	if err != nil {
		return nil, err
	}
	l.Info("refresh_successful", "user_id", user.ID)
	return res, nil
}

// Logout clears the stored refresh token of whichever account holds the
// presented one. It succeeds either way; a logout response must not act
// as a token-validity oracle.
func (s *Service) Logout(ctx context.Context, refresh string) error {
	return s.DB.WithContext(ctx).Model(&models.User{}).
		Where("refresh_token = ?", refresh).
		Update("refresh_token", nil).Error
}

// issueSession signs a new pair, persists the refresh token on the
// account row (superseding any previous session) and assembles the
// result with the caller's role record where one exists.
func (s *Service) issueSession(ctx context.Context, user *models.User) (*SessionResult, error) {
	var opdDetail *AdminOpdDetail
	var uptDetail *AdminUptDetail
	var opdID, uptID *uint

	switch level.FromCode(user.Level) {
	case level.AdminOpd:
		if opdDetail = s.adminOpdDetail(ctx, user.ID); opdDetail != nil {
			opdID = &opdDetail.AdminOpd.ID
		}
	case level.AdminUpt:
		if uptDetail = s.adminUptDetail(ctx, user.ID); uptDetail != nil {
			uptID = &uptDetail.AdminUpt.ID
		}
	}

	access, refresh, err := s.Tokens.IssuePair(user.ID, user.Username, user.Level, opdID, uptID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).Update("refresh_token", refresh).Error; err != nil {
		return nil, err
	}
	user.RefreshToken = &refresh

	return &SessionResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
		AdminOpd:     opdDetail,
		AdminUpt:     uptDetail,
	}, nil
}

// adminOpdDetail loads the role record plus organizational names.
// Everything here is enrichment: a failed lookup degrades to null and
// never fails the login.
func (s *Service) adminOpdDetail(ctx context.Context, userID uint) *AdminOpdDetail {
	var rec models.AdminOpd
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error; err != nil {
		return nil
	}
	d := &AdminOpdDetail{AdminOpd: rec}
	var satker models.Satker
	if err := s.DB.WithContext(ctx).Where("kode = ?", rec.KodeSatker).First(&satker).Error; err == nil {
		d.NamaSatker = &satker.Nama
	}
	var bidang models.Bidang
	if err := s.DB.WithContext(ctx).Where("kode = ?", rec.KodeBidang).First(&bidang).Error; err == nil {
		d.NamaBidang = &bidang.Nama
	}
	return d
}

func (s *Service) adminUptDetail(ctx context.Context, userID uint) *AdminUptDetail {
	var rec models.AdminUpt
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error; err != nil {
		return nil
	}
	d := &AdminUptDetail{AdminUpt: rec}
	var satker models.Satker
	if err := s.DB.WithContext(ctx).Where("kode = ?", rec.KodeSatker).First(&satker).Error; err == nil {
		d.NamaSatker = &satker.Nama
	}
	return d
}
