package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yudha-ap/absensi-backend/internal/hash"
	"github.com/yudha-ap/absensi-backend/internal/models"
	"github.com/yudha-ap/absensi-backend/internal/service/token"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.AdminOpd{}, &models.AdminUpt{},
		&models.Satker{}, &models.Bidang{},
	))
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		DB:     initTestDB(t),
		Tokens: token.NewService([]byte("test-jwt-secret"), []byte("test-refresh-secret")),
	}
}

func seedUser(t *testing.T, db *gorm.DB, username, password, lvl string) *models.User {
	t.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.go.id",
		PasswordHash: pwHash,
		Level:        lvl,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestLogin_IssuesTokensAndPersistsRefresh(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seeded := seedUser(t, svc.DB, "budi", "rahasia123", "4")

	res, err := svc.Login(ctx, "budi", "rahasia123", "")
	require.NoError(t, err)

	claims, err := svc.Tokens.ParseAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID())
	assert.Equal(t, "budi", claims.Username)
	assert.Equal(t, "4", claims.Level)

	var stored models.User
	require.NoError(t, svc.DB.First(&stored, seeded.ID).Error)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc.DB, "budi", "rahasia123", "4")

	_, errUnknown := svc.Login(ctx, "tidakada", "rahasia123", "")
	_, errWrongPw := svc.Login(ctx, "budi", "salah", "")

	assert.Equal(t, ErrInvalidCredentials, errUnknown)
	assert.Equal(t, ErrInvalidCredentials, errWrongPw)
}

func TestLogin_DeviceBinding(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seeded := seedUser(t, svc.DB, "budi", "rahasia123", "4")

	// first login binds the device
	_, err := svc.Login(ctx, "budi", "rahasia123", "device-A")
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, svc.DB.First(&stored, seeded.ID).Error)
	require.NotNil(t, stored.DeviceID)
	assert.Equal(t, "device-A", *stored.DeviceID)

	// same device logs in again
	_, err = svc.Login(ctx, "budi", "rahasia123", "device-A")
	require.NoError(t, err)

	// another device is rejected
	_, err = svc.Login(ctx, "budi", "rahasia123", "device-B")
	assert.Equal(t, ErrDeviceMismatch, err)

	// the binding did not change
	require.NoError(t, svc.DB.First(&stored, seeded.ID).Error)
	assert.Equal(t, "device-A", *stored.DeviceID)
}

func TestLogin_DeviceHeldByAnotherAccount(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc.DB, "budi", "rahasia123", "4")
	other := seedUser(t, svc.DB, "sari", "rahasia123", "4")

	_, err := svc.Login(ctx, "budi", "rahasia123", "device-A")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "sari", "rahasia123", "device-A")
	assert.Equal(t, ErrDeviceAlreadyInUse, err)

	var stored models.User
	require.NoError(t, svc.DB.First(&stored, other.ID).Error)
	assert.Nil(t, stored.DeviceID)
}

func TestLogin_NoDeviceIDSkipsBinding(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seeded := seedUser(t, svc.DB, "budi", "rahasia123", "4")

	_, err := svc.Login(ctx, "budi", "rahasia123", "")
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, svc.DB.First(&stored, seeded.ID).Error)
	assert.Nil(t, stored.DeviceID)

	// and a bound account still accepts a device-less login
	_, err = svc.Login(ctx, "budi", "rahasia123", "device-A")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "budi", "rahasia123", "")
	require.NoError(t, err)
}

func TestLogin_AdminLevelsBypassDeviceBinding(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	for _, lvl := range []string{"1", "2", "3"} {
		username := "admin" + lvl
		seeded := seedUser(t, svc.DB, username, "rahasia123", lvl)

		_, err := svc.Login(ctx, username, "rahasia123", "device-X")
		require.NoError(t, err, "level %s", lvl)
		_, err = svc.Login(ctx, username, "rahasia123", "device-Y")
		require.NoError(t, err, "level %s", lvl)
		_, err = svc.Login(ctx, username, "rahasia123", "")
		require.NoError(t, err, "level %s", lvl)

		var stored models.User
		require.NoError(t, svc.DB.First(&stored, seeded.ID).Error)
		assert.Nil(t, stored.DeviceID, "level %s must not bind", lvl)
	}
}

func TestAdminLogin_RejectsEmployee(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc.DB, "budi", "rahasia123", "4")

	_, err := svc.AdminLogin(ctx, "budi", "rahasia123")
	assert.Equal(t, ErrInsufficientLevel, err)
}

func TestAdminLogin_EmbedsRoleRecord(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	admin := seedUser(t, svc.DB, "kadis", "rahasia123", "2")

	require.NoError(t, svc.DB.Create(&models.Satker{Kode: "S01", Nama: "Dinas Pendidikan"}).Error)
	require.NoError(t, svc.DB.Create(&models.Bidang{Kode: "B01", KodeSatker: "S01", Nama: "Bidang SD"}).Error)
	rec := models.AdminOpd{UserID: admin.ID, KodeSatker: "S01", KodeBidang: "B01", Kategori: "opd"}
	require.NoError(t, svc.DB.Create(&rec).Error)

	res, err := svc.AdminLogin(ctx, "kadis", "rahasia123")
	require.NoError(t, err)

	require.NotNil(t, res.AdminOpd)
	assert.Equal(t, "S01", res.AdminOpd.KodeSatker)
	require.NotNil(t, res.AdminOpd.NamaSatker)
	assert.Equal(t, "Dinas Pendidikan", *res.AdminOpd.NamaSatker)
	require.NotNil(t, res.AdminOpd.NamaBidang)
	assert.Equal(t, "Bidang SD", *res.AdminOpd.NamaBidang)

	claims, err := svc.Tokens.ParseAccess(res.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, claims.IDAdminOpd)
	assert.Equal(t, rec.ID, *claims.IDAdminOpd)
}

func TestAdminLogin_EnrichmentDegradesToNull(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	admin := seedUser(t, svc.DB, "kadis", "rahasia123", "2")
	// role record exists but the satker/bidang lookups find nothing
	require.NoError(t, svc.DB.Create(&models.AdminOpd{UserID: admin.ID, KodeSatker: "S99"}).Error)

	res, err := svc.AdminLogin(ctx, "kadis", "rahasia123")
	require.NoError(t, err)
	require.NotNil(t, res.AdminOpd)
	assert.Nil(t, res.AdminOpd.NamaSatker)
	assert.Nil(t, res.AdminOpd.NamaBidang)
}

func TestRefresh_RotatesAndRejectsOldToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc.DB, "budi", "rahasia123", "4")

	login, err := svc.Login(ctx, "budi", "rahasia123", "")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// the superseded token no longer matches the stored one
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.Equal(t, ErrInvalidRefreshToken, err)

	// the new one still works
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_BadToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "garbage")
	assert.Equal(t, ErrRefreshTokenExpired, err)

	// well-signed token for an account that does not exist
	_, refresh, err := svc.Tokens.IssuePair(9999, "hantu", "4", nil, nil)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, refresh)
	assert.Equal(t, ErrInvalidRefreshToken, err)
}

func TestLogout_IsIdempotentAndKillsRefresh(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seeded := seedUser(t, svc.DB, "budi", "rahasia123", "4")

	login, err := svc.Login(ctx, "budi", "rahasia123", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken))

	var stored models.User
	require.NoError(t, svc.DB.First(&stored, seeded.ID).Error)
	assert.Nil(t, stored.RefreshToken)

	// second logout with the same (now orphaned) token stays silent
	require.NoError(t, svc.Logout(ctx, login.RefreshToken))
	// so does a logout with a token that never existed
	require.NoError(t, svc.Logout(ctx, "never-issued"))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.Equal(t, ErrInvalidRefreshToken, err)
}
