package auth

import "net/http"

// Fault is a client-caused auth failure with a stable code clients
// branch on. Anything that is not a *Fault surfaces as a plain 500.
type Fault struct {
	Status  int
	Code    string
	Message string
}

func (f *Fault) Error() string { return f.Message }

var (
	// One error for both "no such user" and "wrong password" so the
	// response never confirms an account exists.
	ErrInvalidCredentials = &Fault{http.StatusUnauthorized, "INVALID_CREDENTIALS", "username atau password salah"}

	ErrDeviceAlreadyInUse  = &Fault{http.StatusUnauthorized, "DEVICE_ID_ALREADY_USED", "perangkat sudah terdaftar pada akun lain"}
	ErrDeviceMismatch      = &Fault{http.StatusUnauthorized, "DEVICE_ID_MISMATCH", "akun sedang digunakan pada perangkat lain"}
	ErrRefreshTokenExpired = &Fault{http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "refresh token kedaluwarsa, silakan login ulang"}
	ErrInvalidRefreshToken = &Fault{http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token tidak valid"}
	ErrInsufficientLevel   = &Fault{http.StatusUnauthorized, "INSUFFICIENT_LEVEL", "akun ini bukan akun admin"}
)
