package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the identity payload carried by both token families.
// Admin logins additionally embed their resolved role-record id.
type Claims struct {
	Username   string `json:"username"`
	Level      string `json:"level"`
	IDAdminOpd *uint  `json:"id_admin_opd,omitempty"`
	IDAdminUpt *uint  `json:"id_admin_upt,omitempty"`
	TokenType  string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() uint {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewService(accessSecret, refreshSecret []byte) *Service {
	return &Service{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     7 * 24 * time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

// IssuePair signs a fresh access/refresh pair over the same identity.
// The refresh token is marked with typ=refresh so the two families can
// never be swapped for each other.
func (s *Service) IssuePair(userID uint, username, lvl string, opdID, uptID *uint) (string, string, error) {
	now := time.Now()

	accessClaims := Claims{
		Username:   username,
		Level:      lvl,
		IDAdminOpd: opdID,
		IDAdminUpt: uptID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.AccessSecret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := Claims{
		Username:   username,
		Level:      lvl,
		IDAdminOpd: opdID,
		IDAdminUpt: uptID,
		TokenType:  "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func (s *Service) ParseAccess(raw string) (*Claims, error) {
	claims, err := parse(raw, s.AccessSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType == "refresh" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) ParseRefresh(raw string) (*Claims, error) {
	claims, err := parse(raw, s.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func parse(raw string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
