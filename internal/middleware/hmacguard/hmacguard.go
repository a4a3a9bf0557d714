// Package hmacguard validates the signed envelope on mutating,
// location-bearing requests. The check is independent of bearer-token
// identity: it proves the payload was produced by a holder of the
// shared secret and has not been replayed or altered.
package hmacguard

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yudha-ap/absensi-backend/internal/nonce"
)

const (
	HeaderSignature    = "X-Hmac-Signature"
	HeaderSignatureAlt = "Hmac-Signature"
	HeaderTimestamp    = "X-Timestamp"
	HeaderNonce        = "X-Nonce"

	// MaxSkew bounds |now - timestamp| in both directions.
	MaxSkew = 300 * time.Second

	minNonceLen = 8
)

// signedFields is the fixed selection order for the canonical payload.
// Only fields present and non-null in the body participate.
var signedFields = []string{"type", "latitude", "longitude", "lokasi_id", "id_kegiatan"}

type Guard struct {
	Secret []byte
	Nonces nonce.Store
	Now    func() time.Time
}

func New(secret []byte, store nonce.Store) *Guard {
	return &Guard{Secret: secret, Nonces: store, Now: time.Now}
}

func (g *Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return reject(c, http.StatusBadRequest, "INVALID_REQUEST_BODY", "body tidak dapat dibaca")
			}
			req.Body.Close()
			// the handler behind the guard re-reads the body
			req.Body = io.NopCloser(bytes.NewReader(raw))

			var body map[string]interface{}
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &body)
			}

			sig := req.Header.Get(HeaderSignature)
			if sig == "" {
				sig = req.Header.Get(HeaderSignatureAlt)
			}
			if sig == "" {
				return reject(c, http.StatusBadRequest, "HMAC_SIGNATURE_REQUIRED", "signature wajib diisi")
			}

			tsValue, ok := headerOrBody(req, HeaderTimestamp, body, "timestamp")
			if !ok {
				return reject(c, http.StatusBadRequest, "TIMESTAMP_REQUIRED", "timestamp wajib diisi")
			}
			nonceValue, ok := headerOrBody(req, HeaderNonce, body, "nonce")
			if !ok {
				return reject(c, http.StatusBadRequest, "NONCE_REQUIRED", "nonce wajib diisi")
			}

			ts, err := parseTimestamp(tsValue)
			if err != nil {
				return reject(c, http.StatusBadRequest, "INVALID_TIMESTAMP_FORMAT", "timestamp harus unix detik")
			}
			nonceStr, ok := nonceValue.(string)
			if !ok || len(nonceStr) < minNonceLen {
				return reject(c, http.StatusBadRequest, "INVALID_NONCE_FORMAT", "nonce minimal 8 karakter")
			}

			now := g.Now().Unix()
			if diff := now - ts; diff > int64(MaxSkew/time.Second) || -diff > int64(MaxSkew/time.Second) {
				return reject(c, http.StatusUnauthorized, "TIMESTAMP_EXPIRED", "timestamp di luar jendela yang diizinkan")
			}

			claimed, err := g.Nonces.TryClaim(nonceStr, req.URL.Path)
			if err != nil {
				return reject(c, http.StatusInternalServerError, "NONCE_STORE_ERROR", "terjadi kesalahan internal")
			}
			if !claimed {
				return reject(c, http.StatusUnauthorized, "NONCE_ALREADY_USED", "nonce sudah pernah digunakan")
			}

			payload := map[string]interface{}{}
			for _, f := range signedFields {
				if v, ok := body[f]; ok && v != nil {
					payload[f] = v
				}
			}
			if len(payload) == 0 {
				return reject(c, http.StatusBadRequest, "INVALID_REQUEST_BODY", "tidak ada field yang dapat ditandatangani")
			}
			payload["timestamp"] = ts
			payload["nonce"] = nonceStr

			if !g.verify(payload, sig) {
				// roll the claim back so the legitimate client can retry
				// this nonce with a corrected signature
				_ = g.Nonces.Release(nonceStr)
				return reject(c, http.StatusUnauthorized, "HMAC_SIGNATURE_INVALID", "signature tidak valid")
			}

			// the claim is retained: this nonce is spent even for a
			// second request with a valid signature
			return next(c)
		}
	}
}

// Canonical form: JSON object with lexicographically sorted keys, which
// is what encoding/json produces for a map. Clients sign the same
// serialization.
func Canonical(payload map[string]interface{}) []byte {
	out, _ := json.Marshal(payload)
	return out
}

// Sign computes the hex HMAC-SHA256 a client would send. Exported for
// tests and tooling.
func Sign(secret []byte, payload map[string]interface{}) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(Canonical(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *Guard) verify(payload map[string]interface{}, sig string) bool {
	mac := hmac.New(sha256.New, g.Secret)
	mac.Write(Canonical(payload))
	want := mac.Sum(nil)

	got, err := hex.DecodeString(sig)
	if err != nil || len(got) != len(want) {
		return false
	}
	return hmac.Equal(got, want)
}

func headerOrBody(req *http.Request, header string, body map[string]interface{}, field string) (interface{}, bool) {
	if v := req.Header.Get(header); v != "" {
		return v, true
	}
	if v, ok := body[field]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func parseTimestamp(v interface{}) (int64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseInt(t, 10, 64)
	case float64:
		if t != float64(int64(t)) {
			return 0, strconv.ErrSyntax
		}
		return int64(t), nil
	case json.Number:
		return t.Int64()
	default:
		return 0, strconv.ErrSyntax
	}
}

func reject(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}
