package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("invalid download token")
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
	// ErrSecretMissing is returned when signing without a configured secret.
	ErrSecretMissing = errors.New("signing secret missing")
)

// Claims is the payload carried by a download token.
type Claims struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// Signer issues and verifies HMAC-SHA256 download tokens of the form
// jobID.expiry.base64(path).signature.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a signer; a non-positive ttl defaults to 24h.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token granting access to path for the signer's ttl.
func (s *Signer) Sign(jobID, path string) (string, Claims, error) {
	if len(s.secret) == 0 {
		return "", Claims{}, ErrSecretMissing
	}
	if jobID == "" || path == "" || strings.Contains(jobID, ".") {
		return "", Claims{}, fmt.Errorf("%w: job id and path required", ErrTokenInvalid)
	}
	claims := Claims{JobID: jobID, Path: path, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	exp := strconv.FormatInt(claims.ExpiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(path))
	token := strings.Join([]string{jobID, exp, encoded, s.mac(jobID, exp, encoded)}, ".")
	return token, claims, nil
}

// Verify checks the signature and expiry of token.
func (s *Signer) Verify(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Claims{}, ErrTokenInvalid
	}
	jobID, exp, encoded, sig := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.mac(jobID, exp, encoded)), []byte(sig)) {
		return Claims{}, ErrTokenInvalid
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	path, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	claims := Claims{JobID: jobID, Path: string(path), ExpiresAt: time.Unix(unix, 0)}
	if !s.now().Before(claims.ExpiresAt) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *Signer) mac(jobID, exp, encoded string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(jobID + "|" + exp + "|" + encoded))
	return hex.EncodeToString(h.Sum(nil))
}
