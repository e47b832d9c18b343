package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadGrant is the claim a signed token carries: one stored export file,
// readable until the expiry, tied to the timetable version it was rendered
// from.
type DownloadGrant struct {
	VersionID string
	Path      string
	ExpiresAt time.Time
}

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("invalid download token")
	// ErrTokenExpired marks structurally valid tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// SignedURLSigner mints and verifies HMAC-signed download tokens. The token
// is self-contained, so a download request needs no session and no database
// lookup to establish the grant.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer. A non-positive TTL falls back to
// 24 hours.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate mints a token granting access to the stored file until the
// signer's TTL runs out.
func (s *SignedURLSigner) Generate(versionID, path string) (string, time.Time, error) {
	if versionID == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("version id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret is not configured")
	}

	expiresAt := time.Now().Add(s.ttl).Truncate(time.Second)
	version := base64.RawURLEncoding.EncodeToString([]byte(versionID))
	file := base64.RawURLEncoding.EncodeToString([]byte(path))
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)

	token := strings.Join([]string{version, file, expiry, s.sign(version, file, expiry)}, ".")
	return token, expiresAt, nil
}

// Parse verifies the token's signature and expiry and returns the grant. The
// signature is checked before anything is decoded, so a forged token learns
// nothing about the expected format.
func (s *SignedURLSigner) Parse(token string) (*DownloadGrant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrTokenInvalid
	}
	version, file, expiry, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.sign(version, file, expiry)), []byte(signature)) {
		return nil, ErrTokenInvalid
	}

	rawVersion, err := base64.RawURLEncoding.DecodeString(version)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(file)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	expiresAt := time.Unix(expUnix, 0)
	if time.Now().After(expiresAt) {
		return nil, ErrTokenExpired
	}
	return &DownloadGrant{
		VersionID: string(rawVersion),
		Path:      string(rawPath),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SignedURLSigner) sign(fields ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(fields, "|")))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
