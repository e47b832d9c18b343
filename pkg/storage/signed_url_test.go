package storage

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, expiresAt, err := signer.Generate("ver-1", "timetable_school-1_v2.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	grant, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ver-1", grant.VersionID)
	assert.Equal(t, "timetable_school-1_v2.csv", grant.Path)
	assert.Equal(t, expiresAt.Unix(), grant.ExpiresAt.Unix())
}

func TestSignedURLSignerGenerateRequiresInput(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	_, _, err := signer.Generate("", "file.csv")
	require.Error(t, err)

	_, _, err = signer.Generate("ver-1", "")
	require.Error(t, err)
}

func TestSignedURLSignerParseRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("ver-1", "file.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 4)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte("../../etc/passwd"))

	_, err = signer.Parse(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSignedURLSignerParseRejectsForeignSecret(t *testing.T) {
	minter := NewSignedURLSigner("secret-a", time.Hour)
	verifier := NewSignedURLSigner("secret-b", time.Hour)

	token, _, err := minter.Generate("ver-1", "file.csv")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSignedURLSignerParseRejectsExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	version := base64.RawURLEncoding.EncodeToString([]byte("ver-1"))
	file := base64.RawURLEncoding.EncodeToString([]byte("file.csv"))
	expiry := strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)
	token := strings.Join([]string{version, file, expiry, signer.sign(version, file, expiry)}, ".")

	_, err := signer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
