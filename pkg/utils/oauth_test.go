package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenFile_SaveLoadDelete(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	token, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token)

	expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, SaveTokenToFile("test", &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}))

	path, err := getTokenFilePath("test")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())
	assert.Equal(t, "token-test.json", filepath.Base(path))

	token, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	require.NoError(t, DeleteTokenFile("test"))
	require.NoError(t, DeleteTokenFile("test"))

	token, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestLoadTokenFromFile_Corrupt(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := getTokenFilePath("test")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), tokenDirPerms))
	require.NoError(t, os.WriteFile(path, []byte("{"), tokenFilePerms))

	_, err = LoadTokenFromFile("test")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token file")
}

func TestMissingScopes(t *testing.T) {
	assert.Empty(t, missingScopes("openid "+ScopeSheets, requiredScopes()))
	assert.Equal(t, []string{ScopeSheets}, missingScopes("openid email", requiredScopes()))
	assert.Equal(t, []string{ScopeSheets}, missingScopes("", requiredScopes()))
}

func TestCallbackHandler(t *testing.T) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)
	handler := callbackHandler(codeChan, errChan)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, callbackPath+"?code=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", <-codeChan)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, callbackPath, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Error(t, <-errChan)
}
