package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFakeGoogle(t *testing.T, userinfo map[string]interface{}) *GoogleClient {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, "invalid_grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "g-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer g-access" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(userinfo)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewGoogleClient(GoogleConfig{
		ClientID:     "google-id",
		ClientSecret: "google-secret",
		RedirectURL:  "http://localhost:5000/api/auth/google/callback",
		UserInfoURL:  server.URL + "/userinfo",
		Timeout:      5 * time.Second,
		Endpoint: &oauth2.Endpoint{
			AuthURL:  server.URL + "/auth",
			TokenURL: server.URL + "/token",
		},
	})
}

func TestGoogleAuthenticate(t *testing.T) {
	client := newFakeGoogle(t, map[string]interface{}{
		"id":      "g-1",
		"email":   "rider@example.com",
		"name":    "Rider One",
		"picture": "https://img.example.com/r.png",
	})

	profile, err := client.Authenticate(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "g-1", profile.ID)
	assert.Equal(t, "rider@example.com", profile.PrimaryEmail())
	assert.Equal(t, "https://img.example.com/r.png", profile.PrimaryPhoto())
	assert.Equal(t, "Rider One", profile.DisplayName)
}

func TestGoogleAuthenticateWithoutEmail(t *testing.T) {
	client := newFakeGoogle(t, map[string]interface{}{"id": "g-2", "name": "No Mail"})

	profile, err := client.Authenticate(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Empty(t, profile.PrimaryEmail())
	assert.Empty(t, profile.PrimaryPhoto())
}

func TestGoogleAuthenticateRejectedCode(t *testing.T) {
	client := newFakeGoogle(t, nil)

	_, err := client.Authenticate(context.Background(), "bad-code")
	assert.True(t, IsUpstreamAuthError(err))
}

func TestGoogleAuthorizationURLCarriesState(t *testing.T) {
	client := newFakeGoogle(t, nil)

	state, err := NewState()
	require.NoError(t, err)
	assert.NotEmpty(t, state)

	parsed, err := url.Parse(client.AuthorizationURL(state))
	require.NoError(t, err)
	assert.Equal(t, state, parsed.Query().Get("state"))
	assert.Equal(t, "profile email", parsed.Query().Get("scope"))
}
