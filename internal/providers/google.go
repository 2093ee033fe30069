package providers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/observability"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const GoogleName = "google"

// GoogleProfile is the verified external profile returned after the code exchange.
type GoogleProfile struct {
	ID          string
	Emails      []string
	DisplayName string
	Photos      []string
}

func (p *GoogleProfile) PrimaryEmail() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return p.Emails[0]
}

func (p *GoogleProfile) PrimaryPhoto() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UserInfoURL  string
	Timeout      time.Duration
	// Endpoint overrides google.Endpoint when set.
	Endpoint *oauth2.Endpoint
}

type GoogleClient struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"profile", "email"},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *GoogleClient) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Authenticate exchanges the callback code and loads the signed-in profile.
func (c *GoogleClient) Authenticate(ctx context.Context, code string) (*GoogleProfile, error) {
	started := time.Now()

	profile, err := c.authenticate(ctx, code)

	observability.RecordProviderCall(GoogleName, "authenticate", started, err)
	return profile, err
}

func (c *GoogleClient) authenticate(ctx context.Context, code string) (*GoogleProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, upstreamError(GoogleName, "exchange", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build userinfo request")
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstreamError(GoogleName, "userinfo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamAuthError{
			Provider:   GoogleName,
			Op:         "userinfo",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "decode userinfo")
	}

	profile := &GoogleProfile{ID: info.ID, DisplayName: info.Name}
	if info.Email != "" {
		profile.Emails = []string{info.Email}
	}
	if info.Picture != "" {
		profile.Photos = []string{info.Picture}
	}

	return profile, nil
}

// NewState returns a random value for the oauth2_state cookie.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
