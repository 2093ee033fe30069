package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/observability"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	StravaName = "strava"

	// StravaRideType is the remote type tag for a cycling ride.
	StravaRideType = "Ride"

	DefaultActivityPage     = 1
	DefaultActivityPageSize = 30
)

type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Profile   string `json:"profile"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
}

func (a *Athlete) DisplayName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	case a.LastName != "":
		return a.LastName
	}
	return a.Username
}

type RemoteActivity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Distance           float64 `json:"distance"`
	MovingTime         int     `json:"moving_time"`
	ElapsedTime        int     `json:"elapsed_time"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	Type               string  `json:"type"`
	StartDate          string  `json:"start_date"`
	AverageSpeed       float64 `json:"average_speed"`
	MaxSpeed           float64 `json:"max_speed"`
}

type StravaConfig struct {
	ClientID     string
	ClientSecret string
	// BaseURL hosts both the OAuth endpoints and the v3 API.
	BaseURL     string
	RedirectURL string
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
}

type StravaClient struct {
	oauth      *oauth2.Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewStravaClient(cfg StravaConfig) *StravaClient {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &StravaClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.BaseURL + "/oauth/authorize",
				TokenURL:  cfg.BaseURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			// Strava expects a single comma separated scope value.
			Scopes: []string{"read,activity:read_all"},
		},
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// AuthorizationURL builds the browser redirect that starts the connect flow.
func (c *StravaClient) AuthorizationURL() string {
	return c.oauth.AuthCodeURL("", oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

func (c *StravaClient) ExchangeCodeForTokens(ctx context.Context, code string) (*Tokens, error) {
	started := time.Now()

	tokens, err := c.token(ctx, "exchange", func(ctx context.Context) (*oauth2.Token, error) {
		return c.oauth.Exchange(ctx, code)
	})

	observability.RecordProviderCall(StravaName, "exchange", started, err)
	return tokens, err
}

func (c *StravaClient) RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	started := time.Now()

	tokens, err := c.token(ctx, "refresh", func(ctx context.Context) (*oauth2.Token, error) {
		return c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	})

	observability.RecordProviderCall(StravaName, "refresh", started, err)
	return tokens, err
}

func (c *StravaClient) token(ctx context.Context, op string, grant func(context.Context) (*oauth2.Token, error)) (*Tokens, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	token, err := grant(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		return nil, upstreamError(StravaName, op, err)
	}

	tokens := &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	// expires_at is authoritative; expires_in only approximates it.
	if expiresAt, ok := token.Extra("expires_at").(float64); ok && expiresAt > 0 {
		tokens.ExpiresAt = time.Unix(int64(expiresAt), 0)
	}

	return tokens, nil
}

func (c *StravaClient) FetchProfile(ctx context.Context, accessToken string) (*Athlete, error) {
	started := time.Now()

	var athlete Athlete
	err := c.get(ctx, "profile", accessToken, "/api/v3/athlete", nil, &athlete)

	observability.RecordProviderCall(StravaName, "profile", started, err)
	if err != nil {
		return nil, err
	}
	return &athlete, nil
}

func (c *StravaClient) FetchActivities(ctx context.Context, accessToken string, page, perPage int) ([]RemoteActivity, error) {
	if page <= 0 {
		page = DefaultActivityPage
	}
	if perPage <= 0 {
		perPage = DefaultActivityPageSize
	}

	query := url.Values{}
	query.Set("page", fmt.Sprint(page))
	query.Set("per_page", fmt.Sprint(perPage))

	started := time.Now()

	var activities []RemoteActivity
	err := c.get(ctx, "activities", accessToken, "/api/v3/athlete/activities", query, &activities)

	observability.RecordProviderCall(StravaName, "activities", started, err)
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (c *StravaClient) get(ctx context.Context, op, accessToken, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return upstreamError(StravaName, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(log.Fields{
			"op":     op,
			"status": resp.StatusCode,
		}).Warn("Strava request rejected")

		return &UpstreamAuthError{
			Provider:   StravaName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode strava %s", op)
	}

	return nil
}
