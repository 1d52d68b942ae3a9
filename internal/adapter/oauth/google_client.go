package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Regera24/AstraMindProject/internal/domain"
)

// Profile is the external identity used to find or create a local account.
type Profile struct {
	Email   string
	Name    string
	Picture string
}

// Federator exchanges an authorization code for a provider token and fetches
// the external profile. Implementations hold no local state.
type Federator interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (Profile, error)
}

// GoogleConfig carries the OAuth2 client settings for the Google provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	TokenURL     string
	UserInfoURL  string
}

// GoogleClient is the default Federator over Google's token and userinfo
// endpoints. Every failure mode — network, non-2xx, malformed payload — is
// reported as domain.ErrFederationFailed; callers get no provider-specific
// diagnostics.
type GoogleClient struct {
	cfg        GoogleConfig
	httpClient *http.Client
}

var _ Federator = (*GoogleClient)(nil)

// NewGoogleClient constructs the default Federator.
func NewGoogleClient(cfg GoogleConfig, client *http.Client) *GoogleClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleClient{cfg: cfg, httpClient: client}
}

// ExchangeCode performs the authorization-code token exchange and returns the
// provider access token.
func (c *GoogleClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("redirect_uri", c.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request: %v", domain.ErrFederationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", domain.ErrFederationFailed, err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", fmt.Errorf("%w: empty provider access token", domain.ErrFederationFailed)
	}
	return payload.AccessToken, nil
}

// FetchProfile loads the userinfo profile for the provider access token.
func (c *GoogleClient) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	endpoint := c.cfg.UserInfoURL
	if u, err := url.Parse(endpoint); err == nil {
		q := u.Query()
		q.Set("alt", "json")
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: build userinfo request: %v", domain.ErrFederationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return Profile{}, err
	}

	var payload struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Profile{}, fmt.Errorf("%w: decode userinfo: %v", domain.ErrFederationFailed, err)
	}
	if strings.TrimSpace(payload.Email) == "" {
		return Profile{}, fmt.Errorf("%w: userinfo missing email", domain.ErrFederationFailed)
	}
	return Profile{Email: payload.Email, Name: payload.Name, Picture: payload.Picture}, nil
}

func (c *GoogleClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFederationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrFederationFailed, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status=%d", domain.ErrFederationFailed, resp.StatusCode)
	}
	return body, nil
}
