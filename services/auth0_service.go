package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/kendall-kelly/fieldservice-api/config"
)

// RoleClaim is the namespaced claim an Auth0 post-login action uses to
// hand out field service roles. It appears in access tokens and userinfo.
const RoleClaim = "https://fieldservice.app/role"

// Auth0UserInfo is the profile returned by Auth0's /userinfo endpoint
type Auth0UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Role          string `json:"https://fieldservice.app/role"`
}

// DisplayName returns the name to store for the user. Auth0 fills name
// with the email address for database connections, so a nickname is
// preferred in that case.
func (u Auth0UserInfo) DisplayName() string {
	name := strings.TrimSpace(u.Name)
	if (name == "" || name == u.Email) && strings.TrimSpace(u.Nickname) != "" {
		return strings.TrimSpace(u.Nickname)
	}
	return name
}

// Auth0Service fetches user profiles from the tenant
type Auth0Service struct {
	userInfoURL string
	httpClient  *http.Client
}

// NewAuth0Service creates a service for the tenant in cfg.Auth0Domain.
// A domain with a scheme is used as the base URL verbatim.
func NewAuth0Service(cfg *config.Config) *Auth0Service {
	return &Auth0Service{
		userInfoURL: userInfoURL(cfg.Auth0Domain),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func userInfoURL(domain string) string {
	base := strings.TrimRight(domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return base + "/userinfo"
}

// GetUserInfo exchanges the caller's access token for their profile
func (s *Auth0Service) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close userinfo response: %v", closeErr)
		}
	}()

	// Profiles are small; anything larger is not a userinfo response
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo Auth0UserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return &userInfo, nil
}
