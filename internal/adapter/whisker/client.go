// Package whisker is a client for the Litter-Robot device account: Cognito
// login followed by GraphQL queries against the pet profile and robot APIs.
package whisker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"petweights/internal/domain"
)

const (
	userAgent      = "petweights/1.0"
	requestTimeout = 15 * time.Second
)

// Config holds the endpoints of the device account. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	AuthEndpoint       string `yaml:"auth_endpoint"`
	Issuer             string `yaml:"issuer"`
	ClientID           string `yaml:"client_id"`
	PetProfileEndpoint string `yaml:"pet_profile_endpoint"`
	RobotEndpoint      string `yaml:"robot_endpoint"`
	// VerifyTokens checks ID token signatures against the issuer's JWKS.
	VerifyTokens bool `yaml:"verify_tokens"`
	// HistoryLimit caps how many weight readings are requested per pet.
	HistoryLimit int `yaml:"history_limit"`
}

// DefaultConfig returns the production endpoints.
func DefaultConfig() Config {
	return Config{
		AuthEndpoint:       "https://cognito-idp.us-east-1.amazonaws.com/",
		Issuer:             "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_rjhNnZVAm",
		ClientID:           "4552ujeu3aic90nf8qn53levmn",
		PetProfileEndpoint: "https://pet-profile.prod.iothings.site/graphql/",
		RobotEndpoint:      "https://lr4.iothings.site/graphql",
		VerifyTokens:       true,
		HistoryLimit:       1000,
	}
}

// Client connects to the device account. It implements domain.DeviceSource.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.DeviceSource = (*Client)(nil)

// NewClient creates a Client. A nil httpClient uses a client with a request
// timeout; a nil logger disables logging.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

func (c *Client) log(level slog.Level, msg string, args ...any) {
	if c.logger != nil {
		c.logger.Log(context.Background(), level, msg, args...)
	}
}

type authRequest struct {
	AuthFlow       string            `json:"AuthFlow"`
	ClientID       string            `json:"ClientId"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type authResponse struct {
	AuthenticationResult struct {
		AccessToken  string `json:"AccessToken"`
		IDToken      string `json:"IdToken"`
		RefreshToken string `json:"RefreshToken"`
		ExpiresIn    int    `json:"ExpiresIn"`
		TokenType    string `json:"TokenType"`
	} `json:"AuthenticationResult"`
}

type authError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

type idClaims struct {
	MID string `json:"mid"`
	Sub string `json:"sub"`
}

// Connect logs in and returns a session bound to the account's user id.
func (c *Client) Connect(ctx context.Context, creds domain.AccountCredentials) (domain.DeviceSession, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrAuth)
	}
	c.log(slog.LevelDebug, "connecting to device account", "username", creds.Username)

	auth, err := c.login(ctx, creds)
	if err != nil {
		return nil, err
	}

	verifier, err := c.verifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	idToken, err := verifier.Verify(ctx, auth.AuthenticationResult.IDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id token: %w", domain.ErrAuth, err)
	}
	var claims idClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse id token claims: %w", domain.ErrAuth, err)
	}
	userID := claims.MID
	if userID == "" {
		userID = claims.Sub
	}

	tok := &oauth2.Token{
		AccessToken: auth.AuthenticationResult.IDToken,
		TokenType:   "Bearer",
		Expiry:      idToken.Expiry,
	}
	base := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	httpClient := oauth2.NewClient(base, oauth2.StaticTokenSource(tok))
	httpClient.Timeout = c.httpClient.Timeout

	c.log(slog.LevelInfo, "connected to device account", "user_id", userID)
	return &session{client: c, http: httpClient, userID: userID}, nil
}

func (c *Client) login(ctx context.Context, creds domain.AccountCredentials) (*authResponse, error) {
	body, err := json.Marshal(authRequest{
		AuthFlow: "USER_PASSWORD_AUTH",
		ClientID: c.cfg.ClientID,
		AuthParameters: map[string]string{
			"USERNAME": creds.Username,
			"PASSWORD": creds.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)
	request.Header.Set("Content-Type", "application/x-amz-json-1.1")
	request.Header.Set("X-Amz-Target", "AWSCognitoIdentityProviderService.InitiateAuth")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: login request: %w", domain.ErrFetch, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read login response: %w", domain.ErrFetch, err)
	}

	if response.StatusCode != http.StatusOK {
		var ae authError
		_ = json.Unmarshal(data, &ae)
		switch ae.Type {
		case "NotAuthorizedException", "UserNotFoundException", "PasswordResetRequiredException", "UserNotConfirmedException":
			return nil, fmt.Errorf("%w: %s", domain.ErrAuth, ae.Message)
		}
		return nil, fmt.Errorf("%w: login failed: %s %s", domain.ErrFetch, response.Status, ae.Type)
	}

	var auth authResponse
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal login response: %w", domain.ErrFetch, err)
	}
	if auth.AuthenticationResult.IDToken == "" {
		return nil, fmt.Errorf("%w: login response carried no id token", domain.ErrAuth)
	}
	return &auth, nil
}

func (c *Client) verifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	cfg := &oidc.Config{ClientID: c.cfg.ClientID}
	if !c.cfg.VerifyTokens {
		cfg.InsecureSkipSignatureCheck = true
		return oidc.NewVerifier(c.cfg.Issuer, &oidc.StaticKeySet{}, cfg), nil
	}
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), c.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover token issuer: %w", err)
	}
	return provider.Verifier(cfg), nil
}
