package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrTokenExchangeFailed marks a failed authorization-code exchange.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrRefreshFailed marks a failed refresh_token grant.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// ExchangeError carries the token endpoint's response for diagnostics.
// It unwraps to ErrTokenExchangeFailed or ErrRefreshFailed.
type ExchangeError struct {
	kind       error
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.kind, e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return e.kind
}

// Client is a public OAuth 2.0 / OIDC client using the Authorization
// Code flow with PKCE. It authenticates with token_endpoint_auth_method
// `none`; the code is bound to this client by the verifier alone.
type Client struct {
	h                 *http.Client
	clientId          string
	redirectUri       string
	scope             string
	authorizeEndpoint string
	tokenEndpoint     string
	logoutEndpoint    string
}

type ClientArgs struct {
	H           *http.Client
	ClientId    string
	RedirectUri string

	// Scope is the space-separated scope list. Defaults to
	// "openid profile email".
	Scope string

	// Endpoints may be given directly, or derived from a hosted-ui
	// Domain (Cognito-style: /oauth2/authorize, /oauth2/token, /logout),
	// or left empty and populated later via UseProviderMetadata.
	Domain            string
	AuthorizeEndpoint string
	TokenEndpoint     string
	LogoutEndpoint    string
}

func NewClient(args ClientArgs) (*Client, error) {
	if args.ClientId == "" {
		return nil, fmt.Errorf("no client id provided")
	}

	if args.RedirectUri == "" {
		return nil, fmt.Errorf("no redirect uri provided")
	}

	if args.Scope == "" {
		args.Scope = "openid profile email"
	}

	if args.H == nil {
		args.H = &http.Client{
			Timeout: 5 * time.Second,
		}
	}

	if args.Domain != "" {
		d := strings.TrimSuffix(args.Domain, "/")
		if args.AuthorizeEndpoint == "" {
			args.AuthorizeEndpoint = d + "/oauth2/authorize"
		}
		if args.TokenEndpoint == "" {
			args.TokenEndpoint = d + "/oauth2/token"
		}
		if args.LogoutEndpoint == "" {
			args.LogoutEndpoint = d + "/logout"
		}
	}

	return &Client{
		h:                 args.H,
		clientId:          args.ClientId,
		redirectUri:       args.RedirectUri,
		scope:             args.Scope,
		authorizeEndpoint: args.AuthorizeEndpoint,
		tokenEndpoint:     args.TokenEndpoint,
		logoutEndpoint:    args.LogoutEndpoint,
	}, nil
}

// FetchProviderMetadata retrieves and validates the issuer's OIDC
// discovery document.
func (c *Client) FetchProviderMetadata(ctx context.Context, issuer string) (*ProviderMetadata, error) {
	u, err := isSafeAndParsed(issuer)
	if err != nil {
		return nil, err
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request to fetch provider metadata: %w", err)
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error getting response for provider metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf(
			"received non-200 response from provider. status code was %d",
			resp.StatusCode,
		)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read body for metadata response: %w", err)
	}

	var metadata ProviderMetadata
	if err := metadata.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("could not unmarshal metadata: %w", err)
	}

	if err := metadata.Validate(u); err != nil {
		return nil, fmt.Errorf("could not validate metadata: %w", err)
	}

	return &metadata, nil
}

// UseProviderMetadata points the client at the endpoints from a
// discovery document. The end_session_endpoint is only adopted when the
// provider advertises one; hosted-ui logout endpoints stay as configured.
func (c *Client) UseProviderMetadata(metadata *ProviderMetadata) {
	c.authorizeEndpoint = metadata.AuthorizationEndpoint
	c.tokenEndpoint = metadata.TokenEndpoint
	if metadata.EndSessionEndpoint != "" {
		c.logoutEndpoint = metadata.EndSessionEndpoint
	}
}

// AuthorizeURL builds the authorization redirect for a sign-in attempt.
// The redirect_uri must match the value registered with the provider
// byte-for-byte; the same value is sent again at exchange time.
func (c *Client) AuthorizeURL(state, codeChallenge string) string {
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {c.clientId},
		"redirect_uri":          {c.redirectUri},
		"state":                 {state},
		"scope":                 {c.scope},
		"code_challenge_method": {"S256"},
		"code_challenge":        {codeChallenge},
	}

	return c.authorizeEndpoint + "?" + params.Encode()
}

// ExchangeCode trades an authorization code and its verifier for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, pkceVerifier string) (*TokenResponse, error) {
	params := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientId},
		"code":          {code},
		"redirect_uri":  {c.redirectUri},
		"code_verifier": {pkceVerifier},
	}

	return c.tokenRequest(ctx, params, ErrTokenExchangeFailed)
}

// RefreshToken trades a refresh token for a fresh id/access token pair.
// Some providers omit refresh_token in the response; callers must keep
// the old one in that case.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	params := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientId},
		"refresh_token": {refreshToken},
	}

	return c.tokenRequest(ctx, params, ErrRefreshFailed)
}

func (c *Client) tokenRequest(ctx context.Context, params url.Values, kind error) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenEndpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &ExchangeError{
			kind:       kind,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	var tokenResponse TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("could not decode token response: %w", err)
	}

	return &tokenResponse, nil
}

// LogoutURL builds the provider's logout redirect with a post-logout
// return target.
func (c *Client) LogoutURL(postLogoutRedirect string) string {
	params := url.Values{
		"client_id":  {c.clientId},
		"logout_uri": {postLogoutRedirect},
	}

	return c.logoutEndpoint + "?" + params.Encode()
}
