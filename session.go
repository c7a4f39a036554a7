package oauth

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

var (
	// ErrMissingVerifier means a callback arrived with a code but no
	// stored verifier: the store was cleared mid-flow or the callback
	// was opened somewhere the sign-in did not start. The user must
	// restart sign-in.
	ErrMissingVerifier = errors.New("no pkce verifier in store")

	// ErrStateMismatch means the state echoed by the provider does not
	// match the one stored at sign-in. The callback is rejected.
	ErrStateMismatch = errors.New("callback state does not match stored state")
)

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateSignInRedirecting
	StateCallbackPending
	StateAuthenticated
	StateRefreshing
)

func (s SessionState) String() string {
	switch s {
	case StateSignInRedirecting:
		return "sign-in-redirecting"
	case StateCallbackPending:
		return "callback-pending"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// Session orchestrates one user's sign-in lifecycle: redirect out,
// callback exchange, transparent refresh, sign-out. All methods are
// serialized on one mutex, so concurrent GetAuthToken calls coalesce on
// a single refresh instead of each issuing their own.
type Session struct {
	client *Client
	store  TokenStore

	mu    sync.Mutex
	state SessionState
}

func NewSession(client *Client, store TokenStore) *Session {
	return &Session{
		client: client,
		store:  store,
		state:  StateUnauthenticated,
	}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SignIn starts a sign-in attempt: it generates a challenge pair and an
// anti-CSRF state, persists both, and returns the authorization URL the
// caller must redirect the user to. The flow resumes only via
// HandleRedirectCallback after the provider redirects back.
func (s *Session) SignIn() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := GenerateChallengePair()
	if err != nil {
		return "", err
	}

	state, err := GenerateState()
	if err != nil {
		return "", err
	}

	if err := s.store.SaveVerifier(pair.Verifier, state); err != nil {
		return "", err
	}

	s.state = StateSignInRedirecting

	return s.client.AuthorizeURL(state, pair.Challenge), nil
}

// HandleRedirectCallback inspects a request URL for an authorization
// response. Most page loads are not callbacks: with no code and no
// fragment tokens it returns (nil, nil) without touching the network or
// the store.
//
// The stored verifier is single-use. It is cleared after the exchange
// attempt whether the exchange succeeds or fails. A failed exchange
// leaves previously stored tokens untouched.
func (s *Session) HandleRedirectCallback(ctx context.Context, u *url.URL) (*TokenSet, error) {
	if u == nil {
		return nil, nil
	}

	if set, ok := fragmentTokens(u); ok {
		return s.adoptFragment(set)
	}

	code := u.Query().Get("code")
	if code == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateCallbackPending

	verifier, wantState, err := s.store.LoadVerifier()
	if err != nil {
		s.state = StateUnauthenticated
		return nil, err
	}

	if verifier == "" {
		s.state = StateUnauthenticated
		return nil, ErrMissingVerifier
	}

	defer s.store.ClearVerifier()

	if got := u.Query().Get("state"); got != wantState {
		s.state = StateUnauthenticated
		return nil, ErrStateMismatch
	}

	resp, err := s.client.ExchangeCode(ctx, code, verifier)
	if err != nil {
		s.state = StateUnauthenticated
		return nil, err
	}

	set := resp.TokenSet()
	if err := s.store.Save(set); err != nil {
		s.state = StateUnauthenticated
		return nil, err
	}

	s.state = StateAuthenticated

	return &set, nil
}

// fragmentTokens extracts implicit-flow tokens (#id_token=…&access_token=…)
// from the url fragment, for providers configured with response_type
// token instead of code.
func fragmentTokens(u *url.URL) (TokenSet, bool) {
	if u.Fragment == "" {
		return TokenSet{}, false
	}

	vals, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return TokenSet{}, false
	}

	set := TokenSet{
		IDToken:     vals.Get("id_token"),
		AccessToken: vals.Get("access_token"),
	}

	if set.IDToken == "" && set.AccessToken == "" {
		return TokenSet{}, false
	}

	return set, true
}

func (s *Session) adoptFragment(set TokenSet) (*TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(set); err != nil {
		return nil, err
	}

	s.state = StateAuthenticated

	return &set, nil
}

// GetAuthToken returns a usable ID token for bearer auth, or "" when no
// credential can be produced. A stored ID token is returned as-is with
// no network call. Otherwise a stored refresh token is traded for a new
// pair; refresh failure degrades to "" rather than an error so callers
// can fall back to prompting for sign-in.
func (s *Session) GetAuthToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.store.Load()
	if err != nil {
		return "", err
	}

	if set.IDToken != "" {
		s.state = StateAuthenticated
		return set.IDToken, nil
	}

	if set.RefreshToken == "" {
		return "", nil
	}

	s.state = StateRefreshing

	resp, err := s.client.RefreshToken(ctx, set.RefreshToken)
	if err != nil {
		s.state = StateUnauthenticated
		return "", nil
	}

	// the provider may omit refresh_token here; Save keeps the old one
	if err := s.store.Save(resp.TokenSet()); err != nil {
		return "", err
	}

	s.state = StateAuthenticated

	return resp.IDToken, nil
}

// SignOut clears every stored key and returns the provider logout URL
// the caller must redirect the user to.
func (s *Session) SignOut(postLogoutRedirect string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return "", err
	}

	s.state = StateUnauthenticated

	return s.client.LogoutURL(postLogoutRedirect), nil
}

// StripAuthParams returns the callback URL with code, state, and any
// token fragment removed. Redirecting to this value is the server-side
// analog of a history replace: the code never stays visible or
// bookmarkable.
func StripAuthParams(u *url.URL) string {
	clean := *u
	q := clean.Query()
	q.Del("code")
	q.Del("state")
	clean.RawQuery = q.Encode()
	clean.Fragment = ""
	return clean.String()
}
