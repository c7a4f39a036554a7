package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	oauth "github.com/weshareshare/oauth-pkce-golang"
)

// profileId identifies the browser across the redirect boundary. The
// oauth token store is keyed on it, so tokens survive the full page
// navigation out to the provider and back.
func (s *WebServer) profileId(e echo.Context) (string, error) {
	sess, err := session.Get("session", e)
	if err != nil {
		return "", err
	}

	if v, ok := sess.Values["profile"].(string); ok && v != "" {
		return v, nil
	}

	profile := uuid.NewString()

	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
	}
	sess.Values["profile"] = profile

	if err := sess.Save(e.Request(), e.Response()); err != nil {
		return "", err
	}

	return profile, nil
}

func (s *WebServer) authSession(e echo.Context) (*oauth.Session, error) {
	profile, err := s.profileId(e)
	if err != nil {
		return nil, err
	}

	return oauth.NewSession(s.client, s.kv.Scope(profile)), nil
}

func (s *WebServer) handleLogin(e echo.Context) error {
	msg := ""
	switch e.QueryParam("e") {
	case "restart":
		msg = "<p>Your sign-in attempt expired. Please try again.</p>"
	case "rejected":
		msg = "<p>The sign-in response could not be trusted and was rejected.</p>"
	}

	return e.HTML(http.StatusOK, fmt.Sprintf(`<!doctype html>
<title>Sign in</title>
<h1>weshare</h1>
%s
<form method="post" action="/login">
  <button type="submit">Sign in</button>
</form>`, msg))
}

func (s *WebServer) handleLoginSubmit(e echo.Context) error {
	as, err := s.authSession(e)
	if err != nil {
		return err
	}

	u, err := as.SignIn()
	if err != nil {
		return err
	}

	return e.Redirect(302, u)
}

func (s *WebServer) handleCallback(e echo.Context) error {
	as, err := s.authSession(e)
	if err != nil {
		return err
	}

	tokens, err := as.HandleRedirectCallback(e.Request().Context(), e.Request().URL)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrMissingVerifier):
			return e.Redirect(302, "/login?e=restart")
		case errors.Is(err, oauth.ErrStateMismatch):
			return e.Redirect(302, "/login?e=rejected")
		}

		var xerr *oauth.ExchangeError
		if errors.As(err, &xerr) {
			return e.HTML(http.StatusBadGateway, fmt.Sprintf(
				"<h1>Authentication failed</h1><p>The provider rejected the sign-in (status %d).</p><p><a href=\"/login\">Try again</a></p>",
				xerr.StatusCode,
			))
		}

		return err
	}

	if tokens == nil {
		// not a callback, just a plain visit to the callback path
		return e.Redirect(302, "/")
	}

	// the history-replace analog: land on the bare callback path with
	// code and state gone from the visible url
	clean := oauth.StripAuthParams(e.Request().URL)
	if clean == "" || clean == e.Request().URL.String() {
		clean = "/"
	}

	return e.Redirect(302, clean)
}

func (s *WebServer) handleLogout(e echo.Context) error {
	as, err := s.authSession(e)
	if err != nil {
		return err
	}

	u, err := as.SignOut(s.cfg.SignOutUri)
	if err != nil {
		return err
	}

	sess, err := session.Get("session", e)
	if err == nil {
		sess.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		}
		sess.Save(e.Request(), e.Response())
	}

	return e.Redirect(302, u)
}
