package main

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	oauth "github.com/weshareshare/oauth-pkce-golang"
)

func (s *WebServer) handleHome(e echo.Context) error {
	as, err := s.authSession(e)
	if err != nil {
		return err
	}

	token, err := as.GetAuthToken(e.Request().Context())
	if err != nil {
		return err
	}

	var greeting, nav string
	if token == "" {
		greeting = "Hello —"
		nav = `<a href="/login">Sign in</a>`
	} else {
		// display only; the backend verifies the token on every call
		claims := oauth.DecodeClaims(token)
		greeting = fmt.Sprintf("Hello, %s", html.EscapeString(claims.DisplayName()))
		nav = `<a href="/upload">Upload</a> · <a href="/logout">Sign out</a>`
	}

	var feed strings.Builder
	for _, p := range samplePosts {
		fmt.Fprintf(&feed,
			"<div class=\"post\"><strong>@%s</strong> <span>· %s</span><div>%s</div></div>\n",
			html.EscapeString(p.Author),
			html.EscapeString(p.CreatedAt),
			html.EscapeString(p.Caption),
		)
	}

	return e.HTML(http.StatusOK, fmt.Sprintf(`<!doctype html>
<title>weshare</title>
<h1>%s</h1>
<p>%s</p>
%s`, greeting, nav, feed.String()))
}
