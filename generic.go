package oauth

import (
	"fmt"
	"net/url"
)

func isSafeAndParsed(ustr string) (*url.URL, error) {
	u, err := url.Parse(ustr)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "https" && !isLoopback(u) {
		return nil, fmt.Errorf("input url is not https")
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("url hostname was empty")
	}

	if u.User != nil {
		return nil, fmt.Errorf("url user was not empty")
	}

	return u, nil
}

// isLoopback reports whether a url points at the local host. Loopback
// providers are exempt from the https requirement so local development
// and tests can run against plain http.
func isLoopback(u *url.URL) bool {
	h := u.Hostname()
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}

func tokenInSet(token string, set []string) bool {
	for _, t := range set {
		if t == token {
			return true
		}
	}

	return false
}
