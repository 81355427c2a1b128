package navigation

import (
	"net/url"
	"strings"
)

// RedirectParam carries the path to return to after authenticating
const RedirectParam = "redirect"

// Navigator is the console's location bar
type Navigator interface {
	// Location returns a copy of the current location (path and query)
	Location() *url.URL
	Navigate(target string)
}

// PostLoginTarget is where a successful login lands: the redirect query parameter of
// the current location when it is a local path, otherwise defaultRoute.
func PostLoginTarget(current *url.URL, defaultRoute string) string {
	if current == nil {
		return defaultRoute
	}
	target := current.Query().Get(RedirectParam)
	if !isLocalPath(target) {
		return defaultRoute
	}
	return target
}

// LoginTarget builds loginRoute?redirect=<returnTo>. Slashes in returnTo are kept
// readable, everything else is query escaped.
func LoginTarget(loginRoute, returnTo string) string {
	if returnTo == "" {
		return loginRoute
	}
	return loginRoute + "?" + RedirectParam + "=" + strings.ReplaceAll(url.QueryEscape(returnTo), "%2F", "/")
}

// IsRoute reports whether current is on route, ignoring the query and a trailing slash
func IsRoute(current *url.URL, route string) bool {
	if current == nil {
		return false
	}
	return strings.TrimSuffix(current.Path, "/") == strings.TrimSuffix(route, "/")
}

// ReturnPath is the path plus query of current, used as a redirect value
func ReturnPath(current *url.URL) string {
	if current == nil {
		return ""
	}
	if current.RawQuery == "" {
		return current.Path
	}
	return current.Path + "?" + current.RawQuery
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
