// Package guard decides what a visitor to a protected page sees and where
// the sign-in flow sends them afterwards.
package guard

import (
	"net/url"
	"strings"

	"github.com/authdash/authdash/internal/authstate"
)

const (
	LoginPath     = "/login"
	SignUpPath    = "/signup"
	DashboardPath = "/dashboard"

	// FromParam carries the originally requested location through sign-in
	FromParam = "from"
)

// Decision is the outcome for a protected route
type Decision int

const (
	// Loading means the session is not known yet; render a placeholder
	Loading Decision = iota
	// Unauthenticated visitors are sent to the login page
	Unauthenticated
	// Authenticated visitors get the protected content
	Authenticated
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Decide maps the session state to a Decision
func Decide(st authstate.State) Decision {
	switch {
	case st.Loading:
		return Loading
	case st.User == nil:
		return Unauthenticated
	default:
		return Authenticated
	}
}

// LoginRedirect returns the login URL that remembers the requested location
func LoginRedirect(requested *url.URL) string {
	if requested == nil {
		return LoginPath
	}
	from := requested.Path
	if requested.RawQuery != "" {
		from += "?" + requested.RawQuery
	}
	if from == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{FromParam: {from}}.Encode()
}

// ReturnTo validates a remembered location. Anything that is not a plain
// local path, or that points back into the sign-in flow, yields the dashboard.
func ReturnTo(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") {
		return DashboardPath
	}
	if strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") || strings.ContainsAny(from, "\r\n") {
		return DashboardPath
	}

	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DashboardPath
	}
	if u.Path == LoginPath || u.Path == SignUpPath {
		return DashboardPath
	}
	return from
}
