// Package views renders the HTML pages. Templates are embedded and handed
// to gin's HTML renderer; page models are plain structs built here.
package views

import (
	"embed"
	"html/template"
	"math"
	"time"

	"github.com/authdash/authdash/internal/forms"
	"github.com/authdash/authdash/internal/provider"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names
const (
	LoginTemplate     = "login.tmpl"
	SignUpTemplate    = "signup.tmpl"
	DashboardTemplate = "dashboard.tmpl"
	NotFoundTemplate  = "not_found.tmpl"
	LoadingTemplate   = "loading.tmpl"
)

const (
	dateLayout   = "January 2, 2006"
	notAvailable = "N/A"
	signInMethod = "Email/Password"
	hoursInADay  = 24

	// LoadingRefresh is how often the loading page reloads, in seconds
	LoadingRefresh = 1
)

// Templates parses every embedded page
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))
}

// Flash holds one-shot messages carried across a redirect
type Flash struct {
	Success []string
	Error   []string
}

// Page is the data every template receives. A non-zero Refresh reloads
// the page after that many seconds.
type Page struct {
	Title   string
	Flash   Flash
	Data    any
	Refresh int
}

// LoginPage is the sign-in form state
type LoginPage struct {
	Email  string
	From   string
	Errors forms.FieldErrors
}

// SignUpPage is the registration form state
type SignUpPage struct {
	Email  string
	Errors forms.FieldErrors
}

// NotFoundPage names the path nobody could find
type NotFoundPage struct {
	Path string
}

// DashboardView is what the dashboard shows about the signed-in user
type DashboardView struct {
	Email         string
	UID           string
	EmailVerified string
	MemberSince   string
	LastSignIn    string
	DaysActive    int
	SignInMethod  string
}

// Dashboard builds the dashboard model for u at now, formatting dates in loc
func Dashboard(u *provider.User, now time.Time, loc *time.Location) DashboardView {
	if u == nil {
		return DashboardView{
			MemberSince:   notAvailable,
			LastSignIn:    notAvailable,
			EmailVerified: "No",
			SignInMethod:  signInMethod,
		}
	}

	verified := "No"
	if u.EmailVerified {
		verified = "Yes"
	}

	return DashboardView{
		Email:         u.Email,
		UID:           u.UID,
		EmailVerified: verified,
		MemberSince:   FormatDate(u.CreatedAt, loc),
		LastSignIn:    FormatDate(u.LastSignInAt, loc),
		DaysActive:    DaysSince(u.CreatedAt, now),
		SignInMethod:  signInMethod,
	}
}

// FormatDate renders t as "January 2, 2006" in loc, or "N/A" when unset
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return notAvailable
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// DaysSince counts whole days from t to now. Unknown or future times count as zero.
func DaysSince(t, now time.Time) int {
	if t.IsZero() || !now.After(t) {
		return 0
	}
	return int(math.Floor(now.Sub(t).Hours() / hoursInADay))
}
