package views

import (
	"bytes"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authdash/authdash/internal/forms"
	"github.com/authdash/authdash/internal/provider"
)

func TestDashboard(t *testing.T) {
	created := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
	lastSignIn := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	now := created.Add(10*24*time.Hour + 23*time.Hour)

	got := Dashboard(&provider.User{
		UID:           "uid-123",
		Email:         "user@example.com",
		EmailVerified: true,
		CreatedAt:     created,
		LastSignInAt:  lastSignIn,
	}, now, time.UTC)

	assert.Equal(t, DashboardView{
		Email:         "user@example.com",
		UID:           "uid-123",
		EmailVerified: "Yes",
		MemberSince:   "January 15, 2024",
		LastSignIn:    "March 1, 2024",
		DaysActive:    10,
		SignInMethod:  "Email/Password",
	}, got)
}

func TestDashboard_MissingMetadata(t *testing.T) {
	got := Dashboard(&provider.User{UID: "u", Email: "a@b.co"}, time.Now(), nil)
	assert.Equal(t, "N/A", got.MemberSince)
	assert.Equal(t, "N/A", got.LastSignIn)
	assert.Equal(t, "No", got.EmailVerified)
	assert.Equal(t, 0, got.DaysActive)
}

func TestFormatDate_Location(t *testing.T) {
	// 02:00 UTC is still the previous day in Lima
	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)

	ts := time.Date(2024, time.March, 2, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "March 2, 2024", FormatDate(ts, time.UTC))
	assert.Equal(t, "March 1, 2024", FormatDate(ts, lima))
}

func TestDaysSince(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		now  time.Time
		want int
	}{
		{name: "zero time", from: time.Time{}, now: base, want: 0},
		{name: "same instant", from: base, now: base, want: 0},
		{name: "just under a day", from: base, now: base.Add(23*time.Hour + 59*time.Minute), want: 0},
		{name: "one day", from: base, now: base.Add(24 * time.Hour), want: 1},
		{name: "future", from: base.Add(time.Hour), now: base, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysSince(tt.from, tt.now))
		})
	}
}

func TestTemplates_Render(t *testing.T) {
	tmpl := Templates()

	tests := []struct {
		name     string
		template string
		page     Page
		contains []string
	}{
		{
			name:     "login with errors",
			template: LoginTemplate,
			page: Page{
				Title: "Sign In",
				Flash: Flash{Error: []string{"Invalid email or password."}},
				Data: LoginPage{
					Email:  "user@example.com",
					From:   "/dashboard",
					Errors: forms.FieldErrors{forms.FieldPassword: "Please input your password!"},
				},
			},
			contains: []string{"Welcome Back", "Invalid email or password.", "Please input your password!", `value="user@example.com"`, `value="/dashboard"`},
		},
		{
			name:     "signup",
			template: SignUpTemplate,
			page:     Page{Title: "Sign Up", Data: SignUpPage{}},
			contains: []string{"Create Account", "Confirm Password", "Sign In Instead"},
		},
		{
			name:     "dashboard",
			template: DashboardTemplate,
			page: Page{Title: "Dashboard", Data: DashboardView{
				Email: "user@example.com", UID: "uid-123", EmailVerified: "Yes",
				MemberSince: "January 15, 2024", LastSignIn: "N/A", DaysActive: 3, SignInMethod: "Email/Password",
			}},
			contains: []string{"user@example.com", "uid-123", "January 15, 2024", "Email/Password", "Sign Out"},
		},
		{
			name:     "not found",
			template: NotFoundTemplate,
			page:     Page{Title: "Not Found", Data: NotFoundPage{Path: "/unknown"}},
			contains: []string{"404", "Sorry, the page you visited does not exist."},
		},
		{
			name:     "loading",
			template: LoadingTemplate,
			page:     Page{Title: "Loading"},
			contains: []string{"Loading..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tmpl.ExecuteTemplate(&buf, tt.template, tt.page))
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestTemplates_EscapesUserInput(t *testing.T) {
	var buf bytes.Buffer
	err := Templates().ExecuteTemplate(&buf, LoginTemplate, Page{Data: LoginPage{Email: `"><script>alert(1)</script>`}})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "<script>alert(1)")
}
