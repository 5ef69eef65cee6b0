package http

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nidohq/nido/pkg/httpx"
	"github.com/nidohq/nido/pkg/nidosdk"
)

func requireAPIError(t *testing.T, err error, want *nidosdk.APIError) {
	t.Helper()
	var apiErr *nidosdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, want.StatusCode, apiErr.StatusCode)
	require.Equal(t, want.Code, apiErr.Code)
}

func TestSignUpAndSignIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := f.client()

	_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	t.Run("sign in sets the session cookie", func(t *testing.T) {
		body := strings.NewReader(`{"email":"alice@example.com","password":"hunter2hunter2"}`)
		resp, err := http.Post(f.server.URL+"/v1/auth/signin", "application/json", body)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var cookie *http.Cookie
		for _, ck := range resp.Cookies() {
			if ck.Name == httpx.SessionCookieName {
				cookie = ck
			}
		}
		require.NotNil(t, cookie, `cookie is named "jwt"`)
		require.True(t, cookie.HttpOnly)
		require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		require.Equal(t, "/", cookie.Path)
		require.Positive(t, cookie.MaxAge)
		require.False(t, cookie.Secure, "dev fixture runs over plain http")

		identity, err := f.signer.Verify(cookie.Value)
		require.NoError(t, err)
		require.Equal(t, "user", identity.Role)
	})

	t.Run("response body never carries secrets", func(t *testing.T) {
		auth, err := c.SignIn(ctx, "alice@example.com", "hunter2hunter2")
		require.NoError(t, err)
		require.Equal(t, "alice", auth.User.Username)
		require.NotEmpty(t, auth.Token)
	})

	t.Run("bad password and unknown email share a response", func(t *testing.T) {
		_, errPass := c.SignIn(ctx, "alice@example.com", "wrong-password")
		requireAPIError(t, errPass, nidosdk.ErrInvalidCredentials)

		_, errMail := c.SignIn(ctx, "ghost@example.com", "hunter2hunter2")
		requireAPIError(t, errMail, nidosdk.ErrInvalidCredentials)
	})

	t.Run("duplicate email is a field validation error", func(t *testing.T) {
		_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
			Username: "alice-two",
			Email:    "alice@example.com",
			Password: "hunter2hunter2",
		})
		var apiErr *nidosdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, nidosdk.ErrorCodeValidation, apiErr.Code)
		require.Equal(t, "email", apiErr.Field)
	})
}

func TestSignUpValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newFixture(t).client()

	cases := []struct {
		name  string
		req   nidosdk.SignUpRequest
		field string
	}{
		{"missing username", nidosdk.SignUpRequest{Email: "a@b.com", Password: "longenough1"}, "username"},
		{"bad email", nidosdk.SignUpRequest{Username: "x", Email: "not-an-email", Password: "longenough1"}, "email"},
		{"short password", nidosdk.SignUpRequest{Username: "x", Email: "a@b.com", Password: "short"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.SignUp(ctx, tc.req)
			var apiErr *nidosdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, nidosdk.ErrorCodeValidation, apiErr.Code)
			require.Equal(t, tc.field, apiErr.Field)
		})
	}
}

func TestSessionGuard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	t.Run("missing cookie is unauthorized", func(t *testing.T) {
		_, err := f.client().Me(ctx)
		requireAPIError(t, err, nidosdk.ErrUnauthorized)
	})

	t.Run("garbage cookie is forbidden", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, f.server.URL+"/v1/me", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: httpx.SessionCookieName, Value: "not-a-token"})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("expired token is forbidden", func(t *testing.T) {
		token, err := f.signer.Issue("some-user", "user", -time.Minute)
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodGet, f.server.URL+"/v1/me", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: httpx.SessionCookieName, Value: token})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestGoogleSignIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := f.client()

	auth, err := c.SignInWithGoogle(ctx, nidosdk.GoogleSignInRequest{
		Email:    "dana@example.com",
		Name:     "Dana Scully",
		GoogleID: "google-789",
		Avatar:   "https://avatar.example/dana.png",
	})
	require.NoError(t, err)
	require.Equal(t, "danascully", auth.User.Username)

	// The jar now holds the session; the account surface works.
	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "dana@example.com", me.Email)

	googleSignIn := func(body string) *http.Response {
		t.Helper()
		resp, err := http.Post(
			f.server.URL+"/v1/auth/google",
			"application/json",
			strings.NewReader(body),
		)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("first provider login answers 201, returning 200", func(t *testing.T) {
		payload := `{"email":"fox@example.com","name":"Fox Mulder","google_id":"google-790"}`
		require.Equal(t, http.StatusCreated, googleSignIn(payload).StatusCode)
		require.Equal(t, http.StatusOK, googleSignIn(payload).StatusCode)
	})
}

func TestSignOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := f.client()

	_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
		Username: "erin", Email: "erin@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	_, err = c.SignIn(ctx, "erin@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = c.Me(ctx)
	require.NoError(t, err)

	require.NoError(t, c.SignOut(ctx))

	_, err = c.Me(ctx)
	requireAPIError(t, err, nidosdk.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := f.client()

	_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
		Username: "fred", Email: "fred@example.com", Password: "freds-password",
	})
	require.NoError(t, err)
	_, err = c.SignIn(ctx, "fred@example.com", "freds-password")
	require.NoError(t, err)

	got, err := c.UpdateProfile(ctx, nidosdk.UpdateProfileRequest{
		Username: "freddy",
		Avatar:   "https://avatar.example/fred.png",
	})
	require.NoError(t, err)
	require.Equal(t, "freddy", got.Username)
	require.Equal(t, "fred@example.com", got.Email, "untouched fields survive")

	t.Run("password change takes effect", func(t *testing.T) {
		_, err := c.UpdateProfile(ctx, nidosdk.UpdateProfileRequest{Password: "freds-new-password"})
		require.NoError(t, err)

		fresh := f.client()
		_, err = fresh.SignIn(ctx, "fred@example.com", "freds-password")
		requireAPIError(t, err, nidosdk.ErrInvalidCredentials)
		_, err = fresh.SignIn(ctx, "fred@example.com", "freds-new-password")
		require.NoError(t, err)
	})
}

var otpRe = regexp.MustCompile(`\b(\d{6})\b`)

func TestPasswordRecoveryOverHTTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := f.client()

	_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
		Username: "gina", Email: "gina@example.com", Password: "old-password-1",
	})
	require.NoError(t, err)

	t.Run("otp flow", func(t *testing.T) {
		_, err := c.RequestOTP(ctx, "gina@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, f.mailer.sent)

		code := otpRe.FindStringSubmatch(f.mailer.sent[len(f.mailer.sent)-1].Text)[1]

		_, err = c.ResetPasswordOTP(ctx, "gina@example.com", code, "new-password-1")
		require.NoError(t, err)

		_, err = c.SignIn(ctx, "gina@example.com", "new-password-1")
		require.NoError(t, err)

		// Single use: the same code is dead now.
		_, err = c.ResetPasswordOTP(ctx, "gina@example.com", code, "new-password-2")
		requireAPIError(t, err, nidosdk.ErrInvalidOrExpired)
	})

	t.Run("link flow", func(t *testing.T) {
		_, err := c.ForgotPassword(ctx, "gina@example.com")
		require.NoError(t, err)

		linkRe := regexp.MustCompile(`/reset-password\?token=([^\s&]+)`)
		token := linkRe.FindStringSubmatch(f.mailer.sent[len(f.mailer.sent)-1].Text)[1]

		_, err = c.ResetPassword(ctx, token, "new-password-3")
		require.NoError(t, err)

		fresh := f.client()
		_, err = fresh.SignIn(ctx, "gina@example.com", "new-password-3")
		require.NoError(t, err)
	})

	t.Run("unknown email is 404", func(t *testing.T) {
		_, err := c.ForgotPassword(ctx, "ghost@example.com")
		requireAPIError(t, err, nidosdk.ErrNotFound)
	})
}

func TestRecoveryMailFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	c := f.client()

	_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
		Username: "hope", Email: "hope@example.com", Password: "hopes-password",
	})
	require.NoError(t, err)

	f.mailer.failSend = true
	_, err = c.RequestOTP(ctx, "hope@example.com")
	requireAPIError(t, err, nidosdk.ErrMailTransport)
}
