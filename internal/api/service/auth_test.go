package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/internal/api/store/drivers/mem"
	"github.com/nidohq/nido/pkg/jwtx"
)

func newSigner(t *testing.T) *jwtx.Signer {
	t.Helper()
	signer, err := jwtx.NewSigner([]byte("test-secret-test-secret-test-key"), "nido-test")
	require.NoError(t, err)
	return signer
}

func TestAuthService_SignUpSignIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := &AuthService{Store: mem.NewStore(), Signer: newSigner(t)}

	u, err := svc.SignUp(ctx, "alice", "Alice@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "alice@example.com", u.Email, "emails are stored lowercased")
	require.NotEqual(t, "hunter2hunter2", u.PasswordHash)
	require.Contains(t, u.Avatar, "dicebear.com", "new accounts get a placeholder avatar")

	t.Run("correct credentials yield a session token", func(t *testing.T) {
		got, token, err := svc.SignIn(ctx, "alice@example.com", "hunter2hunter2")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		identity, err := svc.Signer.Verify(token)
		require.NoError(t, err)
		require.Equal(t, u.ID, identity.ID)
		require.Equal(t, "user", identity.Role)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, _, errPass := svc.SignIn(ctx, "alice@example.com", "wrong-password")
		_, _, errMail := svc.SignIn(ctx, "nobody@example.com", "hunter2hunter2")
		require.ErrorIs(t, errPass, ErrInvalidCredentials)
		require.ErrorIs(t, errMail, ErrInvalidCredentials)
		require.Equal(t, errPass.Error(), errMail.Error())
	})

	t.Run("duplicate email names the colliding field", func(t *testing.T) {
		_, err := svc.SignUp(ctx, "alice2", "alice@example.com", "hunter2hunter2")
		var dup *store.DuplicateError
		require.ErrorAs(t, err, &dup)
		require.Equal(t, "email", dup.Field)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestAuthService_SignInWithGoogle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := mem.NewStore()
	svc := &AuthService{Store: st, Signer: newSigner(t)}

	t.Run("unknown email creates an account", func(t *testing.T) {
		u, token, created, err := svc.SignInWithGoogle(ctx, "bob@example.com", "Bob Builder", "google-123", "https://avatar.example/bob.png")
		require.NoError(t, err)
		require.True(t, created)
		require.NotEmpty(t, token)
		require.Equal(t, "google-123", u.GoogleID)
		require.Equal(t, "bobbuilder", u.Username)
		require.Equal(t, "https://avatar.example/bob.png", u.Avatar)
		require.NotEmpty(t, u.PasswordHash, "google accounts get a random local password")

		// The random password is unguessable; the local path still rejects.
		_, _, err = svc.SignIn(ctx, "bob@example.com", "anything")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing provider avatar gets a generated placeholder", func(t *testing.T) {
		u, _, created, err := svc.SignInWithGoogle(ctx, "frank@example.com", "Frank", "google-789", "")
		require.NoError(t, err)
		require.True(t, created)
		require.NotEmpty(t, u.Avatar)
		require.Contains(t, u.Avatar, "dicebear.com")
	})

	t.Run("known email signs into the existing account", func(t *testing.T) {
		local, err := svc.SignUp(ctx, "carol", "carol@example.com", "carols-password")
		require.NoError(t, err)

		u, _, created, err := svc.SignInWithGoogle(ctx, "carol@example.com", "Carol", "google-456", "")
		require.NoError(t, err)
		require.False(t, created, "no second account is created")
		require.Equal(t, local.ID, u.ID)

		// The local password keeps working after the google sign-in.
		_, _, err = svc.SignIn(ctx, "carol@example.com", "carols-password")
		require.NoError(t, err)
	})
}

func TestAuthService_SessionTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := &AuthService{
		Store:      mem.NewStore(),
		Signer:     newSigner(t),
		SessionTTL: time.Minute,
	}

	_, err := svc.SignUp(ctx, "dave", "dave@example.com", "daves-password")
	require.NoError(t, err)

	_, token, err := svc.SignIn(ctx, "dave@example.com", "daves-password")
	require.NoError(t, err)
	_, err = svc.Signer.Verify(token)
	require.NoError(t, err)
}
