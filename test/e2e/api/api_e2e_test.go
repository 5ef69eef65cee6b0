package api_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nidohq/nido/pkg/nidosdk"
)

func TestFullAccountAndListingFlow(t *testing.T) {
	f := setupStack(t)
	ctx := context.Background()

	owner := f.client()
	_, err := owner.SignUp(ctx, nidosdk.SignUpRequest{
		Username: "amelia",
		Email:    "amelia@example.com",
		Password: "amelias-password",
	})
	require.NoError(t, err)

	_, err = owner.SignIn(ctx, "amelia@example.com", "amelias-password")
	require.NoError(t, err)

	created, err := owner.CreateListing(ctx, nidosdk.ListingInput{
		Name:         "Harbour loft",
		Description:  "Top floor, water views",
		Address:      "1 Wharf Rd",
		Type:         "sale",
		RegularPrice: 910000,
		Bedrooms:     3,
		Bathrooms:    2,
	})
	require.NoError(t, err)
	require.Equal(t, "amelia@example.com", created.ContactEmail)

	t.Run("mongo round-trips the listing", func(t *testing.T) {
		got, err := f.client().GetListing(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "Harbour loft", got.Name)
		require.Equal(t, created.OwnerRef, got.OwnerRef)
	})

	t.Run("unique email index is enforced", func(t *testing.T) {
		_, err := f.client().SignUp(ctx, nidosdk.SignUpRequest{
			Username: "amelia-two",
			Email:    "amelia@example.com",
			Password: "another-password",
		})
		var apiErr *nidosdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, nidosdk.ErrorCodeValidation, apiErr.Code)
		require.Equal(t, "email", apiErr.Field)
	})

	t.Run("ownership holds across sessions", func(t *testing.T) {
		other := f.client()
		_, err := other.SignUp(ctx, nidosdk.SignUpRequest{
			Username: "bruno",
			Email:    "bruno@example.com",
			Password: "brunos-password",
		})
		require.NoError(t, err)
		_, err = other.SignIn(ctx, "bruno@example.com", "brunos-password")
		require.NoError(t, err)

		err = other.DeleteListing(ctx, created.ID)
		var apiErr *nidosdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, nidosdk.ErrorCodeForbidden, apiErr.Code)

		_, err = f.client().GetListing(ctx, created.ID)
		require.NoError(t, err)
	})

	t.Run("owner cleans up", func(t *testing.T) {
		require.NoError(t, owner.DeleteListing(ctx, created.ID))
	})
}

func TestOTPRecoveryAgainstMongo(t *testing.T) {
	f := setupStack(t)
	ctx := context.Background()

	c := f.client()
	_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
		Username: "clara",
		Email:    "clara@example.com",
		Password: "old-password-1",
	})
	require.NoError(t, err)

	_, err = c.RequestOTP(ctx, "clara@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, f.mailer.sent)

	code := regexp.MustCompile(`\b(\d{6})\b`).FindStringSubmatch(f.mailer.sent[0].Text)[1]

	_, err = c.ResetPasswordOTP(ctx, "clara@example.com", code, "new-password-1")
	require.NoError(t, err)

	// The atomic consume in the driver makes the code single use.
	_, err = c.ResetPasswordOTP(ctx, "clara@example.com", code, "new-password-2")
	var apiErr *nidosdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, nidosdk.ErrorCodeInvalidOrExpired, apiErr.Code)

	_, err = c.SignIn(ctx, "clara@example.com", "new-password-1")
	require.NoError(t, err)
}
