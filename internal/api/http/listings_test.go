package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nidohq/nido/pkg/nidosdk"
)

func signedInClient(t *testing.T, f *fixture, username, email string) *nidosdk.Client {
	t.Helper()
	ctx := context.Background()
	c := f.client()
	_, err := c.SignUp(ctx, nidosdk.SignUpRequest{
		Username: username, Email: email, Password: "seeded-password",
	})
	require.NoError(t, err)
	_, err = c.SignIn(ctx, email, "seeded-password")
	require.NoError(t, err)
	return c
}

func sampleListing() nidosdk.ListingInput {
	return nidosdk.ListingInput{
		Name:         "Sunny two-bedroom",
		Description:  "Close to the river",
		Address:      "12 Example St",
		Type:         "rent",
		RegularPrice: 520,
		Bedrooms:     2,
		Bathrooms:    1,
	}
}

func TestListingLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	owner := signedInClient(t, f, "ivan", "ivan@example.com")

	created, err := owner.CreateListing(ctx, sampleListing())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "ivan@example.com", created.ContactEmail)

	t.Run("anyone can read", func(t *testing.T) {
		got, err := f.client().GetListing(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("owner can update", func(t *testing.T) {
		in := sampleListing()
		in.Name = "Renamed"
		got, err := owner.UpdateListing(ctx, created.ID, in)
		require.NoError(t, err)
		require.Equal(t, "Renamed", got.Name)
		require.Equal(t, created.OwnerRef, got.OwnerRef)
	})

	t.Run("owner can delete", func(t *testing.T) {
		require.NoError(t, owner.DeleteListing(ctx, created.ID))
		_, err := f.client().GetListing(ctx, created.ID)
		requireAPIError(t, err, nidosdk.ErrNotFound)
	})
}

func TestListingOwnershipOverHTTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	owner := signedInClient(t, f, "jack", "jack@example.com")
	other := signedInClient(t, f, "kate", "kate@example.com")

	created, err := owner.CreateListing(ctx, sampleListing())
	require.NoError(t, err)

	t.Run("another user cannot delete", func(t *testing.T) {
		err := other.DeleteListing(ctx, created.ID)
		requireAPIError(t, err, nidosdk.ErrForbidden)

		got, err := f.client().GetListing(ctx, created.ID)
		require.NoError(t, err, "listing survives the rejected delete")
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("another user cannot update", func(t *testing.T) {
		in := sampleListing()
		in.Name = "Hijacked"
		_, err := other.UpdateListing(ctx, created.ID, in)
		requireAPIError(t, err, nidosdk.ErrForbidden)
	})

	t.Run("anonymous mutation is unauthorized", func(t *testing.T) {
		err := f.client().DeleteListing(ctx, created.ID)
		requireAPIError(t, err, nidosdk.ErrUnauthorized)
	})
}

func TestListingSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	owner := signedInClient(t, f, "lena", "lena@example.com")

	mk := func(name, typ string, price float64, offer bool) {
		in := sampleListing()
		in.Name = name
		in.Type = typ
		in.RegularPrice = price
		in.Offer = offer
		if offer {
			in.DiscountPrice = price - 50
		}
		_, err := owner.CreateListing(ctx, in)
		require.NoError(t, err)
	}
	mk("Riverside flat", "rent", 450, false)
	mk("Hillside house", "sale", 730000, true)
	mk("City studio", "rent", 390, false)

	t.Run("filter by type", func(t *testing.T) {
		page, err := f.client().ListListings(ctx, nidosdk.ListingFilter{Type: "rent"})
		require.NoError(t, err)
		require.EqualValues(t, 2, page.Total)
		require.Len(t, page.Listings, 2)
	})

	t.Run("filter by offer", func(t *testing.T) {
		offer := true
		page, err := f.client().ListListings(ctx, nidosdk.ListingFilter{Offer: &offer})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		require.Equal(t, "Hillside house", page.Listings[0].Name)
	})

	t.Run("price band and pagination", func(t *testing.T) {
		page, err := f.client().ListListings(ctx, nidosdk.ListingFilter{
			MinPrice: 100, MaxPrice: 500, Limit: 1,
		})
		require.NoError(t, err)
		require.EqualValues(t, 2, page.Total)
		require.Len(t, page.Listings, 1)
	})

	t.Run("by owner", func(t *testing.T) {
		page, err := f.client().ListListings(ctx, nidosdk.ListingFilter{
			OwnerRef: page0Owner(t, f),
		})
		require.NoError(t, err)
		require.EqualValues(t, 3, page.Total)
	})
}

// page0Owner fetches the owner reference of any stored listing.
func page0Owner(t *testing.T, f *fixture) string {
	t.Helper()
	page, err := f.client().ListListings(context.Background(), nidosdk.ListingFilter{Limit: 1})
	require.NoError(t, err)
	require.NotEmpty(t, page.Listings)
	return page.Listings[0].OwnerRef
}

func TestListingValidationOverHTTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	owner := signedInClient(t, f, "mona", "mona@example.com")

	in := sampleListing()
	in.Type = "timeshare"
	_, err := owner.CreateListing(ctx, in)
	requireAPIError(t, err, nidosdk.ErrValidation)
}
