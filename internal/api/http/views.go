package http

import (
	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/pkg/nidosdk"
)

// userView sanitizes a user for the wire: no hash, no recovery-code state.
func userView(u domain.User) nidosdk.UserView {
	return nidosdk.UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func listingView(l domain.Listing) nidosdk.ListingView {
	return nidosdk.ListingView{
		ID:            l.ID,
		Name:          l.Name,
		Description:   l.Description,
		Address:       l.Address,
		Type:          l.Type,
		RegularPrice:  l.RegularPrice,
		DiscountPrice: l.DiscountPrice,
		Bedrooms:      l.Bedrooms,
		Bathrooms:     l.Bathrooms,
		Furnished:     l.Furnished,
		Parking:       l.Parking,
		Offer:         l.Offer,
		ImageURLs:     l.ImageURLs,
		OwnerRef:      l.OwnerRef,
		ContactEmail:  l.ContactEmail,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func listingFromInput(in nidosdk.ListingInput) domain.Listing {
	return domain.Listing{
		Name:          in.Name,
		Description:   in.Description,
		Address:       in.Address,
		Type:          in.Type,
		RegularPrice:  in.RegularPrice,
		DiscountPrice: in.DiscountPrice,
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		Furnished:     in.Furnished,
		Parking:       in.Parking,
		Offer:         in.Offer,
		ImageURLs:     in.ImageURLs,
	}
}
