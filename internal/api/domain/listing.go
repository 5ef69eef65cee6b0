package domain

import "time"

// Listing types.
const (
	ListingTypeRent = "rent"
	ListingTypeSale = "sale"
)

type Listing struct {
	ID          string
	Name        string
	Description string
	Address     string

	// OwnerRef is the owning user's ID. Mutation is allowed only when the
	// caller's identity matches it exactly.
	OwnerRef string

	// ContactEmail is copied from the owner at creation time so a listing
	// stays contactable even if the profile email later changes.
	ContactEmail string

	Type          string // rent | sale
	RegularPrice  float64
	DiscountPrice float64
	Offer         bool
	Bedrooms      int
	Bathrooms     int
	Furnished     bool
	Parking       bool
	ImageURLs     []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePrice is the discount price when an offer is active, otherwise the
// regular price.
func (l Listing) EffectivePrice() float64 {
	if l.Offer && l.DiscountPrice > 0 {
		return l.DiscountPrice
	}
	return l.RegularPrice
}
