package nidosdk

import "time"

// UserView is the sanitized account representation returned by the API.
// It never carries the password hash, active flag or recovery-code state.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse is the body of a successful sign-in/sign-up-with-provider.
// The token is also bound to the session cookie; it is repeated here for
// clients that cannot use cookies.
type AuthResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	User   UserView `json:"user"`
}

// MessageResponse is the generic affirmative body for flows with no payload.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ListingView is a property listing as returned by the API.
type ListingView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Type          string    `json:"type"`
	RegularPrice  float64   `json:"regular_price"`
	DiscountPrice float64   `json:"discount_price"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	Furnished     bool      `json:"furnished"`
	Parking       bool      `json:"parking"`
	Offer         bool      `json:"offer"`
	ImageURLs     []string  `json:"image_urls"`
	OwnerRef      string    `json:"owner_ref"`
	ContactEmail  string    `json:"contact_email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListingInput is the mutable subset of a listing accepted on create/update.
type ListingInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Address       string   `json:"address"`
	Type          string   `json:"type"`
	RegularPrice  float64  `json:"regular_price"`
	DiscountPrice float64  `json:"discount_price"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	Furnished     bool     `json:"furnished"`
	Parking       bool     `json:"parking"`
	Offer         bool     `json:"offer"`
	ImageURLs     []string `json:"image_urls"`
}

// ListingPage is the body of a listing search response.
type ListingPage struct {
	Status   string        `json:"status"`
	Listings []ListingView `json:"listings"`
	Total    int64         `json:"total"`
}

// SignUpRequest registers a local account.
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest authenticates a local account.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleSignInRequest carries the externally-verified provider identity.
type GoogleSignInRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	GoogleID string `json:"google_id"`
	Avatar   string `json:"avatar,omitempty"`
}

// ForgotPasswordRequest starts either recovery sub-flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the link-based recovery sub-flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPasswordOTPRequest completes the OTP-based recovery sub-flow.
type ResetPasswordOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// UpdateProfileRequest mutates the authenticated account's own profile.
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}
