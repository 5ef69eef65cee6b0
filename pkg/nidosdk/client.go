// Package nidosdk is a typed Go client for the nido listing marketplace API
// plus the wire error taxonomy shared with the server.
package nidosdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a nido API instance. The embedded cookie jar carries the
// session cookie across calls, so one Client represents one session.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with its own cookie jar.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do performs a JSON request and decodes a 2xx body into out (when non-nil).
// Non-2xx responses are decoded into *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("nidosdk: failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("nidosdk: failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("nidosdk: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DecodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nidosdk: failed to decode response: %w", err)
	}
	return nil
}

// SignUp registers a local account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn authenticates; on success the session cookie is retained in the jar.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	req := SignInRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/signin", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignInWithGoogle signs in (or signs up) with an externally-verified
// provider identity.
func (c *Client) SignInWithGoogle(ctx context.Context, req GoogleSignInRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/google", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut clears the server-side session cookie.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/signout", nil, nil)
}

// ForgotPassword requests a reset link email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/forgot-password", ForgotPasswordRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword completes the link-based recovery sub-flow.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var out MessageResponse
	req := ResetPasswordRequest{Token: token, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/reset-password", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestOTP requests an emailed recovery code.
func (c *Client) RequestOTP(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/otp", ForgotPasswordRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPasswordOTP completes the OTP-based recovery sub-flow.
func (c *Client) ResetPasswordOTP(ctx context.Context, email, otp, newPassword string) (*MessageResponse, error) {
	var out MessageResponse
	req := ResetPasswordOTPRequest{Email: email, OTP: otp, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/reset-password/otp", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the authenticated account's sanitized view.
func (c *Client) Me(ctx context.Context) (*UserView, error) {
	var out struct {
		Status string   `json:"status"`
		User   UserView `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile mutates the authenticated account's own profile.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserView, error) {
	var out struct {
		Status string   `json:"status"`
		User   UserView `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/v1/me", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// CreateListing creates a listing owned by the authenticated account.
func (c *Client) CreateListing(ctx context.Context, req ListingInput) (*ListingView, error) {
	var out struct {
		Status  string      `json:"status"`
		Listing ListingView `json:"listing"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/listings", req, &out); err != nil {
		return nil, err
	}
	return &out.Listing, nil
}

// GetListing fetches a single listing.
func (c *Client) GetListing(ctx context.Context, id string) (*ListingView, error) {
	var out struct {
		Status  string      `json:"status"`
		Listing ListingView `json:"listing"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/listings/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Listing, nil
}

// ListingFilter narrows a listing search. Zero values mean "don't care".
type ListingFilter struct {
	Type      string
	Offer     *bool
	Furnished *bool
	Parking   *bool
	MinPrice  float64
	MaxPrice  float64
	Search    string
	OwnerRef  string
	Limit     int
	Offset    int
}

// ListListings searches public listings.
func (c *Client) ListListings(ctx context.Context, filter ListingFilter) (*ListingPage, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.Offer != nil {
		q.Set("offer", strconv.FormatBool(*filter.Offer))
	}
	if filter.Furnished != nil {
		q.Set("furnished", strconv.FormatBool(*filter.Furnished))
	}
	if filter.Parking != nil {
		q.Set("parking", strconv.FormatBool(*filter.Parking))
	}
	if filter.MinPrice > 0 {
		q.Set("min_price", strconv.FormatFloat(filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.OwnerRef != "" {
		q.Set("owner_ref", filter.OwnerRef)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	path := "/v1/listings"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out ListingPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateListing replaces the mutable fields of a listing the caller owns.
func (c *Client) UpdateListing(ctx context.Context, id string, req ListingInput) (*ListingView, error) {
	var out struct {
		Status  string      `json:"status"`
		Listing ListingView `json:"listing"`
	}
	if err := c.do(ctx, http.MethodPut, "/v1/listings/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out.Listing, nil
}

// DeleteListing removes a listing the caller owns.
func (c *Client) DeleteListing(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/listings/"+url.PathEscape(id), nil, nil)
}
