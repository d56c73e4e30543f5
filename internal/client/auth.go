// ABOUTME: Account endpoints of the NetworkHub API
// ABOUTME: Signup, OTP verification, login and password recovery

package client

import (
	"context"
	"net/http"
)

// Signup calls POST /api/signup; the backend emails a one-time code on success
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/signup", "", req, nil)
}

// VerifyOTP calls POST /api/verify-otp and returns the new session
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/verify-otp", "", VerifyOTPRequest{Email: email, OTP: otp}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login calls POST /api/login
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", "", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword calls POST /api/forgot-password; the backend emails a reset code
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/forgot-password", "", ForgotPasswordRequest{Email: email}, nil)
}

// ResetPassword calls POST /api/reset-password
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/reset-password", "", req, nil)
}
