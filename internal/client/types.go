// ABOUTME: Wire types for the NetworkHub API
// ABOUTME: Users, posts, search results and request payloads as the backend encodes them

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID identifies a user or post. The backend may encode ids as strings or numbers.
type ID string

// UnmarshalJSON accepts both JSON strings and JSON numbers
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// User is the viewer's identity or a post author snapshot
type User struct {
	ID             ID     `json:"id,omitempty"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Location       string `json:"location,omitempty"`
	ProfileImage   string `json:"profileImage,omitempty"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// FullName joins first and last name
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// MemberSince parses CreatedAt; ok is false when the backend sent no usable timestamp
func (u User) MemberSince() (time.Time, bool) {
	return parseTimestamp(u.CreatedAt)
}

// Post is a single feed entry
type Post struct {
	ID        ID     `json:"id"`
	Author    User   `json:"author"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
	IsLiked   bool   `json:"isLiked"`
}

// Created parses CreatedAt
func (p Post) Created() (time.Time, bool) {
	return parseTimestamp(p.CreatedAt)
}

// SearchResult is a user directory entry with the viewer's follow relationship
type SearchResult struct {
	ID           ID     `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsFollowing  bool   `json:"isFollowing"`
}

// FullName joins first and last name
func (r SearchResult) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// SignupRequest is the registration form payload
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
}

// VerifyOTPRequest confirms a signup email
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// LoginRequest carries email/password credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks the backend to email a reset code
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest sets a new password using an emailed code
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// AuthResponse is returned by login and OTP verification
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// ProfileUpdate holds the editable identity fields
type ProfileUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
}

// Apply merges the update into u
func (p ProfileUpdate) Apply(u *User) {
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Bio = p.Bio
	u.Location = p.Location
}

// CreatePostRequest is the compose form payload; Image is a data URI
type CreatePostRequest struct {
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// ProfileImageResponse is returned by the image upload endpoint
type ProfileImageResponse struct {
	ProfileImage string `json:"profileImage"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
