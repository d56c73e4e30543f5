// ABOUTME: Profile endpoints of the NetworkHub API
// ABOUTME: Identity resolution, profile updates and multipart profile image upload

package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// ImageUpload is a file selected for upload
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GetProfile calls GET /api/profile. The backend may answer 200 with an
// {error} payload for a dead token, which is reported as an APIError.
func (c *Client) GetProfile(ctx context.Context, token string) (*User, error) {
	var resp struct {
		User
		Error string `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/profile", token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	user := resp.User
	return &user, nil
}

// UpdateProfile calls PUT /api/profile
func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/api/profile", token, update, nil)
}

// UploadProfileImage calls POST /api/upload-profile-image with a multipart "image" field
// and returns the stored image reference
func (c *Client) UploadProfileImage(ctx context.Context, token string, img ImageUpload) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	var resp ProfileImageResponse
	if err := c.do(ctx, http.MethodPost, "/api/upload-profile-image", token, &buf, w.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	return resp.ProfileImage, nil
}
