// ABOUTME: Feed and directory endpoints of the NetworkHub API
// ABOUTME: Post listing/creation, user search and follow management

package client

import (
	"context"
	"net/http"
	"net/url"
)

// ListPosts calls GET /api/posts
func (c *Client) ListPosts(ctx context.Context, token string) ([]Post, error) {
	var posts []Post
	if err := c.doJSON(ctx, http.MethodGet, "/api/posts", token, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost calls POST /api/posts. The returned post is nil when the
// backend answers with a bare confirmation.
func (c *Client) CreatePost(ctx context.Context, token string, req CreatePostRequest) (*Post, error) {
	var post Post
	if err := c.doJSON(ctx, http.MethodPost, "/api/posts", token, req, &post); err != nil {
		return nil, err
	}
	if post.ID == "" {
		return nil, nil
	}
	return &post, nil
}

// SearchUsers calls GET /api/users/search?q=
func (c *Client) SearchUsers(ctx context.Context, token, query string) ([]SearchResult, error) {
	var results []SearchResult
	path := "/api/users/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Follow calls POST /api/follow/{id}
func (c *Client) Follow(ctx context.Context, token string, id ID) error {
	return c.doJSON(ctx, http.MethodPost, "/api/follow/"+url.PathEscape(id.String()), token, nil, nil)
}

// Unfollow calls POST /api/unfollow/{id}
func (c *Client) Unfollow(ctx context.Context, token string, id ID) error {
	return c.doJSON(ctx, http.MethodPost, "/api/unfollow/"+url.PathEscape(id.String()), token, nil, nil)
}
