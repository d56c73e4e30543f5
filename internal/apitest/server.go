// ABOUTME: In-memory fake of the NetworkHub API for tests
// ABOUTME: Serves every endpoint the client uses and records each request it receives

package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/markalston/networkhub/internal/client"
)

// DefaultOTP is the code every signup and reset email "contains"
const DefaultOTP = "123456"

// Request is one recorded call
type Request struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   []byte
}

type account struct {
	user     client.User
	password string
	verified bool
	follows  map[client.ID]bool
}

type failure struct {
	status  int
	message string
}

// Server is a running fake backend. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	otp        string
	nextID     int
	accounts   map[string]*account // by email
	tokens     map[string]string   // token -> email
	resetCodes map[string]string   // email -> code
	posts      []client.Post
	requests   []Request
	failures   map[string]failure
	gates      map[string]chan struct{}
}

// New starts a fake backend that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		otp:        DefaultOTP,
		accounts:   make(map[string]*account),
		tokens:     make(map[string]string),
		resetCodes: make(map[string]string),
		failures:   make(map[string]failure),
		gates:      make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Client returns an API client pointed at the fake
func (s *Server) Client() *client.Client {
	return client.New(s.URL)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/signup", s.signup)
	mux.HandleFunc("POST /api/verify-otp", s.verifyOTP)
	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("POST /api/forgot-password", s.forgotPassword)
	mux.HandleFunc("POST /api/reset-password", s.resetPassword)
	mux.HandleFunc("GET /api/profile", s.authed(s.getProfile))
	mux.HandleFunc("PUT /api/profile", s.authed(s.updateProfile))
	mux.HandleFunc("POST /api/upload-profile-image", s.authed(s.uploadImage))
	mux.HandleFunc("GET /api/posts", s.authed(s.listPosts))
	mux.HandleFunc("POST /api/posts", s.authed(s.createPost))
	mux.HandleFunc("GET /api/users/search", s.authed(s.searchUsers))
	mux.HandleFunc("POST /api/follow/{id}", s.authed(s.follow(true)))
	mux.HandleFunc("POST /api/unfollow/{id}", s.authed(s.follow(false)))
	return s.record(mux)
}

// SeedUser registers a verified account and returns a live token for it
func (s *Server) SeedUser(u client.User, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.addAccountLocked(u, password)
	acct.verified = true
	return s.issueTokenLocked(acct.user.Email)
}

// AddPost prepends a post to the feed and returns it with its assigned id
func (s *Server) AddPost(p client.Post) client.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if p.ID == "" {
		p.ID = client.ID(strconv.Itoa(s.nextID))
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.posts = append([]client.Post{p}, s.posts...)
	return p
}

// SetOTP changes the code that signup and reset accept
func (s *Server) SetOTP(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otp = code
}

// RevokeToken makes token unknown to the server
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Fail makes every call to method+path answer with status and an {error} payload.
// A 200 status reproduces the backend's error-payload-on-success quirk.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Recover removes a failure installed by Fail
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Hold blocks calls to method+path until the returned release func is called
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[method+" "+path] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, method+" "+path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns a copy of every recorded request
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns recorded requests for method+path
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many requests hit method+path
func (s *Server) Count(method, path string) int {
	return len(s.RequestsTo(method, path))
}

// User returns the stored account for email
func (s *Server) User(email string) (client.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return client.User{}, false
	}
	return acct.user, true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Token:  bearerToken(r),
			Body:   body,
		})
		gate := s.gates[key]
		fail, failing := s.failures[key]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeError(w, fail.message, fail.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		email, ok := s.tokens[bearerToken(r)]
		acct := s.accounts[email]
		s.mu.Unlock()
		if !ok || acct == nil {
			writeError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r, acct)
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req client.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		writeError(w, "All required fields must be filled", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.accounts[req.Email]; ok && existing.verified {
		writeError(w, "User already exists", http.StatusBadRequest)
		return
	}
	s.addAccountLocked(client.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Bio:       req.Bio,
		Location:  req.Location,
	}, req.Password)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "OTP sent to email"})
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req client.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || req.OTP != s.otp {
		writeError(w, "Invalid OTP", http.StatusBadRequest)
		return
	}
	acct.verified = true
	token := s.issueTokenLocked(req.Email)
	user := acct.user
	writeJSON(w, http.StatusOK, client.AuthResponse{AccessToken: token, User: &user})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || !acct.verified || acct.password != req.Password {
		writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	token := s.issueTokenLocked(req.Email)
	user := acct.user
	writeJSON(w, http.StatusOK, client.AuthResponse{AccessToken: token, User: &user})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req client.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[req.Email]; !ok {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}
	s.resetCodes[req.Email] = s.otp
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to email"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req client.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.resetCodes[req.Email]
	if !ok || code != req.OTP {
		writeError(w, "Invalid or expired OTP", http.StatusBadRequest)
		return
	}
	delete(s.resetCodes, req.Email)
	s.accounts[req.Email].password = req.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

func (s *Server) getProfile(w http.ResponseWriter, _ *http.Request, acct *account) {
	s.mu.Lock()
	user := acct.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, acct *account) {
	var update client.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	update.Apply(&acct.user)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, acct *account) {
	_, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, "No image provided", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	acct.user.ProfileImage = fmt.Sprintf("/uploads/%s/%s", acct.user.ID, header.Filename)
	ref := acct.user.ProfileImage
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, client.ProfileImageResponse{ProfileImage: ref})
}

func (s *Server) listPosts(w http.ResponseWriter, _ *http.Request, _ *account) {
	s.mu.Lock()
	posts := make([]client.Post, len(s.posts))
	copy(posts, s.posts)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request, acct *account) {
	var req client.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, "Content is required", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	author := acct.user
	s.mu.Unlock()
	post := s.AddPost(client.Post{Author: author, Content: req.Content, Image: req.Image})
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request, viewer *account) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	s.mu.Lock()
	defer s.mu.Unlock()
	results := []client.SearchResult{}
	for _, acct := range s.accounts {
		if acct == viewer || !acct.verified {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(acct.user.FullName()), q) {
			continue
		}
		results = append(results, client.SearchResult{
			ID:           acct.user.ID,
			FirstName:    acct.user.FirstName,
			LastName:     acct.user.LastName,
			Bio:          acct.user.Bio,
			ProfileImage: acct.user.ProfileImage,
			IsFollowing:  viewer.follows[acct.user.ID],
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) follow(on bool) func(http.ResponseWriter, *http.Request, *account) {
	return func(w http.ResponseWriter, r *http.Request, viewer *account) {
		id := client.ID(r.PathValue("id"))

		s.mu.Lock()
		defer s.mu.Unlock()
		var target *account
		for _, acct := range s.accounts {
			if acct.user.ID == id {
				target = acct
				break
			}
		}
		if target == nil {
			writeError(w, "User not found", http.StatusNotFound)
			return
		}
		if viewer.follows[id] != on {
			viewer.follows[id] = on
			delta := 1
			if !on {
				delta = -1
			}
			viewer.user.FollowingCount += delta
			target.user.FollowerCount += delta
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

func (s *Server) addAccountLocked(u client.User, password string) *account {
	s.nextID++
	if u.ID == "" {
		u.ID = client.ID(strconv.Itoa(s.nextID))
	}
	if u.CreatedAt == "" {
		u.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	acct := &account{user: u, password: password, follows: make(map[client.ID]bool)}
	s.accounts[u.Email] = acct
	return acct
}

func (s *Server) issueTokenLocked(email string) string {
	s.nextID++
	token := fmt.Sprintf("tok-%d", s.nextID)
	s.tokens[token] = email
	return token
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
