// ABOUTME: Tests for the account, feed, people, and profile commands
// ABOUTME: Runs each command against the in-memory API fake and checks output and exit codes

package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/markalston/networkhub/internal/apitest"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/search"
	"github.com/markalston/networkhub/internal/session"
)

const testPassword = "engine"

// useServer points the commands at srv with a fresh config directory
func useServer(t *testing.T, srv *apitest.Server) string {
	t.Helper()
	apiURL = srv.URL
	configDir = t.TempDir()
	t.Cleanup(func() {
		apiURL = ""
		configDir = ""
		jsonOutput = false
	})
	return configDir
}

func seedAda(t *testing.T, srv *apitest.Server) string {
	t.Helper()
	return srv.SeedUser(client.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, testPassword)
}

// signIn stores a session for Ada in the current config directory
func signIn(t *testing.T, srv *apitest.Server) {
	t.Helper()
	token := seedAda(t, srv)
	if err := session.NewFileStorage(configDir).Save(token); err != nil {
		t.Fatal(err)
	}
}

func answers(lines ...string) *prompter {
	in := strings.Join(lines, "\n") + "\n"
	return &prompter{in: bufio.NewReader(strings.NewReader(in)), out: &bytes.Buffer{}, fd: -1}
}

func TestLogin_Success(t *testing.T) {
	srv := apitest.New(t)
	dir := useServer(t, srv)
	seedAda(t, srv)

	var buf bytes.Buffer
	code := runLogin(context.Background(), answers(testPassword), &buf, "ada@example.com")

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Signed in as Ada Lovelace") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if token, _ := session.NewFileStorage(dir).Load(); token == "" {
		t.Error("expected token to be stored")
	}
	if n := srv.Count(http.MethodGet, "/api/profile"); n != 1 {
		t.Errorf("expected the profile to be fetched after sign-in, got %d requests", n)
	}
}

func TestLogin_ProfileRejected(t *testing.T) {
	srv := apitest.New(t)
	dir := useServer(t, srv)
	seedAda(t, srv)
	srv.Fail(http.MethodGet, "/api/profile", http.StatusUnauthorized, "Invalid token")

	var buf bytes.Buffer
	code := runLogin(context.Background(), answers(testPassword), &buf, "ada@example.com")

	if code != 1 {
		t.Errorf("expected exit code 1, got %d: %s", code, buf.String())
	}
	if strings.Contains(buf.String(), "Signed in as") {
		t.Errorf("must not report success, got %s", buf.String())
	}
	if token, _ := session.NewFileStorage(dir).Load(); token != "" {
		t.Error("rejected session must not stay stored")
	}
}

func TestLogin_PromptsForEmail(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	seedAda(t, srv)

	var buf bytes.Buffer
	code := runLogin(context.Background(), answers("ada@example.com", testPassword), &buf, "")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := apitest.New(t)
	dir := useServer(t, srv)
	seedAda(t, srv)

	var buf bytes.Buffer
	code := runLogin(context.Background(), answers("nope"), &buf, "ada@example.com")

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.HasPrefix(buf.String(), "Error: ") {
		t.Errorf("expected error output, got %s", buf.String())
	}
	if token, _ := session.NewFileStorage(dir).Load(); token != "" {
		t.Error("failed login must not store a token")
	}
}

func TestLogin_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	apiURL = server.URL
	configDir = t.TempDir()
	defer func() { apiURL = ""; configDir = "" }()
	server.Close()

	var buf bytes.Buffer
	code := runLogin(context.Background(), answers("pw"), &buf, "ada@example.com")

	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(buf.String(), client.NetworkErrorMessage) {
		t.Errorf("expected network error message, got %s", buf.String())
	}
}

func TestLogout(t *testing.T) {
	srv := apitest.New(t)
	dir := useServer(t, srv)
	signIn(t, srv)

	var buf bytes.Buffer
	if code := runLogout(&buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if token, _ := session.NewFileStorage(dir).Load(); token != "" {
		t.Error("expected token to be removed")
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("logout should not call the backend, got %d requests", n)
	}
}

func TestWhoami(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)

	var buf bytes.Buffer
	if code := runWhoami(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Ada Lovelace <ada@example.com>") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWhoami_JSON(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)
	jsonOutput = true

	var buf bytes.Buffer
	runWhoami(context.Background(), &buf)

	var user client.User
	if err := json.Unmarshal(buf.Bytes(), &user); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if user.Email != "ada@example.com" {
		t.Errorf("expected ada@example.com, got %s", user.Email)
	}
}

func TestWhoami_NotSignedIn(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)

	var buf bytes.Buffer
	code := runWhoami(context.Background(), &buf)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "Not signed in") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("expected no requests without a stored session, got %d", n)
	}
}

func TestWhoami_RevokedToken(t *testing.T) {
	srv := apitest.New(t)
	dir := useServer(t, srv)
	signIn(t, srv)
	token, _ := session.NewFileStorage(dir).Load()
	srv.RevokeToken(token)

	var buf bytes.Buffer
	if code := runWhoami(context.Background(), &buf); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if stored, _ := session.NewFileStorage(dir).Load(); stored != "" {
		t.Error("expected revoked token to be cleared")
	}
}

func TestSignup(t *testing.T) {
	srv := apitest.New(t)
	dir := useServer(t, srv)

	var buf bytes.Buffer
	req := client.SignupRequest{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	code := runSignup(context.Background(), answers("cobol", "000000", apitest.DefaultOTP), &buf, req)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	out := buf.String()
	if !strings.Contains(out, "Error: ") {
		t.Error("expected the wrong code to be reported")
	}
	if !strings.Contains(out, "Signed in as Grace Hopper") {
		t.Errorf("unexpected output: %s", out)
	}
	if token, _ := session.NewFileStorage(dir).Load(); token == "" {
		t.Error("expected token to be stored after verification")
	}
	if n := srv.Count(http.MethodGet, "/api/profile"); n != 1 {
		t.Errorf("expected the profile to be fetched after verification, got %d requests", n)
	}
}

func TestSignup_TooManyWrongCodes(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)

	var buf bytes.Buffer
	req := client.SignupRequest{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	code := runSignup(context.Background(), answers("cobol", "000000", "111111", "222222"), &buf, req)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestResetPassword(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	seedAda(t, srv)

	var buf bytes.Buffer
	code := runResetPassword(context.Background(), answers(apitest.DefaultOTP, "analytical"), &buf, "ada@example.com")

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Password reset successfully!") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	if code := runLogin(context.Background(), answers("analytical"), &buf, "ada@example.com"); code != 0 {
		t.Errorf("expected login with the new password to succeed: %s", buf.String())
	}
}

func TestFeed(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)
	srv.AddPost(client.Post{
		Author:  client.User{FirstName: "Grace", LastName: "Hopper"},
		Content: "Found a moth",
		Likes:   3,
	})

	var buf bytes.Buffer
	if code := runFeed(context.Background(), &buf, 20); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	for _, want := range []string{"Grace Hopper", "Found a moth", "3 likes"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestFormatPostsHuman(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := []client.Post{{
		Author:    client.User{FirstName: "Ada", LastName: "Lovelace"},
		Content:   "line one\nline two",
		CreatedAt: "2024-03-01T11:00:00Z",
		Image:     "data:image/png;base64,AAAA",
	}}

	out := formatPostsHuman(posts, now)

	for _, want := range []string{"Ada Lovelace · 1h ago", "  line one\n  line two", "image"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if formatPostsHuman(nil, now) != "No posts yet." {
		t.Error("expected empty message")
	}
}

func TestPost(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)

	var buf bytes.Buffer
	if code := runPost(context.Background(), &buf, "Hello, world", ""); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if n := srv.Count(http.MethodPost, "/api/posts"); n != 1 {
		t.Errorf("expected 1 create request, got %d", n)
	}
}

func TestPost_WithImage(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(path, img.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if code := runPost(context.Background(), &buf, "With a picture", path); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	reqs := srv.RequestsTo(http.MethodPost, "/api/posts")
	if len(reqs) != 1 || !strings.Contains(string(reqs[0].Body), "data:image/png;base64,") {
		t.Error("expected the image to be sent as a data URI")
	}
}

func TestPost_MissingImage(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)

	var buf bytes.Buffer
	if code := runPost(context.Background(), &buf, "text", "/no/such/file.png"); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if n := srv.Count(http.MethodPost, "/api/posts"); n != 0 {
		t.Errorf("expected no create request, got %d", n)
	}
}

func TestSearchAndFollow(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)
	srv.SeedUser(client.User{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}, "cobol")
	grace, _ := srv.User("grace@example.com")

	var buf bytes.Buffer
	if code := runSearch(context.Background(), &buf, "grace"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Grace Hopper") || !strings.Contains(buf.String(), "not following") {
		t.Errorf("unexpected search output: %s", buf.String())
	}

	buf.Reset()
	if code := runFollow(context.Background(), &buf, grace.ID, true); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if n := srv.Count(http.MethodPost, "/api/follow/"+grace.ID.String()); n != 1 {
		t.Errorf("expected 1 follow request, got %d", n)
	}

	buf.Reset()
	runSearch(context.Background(), &buf, "grace")
	if strings.Contains(buf.String(), "not following") {
		t.Errorf("expected Grace to be followed: %s", buf.String())
	}
}

func TestSearch_NoResults(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)

	var buf bytes.Buffer
	runSearch(context.Background(), &buf, "nobody")
	if !strings.Contains(buf.String(), `No users found for "nobody"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestSearch_Failure(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)
	srv.Fail(http.MethodGet, "/api/users/search", http.StatusInternalServerError, "")

	var buf bytes.Buffer
	code := runSearch(context.Background(), &buf, "grace")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "Error: "+search.MsgSearchFailed) {
		t.Errorf("expected search failure message, got %s", buf.String())
	}
}

func TestProfile_Update(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)

	bio := "Analyst"
	var buf bytes.Buffer
	if code := runProfile(context.Background(), &buf, profileChanges{Bio: &bio}); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	user, _ := srv.User("ada@example.com")
	if user.Bio != "Analyst" {
		t.Errorf("expected bio to be updated, got %q", user.Bio)
	}
	if user.FirstName != "Ada" {
		t.Errorf("untouched fields must be kept, got first name %q", user.FirstName)
	}
}

func TestProfile_ShowOnly(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)

	var buf bytes.Buffer
	if code := runProfile(context.Background(), &buf, profileChanges{}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if n := srv.Count(http.MethodPut, "/api/profile"); n != 0 {
		t.Errorf("expected no update request, got %d", n)
	}
}

func TestProfile_UpdateRejected(t *testing.T) {
	srv := apitest.New(t)
	useServer(t, srv)
	signIn(t, srv)
	srv.Fail(http.MethodPut, "/api/profile", http.StatusBadRequest, "Bio too long")

	bio := "x"
	var buf bytes.Buffer
	if code := runProfile(context.Background(), &buf, profileChanges{Bio: &bio}); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "Bio too long") {
		t.Errorf("expected server message, got %s", buf.String())
	}
}
