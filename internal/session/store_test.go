// ABOUTME: Tests for the session store
// ABOUTME: Covers startup resolution, failure clearing, stale results and local expiry

package session

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/networkhub/internal/apitest"
	"github.com/markalston/networkhub/internal/client"
)

func newStore(t *testing.T, srv *apitest.Server, opts ...Option) (*Store, *FileStorage) {
	t.Helper()
	storage := NewFileStorage(t.TempDir())
	return New(srv.Client(), storage, opts...), storage
}

func TestInitialize_NoStoredCredential(t *testing.T) {
	srv := apitest.New(t)
	store, _ := newStore(t, srv)

	require.NoError(t, store.Initialize(context.Background()))

	assert.False(t, store.Authenticated())
	assert.Empty(t, store.Credential())
	assert.Empty(t, srv.Requests(), "no network call without a stored credential")
}

func TestInitialize_ResolvesIdentity(t *testing.T) {
	srv := apitest.New(t)
	token := srv.SeedUser(client.User{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Bio: "hi"}, "pw")
	store, storage := newStore(t, srv)
	require.NoError(t, storage.Save(token))

	require.NoError(t, store.Initialize(context.Background()))

	require.True(t, store.Authenticated())
	user, ok := store.Identity()
	require.True(t, ok)
	want, _ := srv.User("alice@example.com")
	assert.Equal(t, want, user)
	assert.Equal(t, token, store.Credential())
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/profile"))
}

func TestInitialize_FailureClearsEverything(t *testing.T) {
	tests := []struct {
		name  string
		setup func(srv *apitest.Server)
	}{
		{"unauthorized", func(srv *apitest.Server) {
			srv.Fail(http.MethodGet, "/api/profile", http.StatusUnauthorized, "Invalid token")
		}},
		{"error payload with 200", func(srv *apitest.Server) {
			srv.Fail(http.MethodGet, "/api/profile", http.StatusOK, "Invalid token")
		}},
		{"transport", func(srv *apitest.Server) {
			srv.Close()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.New(t)
			token := srv.SeedUser(client.User{FirstName: "A", LastName: "B", Email: "a@b.c"}, "pw")
			store, storage := newStore(t, srv)
			require.NoError(t, storage.Save(token))
			tt.setup(srv)

			require.NoError(t, store.Initialize(context.Background()))

			assert.False(t, store.Authenticated())
			assert.Empty(t, store.Credential())
			_, ok := store.Identity()
			assert.False(t, ok)
			_, err := os.Stat(storage.Path())
			assert.True(t, os.IsNotExist(err), "stored credential should be removed")
		})
	}
}

func TestLogin_RequiresBoth(t *testing.T) {
	srv := apitest.New(t)
	store, _ := newStore(t, srv)

	assert.ErrorIs(t, store.Login("", &client.User{FirstName: "A"}), ErrIncompleteSession)
	assert.ErrorIs(t, store.Login("tok", nil), ErrIncompleteSession)
	assert.False(t, store.Authenticated())
}

func TestLoginLogout_Persistence(t *testing.T) {
	srv := apitest.New(t)
	store, storage := newStore(t, srv)

	require.NoError(t, store.Login("tok-9", &client.User{ID: "9", FirstName: "Alice"}))
	assert.True(t, store.Authenticated())

	stored, err := storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-9", stored)

	info, err := os.Stat(storage.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, store.Logout())
	assert.False(t, store.Authenticated())
	stored, err = storage.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestGeneration_ChangesWithCredential(t *testing.T) {
	srv := apitest.New(t)
	store, _ := newStore(t, srv)

	g0 := store.Generation()
	require.NoError(t, store.Login("tok", &client.User{FirstName: "A"}))
	g1 := store.Generation()
	require.NoError(t, store.UpdateIdentity(func(u *client.User) { u.Bio = "new" }))
	assert.Equal(t, g1, store.Generation(), "identity edits keep the generation")
	require.NoError(t, store.Logout())

	assert.NotEqual(t, g0, g1)
	assert.NotEqual(t, g1, store.Generation())
}

func TestUpdateIdentity(t *testing.T) {
	srv := apitest.New(t)
	store, _ := newStore(t, srv)

	assert.ErrorIs(t, store.UpdateIdentity(func(u *client.User) {}), ErrNoSession)

	require.NoError(t, store.Login("tok", &client.User{FirstName: "Alice", Location: "Paris"}))
	require.NoError(t, store.UpdateIdentity(func(u *client.User) { u.FirstName = "Alicia" }))

	user, _ := store.Identity()
	assert.Equal(t, "Alicia", user.FirstName)
	assert.Equal(t, "Paris", user.Location)
	assert.Empty(t, srv.Requests(), "identity updates stay local")
}

func TestIdentity_ReturnsCopy(t *testing.T) {
	srv := apitest.New(t)
	store, _ := newStore(t, srv)
	require.NoError(t, store.Login("tok", &client.User{FirstName: "Alice"}))

	user, _ := store.Identity()
	user.FirstName = "Mallory"

	again, _ := store.Identity()
	assert.Equal(t, "Alice", again.FirstName)
}

func TestResolve_DiscardsResultForSupersededCredential(t *testing.T) {
	srv := apitest.New(t)
	token := srv.SeedUser(client.User{FirstName: "Alice", Email: "a@b.c"}, "pw")
	store, _ := newStore(t, srv)
	require.NoError(t, store.Login(token, &client.User{FirstName: "Alice"}))

	release := srv.Hold(http.MethodGet, "/api/profile")
	done := make(chan bool)
	go func() { done <- store.Resolve(context.Background()) }()

	require.Eventually(t, func() bool {
		return srv.Count(http.MethodGet, "/api/profile") == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Logout())
	release()

	assert.False(t, <-done)
	assert.False(t, store.Authenticated())
	_, ok := store.Identity()
	assert.False(t, ok, "late identity must not resurrect a logged out session")
}

func TestResolve_FailureForSupersededCredentialKeepsNewSession(t *testing.T) {
	srv := apitest.New(t)
	store, _ := newStore(t, srv)
	require.NoError(t, store.Login("revoked", &client.User{FirstName: "Old"}))

	release := srv.Hold(http.MethodGet, "/api/profile")
	done := make(chan bool)
	go func() { done <- store.Resolve(context.Background()) }()

	require.Eventually(t, func() bool {
		return srv.Count(http.MethodGet, "/api/profile") == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Login("fresh", &client.User{FirstName: "New"}))
	release()

	assert.True(t, <-done)
	assert.Equal(t, "fresh", store.Credential())
}

func TestResolve_SharesConcurrentRequests(t *testing.T) {
	srv := apitest.New(t)
	token := srv.SeedUser(client.User{FirstName: "Alice", Email: "a@b.c"}, "pw")
	store, _ := newStore(t, srv)
	require.NoError(t, store.Login(token, &client.User{FirstName: "Alice"}))

	release := srv.Hold(http.MethodGet, "/api/profile")
	var wg sync.WaitGroup
	results := make([]bool, 3)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = store.Resolve(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		return srv.Count(http.MethodGet, "/api/profile") == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, []bool{true, true, true}, results)
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/profile"))
}

func TestInitialize_CancelledKeepsStoredCredential(t *testing.T) {
	srv := apitest.New(t)
	token := srv.SeedUser(client.User{FirstName: "Alice", Email: "a@b.c"}, "pw")
	store, storage := newStore(t, srv)
	require.NoError(t, storage.Save(token))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, store.Initialize(ctx))

	assert.False(t, store.Authenticated())
	assert.Equal(t, token, store.Credential(), "cancelled verification must not clear the credential")
	stored, err := storage.Load()
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	require.True(t, store.Resolve(context.Background()), "credential still verifies on the next attempt")
}

func TestResolve_CancelledMidFlightKeepsSession(t *testing.T) {
	srv := apitest.New(t)
	token := srv.SeedUser(client.User{FirstName: "Alice", Email: "a@b.c"}, "pw")
	store, storage := newStore(t, srv)
	require.NoError(t, store.Login(token, &client.User{FirstName: "Alice"}))

	release := srv.Hold(http.MethodGet, "/api/profile")
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan bool)
	go func() { cancelled <- store.Resolve(ctx) }()
	waiting := make(chan bool)
	go func() { waiting <- store.Resolve(context.Background()) }()

	require.Eventually(t, func() bool {
		return srv.Count(http.MethodGet, "/api/profile") == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case ok := <-cancelled:
		assert.True(t, ok, "session stays as it was")
	case <-time.After(time.Second):
		t.Fatal("cancelled Resolve did not return")
	}
	assert.Equal(t, token, store.Credential())
	stored, _ := storage.Load()
	assert.Equal(t, token, stored)

	release()
	assert.True(t, <-waiting, "the other caller still gets the shared answer")
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/profile"))
}

type failingStorage struct{ err error }

func (f failingStorage) Load() (string, error) { return "", nil }
func (f failingStorage) Save(string) error     { return f.err }
func (f failingStorage) Clear() error          { return nil }

func TestLogin_SaveFailureLeavesStoreUnchanged(t *testing.T) {
	srv := apitest.New(t)
	store := New(srv.Client(), failingStorage{err: os.ErrPermission})
	gen := store.Generation()

	err := store.Login("token", &client.User{FirstName: "Alice"})

	require.ErrorIs(t, err, os.ErrPermission)
	assert.False(t, store.Authenticated())
	assert.Empty(t, store.Credential())
	assert.Equal(t, gen, store.Generation())
}

func TestResolve_ExpiredJWTSkipsNetwork(t *testing.T) {
	srv := apitest.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	store, storage := newStore(t, srv, WithClock(func() time.Time { return now }))
	require.NoError(t, storage.Save(token))

	require.NoError(t, store.Initialize(context.Background()))

	assert.False(t, store.Authenticated())
	assert.Empty(t, srv.Requests())
	stored, _ := storage.Load()
	assert.Empty(t, stored)
}

func TestResolve_UnexpiredJWTGoesToNetwork(t *testing.T) {
	srv := apitest.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	store, _ := newStore(t, srv, WithClock(func() time.Time { return now }))
	require.NoError(t, store.Login(token, &client.User{FirstName: "A"}))

	assert.False(t, store.Resolve(context.Background()), "fake server does not know this token")
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/api/profile"))
}

func TestFileStorage_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage(dir)
	require.NoError(t, os.WriteFile(storage.Path(), []byte("not json"), 0600))

	token, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	require.NoError(t, storage.Clear())
	require.NoError(t, storage.Clear(), "clearing twice is fine")
}
