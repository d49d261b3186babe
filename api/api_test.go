package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jrsteele09/go-learn-client/api"
	"github.com/jrsteele09/go-learn-client/client"
	"github.com/jrsteele09/go-learn-client/credentials"
	"github.com/jrsteele09/go-learn-client/credentials/storefake"
	"github.com/jrsteele09/go-learn-client/notify/notifyfake"
	"github.com/jrsteele09/go-learn-client/session"
	"github.com/stretchr/testify/require"
)

// backend is a minimal fake of the platform's user endpoints.
type backend struct {
	password string
	rotate   bool
	bodies   map[string]map[string]any
	auth     map[string]string
	mu       sync.Mutex
}

func (b *backend) seen(path string) (map[string]any, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies["/api"+path], b.auth["/api"+path]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	b.mu.Lock()
	b.bodies[r.URL.Path] = body
	b.auth[r.URL.Path] = r.Header.Get("Authorization")
	rotate := b.rotate
	b.mu.Unlock()

	reply := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	switch r.URL.Path {
	case "/api" + api.PathLogin:
		if body["password"] != b.password {
			reply(http.StatusUnauthorized, map[string]any{"detail": "No active account found with the given credentials"})
			return
		}
		reply(http.StatusOK, map[string]any{
			"access":  "T1",
			"refresh": "R1",
			"user":    map[string]any{"id": 7, "username": body["username"], "is_staff": false},
		})
	case "/api" + api.PathRegister:
		if body["username"] == "taken" {
			reply(http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
			return
		}
		reply(http.StatusCreated, map[string]any{"message": "ok", "user": map[string]any{"username": body["username"]}})
	case "/api" + api.PathRefresh:
		if body["refresh"] != "R1" {
			reply(http.StatusUnauthorized, map[string]any{"detail": "Token is invalid or expired"})
			return
		}
		res := map[string]any{"access": "T2"}
		if rotate {
			res["refresh"] = "R2"
		}
		reply(http.StatusOK, res)
	case "/api" + api.PathMe:
		if r.Header.Get("Authorization") == "" {
			reply(http.StatusUnauthorized, map[string]any{"detail": "Authentication credentials were not provided."})
			return
		}
		reply(http.StatusOK, map[string]any{"id": 7, "username": "alice", "is_staff": true})
	default:
		reply(http.StatusNotFound, map[string]any{"detail": "Not found."})
	}
}

type testFixture struct {
	backend  *backend
	store    *storefake.FakeStore
	notifier *notifyfake.Recorder
	session  *session.Session
	auth     *api.Auth
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	b := &backend{password: "secret", bodies: map[string]map[string]any{}, auth: map[string]string{}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	store := storefake.NewFakeStore()
	sess, err := session.New(context.Background(), store)
	require.NoError(t, err)

	rec := notifyfake.NewRecorder()
	auth := api.NewAuth(client.New(srv.URL+"/api", sess, rec))
	sess.UseAuthenticator(auth)

	return &testFixture{backend: b, store: store, notifier: rec, session: sess, auth: auth}
}

func TestLoginThroughSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	profile, err := f.session.Login(ctx, session.Credentials{"username": "alice", "password": "secret"})
	require.NoError(t, err)
	require.Equal(t, "alice", profile.String("username"))
	require.True(t, f.session.IsLoggedIn())
	require.False(t, f.session.IsAdmin())
	_, loginAuth := f.backend.seen(api.PathLogin)
	require.Empty(t, loginAuth)

	snap := f.store.Snapshot()
	require.Equal(t, "T1", snap[credentials.KeyAccessToken])
	require.Equal(t, "R1", snap[credentials.KeyRefreshToken])

	reloaded, err := f.session.ReloadProfile(ctx)
	require.NoError(t, err)
	require.True(t, reloaded.Privileged())
	require.True(t, f.session.IsAdmin())
	_, meAuth := f.backend.seen(api.PathMe)
	require.Equal(t, "Bearer T1", meAuth)
	require.Zero(t, f.notifier.Len())
}

func TestLoginRejected(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.session.Login(context.Background(), session.Credentials{"username": "alice", "password": "wrong"})
	var authErr *session.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "No active account found with the given credentials", authErr.Message)
	require.ErrorIs(t, err, client.ErrAuthorization)
	require.False(t, f.session.IsLoggedIn())
	require.Equal(t, []string{client.MessageUnauthorized}, f.notifier.Messages())
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	res, err := f.session.Register(ctx, map[string]any{"username": "bob", "password": "pw", "password_confirm": "pw"})
	require.NoError(t, err)
	require.Equal(t, "ok", res["message"])
	require.False(t, f.session.IsLoggedIn())

	_, err = f.session.Register(ctx, map[string]any{"username": "taken"})
	var valErr *session.ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, "A user with that username already exists.", valErr.Message)
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name        string
		rotate      bool
		wantRefresh string
	}{
		{"refresh token kept", false, "R1"},
		{"refresh token rotated", true, "R2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.backend.mu.Lock()
			f.backend.rotate = tt.rotate
			f.backend.mu.Unlock()
			ctx := context.Background()

			_, err := f.session.Login(ctx, session.Credentials{"username": "alice", "password": "secret"})
			require.NoError(t, err)
			require.NoError(t, f.session.Refresh(ctx))

			refreshBody, _ := f.backend.seen(api.PathRefresh)
			require.Equal(t, map[string]any{"refresh": "R1"}, refreshBody)
			require.Equal(t, "T2", f.session.AccessToken())
			require.Equal(t, tt.wantRefresh, f.session.RefreshTokenValue())
			require.Equal(t, tt.wantRefresh, f.store.Snapshot()[credentials.KeyRefreshToken])
		})
	}
}

func TestFetchProfileAnonymous(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.auth.FetchProfile(context.Background())
	require.ErrorIs(t, err, client.ErrAuthorization)
	require.Equal(t, http.StatusUnauthorized, client.StatusOf(err))
}

type lastRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

func TestLearningEndpoints(t *testing.T) {
	var (
		mu   sync.Mutex
		last lastRequest
	)
	seen := func() lastRequest {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		last = lastRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: body}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[{"slug":"day-01"}]}`))
	}))
	defer srv.Close()

	l := api.NewLearning(client.New(srv.URL+"/api", nil, notifyfake.NewRecorder()))
	ctx := context.Background()

	page, err := l.Lessons(ctx, url.Values{"course": {"python-basics"}})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	require.Nil(t, page.Next)
	require.Equal(t, "day-01", page.Results[0]["slug"])
	require.Equal(t, "/api/courses/lessons/", seen().Path)
	require.Equal(t, "python-basics", seen().Query.Get("course"))

	_, err = l.SubmitCode(ctx, "fizzbuzz", map[string]any{"code": "print(1)", "exercise": "other"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, seen().Method)
	require.Equal(t, "/api/exercises/submissions/", seen().Path)
	require.Equal(t, map[string]any{"code": "print(1)", "exercise": "fizzbuzz"}, seen().Body)

	_, err = l.UpdateNote(ctx, 4, map[string]any{"content": "x"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPatch, seen().Method)
	require.Equal(t, "/api/courses/notes/4/", seen().Path)

	require.NoError(t, l.DeleteNote(ctx, 4))
	require.Equal(t, http.MethodDelete, seen().Method)

	require.NoError(t, l.LikeCourse(ctx, "python-basics"))
	require.Equal(t, "/api/courses/courses/python-basics/like/", seen().Path)

	require.NoError(t, l.LikeNote(ctx, 4))
	require.Equal(t, http.MethodPost, seen().Method)
	require.Equal(t, "/api/courses/notes/4/like/", seen().Path)

	stats, err := l.SubmissionStatistics(ctx)
	require.NoError(t, err)
	require.Equal(t, float64(1), stats["count"])
	require.Equal(t, http.MethodGet, seen().Method)
	require.Equal(t, "/api/exercises/submissions/statistics/", seen().Path)
}
