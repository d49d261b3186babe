package navigation_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/go-learn-client/navigation"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	loggedIn bool
	admin    bool
}

func (s *fakeSession) IsLoggedIn() bool { return s.loggedIn }
func (s *fakeSession) IsAdmin() bool    { return s.admin }

type titleRecorder struct {
	titles []string
}

func (r *titleRecorder) SetTitle(title string) { r.titles = append(r.titles, title) }

func (r *titleRecorder) last() string {
	if len(r.titles) == 0 {
		return ""
	}
	return r.titles[len(r.titles)-1]
}

type testFixture struct {
	session *fakeSession
	titles  *titleRecorder
	router  *navigation.Router
}

func setupTestFixture(t *testing.T, routes ...navigation.Route) *testFixture {
	t.Helper()
	if len(routes) == 0 {
		routes = navigation.DefaultRoutes()
	}
	table, err := navigation.NewTable(routes...)
	require.NoError(t, err)

	f := &testFixture{session: &fakeSession{}, titles: &titleRecorder{}}
	router, err := navigation.NewRouter(table, navigation.NewGuard(f.session, f.titles, navigation.WithAppTitle("Learn")))
	require.NoError(t, err)
	f.router = router
	return f
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name   string
		routes []navigation.Route
	}{
		{"admin without auth", []navigation.Route{{Name: "A", Path: "/a", Requirement: navigation.Requirement{RequiresAdmin: true}}}},
		{"duplicate name", []navigation.Route{{Name: "A", Path: "/a"}, {Name: "A", Path: "/b"}}},
		{"duplicate path", []navigation.Route{{Name: "A", Path: "/a"}, {Name: "B", Path: "/a"}}},
		{"empty path", []navigation.Route{{Name: "A"}}},
		{"relative path", []navigation.Route{{Name: "A", Path: "a"}}},
		{"unnamed without redirect", []navigation.Route{{Path: "/a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := navigation.NewTable(tt.routes...)
			require.ErrorIs(t, err, navigation.ErrInvalidRoute)
		})
	}
}

func TestDefaultRoutes_AdminImpliesAuth(t *testing.T) {
	for _, r := range navigation.DefaultRoutes() {
		if r.RequiresAdmin {
			require.True(t, r.RequiresAuth, r.Name)
		}
	}
}

func TestNewRouter_RequiresRedirectTargets(t *testing.T) {
	table, err := navigation.NewTable(navigation.Route{Name: navigation.RouteHome, Path: "/"})
	require.NoError(t, err)

	_, err = navigation.NewRouter(table, navigation.NewGuard(&fakeSession{}, nil))
	require.ErrorIs(t, err, navigation.ErrUnknownRoute)
}

func TestMatch(t *testing.T) {
	table, err := navigation.NewTable(navigation.DefaultRoutes()...)
	require.NoError(t, err)

	route, params, err := table.Match("/courses/python-basics/")
	require.NoError(t, err)
	require.Equal(t, navigation.RouteCourseDetail, route.Name)
	require.Equal(t, map[string]string{"slug": "python-basics"}, params)

	route, _, err = table.Match("/")
	require.NoError(t, err)
	require.Equal(t, navigation.RouteHome, route.Name)

	_, _, err = table.Match("/nowhere/at/all/here")
	require.ErrorIs(t, err, navigation.ErrNoMatch)
}

func TestResolve(t *testing.T) {
	table, err := navigation.NewTable(navigation.DefaultRoutes()...)
	require.NoError(t, err)

	path, err := table.Resolve(navigation.Location{Name: navigation.RouteLessonDetail, Params: map[string]string{"slug": "day 01"}})
	require.NoError(t, err)
	require.Equal(t, "/lessons/day%2001", path)

	path, err = table.Resolve(navigation.Location{Name: navigation.RouteLogin, Query: url.Values{"redirect": {"/notes?page=2"}}})
	require.NoError(t, err)
	require.Equal(t, "/login?redirect=%2Fnotes%3Fpage%3D2", path)

	_, err = table.Resolve(navigation.Location{Name: navigation.RouteCourseDetail})
	require.ErrorIs(t, err, navigation.ErrMissingParam)

	_, err = table.Resolve(navigation.Location{Name: "Nope"})
	require.ErrorIs(t, err, navigation.ErrUnknownRoute)
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name         string
		loggedIn     bool
		admin        bool
		path         string
		wantRoute    string
		wantRedirect string
		wantTitle    string
	}{
		{"public route anonymous", false, false, "/courses", navigation.RouteCourseList, "", "Courses - Learn"},
		{"auth route anonymous", false, false, "/progress", navigation.RouteLogin, "/progress", "Log In - Learn"},
		{"auth route keeps query in redirect", false, false, "/notes?page=2", navigation.RouteLogin, "/notes?page=2", "Log In - Learn"},
		{"auth route logged in", true, false, "/progress", navigation.RouteProgress, "", "My Progress - Learn"},
		{"admin route anonymous", false, false, "/admin/users", navigation.RouteLogin, "/admin/users", "Log In - Learn"},
		{"admin route non-admin", true, false, "/admin/users", navigation.RouteHome, "", "Home - Learn"},
		{"admin route admin", true, true, "/admin/users", navigation.RouteAdminUsers, "", "User Management - Learn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.session.loggedIn, f.session.admin = tt.loggedIn, tt.admin

			to, err := f.router.Push(tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.wantRoute, to.Name)
			require.Equal(t, tt.wantRedirect, to.Query.Get("redirect"))
			require.Equal(t, tt.wantTitle, f.titles.last())

			current, ok := f.router.Current()
			require.True(t, ok)
			require.Equal(t, to, current)
		})
	}
}

func TestGuard_TitleSetBeforeDenial(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.router.Push("/progress")
	require.NoError(t, err)
	require.Equal(t, []string{"My Progress - Learn", "Log In - Learn"}, f.titles.titles)
}

func TestGuard_UntitledRoute(t *testing.T) {
	var got string
	g := navigation.NewGuard(&fakeSession{}, navigation.TitleFunc(func(title string) { got = title }))

	decision := g.Check(navigation.Target{Name: "Blank"})
	require.True(t, decision.Allowed())
	require.Equal(t, navigation.DefaultAppTitle, got)
}

func TestLegacyLessonRedirect(t *testing.T) {
	f := setupTestFixture(t)

	to, err := f.router.Push("/courses/python-basics/day-01?tab=notes")
	require.NoError(t, err)
	require.Equal(t, navigation.RouteLessonDetail, to.Name)
	require.Equal(t, map[string]string{"slug": "day-01"}, to.Params)
	require.Equal(t, "notes", to.Query.Get("tab"))
	require.Equal(t, "/lessons/day-01?tab=notes", to.FullPath)
}

func TestRedirectLoop(t *testing.T) {
	f := setupTestFixture(t,
		navigation.Route{Name: navigation.RouteHome, Path: "/"},
		navigation.Route{Name: navigation.RouteLogin, Path: "/login", Requirement: navigation.Requirement{RequiresAuth: true}},
	)

	_, err := f.router.Push("/login")
	require.ErrorIs(t, err, navigation.ErrRedirectLoop)

	_, ok := f.router.Current()
	require.False(t, ok)
}

func TestPushLocation(t *testing.T) {
	f := setupTestFixture(t)
	f.session.loggedIn = true

	to, err := f.router.PushLocation(navigation.Location{Name: navigation.RouteExerciseDetail, Params: map[string]string{"slug": "fizzbuzz"}})
	require.NoError(t, err)
	require.Equal(t, "/exercises/fizzbuzz", to.Path)
	require.Equal(t, "Exercise - Learn", f.titles.last())
}

func TestPushUnknownPath(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.router.Push("/nowhere/at/all/here")
	require.ErrorIs(t, err, navigation.ErrNoMatch)
}
