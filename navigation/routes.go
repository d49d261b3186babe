// Package navigation decides where a user may go. A Table holds the named routes, a Guard checks a
// resolved target against the session, and a Router ties both together.
package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route names used by the guard's redirects.
const (
	RouteHome           = "Home"
	RouteCourseList     = "CourseList"
	RouteCourseDetail   = "CourseDetail"
	RouteLessonDetail   = "LessonDetail"
	RouteExerciseList   = "ExerciseList"
	RouteExerciseDetail = "ExerciseDetail"
	RouteProgress       = "Progress"
	RouteNotes          = "Notes"
	RouteLogin          = "Login"
	RouteRegister       = "Register"
	RouteAdminUsers     = "AdminUsers"
)

var (
	ErrInvalidRoute = errors.New("invalid route")
	ErrUnknownRoute = errors.New("unknown route")
	ErrNoMatch      = errors.New("no route matches path")
	ErrMissingParam = errors.New("missing route parameter")
)

// Requirement is the access policy of a route. RequiresAdmin is only valid together with
// RequiresAuth.
type Requirement struct {
	RequiresAuth  bool
	RequiresAdmin bool
}

// Location names a destination rather than spelling out its path.
type Location struct {
	Name   string
	Params map[string]string
	Query  url.Values
}

type Route struct {
	Name  string
	Path  string // chi pattern, e.g. /courses/{slug}
	Title string
	Requirement
	// Redirect, when set, sends every visit elsewhere before any guard runs.
	Redirect func(params map[string]string) *Location
}

// Table is a validated, immutable set of routes.
type Table struct {
	routes    []Route
	byName    map[string]int
	byPattern map[string]int
	mux       *chi.Mux
}

// NewTable validates routes and indexes them for matching. Routes are matched by chi, so patterns
// use chi syntax.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		routes:    make([]Route, 0, len(routes)),
		byName:    make(map[string]int, len(routes)),
		byPattern: make(map[string]int, len(routes)),
		mux:       chi.NewMux(),
	}
	for _, r := range routes {
		if err := t.add(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) add(r Route) (err error) {
	switch {
	case r.Path == "" || !strings.HasPrefix(r.Path, "/"):
		return fmt.Errorf("%w: route %q path %q must start with /", ErrInvalidRoute, r.Name, r.Path)
	case r.Name == "" && r.Redirect == nil:
		return fmt.Errorf("%w: route %s has no name", ErrInvalidRoute, r.Path)
	case r.RequiresAdmin && !r.RequiresAuth:
		return fmt.Errorf("%w: route %q requires admin but not authentication", ErrInvalidRoute, r.Name)
	}
	if _, dup := t.byPattern[r.Path]; dup {
		return fmt.Errorf("%w: duplicate path %s", ErrInvalidRoute, r.Path)
	}
	if r.Name != "" {
		if _, dup := t.byName[r.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidRoute, r.Name)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidRoute, rec)
		}
	}()
	t.mux.Handle(r.Path, http.NotFoundHandler())

	idx := len(t.routes)
	t.routes = append(t.routes, r)
	t.byPattern[r.Path] = idx
	if r.Name != "" {
		t.byName[r.Name] = idx
	}
	return nil
}

// Routes returns a copy of the table in declaration order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

func (t *Table) Lookup(name string) (Route, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[idx], true
}

// Match finds the route for path and its parameters. A trailing slash is ignored.
func (t *Table) Match(path string) (Route, map[string]string, error) {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}

	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, path) {
		return Route{}, nil, fmt.Errorf("%w: %s", ErrNoMatch, path)
	}
	idx, ok := t.byPattern[rctx.RoutePattern()]
	if !ok {
		return Route{}, nil, fmt.Errorf("%w: %s", ErrNoMatch, path)
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return t.routes[idx], params, nil
}

// Resolve builds the full path of loc, query included.
func (t *Table) Resolve(loc Location) (string, error) {
	r, ok := t.Lookup(loc.Name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, loc.Name)
	}

	var b strings.Builder
	pattern := r.Path
	for {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			b.WriteString(pattern)
			break
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w: route %q pattern %s", ErrInvalidRoute, r.Name, r.Path)
		}
		end += open

		key, _, _ := strings.Cut(pattern[open+1:end], ":")
		value, ok := loc.Params[key]
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %q for route %q", ErrMissingParam, key, r.Name)
		}
		b.WriteString(pattern[:open])
		b.WriteString(url.PathEscape(value))
		pattern = pattern[end+1:]
	}

	if len(loc.Query) > 0 {
		b.WriteString("?")
		b.WriteString(loc.Query.Encode())
	}
	return b.String(), nil
}

// DefaultRoutes is the learning platform's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Path: "/", Title: "Home"},
		{Name: RouteCourseList, Path: "/courses", Title: "Courses"},
		{Name: RouteCourseDetail, Path: "/courses/{slug}", Title: "Course"},
		{
			Path: "/courses/{courseSlug}/{lessonSlug}",
			Redirect: func(params map[string]string) *Location {
				return &Location{Name: RouteLessonDetail, Params: map[string]string{"slug": params["lessonSlug"]}}
			},
		},
		{Name: RouteLessonDetail, Path: "/lessons/{slug}", Title: "Lesson"},
		{Name: RouteExerciseList, Path: "/exercises", Title: "Exercises"},
		{Name: RouteExerciseDetail, Path: "/exercises/{slug}", Title: "Exercise"},
		{Name: RouteProgress, Path: "/progress", Title: "My Progress", Requirement: Requirement{RequiresAuth: true}},
		{Name: RouteNotes, Path: "/notes", Title: "My Notes", Requirement: Requirement{RequiresAuth: true}},
		{Name: RouteLogin, Path: "/login", Title: "Log In"},
		{Name: RouteRegister, Path: "/register", Title: "Register"},
		{Name: RouteAdminUsers, Path: "/admin/users", Title: "User Management", Requirement: Requirement{RequiresAuth: true, RequiresAdmin: true}},
	}
}
