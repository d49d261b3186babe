package navigation

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
)

const maxRedirects = 10

var ErrRedirectLoop = errors.New("too many navigation redirects")

// Router resolves full paths against a table and runs every navigation through the guard.
type Router struct {
	table   *Table
	guard   *Guard
	mu      sync.Mutex
	current *Target
}

// NewRouter checks that the guard's redirect targets exist in table.
func NewRouter(table *Table, guard *Guard) (*Router, error) {
	for _, name := range []string{guard.login, guard.home} {
		if _, ok := table.Lookup(name); !ok {
			return nil, fmt.Errorf("[navigation NewRouter] %w: %q", ErrUnknownRoute, name)
		}
	}
	return &Router{table: table, guard: guard}, nil
}

// Push navigates to fullPath, following route and guard redirects, and returns where the user
// ended up.
func (r *Router) Push(fullPath string) (Target, error) {
	for range maxRedirects + 1 {
		to, err := r.target(fullPath)
		if err != nil {
			return Target{}, fmt.Errorf("[navigation Push] %w", err)
		}
		if to.redirect != nil {
			if fullPath, err = r.resolveKeepingQuery(*to.redirect, to.Query); err != nil {
				return Target{}, fmt.Errorf("[navigation Push] %w", err)
			}
			continue
		}

		decision := r.guard.Check(to.Target)
		if !decision.Allowed() {
			if fullPath, err = r.table.Resolve(*decision.Redirect); err != nil {
				return Target{}, fmt.Errorf("[navigation Push] %w", err)
			}
			continue
		}

		r.mu.Lock()
		t := to.Target
		r.current = &t
		r.mu.Unlock()
		return to.Target, nil
	}
	return Target{}, fmt.Errorf("[navigation Push] %w: last path %s", ErrRedirectLoop, fullPath)
}

// PushLocation navigates to a named location.
func (r *Router) PushLocation(loc Location) (Target, error) {
	fullPath, err := r.table.Resolve(loc)
	if err != nil {
		return Target{}, fmt.Errorf("[navigation PushLocation] %w", err)
	}
	return r.Push(fullPath)
}

func (r *Router) Resolve(loc Location) (string, error) {
	return r.table.Resolve(loc)
}

// Current is the last target a navigation landed on.
func (r *Router) Current() (Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Target{}, false
	}
	return *r.current, true
}

type matched struct {
	Target
	redirect *Location
}

func (r *Router) target(fullPath string) (matched, error) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return matched{}, fmt.Errorf("parse %q: %w", fullPath, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	route, params, err := r.table.Match(path)
	if err != nil {
		return matched{}, err
	}

	m := matched{Target: Target{
		Name:        route.Name,
		Path:        path,
		FullPath:    u.RequestURI(),
		Title:       route.Title,
		Params:      params,
		Query:       u.Query(),
		Requirement: route.Requirement,
	}}
	if route.Redirect != nil {
		m.redirect = route.Redirect(params)
		if m.redirect == nil {
			return matched{}, fmt.Errorf("%w: redirect of %s returned no location", ErrInvalidRoute, route.Path)
		}
	}
	return m, nil
}

// resolveKeepingQuery carries the original query over to a route redirect that sets none.
func (r *Router) resolveKeepingQuery(loc Location, query url.Values) (string, error) {
	if loc.Query == nil && len(query) > 0 {
		loc.Query = query
	}
	return r.table.Resolve(loc)
}
