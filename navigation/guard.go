package navigation

import (
	"net/url"

	"github.com/rs/zerolog/log"
)

const DefaultAppTitle = "Python-100-Days"

// SessionView is the read-only session state the guard consults.
type SessionView interface {
	IsLoggedIn() bool
	IsAdmin() bool
}

type TitleSetter interface {
	SetTitle(title string)
}

// TitleFunc adapts a function to TitleSetter.
type TitleFunc func(title string)

func (f TitleFunc) SetTitle(title string) { f(title) }

// Target is a navigation destination after route matching.
type Target struct {
	Name     string
	Path     string
	FullPath string
	Title    string
	Params   map[string]string
	Query    url.Values
	Requirement
}

// Decision is the guard's verdict. Redirect is nil when the navigation is allowed.
type Decision struct {
	Redirect *Location
}

func (d Decision) Allowed() bool {
	return d.Redirect == nil
}

type Guard struct {
	session  SessionView
	titles   TitleSetter
	appTitle string
	login    string
	home     string
}

type GuardOption func(*Guard)

func WithAppTitle(title string) GuardOption {
	return func(g *Guard) {
		g.appTitle = title
	}
}

// WithLoginRoute changes where unauthenticated users are sent.
func WithLoginRoute(name string) GuardOption {
	return func(g *Guard) {
		g.login = name
	}
}

// WithHomeRoute changes where non-admin users are sent from admin routes.
func WithHomeRoute(name string) GuardOption {
	return func(g *Guard) {
		g.home = name
	}
}

// NewGuard builds a guard over view. titles may be nil.
func NewGuard(view SessionView, titles TitleSetter, opts ...GuardOption) *Guard {
	g := &Guard{
		session:  view,
		titles:   titles,
		appTitle: DefaultAppTitle,
		login:    RouteLogin,
		home:     RouteHome,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Title is the document title shown for to.
func (g *Guard) Title(to Target) string {
	if to.Title == "" {
		return g.appTitle
	}
	return to.Title + " - " + g.appTitle
}

// Check decides a single navigation. The title is updated before the access check, so a denied
// navigation still shows the title of the page that was asked for until the redirect lands.
func (g *Guard) Check(to Target) Decision {
	if g.titles != nil {
		g.titles.SetTitle(g.Title(to))
	}

	if to.RequiresAuth && !g.session.IsLoggedIn() {
		log.Debug().Str("route", to.Name).Msg("navigation requires login")
		return Decision{Redirect: &Location{
			Name:  g.login,
			Query: url.Values{"redirect": {to.FullPath}},
		}}
	}
	if to.RequiresAdmin && !g.session.IsAdmin() {
		log.Debug().Str("route", to.Name).Msg("navigation requires admin")
		return Decision{Redirect: &Location{Name: g.home}}
	}
	return Decision{}
}
