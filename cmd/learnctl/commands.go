package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-learn-client/app"
	"github.com/jrsteele09/go-learn-client/internal/config"
	"github.com/jrsteele09/go-learn-client/session"
	"github.com/jrsteele09/go-learn-client/token"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

type env struct {
	app    *app.App
	config config.Config
	title  *titleHolder
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":    {"log in and store the credential", runLogin},
	"logout":   {"forget the stored credential", runLogout},
	"register": {"create an account", runRegister},
	"refresh":  {"exchange the refresh token for a new access token", runRefresh},
	"status":   {"show the current session", runStatus},
	"get":      {"GET an API path through the authenticated pipeline", runGet},
	"nav":      {"check where navigating to a page would land", runNav},
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "usage: learnctl <command> [flags]")
	fmt.Fprintln(out)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-9s %s\n", name, commands[name].summary)
	}
}

type titleHolder struct {
	title string
}

func (t *titleHolder) SetTitle(title string) { t.title = title }

func newFlagSet(e *env, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "login")
	username := fs.StringP("username", "u", "", "account username")
	password := fs.StringP("password", "p", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(e.stderr, "login requires --username and --password")
		return errUsage
	}

	profile, err := e.app.Session.Login(ctx, session.Credentials{"username": *username, "password": *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "logged in as %s\n", displayName(profile))
	return nil
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "logged out")
	return nil
}

func runRegister(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "register")
	username := fs.StringP("username", "u", "", "account username")
	email := fs.StringP("email", "e", "", "email address")
	password := fs.StringP("password", "p", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res, err := e.app.Session.Register(ctx, map[string]any{
		"username":         *username,
		"email":            *email,
		"password":         *password,
		"password_confirm": *password,
	})
	if err != nil {
		var valErr *session.ValidationError
		if errors.As(err, &valErr) {
			fmt.Fprintln(e.stderr, valErr.Message)
		}
		return err
	}
	if msg, ok := res["message"].(string); ok && msg != "" {
		fmt.Fprintln(e.stdout, msg)
	}
	fmt.Fprintln(e.stdout, "registered, you can now log in")
	return nil
}

func runRefresh(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Session.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "access token refreshed")
	return nil
}

func runStatus(_ context.Context, e *env, _ []string) error {
	displayAppname(e.stdout, e.config.GetAppName())

	s := e.app.Session
	fmt.Fprintf(e.stdout, "api:       %s\n", e.app.Client.BaseURL())
	fmt.Fprintf(e.stdout, "store:     %s\n", e.config.GetStoreDriver())
	if !s.IsLoggedIn() {
		fmt.Fprintln(e.stdout, "session:   anonymous")
		return nil
	}
	fmt.Fprintf(e.stdout, "session:   %s\n", displayName(s.UserInfo()))
	fmt.Fprintf(e.stdout, "admin:     %t\n", s.IsAdmin())
	fmt.Fprintf(e.stdout, "refresh:   %t\n", s.RefreshTokenValue() != "")

	ttl, ok := s.AccessTokenTTL()
	switch {
	case !ok:
		fmt.Fprintln(e.stdout, "token:     no readable expiry")
	case ttl == 0:
		fmt.Fprintln(e.stdout, "token:     expired")
	default:
		fmt.Fprintf(e.stdout, "token:     valid for %s\n", ttl.Round(time.Second))
	}
	if claims, err := token.Inspect(s.AccessToken()); err == nil && claims.UserID != "" {
		fmt.Fprintf(e.stdout, "user id:   %s\n", claims.UserID)
	}
	return nil
}

func runGet(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "get")
	params := fs.StringArrayP("param", "q", nil, "query parameter as key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "get requires exactly one API path, e.g. /courses/courses/")
		return errUsage
	}

	query := url.Values{}
	for _, p := range *params {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			fmt.Fprintf(e.stderr, "bad --param %q, expected key=value\n", p)
			return errUsage
		}
		query.Add(k, v)
	}

	var out any
	if err := e.app.Client.Get(ctx, fs.Arg(0), query, &out); err != nil {
		return err
	}
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runNav(_ context.Context, e *env, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(e.stderr, "nav requires exactly one path, e.g. /progress")
		return errUsage
	}
	to, err := e.app.Router.Push(args[0])
	if err != nil {
		return err
	}
	name := to.Name
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(e.stdout, "%s\t%s\t%s\n", name, to.FullPath, e.title.title)
	return nil
}

func displayName(p session.Profile) string {
	for _, field := range []string{"username", "email"} {
		if v := p.String(field); v != "" {
			return v
		}
	}
	return "unknown user"
}
