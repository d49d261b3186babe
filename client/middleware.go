package client

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const HeaderRequestID = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware decorates an outgoing transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain wraps base so that mw[0] sees the request first.
func Chain(base http.RoundTripper, mw ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	chained := base
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

// RequestID tags each request with a fresh X-Request-ID unless the caller set one.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(HeaderRequestID) != "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set(HeaderRequestID, uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}

// Bearer attaches the current access token from src. An anonymous source (any error, or an empty
// token) leaves the request untouched.
func Bearer(src oauth2.TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if src == nil {
				return next.RoundTrip(r)
			}
			tok, err := src.Token()
			if err != nil || tok == nil || tok.AccessToken == "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			tok.SetAuthHeader(r)
			return next.RoundTrip(r)
		})
	}
}

// Logging records method, path, status and latency at debug level. Headers are never logged.
func Logging() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			ev := log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get(HeaderRequestID)).
				Bool("authenticated", r.Header.Get("Authorization") != "").
				Dur("elapsed", time.Since(start))
			if err != nil {
				if !errors.Is(err, r.Context().Err()) {
					ev = ev.Err(err)
				}
				ev.Msg("request failed")
				return resp, err
			}
			ev.Int("status", resp.StatusCode).Msg("request")
			return resp, nil
		})
	}
}
