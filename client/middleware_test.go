package client_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-learn-client/client"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) client.Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return client.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := client.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return httptest.NewRecorder().Result(), nil
	})

	rt := client.Chain(base, tag("first"), tag("second"))
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "base"}, order)
}

type staticSource struct {
	tok *oauth2.Token
	err error
}

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, s.err }

func TestBearerMiddleware(t *testing.T) {
	capture := func(got *string) http.RoundTripper {
		return client.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			*got = r.Header.Get("Authorization")
			return httptest.NewRecorder().Result(), nil
		})
	}

	t.Run("attaches token without mutating the caller's request", func(t *testing.T) {
		var got string
		rt := client.Bearer(staticSource{tok: &oauth2.Token{AccessToken: "T1", TokenType: "Bearer"}})(capture(&got))
		req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)

		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		require.Equal(t, "Bearer T1", got)
		require.Empty(t, req.Header.Get("Authorization"))
	})

	t.Run("anonymous source", func(t *testing.T) {
		var got string
		rt := client.Bearer(staticSource{err: errors.New("anonymous")})(capture(&got))
		_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.com", nil))
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	var got string
	rt := client.RequestID()(client.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get(client.HeaderRequestID)
		return httptest.NewRecorder().Result(), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set(client.HeaderRequestID, "fixed")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, "fixed", got)
}
