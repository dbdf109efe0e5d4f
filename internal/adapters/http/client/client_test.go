package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/prefixd/internal/adapters/http/client"
	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/internal/domain/target"
	. "github.com/smartystreets/goconvey/convey"
)

type echo struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	RequestID string `json:"request_id"`
	Agent     string `json:"agent"`
	Name      string `json:"name,omitempty"`
}

func newEcho() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "nope", http.StatusTeapot)
			return
		}
		var in struct {
			Name string `json:"name"`
		}
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&in)
		}
		_ = json.NewEncoder(w).Encode(echo{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
			Agent:     r.Header.Get("User-Agent"),
			Name:      in.Name,
		})
	}))
}

func TestClient_ResolveURL(t *testing.T) {
	Convey("Given a client with a base URL", t, func() {
		c := client.New(client.WithBaseURL("http://app.local:9080"))

		Convey("Then relative resolutions join the base", func() {
			u, err := c.ResolveURL("/api/v1/login_nonce", target.Proxy)
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "http://app.local:9080/proxy-api/api/v1/login_nonce")

			u, err = c.ResolveURL("/api/v1/login_nonce", target.SelfAPI)
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "http://app.local:9080/api/v1/login_nonce")
		})

		Convey("Then absolute resolutions ignore the base", func() {
			u, err := c.ResolveURL("api/v1/login_nonce", target.External)
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://gateway.chia1104.dev/api/v1/login_nonce")
		})
	})

	Convey("Given a client without a base URL", t, func() {
		c := client.New(client.WithBaseURL("not a url"))

		Convey("Then relative resolutions are an error", func() {
			_, err := c.ResolveURL("/api", target.Default)
			So(errors.Is(err, client.ErrRelativeURL), ShouldBeTrue)
		})

		Convey("Then external resolutions still work", func() {
			u, err := c.ResolveURL("/api", target.External)
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://gateway.chia1104.dev/api")
		})

		Convey("Then unparsable resolutions are reported", func() {
			_, err := c.ResolveURL("%zz", target.External)
			So(errors.Is(err, client.ErrInvalidURL), ShouldBeTrue)
		})
	})
}

func TestClient_Requests(t *testing.T) {
	Convey("Given a client whose gateway is a local echo server", t, func() {
		srv := newEcho()
		defer srv.Close()

		c := client.New(
			client.WithBaseURL(srv.URL),
			client.WithResolver(resolver.New(resolver.WithGatewayOrigin(srv.URL))),
			client.WithTimeout(5*time.Second),
			client.WithUserAgent("prefixd-test"),
		)
		ctx := context.Background()

		Convey("When fetching JSON through the external target", func() {
			var got echo
			err := c.GetJSON(ctx, "api/v1/login_nonce", target.External, &got)

			Convey("Then the gateway path is requested with headers set", func() {
				So(err, ShouldBeNil)
				So(got.Method, ShouldEqual, http.MethodGet)
				So(got.Path, ShouldEqual, "/api/v1/login_nonce")
				So(got.RequestID, ShouldNotBeEmpty)
				So(got.Agent, ShouldEqual, "prefixd-test")
			})
		})

		Convey("When posting JSON through the proxy target", func() {
			var got echo
			err := c.PostJSON(ctx, "/api/v1/login", target.Proxy, map[string]string{"name": "nonce"}, &got)

			Convey("Then the proxied path and body arrive", func() {
				So(err, ShouldBeNil)
				So(got.Method, ShouldEqual, http.MethodPost)
				So(got.Path, ShouldEqual, "/proxy-api/api/v1/login")
				So(got.Name, ShouldEqual, "nonce")
			})
		})

		Convey("When posting without wanting a response body", func() {
			err := c.PostJSON(ctx, "/api/v1/ping", target.Default, struct{}{}, nil)

			Convey("Then it succeeds", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the server answers with an error status", func() {
			err := c.GetJSON(ctx, "/fail", target.Default, &echo{})

			Convey("Then a StatusError is returned", func() {
				var se *client.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.StatusCode, ShouldEqual, http.StatusTeapot)
				So(se.Body, ShouldContainSubstring, "nope")
			})
		})

		Convey("When using Do directly", func() {
			resp, err := c.Do(ctx, http.MethodGet, "/fail", target.SelfAPI, http.NoBody)

			Convey("Then the raw response is returned", func() {
				So(err, ShouldBeNil)
				defer resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusTeapot)
			})
		})
	})

	Convey("Given a client pointed at a closed server", t, func() {
		srv := newEcho()
		base := srv.URL
		srv.Close()
		c := client.New(client.WithBaseURL(base))

		Convey("When fetching", func() {
			err := c.GetJSON(context.Background(), "/x", target.Default, &echo{})

			Convey("Then a request error is returned", func() {
				So(errors.Is(err, client.ErrRequest), ShouldBeTrue)
			})
		})
	})
}

func TestClient_Timeout(t *testing.T) {
	Convey("Given a shared http.Client and a slow server", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		shared := &http.Client{}

		Convey("When the timeout option comes before the client option", func() {
			c := client.New(
				client.WithTimeout(50*time.Millisecond),
				client.WithHTTPClient(shared),
				client.WithBaseURL(srv.URL),
			)
			err := c.GetJSON(context.Background(), "/slow", target.Default, nil)

			Convey("Then the timeout still applies", func() {
				So(errors.Is(err, client.ErrRequest), ShouldBeTrue)
			})

			Convey("And the shared client is left untouched", func() {
				So(shared.Timeout, ShouldEqual, time.Duration(0))
			})
		})

		Convey("When the timeout option comes after the client option", func() {
			c := client.New(
				client.WithHTTPClient(shared),
				client.WithTimeout(50*time.Millisecond),
				client.WithBaseURL(srv.URL),
			)
			err := c.GetJSON(context.Background(), "/slow", target.Default, nil)

			Convey("Then the timeout applies and the shared client is left untouched", func() {
				So(errors.Is(err, client.ErrRequest), ShouldBeTrue)
				So(shared.Timeout, ShouldEqual, time.Duration(0))
			})
		})
	})
}
