package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/prefixd/internal/adapters/http/gateway"
	"github.com/okian/prefixd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// seen captures what the upstream received.
type seen struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Query     string `json:"query"`
	Host      string `json:"host"`
	RequestID string `json:"request_id"`
	Forwarded string `json:"forwarded"`
	Body      string `json:"body"`
}

func newUpstream() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(seen{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Host:      r.Host,
			RequestID: r.Header.Get(gateway.RequestIDHeader),
			Forwarded: r.Header.Get("X-Forwarded-Host"),
			Body:      string(body),
		})
	}))
}

func serve(mux *http.ServeMux, req *http.Request) (*httptest.ResponseRecorder, seen) {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	var s seen
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	return w, s
}

func TestProxy_Forwarding(t *testing.T) {
	Convey("Given a proxy in front of a fake gateway", t, func() {
		upstream := newUpstream()
		defer upstream.Close()

		p, err := gateway.New("/proxy-api", upstream.URL)
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		So(p.Register(context.Background(), mux), ShouldBeNil)

		Convey("When a prefixed request arrives", func() {
			req := httptest.NewRequest(http.MethodGet, "http://app.local/proxy-api/api/v1/login_nonce?address=0xabc", nil)
			w, got := serve(mux, req)

			Convey("Then the prefix is stripped and the query kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(got.Method, ShouldEqual, http.MethodGet)
				So(got.Path, ShouldEqual, "/api/v1/login_nonce")
				So(got.Query, ShouldEqual, "address=0xabc")
			})

			Convey("And the upstream sees its own host plus forwarding headers", func() {
				So(got.Host, ShouldEqual, upstream.Listener.Addr().String())
				So(got.Forwarded, ShouldEqual, "app.local")
			})

			Convey("And a request id is generated and echoed back", func() {
				So(got.RequestID, ShouldNotBeEmpty)
				So(w.Header().Get(gateway.RequestIDHeader), ShouldEqual, got.RequestID)
			})
		})

		Convey("When the caller supplies a request id", func() {
			req := httptest.NewRequest(http.MethodPost, "/proxy-api/api/v1/login", strings.NewReader(`{"sig":"x"}`))
			req.Header.Set(gateway.RequestIDHeader, "req-123")
			_, got := serve(mux, req)

			Convey("Then it is forwarded untouched along with the body", func() {
				So(got.RequestID, ShouldEqual, "req-123")
				So(got.Method, ShouldEqual, http.MethodPost)
				So(got.Body, ShouldEqual, `{"sig":"x"}`)
			})
		})

		Convey("When the bare prefix is requested", func() {
			_, got := serve(mux, httptest.NewRequest(http.MethodGet, "/proxy-api", nil))

			Convey("Then the upstream root is hit", func() {
				So(got.Path, ShouldEqual, "/")
			})
		})
	})
}

func TestProxy_UpstreamFailures(t *testing.T) {
	Convey("Given a proxy whose gateway is down", t, func() {
		upstream := newUpstream()
		addr := upstream.URL
		upstream.Close()

		p, err := gateway.New("/proxy-api", addr)
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		So(p.Register(context.Background(), mux), ShouldBeNil)

		Convey("When a request is forwarded", func() {
			w, _ := serve(mux, httptest.NewRequest(http.MethodGet, "/proxy-api/api", nil))

			Convey("Then a bad gateway error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_gateway"`)
			})
		})
	})

	Convey("Given a proxy with a short timeout in front of a slow gateway", t, func() {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer slow.Close()

		p, err := gateway.New("/proxy-api", slow.URL, gateway.WithTimeout(50*time.Millisecond))
		So(err, ShouldBeNil)

		Convey("When a request is forwarded", func() {
			w := httptest.NewRecorder()
			p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/proxy-api/slow", nil))

			Convey("Then it times out as a gateway timeout", func() {
				So(w.Code, ShouldEqual, http.StatusGatewayTimeout)
			})
		})
	})
}

func TestProxy_New(t *testing.T) {
	Convey("Given proxy construction", t, func() {
		Convey("When the origin has no scheme", func() {
			_, err := gateway.New("/proxy-api", "gateway.chia1104.dev")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, gateway.ErrInvalidOrigin), ShouldBeTrue)
			})
		})

		Convey("When the prefix is relative", func() {
			_, err := gateway.New("proxy-api", "https://gateway.chia1104.dev")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, gateway.ErrInvalidPrefix), ShouldBeTrue)
			})
		})

		Convey("When the prefix cannot be mounted on a ServeMux", func() {
			Convey("Then it is rejected before anything is registered", func() {
				for _, prefix := range []string{"/", "/proxy api", "/proxy\tapi", "/proxy-{x}", "/proxy-}", "/a\x7fb"} {
					_, err := gateway.New(prefix, "https://gateway.chia1104.dev")
					So(errors.Is(err, gateway.ErrInvalidPrefix), ShouldBeTrue)
				}
			})
		})

		Convey("When the prefix is one of the server's own routes", func() {
			Convey("Then it is rejected", func() {
				for _, prefix := range gateway.ReservedRoutes {
					_, err := gateway.New(prefix, "https://gateway.chia1104.dev")
					So(errors.Is(err, gateway.ErrInvalidPrefix), ShouldBeTrue)
				}
			})
		})

		Convey("When the mux already routes the prefix", func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/edge", func(http.ResponseWriter, *http.Request) {})
			p, err := gateway.New("/edge", "https://gateway.chia1104.dev")
			So(err, ShouldBeNil)

			Convey("Then Register fails instead of panicking", func() {
				var regErr error
				So(func() { regErr = p.Register(context.Background(), mux) }, ShouldNotPanic)
				So(errors.Is(regErr, gateway.ErrInvalidPrefix), ShouldBeTrue)
			})
		})

		Convey("When the mux already routes the subtree", func() {
			mux := http.NewServeMux()
			mux.HandleFunc("/edge/", func(http.ResponseWriter, *http.Request) {})
			p, err := gateway.New("/edge", "https://gateway.chia1104.dev")
			So(err, ShouldBeNil)

			Convey("Then Register fails", func() {
				So(errors.Is(p.Register(context.Background(), mux), gateway.ErrInvalidPrefix), ShouldBeTrue)
			})
		})

		Convey("When built with a trailing-slash prefix", func() {
			p, err := gateway.New("/proxy-api/", "https://gateway.chia1104.dev/")

			Convey("Then the prefix is normalized", func() {
				So(err, ShouldBeNil)
				So(p.Prefix(), ShouldEqual, "/proxy-api")
			})

			Convey("And upstream paths strip exactly the prefix", func() {
				So(p.UpstreamPath("/proxy-api/api/v1/x"), ShouldEqual, "/api/v1/x")
				So(p.UpstreamPath("/proxy-api"), ShouldEqual, "/")
				So(p.UpstreamPath("/proxy-apix/y"), ShouldEqual, "/proxy-apix/y")
				So(p.UpstreamPath("/other"), ShouldEqual, "/other")
			})
		})
	})
}
