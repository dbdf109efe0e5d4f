package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped by the metrics middleware", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.WriteHeader(http.StatusOK)
		}, "test")

		Convey("When it writes a status", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then the first status reaches the client", func() {
				So(w.Code, ShouldEqual, http.StatusTeapot)
			})
		})
	})
}

func TestErrorClassification(t *testing.T) {
	Convey("Given HTTP status codes", t, func() {
		Convey("Then they map to error types", func() {
			So(getErrorType(http.StatusBadGateway), ShouldEqual, "upstream_error")
			So(getErrorType(http.StatusInternalServerError), ShouldEqual, "server_error")
			So(getErrorType(http.StatusTooManyRequests), ShouldEqual, "rate_limit")
			So(getErrorType(http.StatusNotFound), ShouldEqual, "not_found")
			So(getErrorType(http.StatusMethodNotAllowed), ShouldEqual, "method_not_allowed")
			So(getErrorType(http.StatusBadRequest), ShouldEqual, "client_error")
			So(getErrorType(http.StatusOK), ShouldEqual, "unknown")
		})

		Convey("Then they map to severities", func() {
			So(getErrorSeverity(http.StatusServiceUnavailable), ShouldEqual, "high")
			So(getErrorSeverity(http.StatusConflict), ShouldEqual, "medium")
			So(getErrorSeverity(http.StatusOK), ShouldEqual, "low")
		})
	})
}
