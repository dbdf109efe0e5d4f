package config_test

import (
	"testing"
	"time"

	"github.com/okian/prefixd/internal/config"
	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/internal/domain/target"
	"github.com/okian/prefixd/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.ProxyPrefix, convey.ShouldEqual, "/proxy-api")
			convey.So(cfg.GatewayOrigin, convey.ShouldEqual, "https://gateway.chia1104.dev")
			convey.So(cfg.SelfAPIOrigin, convey.ShouldEqual, "")
			convey.So(cfg.EnableProxy, convey.ShouldBeTrue)
			convey.So(cfg.UpstreamTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 100)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "prefixd")
			convey.So(cfg.MetricsRefreshMS, convey.ShouldEqual, 10_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then its resolver options reproduce the compiled-in rules", func() {
			r := resolver.New(cfg.ResolverOptions()...)
			convey.So(r.Resolve("/api/v1/login_nonce", target.Proxy), convey.ShouldEqual, "/proxy-api/api/v1/login_nonce")
			convey.So(r.Resolve("api/v1/login_nonce", target.External), convey.ShouldEqual, "https://gateway.chia1104.dev/api/v1/login_nonce")
			convey.So(r.Resolve("/api/v1/login_nonce", target.SelfAPI), convey.ShouldEqual, "/api/v1/login_nonce")
		})
	})
}

func TestConfig_MetricsOptions(t *testing.T) {
	convey.Convey("Given a config with metrics settings", t, func() {
		cfg := config.New()
		cfg.MetricsEnabled = false
		cfg.MetricsNamespace = "edge"
		cfg.MetricsRefreshMS = 2500
		cfg.MetricsLabels = "env=prod, region = eu"
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		registry := prometheus.NewRegistry()
		m := metrics.NewManager(append(cfg.MetricsOptions(), metrics.WithRegistry(registry))...)

		convey.Convey("Then the manager follows them", func() {
			convey.So(m.Enabled(), convey.ShouldBeFalse)
			convey.So(m.RefreshInterval(), convey.ShouldEqual, 2500*time.Millisecond)

			families, err := registry.Gather()
			convey.So(err, convey.ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			convey.So(names, convey.ShouldContain, "edge_system_memory_usage_bytes")
		})
	})
}
