package config_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"plinth/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.PoolMaxConns, convey.ShouldEqual, 8)
			convey.So(cfg.PoolAcquireTimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.ListLimit, convey.ShouldEqual, 100)
			convey.So(cfg.MigrateOnStart, convey.ShouldBeTrue)
		})
	})
}
