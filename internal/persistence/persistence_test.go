package persistence_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/config"
	"github.com/spec-kit/gig-service/internal/persistence"
)

func TestConnections(t *testing.T) {
	Convey("Given no connection settings", t, func() {
		ctx := context.Background()
		logger := zap.NewNop()

		Convey("Redis stays disabled and its nil handle is safe", func() {
			r := persistence.NewRedis(ctx, config.RedisConfig{}, logger)
			So(r, ShouldBeNil)
			So(r.Ping(ctx), ShouldNotBeNil)
			r.Close()
		})

		Convey("Postgres refuses an empty DSN", func() {
			_, err := persistence.NewPostgres(ctx, config.PostgresConfig{}, logger)
			So(err, ShouldNotBeNil)

			var p *persistence.Postgres
			So(p.Ping(ctx), ShouldNotBeNil)
			p.Close()
		})

		Convey("Migrations are skipped without a pool", func() {
			So(persistence.RunMigrations(ctx, nil, "does-not-matter", logger), ShouldBeNil)
		})
	})
}
