package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/guessrank/guessrank/internal/adapters/http/api"
	"github.com/guessrank/guessrank/internal/app"
	"github.com/guessrank/guessrank/internal/config"
	"github.com/guessrank/guessrank/pkg/logger"
	"github.com/guessrank/guessrank/pkg/metrics"
)

// The service must satisfy the handler dependency bundle.
var _ api.Dependencies = (*app.Service)(nil)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("GUESSRANK_ADDR", ":8080")
			_ = os.Setenv("GUESSRANK_QUEUE_SIZE", "1000")
			_ = os.Setenv("GUESSRANK_K_FACTOR", "24")
			defer func() {
				_ = os.Unsetenv("GUESSRANK_ADDR")
				_ = os.Unsetenv("GUESSRANK_QUEUE_SIZE")
				_ = os.Unsetenv("GUESSRANK_K_FACTOR")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.KFactor, convey.ShouldEqual, 24.0)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithKFactor(24),
					app.WithQueueSize(2000),
					app.WithDedupeSize(1000),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := app.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, svc, 100)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager()
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given the service metrics updater", t, func() {
		svc := app.New()
		convey.So(svc, convey.ShouldNotBeNil)

		convey.Convey("Then it should run and stop with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startServiceMetricsUpdater(ctx, svc)
			}, convey.ShouldNotPanic)
		})
	})
}
