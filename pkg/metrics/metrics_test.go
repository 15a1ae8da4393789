package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When created with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should register its collectors", func() {
				So(manager, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When created with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("testns"),
				WithSubsystem("testsub"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline events", func() {
			So(func() {
				RecordAnnouncementReceived()
				RecordAnnouncementSkipped("already_processed")
				RecordDayProcessed()
				RecordParticipantsRated(4)
				RecordResolutionGap()
				RecordPersistenceError()
				RecordRatingDelta(12)
				RecordPipelineDuration(3.5)
			}, ShouldNotPanic)
		})

		Convey("When updating gauges and queue counters", func() {
			So(func() {
				UpdatePlayersTracked(10)
				UpdatePlayersInactive(2)
				UpdateQueueSize(1)
				UpdateQueueCapacity(64)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and repository timings", func() {
			So(func() {
				RecordHTTPRequest("announcements", "POST", "202")
				RecordHTTPRequestDuration("announcements", "POST", "202", 1.2)
				RecordRepositoryWriteLatency(0.4)
				RecordRepositoryQueryLatency(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the registry should expose gathered families", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
