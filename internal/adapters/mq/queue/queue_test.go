package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/guessrank/guessrank/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryQueue(t *testing.T) {
	Convey("Given a bounded memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueueing within capacity", func() {
			ok := q.Enqueue(ctx, queue.Announcement{MessageID: "m1"})

			Convey("Then the announcement is buffered", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, queue.Announcement{MessageID: "m1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Announcement{MessageID: "m2"}), ShouldBeTrue)

			Convey("Then further enqueues are rejected", func() {
				So(q.Enqueue(ctx, queue.Announcement{MessageID: "m3"}), ShouldBeFalse)
			})
		})

		Convey("When dequeuing", func() {
			So(q.Enqueue(ctx, queue.Announcement{MessageID: "m1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Announcement{MessageID: "m2"}), ShouldBeTrue)

			ch := q.Dequeue(ctx)

			Convey("Then announcements arrive in order", func() {
				first := <-ch
				second := <-ch
				So(first.MessageID, ShouldEqual, "m1")
				So(second.MessageID, ShouldEqual, "m2")
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, queue.Announcement{MessageID: "m1"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues fail and the dequeue channel drains then closes", func() {
				So(q.Enqueue(ctx, queue.Announcement{MessageID: "m2"}), ShouldBeFalse)

				ch := q.Dequeue(ctx)
				a, ok := <-ch
				So(ok, ShouldBeTrue)
				So(a.MessageID, ShouldEqual, "m1")

				select {
				case _, ok := <-ch:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					t.Fatal("dequeue channel did not close")
				}
			})

			Convey("And closing again is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
