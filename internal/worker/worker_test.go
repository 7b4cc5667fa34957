package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPoolRun(t *testing.T) {
	Convey("Given a pool of three workers", t, func() {
		pool := NewPool(3, WithName("test"))
		ctx := context.Background()

		Convey("When every job succeeds", func() {
			out := make([]int, 10)
			errs, err := pool.Run(ctx, len(out), func(_ context.Context, i int) error {
				out[i] = i * i
				return nil
			})

			Convey("Then each index is processed exactly once", func() {
				So(err, ShouldBeNil)
				So(errs, ShouldBeNil)
				So(out, ShouldResemble, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81})
			})
		})

		Convey("When some jobs fail", func() {
			boom := errors.New("boom")
			errs, err := pool.Run(ctx, 4, func(_ context.Context, i int) error {
				if i%2 == 1 {
					return boom
				}
				return nil
			})

			Convey("Then errors are reported at their index", func() {
				So(err, ShouldBeNil)
				So(errs, ShouldHaveLength, 4)
				So(errs[0], ShouldBeNil)
				So(errs[1], ShouldEqual, boom)
				So(errs[2], ShouldBeNil)
				So(errs[3], ShouldEqual, boom)
			})
		})

		Convey("When there is nothing to do", func() {
			errs, err := pool.Run(ctx, 0, func(context.Context, int) error { return nil })

			Convey("Then it returns immediately", func() {
				So(err, ShouldBeNil)
				So(errs, ShouldBeNil)
			})
		})

		Convey("When the context is cancelled mid-run", func() {
			cctx, cancel := context.WithCancel(ctx)
			var started atomic.Int32
			_, err := pool.Run(cctx, 1000, func(context.Context, int) error {
				if started.Add(1) == 5 {
					cancel()
				}
				time.Sleep(time.Millisecond)
				return nil
			})

			Convey("Then dispatch stops and the cancellation is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(int(started.Load()), ShouldBeLessThan, 1000)
			})
		})
	})
}

func TestNewPoolDefaults(t *testing.T) {
	Convey("Given a non-positive size", t, func() {
		pool := NewPool(0)

		Convey("Then at least one worker is configured", func() {
			So(pool.Size(), ShouldBeGreaterThan, 0)
		})
	})
}
