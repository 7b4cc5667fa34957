package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/dodgy/internal/adapters/repository"
	service "github.com/okian/dodgy/internal/app"
	"github.com/okian/dodgy/internal/domain/enrich"
	"github.com/okian/dodgy/internal/domain/model"
	"github.com/okian/dodgy/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func raw(id int64, rank int, elapsed float64) model.RawEffort {
	return model.RawEffort{
		EffortID:     id,
		ActivityID:   id * 10,
		Distance:     model.Float64(1000),
		ElapsedTime:  model.Float64(elapsed),
		AverageWatts: model.Float64(300),
		AverageHR:    model.Float64(160),
		Rank:         rank,
	}
}

// constScorer contributes the same value to every effort.
type constScorer struct {
	key   string
	value float64
}

func (c constScorer) Key() string { return c.key }

func (c constScorer) Score(context.Context, model.EnrichedEffort, int, []model.EnrichedEffort) float64 {
	return c.value
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.TopN(), ShouldEqual, 10)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithTopN(0),
			service.WithFailFast(true),
		)

		Convey("Then the options are applied", func() {
			So(svc.TopN(), ShouldEqual, 0)
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a service with the default scorer", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2))

		Convey("When a shuffled leaderboard is analyzed", func() {
			raws := []model.RawEffort{raw(3, 3, 200), raw(1, 1, 100), raw(2, 2, 101)}
			report, err := svc.Analyze(ctx, raws, -1)

			Convey("Then efforts come back in rank order with speeds and scores", func() {
				So(err, ShouldBeNil)
				So(report.RunID, ShouldNotBeEmpty)
				So(report.Scorers, ShouldResemble, []string{scoring.TimeDeviationKey})
				So(report.Efforts, ShouldHaveLength, 3)
				So(report.Efforts[0].EffortID, ShouldEqual, int64(1))
				So(report.Efforts[0].EffortSpeed, ShouldAlmostEqual, 36.0, 1e-9)
				So(report.Efforts[0].Score, ShouldEqual, 0.0)
				So(report.Efforts[1].Score, ShouldEqual, 1.0)
				So(report.Efforts[2].Score, ShouldEqual, 0.0)
				So(report.Rejected, ShouldBeEmpty)
			})

			Convey("Then only the rank 2 effort is flagged", func() {
				flagged := report.Flagged()
				So(flagged, ShouldHaveLength, 1)
				So(flagged[0].Rank, ShouldEqual, 2)
			})

			Convey("Then the input is left untouched", func() {
				So(raws[0].EffortID, ShouldEqual, int64(3))
			})
		})

		Convey("When each run is analyzed", func() {
			a, err := svc.Analyze(ctx, []model.RawEffort{raw(1, 1, 100)}, -1)
			So(err, ShouldBeNil)
			b, err := svc.Analyze(ctx, []model.RawEffort{raw(1, 1, 100)}, -1)
			So(err, ShouldBeNil)

			Convey("Then run IDs differ", func() {
				So(a.RunID, ShouldNotEqual, b.RunID)
			})
		})

		Convey("When the leaderboard contains bad and repeated records", func() {
			raws := []model.RawEffort{
				raw(1, 1, 100),
				raw(1, 2, 101),
				raw(3, 3, 0),
				raw(4, 4, 120),
			}
			report, err := svc.Analyze(ctx, raws, 0)

			Convey("Then they are reported and the rest are scored", func() {
				So(err, ShouldBeNil)
				So(report.Efforts, ShouldHaveLength, 2)
				So(report.Rejected, ShouldHaveLength, 2)
				So(report.Rejected[0].EffortID, ShouldEqual, int64(1))
				So(report.Rejected[0].Rank, ShouldEqual, 2)
				So(report.Rejected[1].EffortID, ShouldEqual, int64(3))
			})
		})

		Convey("When a top-N cut-off is requested", func() {
			raws := []model.RawEffort{raw(1, 1, 100), raw(2, 2, 110), raw(3, 3, 120), raw(4, 4, 130)}
			report, err := svc.Analyze(ctx, raws, 2)

			Convey("Then only those ranks are scored", func() {
				So(err, ShouldBeNil)
				So(report.Efforts, ShouldHaveLength, 2)
				So(report.Efforts[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the leaderboard is empty", func() {
			report, err := svc.Analyze(ctx, nil, -1)

			Convey("Then the report is empty", func() {
				So(err, ShouldBeNil)
				So(report.Efforts, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a fail-fast service", t, func() {
		svc := service.New(service.WithFailFast(true))

		Convey("When a record is malformed", func() {
			_, err := svc.Analyze(context.Background(), []model.RawEffort{raw(1, 1, 100), raw(2, 2, -5)}, -1)

			Convey("Then the batch fails", func() {
				So(errors.Is(err, enrich.ErrMalformedRecord), ShouldBeTrue)
				So(errors.Is(err, enrich.ErrUndefinedSpeed), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with custom scorers", t, func() {
		svc := service.New(service.WithScorers(
			constScorer{key: "a", value: 0.5},
			constScorer{key: "b", value: 1.5},
		))

		Convey("When a leaderboard is analyzed", func() {
			report, err := svc.Analyze(context.Background(), []model.RawEffort{raw(1, 1, 100), raw(2, 2, 100)}, -1)

			Convey("Then every contribution is summed in scorer order", func() {
				So(err, ShouldBeNil)
				So(report.Scorers, ShouldResemble, []string{"a", "b"})
				So(report.Efforts[0].Score, ShouldEqual, 2.0)
				So(report.Efforts[0].Breakdown, ShouldHaveLength, 2)
				So(report.Efforts[0].Breakdown[1].Scorer, ShouldEqual, "b")
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := service.New()

		Convey("When a leaderboard is analyzed", func() {
			_, err := svc.Analyze(ctx, []model.RawEffort{raw(1, 1, 100)}, -1)

			Convey("Then the cancellation is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestService_AnalyzeSource(t *testing.T) {
	Convey("Given a service without a source", t, func() {
		svc := service.New()

		Convey("When the source is analyzed", func() {
			_, err := svc.AnalyzeSource(context.Background(), -1)
			So(errors.Is(err, service.ErrNoSource), ShouldBeTrue)
		})
	})

	Convey("Given a service with a static source", t, func() {
		src := repository.StaticSource{raw(2, 2, 101), raw(1, 1, 100), raw(3, 3, 200)}
		svc := service.New(service.WithSource(src))

		Convey("When the source is analyzed", func() {
			report, err := svc.AnalyzeSource(context.Background(), -1)

			Convey("Then it is scored like a direct analysis", func() {
				So(err, ShouldBeNil)
				So(report.Efforts, ShouldHaveLength, 3)
				So(report.Efforts[1].Score, ShouldEqual, 1.0)
			})
		})
	})
}
