package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/dodgy/internal/adapters/repository"
	"github.com/okian/dodgy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleLeaderboard = `{
  "effort_count": 4,
  "entry_count": 4,
  "entries": [
    {"effort_id": 3, "activity_id": 30, "distance": 1000, "elapsed_time": 130, "average_watts": null, "average_hr": 150, "rank": 3},
    {"effort_id": 1, "activity_id": 10, "distance": 1000, "elapsed_time": 100, "average_watts": 320, "average_hr": 170, "rank": 1},
    {"effort_id": 4, "activity_id": 40, "distance": 1000, "elapsed_time": 140, "average_watts": null, "average_hr": null, "rank": 4},
    {"effort_id": 2, "activity_id": 20, "distance": 1000, "elapsed_time": 120, "average_watts": 300, "average_hr": null, "rank": 2}
  ]
}`

func entry(id int64, rank int) model.RawEffort {
	return model.RawEffort{EffortID: id, Rank: rank, Distance: model.Float64(1000), ElapsedTime: model.Float64(100)}
}

func TestFileSource(t *testing.T) {
	Convey("Given a leaderboard file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "leaderboard.json")
		So(os.WriteFile(path, []byte(sampleLeaderboard), 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			entries, err := repository.NewFileSource(path).Load(ctx)

			Convey("Then every entry is returned in file order", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 4)
				So(entries[0].EffortID, ShouldEqual, int64(3))
				So(entries[0].AverageWatts, ShouldBeNil)
				So(*entries[1].AverageWatts, ShouldEqual, 320.0)
			})
		})

		Convey("When the path does not exist", func() {
			_, err := repository.NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Load(ctx)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})

		Convey("When no path is configured", func() {
			_, err := repository.NewFileSource("").Load(ctx)
			So(errors.Is(err, repository.ErrNoSource), ShouldBeTrue)
		})

		Convey("When the file is not valid JSON", func() {
			bad := filepath.Join(t.TempDir(), "bad.json")
			So(os.WriteFile(bad, []byte(`{"entries": [`), 0o600), ShouldBeNil)
			_, err := repository.NewFileSource(bad).Load(ctx)
			So(errors.Is(err, repository.ErrDecode), ShouldBeTrue)
		})
	})
}

func TestDecodeLeaderboard(t *testing.T) {
	Convey("Given an envelope without entries", t, func() {
		entries, err := repository.DecodeLeaderboard(strings.NewReader(`{"effort_count": 0}`))

		Convey("Then it decodes to an empty leaderboard", func() {
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})
}

func TestSelect(t *testing.T) {
	Convey("Given unsorted leaderboard entries", t, func() {
		entries := []model.RawEffort{entry(30, 3), entry(11, 11), entry(10, 1), entry(20, 2), entry(40, 10)}

		Convey("When selecting the top 10", func() {
			selected, rejected := repository.Select(entries, 10)

			Convey("Then entries are ordered by rank and filtered by rank value", func() {
				So(rejected, ShouldBeEmpty)
				So(selected, ShouldHaveLength, 4)
				ranks := []int{}
				for _, e := range selected {
					ranks = append(ranks, e.Rank)
				}
				So(ranks, ShouldResemble, []int{1, 2, 3, 10})
			})

			Convey("Then the input is left untouched", func() {
				So(entries[0].Rank, ShouldEqual, 3)
			})
		})

		Convey("When topN is zero", func() {
			selected, _ := repository.Select(entries, 0)

			Convey("Then all ranks are kept", func() {
				So(selected, ShouldHaveLength, 5)
				So(selected[4].Rank, ShouldEqual, 11)
			})
		})
	})

	Convey("Given entries repeating an effort_id", t, func() {
		entries := []model.RawEffort{entry(1, 1), entry(2, 2), entry(1, 3)}
		selected, rejected := repository.Select(entries, 0)

		Convey("Then the later duplicate is rejected", func() {
			So(selected, ShouldHaveLength, 2)
			So(rejected, ShouldHaveLength, 1)
			So(rejected[0].Rank, ShouldEqual, 3)
			So(rejected[0].Reason, ShouldStartWith, repository.ReasonDuplicate)
		})
	})

	Convey("Given a static source", t, func() {
		src := repository.StaticSource{entry(1, 1)}
		got, err := src.Load(context.Background())

		Convey("Then Load returns a copy", func() {
			So(err, ShouldBeNil)
			got[0].Rank = 99
			So(src[0].Rank, ShouldEqual, 1)
		})
	})
}
