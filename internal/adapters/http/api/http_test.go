package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/dodgy/internal/adapters/http/api"
	"github.com/okian/dodgy/internal/adapters/repository"
	service "github.com/okian/dodgy/internal/app"
	"github.com/okian/dodgy/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const postedLeaderboard = `{"entries": [
  {"effort_id": 3, "activity_id": 30, "distance": 1000, "elapsed_time": 200, "average_watts": 250, "average_hr": 150, "rank": 3},
  {"effort_id": 1, "activity_id": 10, "distance": 1000, "elapsed_time": 100, "average_watts": 320, "average_hr": 170, "rank": 1},
  {"effort_id": 2, "activity_id": 20, "distance": 1000, "elapsed_time": 101, "average_watts": 300, "average_hr": 160, "rank": 2}
]}`

// mockAnalyzer records the calls it receives.
type mockAnalyzer struct {
	report  *service.Report
	err     error
	lastTop int
	raws    []model.RawEffort
}

func (m *mockAnalyzer) Analyze(_ context.Context, raws []model.RawEffort, topN int) (*service.Report, error) {
	m.raws = raws
	m.lastTop = topN
	return m.report, m.err
}

func (m *mockAnalyzer) AnalyzeSource(_ context.Context, topN int) (*service.Report, error) {
	m.lastTop = topN
	return m.report, m.err
}

func newMux(a api.Analyzer) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(a, 100).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.NewDecoder(w.Body).Decode(&out)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockAnalyzer{report: &service.Report{RunID: "r"}})

		Convey("When GET /healthz is requested", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"status":"ok"}`)
			})
		})

		Convey("When GET /metrics is requested after some traffic", func() {
			do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")

			Convey("Then the Prometheus exposition includes HTTP counters", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "dodgy_leaderboard_http_requests_total")
			})
		})
	})
}

func TestScoreHandler(t *testing.T) {
	Convey("Given a score handler backed by a mock analyzer", t, func() {
		analyzer := &mockAnalyzer{report: &service.Report{RunID: "run-1", Scorers: []string{"time_deviation"}}}
		mux := newMux(analyzer)

		Convey("When a leaderboard is posted", func() {
			w := do(mux, http.MethodPost, "/score?top=5", postedLeaderboard)

			Convey("Then the entries and cut-off reach the analyzer", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(analyzer.raws, ShouldHaveLength, 3)
				So(analyzer.lastTop, ShouldEqual, 5)
			})

			Convey("Then the report is returned", func() {
				var report service.Report
				So(json.NewDecoder(w.Body).Decode(&report), ShouldBeNil)
				So(report.RunID, ShouldEqual, "run-1")
			})
		})

		Convey("When no cut-off is given", func() {
			do(mux, http.MethodPost, "/score", postedLeaderboard)

			Convey("Then the service default is requested", func() {
				So(analyzer.lastTop, ShouldEqual, -1)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/score", "{nope")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the cut-off is invalid", func() {
			w := do(mux, http.MethodPost, "/score?top=abc", postedLeaderboard)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the cut-off exceeds the maximum", func() {
			w := do(mux, http.MethodPost, "/score?top=101", postedLeaderboard)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("When the method is GET", func() {
			w := do(mux, http.MethodGet, "/score", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
		})

		Convey("When the analyzer fails", func() {
			analyzer.err = errors.New("boom")
			w := do(mux, http.MethodPost, "/score", postedLeaderboard)

			Convey("Then it is an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["message"], ShouldEqual, "boom")
			})
		})
	})

	Convey("Given a score handler backed by a fail-fast service", t, func() {
		mux := newMux(service.New(service.WithFailFast(true)))

		Convey("When a record has no elapsed time", func() {
			w := do(mux, http.MethodPost, "/score", `{"entries": [{"effort_id": 1, "distance": 1000, "rank": 1}]}`)

			Convey("Then it is unprocessable", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w)["code"], ShouldEqual, "malformed_record")
			})
		})
	})

	Convey("Given a score handler backed by the real service", t, func() {
		mux := newMux(service.New(service.WithWorkerCount(2)))

		Convey("When a leaderboard is posted", func() {
			w := do(mux, http.MethodPost, "/score", postedLeaderboard)

			Convey("Then efforts are scored in rank order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report service.Report
				So(json.NewDecoder(w.Body).Decode(&report), ShouldBeNil)
				So(report.Efforts, ShouldHaveLength, 3)
				So(report.Efforts[0].EffortID, ShouldEqual, int64(1))
				So(report.Efforts[0].EffortSpeed, ShouldAlmostEqual, 36.0, 1e-9)
				So(report.Efforts[1].Score, ShouldEqual, 1.0)
				So(report.Efforts[2].Score, ShouldEqual, 0.0)
			})
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard handler over a static source", t, func() {
		var raws []model.RawEffort
		So(json.Unmarshal([]byte(`[
			{"effort_id": 1, "activity_id": 10, "distance": 1000, "elapsed_time": 100, "rank": 1},
			{"effort_id": 2, "activity_id": 20, "distance": 1000, "elapsed_time": 110, "rank": 2}
		]`), &raws), ShouldBeNil)
		mux := newMux(service.New(service.WithSource(repository.StaticSource(raws))))

		Convey("When the leaderboard is requested with a cut-off", func() {
			w := do(mux, http.MethodGet, "/leaderboard?top=1", "")

			Convey("Then only the top ranks are scored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report service.Report
				So(json.NewDecoder(w.Body).Decode(&report), ShouldBeNil)
				So(report.Efforts, ShouldHaveLength, 1)
				So(report.Efforts[0].HasHeartRate(), ShouldBeFalse)
			})
		})

		Convey("When the method is POST", func() {
			w := do(mux, http.MethodPost, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a leaderboard handler with no source", t, func() {
		mux := newMux(service.New())

		Convey("When the leaderboard is requested", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "no_source")
			})
		})
	})
}
