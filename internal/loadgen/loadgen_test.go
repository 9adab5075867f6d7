package loadgen_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/riskpoll/internal/adapters/http/api"
	"github.com/okian/riskpoll/internal/adapters/repository"
	service "github.com/okian/riskpoll/internal/app"
	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/internal/domain/report"
	"github.com/okian/riskpoll/internal/loadgen"
	"github.com/okian/riskpoll/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(
		service.WithLogger(logger.Nop()),
		service.WithStoreOptions(repository.Options{
			Backend:  repository.BackendFile,
			DataFile: filepath.Join(t.TempDir(), "data.json"),
		}),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestGenerate(t *testing.T) {
	Convey("Given the generator", t, func() {
		subs := loadgen.Generate(200)

		Convey("Then every submission should be within the generated ranges", func() {
			So(subs, ShouldHaveLength, 200)
			for _, s := range subs {
				So(s.RiskPercentage, ShouldNotBeEmpty)
				So(s.Age, ShouldBeBetweenOrEqual, 0.0, 160.0)
			}
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given load run configs", t, func() {
		ok := loadgen.Config{BaseURL: "http://x", Submissions: 1, Timeout: time.Second}
		So(ok.Validate(), ShouldBeNil)

		noURL := ok
		noURL.BaseURL = ""
		So(noURL.Validate(), ShouldNotBeNil)

		none := ok
		none.Submissions = 0
		So(none.Validate(), ShouldNotBeNil)

		noTimeout := ok
		noTimeout.Timeout = 0
		So(noTimeout.Validate(), ShouldNotBeNil)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service with a file store", t, func() {
		srv := newServer(t)
		out := filepath.Join(t.TempDir(), "out", "subs.json")
		cfg := &loadgen.Config{
			BaseURL:     srv.URL,
			Submissions: 150,
			Workers:     4,
			Timeout:     5 * time.Second,
			OutputFile:  out,
		}

		Convey("When a load run is executed", func() {
			stats, err := loadgen.Run(context.Background(), cfg, logger.Nop())

			Convey("Then every submission should be accepted and the report verified", func() {
				So(err, ShouldBeNil)
				So(stats.Backend, ShouldEqual, repository.BackendFile)
				So(stats.Generated, ShouldEqual, 150)
				So(stats.Successful, ShouldEqual, 150)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.SuccessRate(), ShouldEqual, 100)
				So(stats.RunID, ShouldNotBeEmpty)
			})

			Convey("And the generated submissions should be written out", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var subs []model.Submission
				So(json.Unmarshal(data, &subs), ShouldBeNil)
				So(subs, ShouldHaveLength, 150)
			})

			Convey("And a second run on top should still verify", func() {
				_, err := loadgen.Run(context.Background(), cfg, logger.Nop())
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a run that serves its own metrics", t, func() {
		srv := newServer(t)
		cfg := &loadgen.Config{
			BaseURL:     srv.URL,
			Submissions: 20,
			Workers:     2,
			Timeout:     5 * time.Second,
			MetricsAddr: "127.0.0.1:0",
		}

		Convey("When the run completes", func() {
			_, err := loadgen.Run(context.Background(), cfg, logger.Nop())
			So(err, ShouldBeNil)

			Convey("Then the queue and worker metrics should be exposed", func() {
				w := httptest.NewRecorder()
				loadgen.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "riskpoll_survey_queue_enqueue_total")
				So(w.Body.String(), ShouldContainSubstring, "riskpoll_survey_worker_processing_latency_milliseconds")
			})
		})
	})

	Convey("Given a metrics address that cannot be bound", t, func() {
		cfg := &loadgen.Config{BaseURL: "http://127.0.0.1:1", Submissions: 1, Timeout: time.Second, MetricsAddr: "bad::addr"}

		Convey("Then the run should fail before sending", func() {
			_, err := loadgen.Run(context.Background(), cfg, logger.Nop())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "metrics listener")
		})
	})

	Convey("Given no service listening", t, func() {
		cfg := &loadgen.Config{BaseURL: "http://127.0.0.1:1", Submissions: 1, Timeout: 200 * time.Millisecond}

		Convey("Then the run should fail the health check", func() {
			_, err := loadgen.Run(context.Background(), cfg, nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a baseline report and accepted submissions", t, func() {
		b := report.NewBuilder()
		base := model.NewGroupsBuilder()
		base.Add("70", model.Record{Gender: "male", Age: 45})
		before := b.Build(base.Groups())

		accepted := model.NewGroupsBuilder()
		accepted.Add("70", model.Record{Gender: "female", Age: 10})
		accepted.Add("20", model.Record{Gender: "", Age: 61})

		Convey("When the server report moved by exactly those", func() {
			all := model.NewGroupsBuilder()
			all.Add("70", model.Record{Gender: "male", Age: 45}, model.Record{Gender: "female", Age: 10})
			all.Add("20", model.Record{Gender: "", Age: 61})
			after := b.Build(all.Groups())

			Convey("Then verification should pass", func() {
				So(loadgen.Verify(before, after, accepted.Groups()), ShouldBeNil)
			})
		})

		Convey("When one accepted submission is missing from the report", func() {
			all := model.NewGroupsBuilder()
			all.Add("70", model.Record{Gender: "male", Age: 45}, model.Record{Gender: "female", Age: 10})
			after := b.Build(all.Groups())

			Convey("Then verification should report a mismatch", func() {
				err := loadgen.Verify(before, after, accepted.Groups())
				So(errors.Is(err, loadgen.ErrMismatch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, `row "20" missing`)
			})
		})

		Convey("When the report counted a submission twice", func() {
			all := model.NewGroupsBuilder()
			all.Add("70", model.Record{Gender: "male", Age: 45}, model.Record{Gender: "female", Age: 10}, model.Record{Gender: "female", Age: 10})
			all.Add("20", model.Record{Gender: "", Age: 61})
			after := b.Build(all.Groups())

			Convey("Then verification should report a mismatch", func() {
				So(errors.Is(loadgen.Verify(before, after, accepted.Groups()), loadgen.ErrMismatch), ShouldBeTrue)
			})
		})
	})
}
