package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "scoreboard")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording mutations", func() {
			m.RecordMutation("add_team")
			m.RecordMutation("add_team")
			m.RecordMutationError("add_team", "duplicate_name")

			Convey("Then counters should reflect them", func() {
				So(testutil.ToFloat64(m.mutations.WithLabelValues("add_team")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.mutationErrors.WithLabelValues("add_team", "duplicate_name")), ShouldEqual, 1)
			})
		})

		Convey("When recording a reveal lifecycle", func() {
			So(m.RecordRevealRun(OutcomeStarted), ShouldBeNil)
			So(testutil.ToFloat64(m.revealActive), ShouldEqual, 1)
			So(m.RecordRevealRun(OutcomeCancelled), ShouldBeNil)

			Convey("Then the active gauge returns to zero", func() {
				So(testutil.ToFloat64(m.revealActive), ShouldEqual, 0)
				So(testutil.ToFloat64(m.revealRuns.WithLabelValues(OutcomeStarted)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.revealRuns.WithLabelValues(OutcomeCancelled)), ShouldEqual, 1)
			})
		})

		Convey("When recording an unknown outcome", func() {
			err := m.RecordRevealRun("exploded")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ErrUnknownOutcome), ShouldBeTrue)
			})
		})

		Convey("When recording repository operations", func() {
			m.RecordRepositoryOperation("load", "csv", nil, 1.5)
			m.RecordRepositoryOperation("load", "csv", errors.New("bad"), 0.5)

			Convey("Then results are split by outcome", func() {
				So(testutil.ToFloat64(m.repositoryOps.WithLabelValues("load", "csv", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.repositoryOps.WithLabelValues("load", "csv", "error")), ShouldEqual, 1)
			})
		})

		Convey("When metrics are disabled", func() {
			disabled := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
			disabled.RecordRevealStep("cell")

			Convey("Then nothing is recorded", func() {
				So(testutil.ToFloat64(disabled.revealSteps.WithLabelValues("cell")), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package-level helpers should not panic", func() {
			So(func() {
				RecordMutation("set_score")
				RecordMutationError("set_score", "index_out_of_range")
				UpdateDocumentShape(3, 2)
				RecordRepositoryOperation("save", "json", nil, 2)
				RecordRevealStep("total")
				UpdateDisplayClients(1)
				RecordHTTPRequest("scoreboard", "GET", "200", 1)
				RecordErrorByEndpoint("teams", "POST", "client_error")
				UpdateSystem(1024, 10)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
