package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector should be registered on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.gatewayRequests.WithLabelValues("probe", "ok").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_gateway_requests_total"], ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording gateway outcomes", func() {
			before := value(globalManager.gatewayRequests.WithLabelValues("PGCR", "ok"))
			RecordGatewayRequest("PGCR", "ok")
			RecordGatewayRequest("PGCR", "ok")
			RecordGatewayLatency("PGCR", 42)

			Convey("Then the counter should advance", func() {
				after := value(globalManager.gatewayRequests.WithLabelValues("PGCR", "ok"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording throttle waits", func() {
			before := value(globalManager.throttleWaits)
			RecordThrottleWait(250)

			Convey("Then the wait counter should advance", func() {
				So(value(globalManager.throttleWaits)-before, ShouldEqual, 1)
			})
		})

		Convey("When updating reference table sizes", func() {
			UpdateReferenceTableSize("items", 1234)
			RecordReferenceTableLoad("items", 12, true)
			RecordReferenceTableLoad("milestones", 5, false)

			Convey("Then the gauge should hold the last value", func() {
				So(value(globalManager.tableSize.WithLabelValues("items")), ShouldEqual, 1234)
				So(value(globalManager.tableLoadFailures.WithLabelValues("milestones")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording aggregation and executor metrics", func() {
			So(func() {
				RecordReportFetched()
				RecordReportFailed()
				RecordReportFiltered("incomplete")
				RecordSummariesEmitted(3)
				RecordItemsNormalized("equipment", 4)
				RecordItemDropped("unknown_item")
				UpdateExecutorQueueSize(7)
				UpdateExecutorWorkers(8)
				RecordTaskLatency(15)
				RecordHTTPRequest("items", "GET", "200")
				RecordHTTPRequestDuration("items", "GET", "200", 3)
				RecordHTTPError("items", "upstream_error")
			}, ShouldNotPanic)
		})

		Convey("When updating system gauges", func() {
			UpdateSystemMemoryUsage(4096)
			UpdateSystemGoroutineCount(12)
			UpdateSystemGCPause(0.5)
			UpdateAccountsStored(3)

			Convey("Then the gauges hold the last value", func() {
				So(value(globalManager.memoryUsage), ShouldEqual, 4096)
				So(value(globalManager.goroutineCount), ShouldEqual, 12)
				So(value(globalManager.gcPauseMs), ShouldEqual, 0.5)
				So(value(globalManager.accountsStored), ShouldEqual, 3)
			})
		})

		Convey("When fetching the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

// value reads the current value of a counter or gauge.
func value(c prometheus.Metric) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	if m.Gauge != nil {
		return m.Gauge.GetValue()
	}
	return -1
}
