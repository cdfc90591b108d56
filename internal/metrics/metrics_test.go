package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("NewMetrics", func() {
		It("creates an empty metrics instance", func() {
			Expect(m).NotTo(BeNil())
		})
	})

	Describe("RecordPartnerOutcome", func() {
		It("increments the named outcome counter for a partner", func() {
			m.RecordPartnerOutcome("partner-a", "success", 100*time.Millisecond)
			m.RecordPartnerOutcome("partner-a", "success", 200*time.Millisecond)

			snap := m.Snapshot()
			Expect(snap.Partners["partner-a"].Outcomes["success"]).To(Equal(int64(2)))
		})

		It("tracks multiple partners separately", func() {
			m.RecordPartnerOutcome("partner-a", "success", 100*time.Millisecond)
			m.RecordPartnerOutcome("partner-b", "error", 100*time.Millisecond)

			snap := m.Snapshot()
			Expect(snap.Partners["partner-a"].Outcomes["success"]).To(Equal(int64(1)))
			Expect(snap.Partners["partner-b"].Outcomes["error"]).To(Equal(int64(1)))
		})

		It("computes average response time", func() {
			m.RecordPartnerOutcome("partner-a", "success", 100*time.Millisecond)
			m.RecordPartnerOutcome("partner-a", "success", 200*time.Millisecond)

			snap := m.Snapshot()
			Expect(snap.Partners["partner-a"].AvgResponseTime).To(Equal(150 * time.Millisecond))
		})

		It("computes p95 response time", func() {
			for i := 1; i <= 100; i++ {
				m.RecordPartnerOutcome("partner-a", "success", time.Duration(i)*time.Millisecond)
			}

			snap := m.Snapshot()
			Expect(snap.Partners["partner-a"].P95ResponseTime).To(BeNumerically("~", 95*time.Millisecond, time.Millisecond))
		})

		It("caps stored response-time samples at 1000", func() {
			for i := 1; i <= 1500; i++ {
				m.RecordPartnerOutcome("partner-a", "success", time.Duration(i)*time.Millisecond)
			}

			snap := m.Snapshot()
			Expect(snap.Partners["partner-a"].AvgResponseTime).To(BeNumerically(">", 500*time.Millisecond))
		})
	})

	Describe("RecordBreakerOutcome", func() {
		It("tracks breaker success and failure counts separately", func() {
			m.RecordBreakerOutcome("partner-a", true)
			m.RecordBreakerOutcome("partner-a", true)
			m.RecordBreakerOutcome("partner-a", false)

			snap := m.Snapshot()
			Expect(snap.Partners["partner-a"].BreakerSuccess).To(Equal(int64(2)))
			Expect(snap.Partners["partner-a"].BreakerFailure).To(Equal(int64(1)))
		})
	})

	Describe("RecordBroadcast", func() {
		It("tracks total and won counts", func() {
			m.RecordBroadcast(500*time.Millisecond, true)
			m.RecordBroadcast(5000*time.Millisecond, false)

			snap := m.Snapshot()
			Expect(snap.BroadcastsTotal).To(Equal(int64(2)))
			Expect(snap.BroadcastsWon).To(Equal(int64(1)))
		})
	})

	Describe("Snapshot", func() {
		It("includes uptime", func() {
			time.Sleep(10 * time.Millisecond)
			snap := m.Snapshot()
			Expect(snap.Uptime).To(BeNumerically(">", 0))
		})

		It("handles empty metrics", func() {
			snap := m.Snapshot()
			Expect(snap.BroadcastsTotal).To(Equal(int64(0)))
			Expect(snap.Partners).To(BeEmpty())
		})

		It("returns an independent snapshot on each call", func() {
			m.RecordPartnerOutcome("partner-a", "success", time.Millisecond)
			snap1 := m.Snapshot()
			m.RecordPartnerOutcome("partner-a", "success", time.Millisecond)
			snap2 := m.Snapshot()

			Expect(snap1.Partners["partner-a"].Outcomes["success"]).To(Equal(int64(1)))
			Expect(snap2.Partners["partner-a"].Outcomes["success"]).To(Equal(int64(2)))
		})
	})
})
