package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/circuitbreaker"
)

func TestCircuitBreaker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CircuitBreaker Suite")
}

func testConfig() circuitbreaker.Config {
	return circuitbreaker.Config{
		WindowSize:                5,
		MinimumCalls:              3,
		FailureRateThreshold:      0.5,
		SlowCallRateThreshold:     0.5,
		SlowCallDurationThreshold: 50 * time.Millisecond,
		OpenStateDuration:         100 * time.Millisecond,
		PermittedHalfOpenCalls:    2,
		EvictionQuietPeriod:       time.Hour,
		SweepInterval:             time.Hour,
	}
}

var errBoom = errors.New("boom")

var _ = Describe("CircuitBreaker", func() {
	var cb *circuitbreaker.CircuitBreaker

	Describe("New", func() {
		It("starts in the CLOSED state", func() {
			cb = circuitbreaker.New(testConfig())
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("CLOSED state", func() {
		BeforeEach(func() {
			cb = circuitbreaker.New(testConfig())
		})

		It("allows calls", func() {
			Expect(cb.Allow()).To(BeTrue())
		})

		It("stays closed below MinimumCalls", func() {
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordFailure(time.Millisecond, errBoom)
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("trips to OPEN once the failure rate threshold is reached", func() {
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordSuccess(time.Millisecond)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("trips to OPEN when the slow-call rate threshold is reached", func() {
			cb.RecordSuccess(100 * time.Millisecond)
			cb.RecordSuccess(100 * time.Millisecond)
			cb.RecordSuccess(time.Millisecond)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("stays closed when failures remain below the rate threshold", func() {
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordSuccess(time.Millisecond)
			cb.RecordSuccess(time.Millisecond)
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("OPEN state", func() {
		BeforeEach(func() {
			cb = circuitbreaker.New(testConfig())
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordFailure(time.Millisecond, errBoom)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("rejects calls", func() {
			Expect(cb.Allow()).To(BeFalse())
		})

		It("stays OPEN before OpenStateDuration elapses", func() {
			Expect(cb.Allow()).To(BeFalse())
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("transitions to HALF_OPEN once OpenStateDuration elapses", func() {
			time.Sleep(150 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})

		It("drops outcomes that race a concurrent re-open", func() {
			cb.RecordSuccess(time.Millisecond)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Describe("HALF_OPEN state", func() {
		BeforeEach(func() {
			cb = circuitbreaker.New(testConfig())
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordFailure(time.Millisecond, errBoom)
			cb.RecordFailure(time.Millisecond, errBoom)
			time.Sleep(150 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})

		It("permits up to PermittedHalfOpenCalls probes", func() {
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.Allow()).To(BeFalse())
		})

		It("resets to CLOSED once every probe succeeds", func() {
			cb.Allow()
			cb.RecordSuccess(time.Millisecond)
			cb.RecordSuccess(time.Millisecond)
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("trips back to OPEN if any probe fails", func() {
			cb.Allow()
			cb.RecordSuccess(time.Millisecond)
			cb.RecordFailure(time.Millisecond, errBoom)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Describe("State.String", func() {
		It("renders the three states", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF_OPEN"))
		})
	})
})
