package partnerclient

// Response is the outcome of one start-charging exchange with a partner,
// whether it came from the wire, a transport failure, or a short-circuited
// breaker rejection.
type Response struct {
	PartnerID          string
	Success            bool
	Status             string
	Message            string
	ResponseTimeMs     int64
	Timeout            bool
	CircuitBreakerOpen bool
}

const (
	statusCircuitBreakerOpen = "CIRCUIT_BREAKER_OPEN"
	statusError              = "ERROR"

	extractNotApplicable = "N/A"
	extractError         = "EXTRACTION_ERROR"
)

func circuitBreakerOpenResponse(partnerID string) Response {
	return Response{
		PartnerID:          partnerID,
		Success:            false,
		Status:             statusCircuitBreakerOpen,
		Message:            "Service temporarily unavailable — circuit breaker open",
		ResponseTimeMs:     0,
		Timeout:            false,
		CircuitBreakerOpen: true,
	}
}
