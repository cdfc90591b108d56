package broadcast

import "github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partnerclient"

// Report is the outcome of one broadcast, returned to the inbound handler
// verbatim (spec.md §6, "Inbound endpoint").
type Report struct {
	Success           bool                     `json:"success"`
	Message           string                   `json:"message"`
	RespondingPartner string                   `json:"responding_partner,omitempty"`
	PartnerResponses  []partnerclient.Response `json:"partner_responses"`
	TotalTimeMs       int64                    `json:"total_time_ms"`
}

func tally(responses []partnerclient.Response) (success, timeouts, errors int) {
	for _, r := range responses {
		switch {
		case r.Success:
			success++
		case r.Timeout:
			timeouts++
		default:
			errors++
		}
	}
	return
}
