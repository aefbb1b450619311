package metrics

import "time"

// Dispatch outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeFault      = "fault"
	OutcomeNotFound   = "not_found"
	OutcomeIncomplete = "incomplete"
)

// ObserveDispatch records one trampoline invocation.
func ObserveDispatch(path, outcome string, d time.Duration) {
	totalDispatches.WithLabelValues(path, outcome).Inc()
	if outcome != OutcomeNotFound {
		dispatchTime.WithLabelValues(path).Observe(d.Seconds())
	}
}

// ProtocolViolation counts a rejected emitter call.
func ProtocolViolation(op string) {
	totalProtocolViolations.WithLabelValues(op).Inc()
}
