package clients

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"socialguard/pkg/monitoring"
)

// BreakerHealthCheck degrades while any breaker is not closed. An open
// breaker means its provider is refusing sends, not that the service is down.
func BreakerHealthCheck(breakers ...*CircuitBreaker) monitoring.HealthCheck {
	return func() monitoring.CheckResult {
		start := time.Now()
		var tripped []string

		for _, cb := range breakers {
			if state := cb.State(); state != StateClosed {
				tripped = append(tripped, fmt.Sprintf("%s (%s)", cb.Name(), state))
			}
		}
		sort.Strings(tripped)

		if len(tripped) > 0 {
			return monitoring.CheckResult{
				Status:  monitoring.StatusDegraded,
				Message: "Provider circuit not closed: " + strings.Join(tripped, ", "),
				Latency: time.Since(start).String(),
			}
		}

		return monitoring.CheckResult{
			Status:  monitoring.StatusHealthy,
			Message: fmt.Sprintf("%d provider circuit(s) closed", len(breakers)),
			Latency: time.Since(start).String(),
		}
	}
}
