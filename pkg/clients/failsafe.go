package clients

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"socialguard/pkg/logging"
)

// ErrCircuitOpen is returned when a provider call is rejected because the
// breaker guarding it is open.
var ErrCircuitOpen = circuitbreaker.ErrOpen

// CircuitBreakerState represents the state of the circuit breaker.
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateHalfOpen
	StateOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this breaker in logs, usually the provider name.
	Name string

	// SuccessThreshold is the number of successful half-open calls needed to
	// close again. Default: 1
	SuccessThreshold uint

	// Delay is how long the breaker stays open before probing. Default: 30s
	Delay time.Duration

	// FailureThreshold failures within the last MinRequests calls trip the
	// breaker. Defaults: 5 of 10.
	FailureThreshold uint
	MinRequests      uint

	Logger logging.Logger

	OnStateChange func(name string, from, to CircuitBreakerState)
}

// DefaultCircuitBreakerConfig returns the defaults used for provider transports.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		SuccessThreshold: 1,
		Delay:            30 * time.Second,
		FailureThreshold: 5,
		MinRequests:      10,
	}
}

// CircuitBreaker guards an upstream provider. It never retries: a rejected
// call fails immediately with ErrCircuitOpen.
type CircuitBreaker struct {
	cb   circuitbreaker.CircuitBreaker[any]
	name string
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "provider"
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 30 * time.Second
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureThreshold == 0 || cfg.FailureThreshold > cfg.MinRequests {
		cfg.FailureThreshold = cfg.MinRequests / 2
		if cfg.FailureThreshold == 0 {
			cfg.FailureThreshold = 1
		}
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}

	builder := circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(cfg.FailureThreshold, cfg.MinRequests).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(cfg.SuccessThreshold)

	if cfg.OnStateChange != nil || cfg.Logger != nil {
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			from := convertState(event.OldState)
			to := convertState(event.NewState)

			if cfg.Logger != nil {
				cfg.Logger.WithFields(logging.Fields{
					"circuit_breaker": cfg.Name,
					"from_state":      from.String(),
					"to_state":        to.String(),
				}).Warn("circuit breaker state change")
			}

			if cfg.OnStateChange != nil {
				cfg.OnStateChange(cfg.Name, from, to)
			}
		})
	}

	return &CircuitBreaker{
		cb:   builder.Build(),
		name: cfg.Name,
	}
}

func convertState(state circuitbreaker.State) CircuitBreakerState {
	switch state {
	case circuitbreaker.HalfOpenState:
		return StateHalfOpen
	case circuitbreaker.OpenState:
		return StateOpen
	default:
		return StateClosed
	}
}

// Call executes fn through the breaker. A nil breaker just calls fn.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if cb == nil {
		return fn()
	}
	_, err := failsafe.With[any](cb.cb).Get(func() (any, error) {
		return nil, fn()
	})
	return err
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	if cb == nil {
		return StateClosed
	}
	return convertState(cb.cb.State())
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	if cb == nil {
		return ""
	}
	return cb.name
}

// IsCircuitOpen reports whether err came from an open breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsServerError reports whether a response should count against a breaker:
// transport failures and 5xx. 4xx means the provider rejected one message,
// which says nothing about the provider's health.
func IsServerError(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp == nil || resp.StatusCode >= 500
}

// NewHTTPExecutor builds a breaker-only failsafe executor for HTTP calls.
//
//nolint:bodyclose // false positive: [*http.Response] is a generic type parameter, not an actual response
func NewHTTPExecutor(cfg CircuitBreakerConfig) failsafe.Executor[*http.Response] {
	def := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Delay <= 0 {
		cfg.Delay = def.Delay
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}

	builder := circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(cfg.FailureThreshold, cfg.MinRequests).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(cfg.SuccessThreshold).
		HandleIf(IsServerError)

	if cfg.Logger != nil {
		logger := cfg.Logger
		name := cfg.Name
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logger.WithFields(logging.Fields{
				"circuit_breaker": name,
				"from_state":      convertState(event.OldState).String(),
				"to_state":        convertState(event.NewState).String(),
			}).Warn("circuit breaker state change")
		})
	}

	return failsafe.With[*http.Response](builder.Build())
}

// ExecuteHTTP runs an HTTP request through the executor
func ExecuteHTTP(ctx context.Context, executor failsafe.Executor[*http.Response], fn func() (*http.Response, error)) (*http.Response, error) {
	if executor == nil {
		return fn()
	}
	return executor.WithContext(ctx).Get(fn)
}
