package client

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
)

type CircuitBreakerState int32

const (
	StateBreakerClosed CircuitBreakerState = iota
	StateBreakerOpen
	StateBreakerHalfOpen
	StateBreakerDisabled
)

// CircuitBreaker fails fast once the remote has produced a run of
// consecutive retryable faults, and probes again after the recovery
// timeout. Disabled breakers always admit.
type CircuitBreaker struct {
	config   *types.CircuitBreakerConfig
	logger   types.Logger
	state    atomic.Value
	failures atomic.Int32
	lastFail atomic.Int64
}

func NewCircuitBreaker(config *types.CircuitBreakerConfig, logger types.Logger) *CircuitBreaker {
	cb := &CircuitBreaker{
		logger: logger,
	}

	if config == nil || !config.Enabled {
		cb.config = &types.CircuitBreakerConfig{Enabled: false}
		cb.state.Store(StateBreakerDisabled)
		return cb
	}

	cfg := *config
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}

	cb.config = &cfg
	cb.state.Store(StateBreakerClosed)

	return cb
}

func (cb *CircuitBreaker) CanExecute() bool {
	switch cb.getState() {
	case StateBreakerDisabled, StateBreakerClosed, StateBreakerHalfOpen:
		return true
	case StateBreakerOpen:
		elapsed := time.Since(time.Unix(0, cb.lastFail.Load()))
		if elapsed >= cb.config.RecoveryTimeout {
			if cb.state.CompareAndSwap(StateBreakerOpen, StateBreakerHalfOpen) {
				cb.logger.Info("circuit breaker half-open, probing remote")
			}
			return true
		}
		return false
	default:
		return false
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	if cb.getState() == StateBreakerDisabled {
		return
	}

	cb.failures.Store(0)

	if cb.state.CompareAndSwap(StateBreakerHalfOpen, StateBreakerClosed) {
		cb.logger.Info("circuit breaker closed")
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	if cb.getState() == StateBreakerDisabled {
		return
	}

	cb.lastFail.Store(time.Now().UnixNano())
	failures := cb.failures.Add(1)

	if cb.getState() == StateBreakerHalfOpen {
		cb.state.CompareAndSwap(StateBreakerHalfOpen, StateBreakerOpen)
		cb.logger.Warn("circuit breaker re-opened after failed probe")
		return
	}

	if int(failures) >= cb.config.FailureThreshold {
		if cb.state.CompareAndSwap(StateBreakerClosed, StateBreakerOpen) {
			cb.logger.Warn("circuit breaker opened",
				zap.Int32("failures", failures),
				zap.Duration("recovery_timeout", cb.config.RecoveryTimeout))
		}
	}
}

func (cb *CircuitBreaker) getState() CircuitBreakerState {
	return cb.state.Load().(CircuitBreakerState)
}
