package client

import (
	"testing"
	"time"

	"github.com/restfetch/restfetch/types"
)

func TestBreakerDisabledAlwaysAdmits(t *testing.T) {
	cb := NewCircuitBreaker(nil, testLogger())

	for i := 0; i < 10; i++ {
		cb.RecordFailure()
	}
	if !cb.CanExecute() {
		t.Fatal("disabled breaker refused execution")
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(&types.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		RecoveryTimeout:  time.Hour,
	}, testLogger())

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		if !cb.CanExecute() {
			t.Fatalf("breaker opened after %d failures, threshold is 3", i+1)
		}
	}

	cb.RecordFailure()
	if cb.CanExecute() {
		t.Fatal("breaker still admits after reaching the failure threshold")
	}
}

func TestBreakerRecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(&types.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
	}, testLogger())

	cb.RecordFailure()
	if cb.CanExecute() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)

	if !cb.CanExecute() {
		t.Fatal("breaker should probe after the recovery timeout")
	}

	cb.RecordSuccess()
	if cb.getState() != StateBreakerClosed {
		t.Fatalf("state after successful probe = %d, want closed", cb.getState())
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := NewCircuitBreaker(&types.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
	}, testLogger())

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.CanExecute() {
		t.Fatal("breaker should probe after the recovery timeout")
	}

	cb.RecordFailure()
	if cb.CanExecute() {
		t.Fatal("breaker should re-open immediately after a failed probe")
	}
}
