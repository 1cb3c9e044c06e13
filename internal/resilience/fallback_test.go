package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestFallbackGroup_PrimarySuccess(t *testing.T) {
	fg := NewFallbackGroup("whisper", "whisper", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fg.AddFallback("openai", "openai")

	var called string
	err := fg.Execute(func(v string) error {
		called = v
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != "whisper" {
		t.Fatalf("called = %q, want whisper", called)
	}
}

func TestFallbackGroup_PrimaryFailFallbackSuccess(t *testing.T) {
	fg := NewFallbackGroup("whisper", "whisper", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fg.AddFallback("openai", "openai")

	var called string
	err := fg.Execute(func(v string) error {
		if v == "whisper" {
			return errTest
		}
		called = v
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != "openai" {
		t.Fatalf("called = %q, want openai", called)
	}
}

func TestFallbackGroup_AllFail(t *testing.T) {
	fg := NewFallbackGroup("whisper", "whisper", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fg.AddFallback("openai", "openai")

	err := fg.Execute(func(v string) error {
		return errTest
	})
	if err == nil {
		t.Fatal("expected error when all providers fail")
	}
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_Len(t *testing.T) {
	fg := NewFallbackGroup("whisper", "whisper", FallbackConfig{})
	if fg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", fg.Len())
	}
	fg.AddFallback("openai", "openai")
	fg.AddFallback("vosk", "vosk")
	if fg.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", fg.Len())
	}
}

func TestFallbackGroup_CircuitBreakerSkipsOpenProvider(t *testing.T) {
	fg := NewFallbackGroup("whisper", "whisper", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  2,
			ResetTimeout: time.Hour,
		},
	})
	fg.AddFallback("openai", "openai")

	// Fail the primary enough to open its breaker.
	for i := 0; i < 2; i++ {
		_ = fg.Execute(func(v string) error {
			if v == "whisper" {
				return errTest
			}
			return nil
		})
	}

	// The primary's breaker is open now; calls should go straight to the fallback.
	var called string
	err := fg.Execute(func(v string) error {
		called = v
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != "openai" {
		t.Fatalf("called = %q, want openai (whisper circuit should be open)", called)
	}
}

func TestExecuteWithResult_Success(t *testing.T) {
	fg := NewFallbackGroup(1, "uno", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fg.AddFallback("dos", 2)

	result, err := ExecuteWithResult(fg, func(v int) (string, error) {
		if v == 1 {
			return "transcripcion-uno", nil
		}
		return "transcripcion-dos", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "transcripcion-uno" {
		t.Fatalf("result = %q, want transcripcion-uno", result)
	}
}

func TestExecuteWithResult_Failover(t *testing.T) {
	fg := NewFallbackGroup(1, "uno", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fg.AddFallback("dos", 2)

	result, err := ExecuteWithResult(fg, func(v int) (string, error) {
		if v == 1 {
			return "", errTest
		}
		return "transcripcion-dos", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "transcripcion-dos" {
		t.Fatalf("result = %q, want transcripcion-dos", result)
	}
}

func TestExecuteWithResult_AllFail(t *testing.T) {
	fg := NewFallbackGroup(1, "uno", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})

	_, err := ExecuteWithResult(fg, func(v int) (string, error) {
		return "", errTest
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
