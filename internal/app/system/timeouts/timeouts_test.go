package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	defer Reset()

	Configure(Config{Long: time.Minute})

	got := Current()
	if got.Long != time.Minute {
		t.Errorf("Long: got %v, want %v", got.Long, time.Minute)
	}
	if got.Short != DefaultShort {
		t.Errorf("Short: got %v, want default %v", got.Short, DefaultShort)
	}
	if got.Ping != DefaultPing {
		t.Errorf("Ping: got %v, want default %v", got.Ping, DefaultPing)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Hour, Medium: time.Hour})
	Reset()

	if Ping() != DefaultPing || Medium() != DefaultMedium {
		t.Errorf("Reset did not restore defaults: %+v", Current())
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "slow thing")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.ContextMap()["operation"] != "slow thing" {
		t.Errorf("operation field: got %v", entry.ContextMap()["operation"])
	}
}

func TestWithTimeout_QuietOnEarlyCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	_, cancel := WithTimeout(context.Background(), time.Hour, log, "fast thing")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("expected no warnings, got %d", logs.Len())
	}
}
