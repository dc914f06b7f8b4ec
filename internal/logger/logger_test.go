package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Environments(t *testing.T) {
	tests := []struct {
		env   string
		level zapcore.Level
	}{
		{"prod", zapcore.InfoLevel},
		{"staging", zapcore.InfoLevel},
		{"dev", zapcore.DebugLevel},
		{"local", zapcore.DebugLevel},
		{"docker", zapcore.DebugLevel},
		{"test", zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			l, err := New(tt.env, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tt.level) {
				t.Errorf("%s should log at %s", tt.env, tt.level)
			}
			if tt.level > zapcore.DebugLevel && l.Core().Enabled(tt.level-1) {
				t.Errorf("%s should not log below %s", tt.env, tt.level)
			}
		})
	}
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := New("prod", "error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be disabled")
	}

	if _, err := New("prod", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNew_UnknownEnv(t *testing.T) {
	if _, err := New("qa", ""); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWith_EnrichesContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = With(ctx, zap.String("request_id", "r-1"))

	FromContext(ctx).Info("search")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "r-1" {
		t.Errorf("request_id = %v", got)
	}
}

func TestFromContext_NilLogger(t *testing.T) {
	ctx := WithLogger(context.Background(), nil)
	if FromContext(ctx) == nil {
		t.Fatal("a nil stored logger must fall back to nop")
	}
}
