package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "default level is info", want: zapcore.InfoLevel},
		{name: "debug json", level: "debug", format: "json", want: zapcore.DebugLevel},
		{name: "upper-case console", level: "WARN", format: "console", want: zapcore.WarnLevel},
		{name: "bad level", level: "loud", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := New(tc.level, tc.format)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("New(%q) error = nil, want non-nil", tc.level)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q, %q): %v", tc.level, tc.format, err)
			}
			defer func() { _ = l.Sync() }()
			if !l.Core().Enabled(tc.want) {
				t.Errorf("level %v not enabled", tc.want)
			}
			if tc.want > zapcore.DebugLevel && l.Core().Enabled(tc.want-1) {
				t.Errorf("level %v unexpectedly enabled", tc.want-1)
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}

func TestSanitizeDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"postgres://app:s3cret@db:5432/main?sslmode=disable", "postgres://app:[REDACTED]@db:5432/main?sslmode=disable"},
		{"host=db user=app password=s3cret dbname=main", "host=db user=app password=[REDACTED] dbname=main"},
		{"file:jsontable.db?cache=shared", "file:jsontable.db?cache=shared"},
		{":memory:", ":memory:"},
	}
	for _, tc := range tests {
		if got := SanitizeDSN(tc.in); got != tc.want {
			t.Errorf("SanitizeDSN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
