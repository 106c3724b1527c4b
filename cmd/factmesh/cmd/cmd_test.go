package cmd

import (
	"testing"
	"time"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"evaluate": false,
		"serve":    false,
		"doctor":   false,
		"version":  false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw      string
		fallback time.Duration
		want     time.Duration
	}{
		{"30s", time.Minute, 30 * time.Second},
		{"2m", time.Minute, 2 * time.Minute},
		{"garbage", time.Minute, time.Minute},
		{"", time.Minute, time.Minute},
		{"-5s", time.Minute, time.Minute},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.raw, tt.fallback); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
