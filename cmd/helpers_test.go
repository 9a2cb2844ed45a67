package cmd

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"negative", -time.Minute, "expired"},
		{"seconds", 30 * time.Second, "< 1 minute"},
		{"one minute", 90 * time.Second, "1 minute"},
		{"minutes", 5 * time.Minute, "5 minutes"},
		{"one hour", 90 * time.Minute, "1 hour"},
		{"hours", 5 * time.Hour, "5 hours"},
		{"one day", 30 * time.Hour, "1 day"},
		{"days", 72 * time.Hour, "3 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDuration(tt.d); got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatExpiryWithDirection(t *testing.T) {
	future := formatExpiryWithDirection(time.Now().Add(2 * time.Hour))
	if !strings.HasPrefix(future, "in ") {
		t.Errorf("future expiry = %q, want 'in ...'", future)
	}

	past := formatExpiryWithDirection(time.Now().Add(-2 * time.Hour))
	if !strings.Contains(past, "expired") || !strings.Contains(past, "ago") {
		t.Errorf("past expiry = %q, want 'expired ... ago'", past)
	}
}
