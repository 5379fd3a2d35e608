package models

import (
	"testing"
	"time"
)

func TestEffectiveStatusBoundaries(t *testing.T) {
	window := 30 * 24 * time.Hour
	expiry := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	grant := AccessGrant{Status: GrantActive, ExpiresAt: &expiry}

	cases := []struct {
		name string
		now  time.Time
		want GrantStatus
	}{
		{"long before expiry", expiry.Add(-90 * 24 * time.Hour), GrantActive},
		{"exactly at the window edge", expiry.Add(-window), GrantActive},
		{"just inside the window", expiry.Add(-window + time.Second), GrantExpiring},
		{"one second before expiry", expiry.Add(-time.Second), GrantExpiring},
		{"exactly at expiry", expiry, GrantExpired},
		{"after expiry", expiry.Add(time.Second), GrantExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := grant.EffectiveStatus(tc.now, window); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEffectiveStatusRevocationWins(t *testing.T) {
	expiry := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	grant := AccessGrant{Status: GrantRevoked, ExpiresAt: &expiry}

	if got := grant.EffectiveStatus(expiry.Add(time.Hour), 0); got != GrantRevoked {
		t.Fatalf("revoked grant must read revoked even past expiry, got %s", got)
	}
}

func TestEffectiveStatusNeverExpires(t *testing.T) {
	grant := AccessGrant{Status: GrantActive}
	far := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := grant.EffectiveStatus(far, 30*24*time.Hour); got != GrantActive {
		t.Fatalf("nil expiry must read active, got %s", got)
	}
}
