package cron

import (
	"testing"
	"time"
)

func TestLocalMidnightUsesLocalDayBoundary(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	now := time.Date(2024, 11, 2, 23, 45, 0, 0, wib)

	got := localMidnight(now)

	want := time.Date(2024, 11, 2, 0, 0, 0, 0, wib)
	if !got.Equal(want) {
		t.Fatalf("localMidnight = %v, want %v", got, want)
	}
	if got.Location() != wib {
		t.Fatalf("location = %v, want the input's zone", got.Location())
	}
}
