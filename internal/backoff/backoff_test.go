package backoff

import (
	"testing"
	"time"
)

func TestScheduleDoublesAndCaps(t *testing.T) {
	s := NewSchedule(2*time.Millisecond, 16*time.Millisecond)
	want := []time.Duration{2, 4, 8, 16, 16}
	for i, w := range want {
		got := s.Next()
		if got != w*time.Millisecond {
			t.Fatalf("step %d: want %v got %v", i, w*time.Millisecond, got)
		}
	}
}

func TestScheduleResetReturnsToBase(t *testing.T) {
	s := NewSchedule(2*time.Millisecond, 128*time.Millisecond)
	s.Next()
	s.Next()
	s.Reset()
	if got := s.Next(); got != 2*time.Millisecond {
		t.Fatalf("expected reset schedule to restart at base, got %v", got)
	}
}

func TestDefaultRelaySchedule(t *testing.T) {
	s := DefaultRelaySchedule()
	if s.Base != 2*time.Millisecond || s.Max != 128*time.Millisecond {
		t.Fatalf("unexpected default relay schedule: %+v", s)
	}
}
