package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec(10, 5)
	if err != nil {
		t.Fatalf("buildDailySpec failed: %v", err)
	}
	if spec != "0 5 10 * * *" {
		t.Fatalf("spec = %q", spec)
	}

	for _, c := range [][2]int{{-1, 0}, {24, 0}, {10, -1}, {10, 60}} {
		if _, err := buildDailySpec(c[0], c[1]); err == nil {
			t.Fatalf("expected error for %02d:%02d", c[0], c[1])
		}
	}
}

func TestSchedulerService_Register(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	noop := func(ctx context.Context) error { return nil }

	if _, err := s.ScheduleDaily(10, 0, "mood", noop); err != nil {
		t.Fatalf("ScheduleDaily failed: %v", err)
	}
	if _, err := s.ScheduleInterval(time.Minute, "dispatch", noop); err != nil {
		t.Fatalf("ScheduleInterval failed: %v", err)
	}
	if _, err := s.ScheduleInterval(0, "broken", noop); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := s.ScheduleDaily(25, 0, "broken", noop); err == nil {
		t.Fatalf("expected error for invalid hour")
	}
	if got := s.Entries(); got != 2 {
		t.Fatalf("Entries() = %d, want 2", got)
	}
}

func TestSchedulerService_RunsJobsWithDeadline(t *testing.T) {
	s := NewSchedulerService(time.UTC, 500*time.Millisecond)

	ran := make(chan bool, 4)
	_, err := s.ScheduleInterval(time.Second, "probe", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		ran <- hasDeadline
		return errors.New("logged, not fatal")
	})
	if err != nil {
		t.Fatalf("ScheduleInterval failed: %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case hasDeadline := <-ran:
		if !hasDeadline {
			t.Fatalf("job context has no deadline")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not run")
	}
}
