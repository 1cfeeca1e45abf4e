package service

import (
	"context"
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
)

const streakKey = "@app_streak_data"

// KVStorage stores JSON objects by key.
type KVStorage interface {
	GetObject(ctx context.Context, key string, dst any) (bool, error)
	SetObject(ctx context.Context, key string, value any) error
}

// StreakService counts consecutive days with at least one visit.
type StreakService struct {
	kv  KVStorage
	now func() time.Time
}

func NewStreakService(kv KVStorage, now func() time.Time) *StreakService {
	if now == nil {
		now = time.Now
	}
	return &StreakService{kv: kv, now: now}
}

func (s *StreakService) Current(ctx context.Context) (model.Streak, error) {
	var streak model.Streak
	if _, err := s.kv.GetObject(ctx, streakKey, &streak); err != nil {
		return model.Streak{}, err
	}
	return streak, nil
}

// RecordVisit registers a visit today and returns the updated streak.
func (s *StreakService) RecordVisit(ctx context.Context) (model.Streak, error) {
	today := schedule.DateKey(s.now())
	yesterday := schedule.AddDays(today, -1)

	var streak model.Streak
	found, err := s.kv.GetObject(ctx, streakKey, &streak)
	if err != nil {
		return model.Streak{}, err
	}

	switch {
	case !found:
		streak = model.Streak{CurrentStreak: 1, LastVisitDate: today, LongestStreak: 1}
	case streak.LastVisitDate == today:
		return streak, nil
	case streak.LastVisitDate == yesterday:
		streak.CurrentStreak++
		streak.LastVisitDate = today
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
	default:
		streak.CurrentStreak = 1
		streak.LastVisitDate = today
	}

	if err := s.kv.SetObject(ctx, streakKey, streak); err != nil {
		return model.Streak{}, err
	}
	return streak, nil
}
