package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
)

var ErrUnknownMood = errors.New("unknown mood")

var moodMessages = map[model.MoodType][]string{
	model.MoodProductive: {
		"Keep up the great work! You're crushing it today!",
		"Amazing energy! Let's make the most of it!",
		"You're on fire! Keep that momentum going!",
	},
	model.MoodRelaxed: {
		"Taking it easy today? Perfect time to recharge",
		"Enjoy the calm. You've earned it!",
		"Sometimes the best productivity is rest.",
	},
	model.MoodStressed: {
		"I see you're having a tough day. Take it one step at a time",
		"Remember to breathe. You've got this!",
		"It's okay to feel stressed. Let's break things down together.",
	},
	model.MoodAnxious: {
		"I'm here with you. What's on your mind?",
		"Anxiety is tough, but you're tougher. Let's take it slow.",
		"Take a moment for yourself. You're doing better than you think.",
	},
}

// MoodStorage persists one mood per date.
type MoodStorage interface {
	Save(ctx context.Context, mood *model.Mood) (*model.Mood, error)
	GetByDate(ctx context.Context, date string) (*model.Mood, error)
	ListAll(ctx context.Context) ([]model.Mood, error)
}

// MoodService logs daily moods.
type MoodService struct {
	repo MoodStorage
	now  func() time.Time
}

func NewMoodService(repo MoodStorage, now func() time.Time) *MoodService {
	if now == nil {
		now = time.Now
	}
	return &MoodService{repo: repo, now: now}
}

// ParseMood matches name case-insensitively against the known moods.
func ParseMood(name string) (model.MoodType, error) {
	for _, mood := range model.Moods {
		if strings.EqualFold(strings.TrimSpace(name), string(mood)) {
			return mood, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMood, name)
}

// Save stores mood for date, or for today when date is empty.
func (s *MoodService) Save(ctx context.Context, mood model.MoodType, date string) (*model.Mood, error) {
	if _, ok := moodMessages[mood]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}
	if date == "" {
		date = schedule.DateKey(s.now())
	}
	date = schedule.NormalizeDateKey(date)
	if _, err := schedule.ParseDateKey(date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDateKey, date)
	}

	return s.repo.Save(ctx, &model.Mood{
		ID:        date + "-" + uuid.NewString(),
		Mood:      mood,
		Date:      date,
		CreatedAt: s.now().UTC(),
	})
}

func (s *MoodService) ForDate(ctx context.Context, date string) (*model.Mood, error) {
	return s.repo.GetByDate(ctx, schedule.NormalizeDateKey(date))
}

// Today returns nil when no mood is logged for today.
func (s *MoodService) Today(ctx context.Context) (*model.Mood, error) {
	return s.repo.GetByDate(ctx, schedule.DateKey(s.now()))
}

func (s *MoodService) List(ctx context.Context) ([]model.Mood, error) {
	return s.repo.ListAll(ctx)
}

// Message returns a supportive message for mood.
func (s *MoodService) Message(mood model.MoodType) string {
	messages := moodMessages[mood]
	if len(messages) == 0 {
		return ""
	}
	return messages[rand.IntN(len(messages))]
}
