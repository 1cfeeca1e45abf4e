package service

import (
	"context"
	"sync"
	"time"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/model"
)

//go:generate mockgen -source=notification_service.go -destination=mock_notifier_test.go -package=service

// Notifier delivers a reminder to one chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, reminder Reminder) error
}

// SubscriberLister returns the chats reminders go to.
type SubscriberLister interface {
	ListAll(ctx context.Context) ([]model.Subscriber, error)
}

// NotificationService turns the reminder plan into deliveries. Each Dispatch
// reloads tasks, plans reminders as of the previous dispatch and sends the
// ones that became due since then.
type NotificationService struct {
	tasks       *TaskService
	moods       *MoodService
	reminders   *ReminderService
	subscribers SubscriberLister
	notifier    Notifier
	now         func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

func NewNotificationService(tasks *TaskService, moods *MoodService, reminders *ReminderService, subscribers SubscriberLister, notifier Notifier, now func() time.Time) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		tasks:       tasks,
		moods:       moods,
		reminders:   reminders,
		subscribers: subscribers,
		notifier:    notifier,
		now:         now,
	}
}

// Due returns the reminders planned as of from whose time falls in (from, to].
func (s *NotificationService) Due(snap Snapshot, todayMood *model.Mood, from, to time.Time) []Reminder {
	var due []Reminder
	for _, r := range s.reminders.Plan(snap.Tasks, snap.Completions, from) {
		if r.At.After(to) {
			break
		}
		due = append(due, r)
	}
	if s.moods != nil {
		mood := s.reminders.NextMoodReminder(todayMood, from)
		if mood.At.After(from) && !mood.At.After(to) {
			due = append(due, mood)
		}
	}
	return due
}

// Dispatch delivers everything due since the previous call and returns the
// number of successful deliveries. The first call only records the time.
// When loading state fails nothing is sent and the window is retried next time.
func (s *NotificationService) Dispatch(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if err := s.tasks.Refresh(ctx); err != nil {
		return 0, err
	}

	prev := s.lastRun
	logger.Debug("dispatch tick", "from", prev, "to", now)
	if prev.IsZero() {
		s.lastRun = now
		return 0, nil
	}
	if !now.After(prev) {
		return 0, nil
	}

	var todayMood *model.Mood
	if s.moods != nil {
		mood, err := s.moods.Today(ctx)
		if err != nil {
			return 0, err
		}
		todayMood = mood
	}

	due := s.Due(s.tasks.Snapshot(), todayMood, prev, now)
	if len(due) == 0 {
		s.lastRun = now
		return 0, nil
	}

	subs, err := s.subscribers.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	// The window is consumed once delivery starts, even if it is cut short.
	s.lastRun = now

	sent := 0
	for _, reminder := range due {
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			default:
			}
			if err := s.notifier.Notify(ctx, sub.ChatID, reminder); err != nil {
				logger.Warn("reminder delivery failed", "chat", sub.ChatID, "kind", reminder.Kind, "task", reminder.TaskID, "err", err)
				continue
			}
			sent++
		}
	}

	return sent, nil
}
