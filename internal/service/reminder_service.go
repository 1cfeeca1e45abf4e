package service

import (
	"sort"
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
)

// ReminderKind distinguishes the notifications planned for an occurrence.
type ReminderKind string

const (
	ReminderLead ReminderKind = "task-lead"
	ReminderDue  ReminderKind = "task-due"
	ReminderMood ReminderKind = "mood"
)

// Reminder is a single notification to deliver at At. Date is the key of the
// occurrence the reminder belongs to.
type Reminder struct {
	Kind   ReminderKind
	TaskID string
	Title  string
	Habit  bool
	Date   string
	DueAt  time.Time
	At     time.Time
}

// Key identifies a reminder across planning runs.
func (r Reminder) Key() string {
	return string(r.Kind) + "|" + r.TaskID + "|" + r.At.UTC().Format(time.RFC3339)
}

// ReminderService computes upcoming due instants and the reminders for them.
// Habit times of day are interpreted in loc.
type ReminderService struct {
	loc        *time.Location
	lead       time.Duration
	moodHour   int
	moodMinute int
}

func NewReminderService(loc *time.Location, lead time.Duration, moodHour, moodMinute int) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{loc: loc, lead: lead, moodHour: moodHour, moodMinute: moodMinute}
}

// NextDueAt returns the next due instant of task relative to now.
//
// Plain tasks return DueAt verbatim. Habits combine the time of day of DueAt
// with the next scheduled date that is not before the start date and whose
// instant is still after now.
func (s *ReminderService) NextDueAt(task model.Task, now time.Time) (time.Time, bool) {
	if task.DueAt == nil {
		return time.Time{}, false
	}
	if task.EntryType != model.EntryHabit {
		return *task.DueAt, true
	}
	if task.RepeatInterval == nil {
		return time.Time{}, false
	}

	now = now.In(s.loc)
	start, err := time.ParseInLocation(schedule.DateKeyLayout, schedule.NormalizeDateKey(task.Date), s.loc)
	if err != nil {
		return time.Time{}, false
	}

	anchor := now
	if start.After(now) {
		anchor = start
	}
	clock := task.DueAt.In(s.loc)
	next := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), clock.Hour(), clock.Minute(), 0, 0, s.loc)

	switch *task.RepeatInterval {
	case model.RepeatDaily:
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	case model.RepeatWeekly:
		if task.RepeatWeekday == nil || *task.RepeatWeekday < 0 || *task.RepeatWeekday > 6 {
			return time.Time{}, false
		}
		daysAhead := (*task.RepeatWeekday - int(anchor.Weekday()) + 7) % 7
		if daysAhead == 0 && !next.After(now) {
			daysAhead = 7
		}
		next = next.AddDate(0, 0, daysAhead)
	default:
		return time.Time{}, false
	}

	return next, true
}

// Plan lists the reminders for every pending occurrence, ordered by time.
// An occurrence is pending when its status on the UTC date of its due
// instant is todo. Reminders at or before now are dropped.
func (s *ReminderService) Plan(tasks []model.Task, completions schedule.CompletionMap, now time.Time) []Reminder {
	var reminders []Reminder
	for _, task := range tasks {
		due, ok := s.NextDueAt(task, now)
		if !ok {
			continue
		}
		if schedule.StatusOnDate(task, schedule.DateKey(due), completions) != model.StatusTodo {
			continue
		}

		base := Reminder{TaskID: task.ID, Title: task.Title, Habit: task.IsHabit(), Date: s.occurrenceDate(task, due), DueAt: due}
		if s.lead > 0 {
			if before := due.Add(-s.lead); before.After(now) {
				r := base
				r.Kind = ReminderLead
				r.At = before
				reminders = append(reminders, r)
			}
		}
		if due.After(now) {
			r := base
			r.Kind = ReminderDue
			r.At = due
			reminders = append(reminders, r)
		}
	}

	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].At.Before(reminders[j].At)
	})
	return reminders
}

// occurrenceDate is the task's own date for plain tasks and the local
// calendar day of the due instant for habits.
func (s *ReminderService) occurrenceDate(task model.Task, due time.Time) string {
	if !task.IsHabit() {
		if date := schedule.NormalizeDateKey(task.Date); date != "" {
			return date
		}
	}
	return due.In(s.loc).Format(schedule.DateKeyLayout)
}

// NextMoodReminder returns the next mood prompt. Today's slot is skipped when
// a mood is already logged for today or the slot has passed.
func (s *ReminderService) NextMoodReminder(todayMood *model.Mood, now time.Time) Reminder {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.moodHour, s.moodMinute, 0, 0, s.loc)

	logged := todayMood != nil && todayMood.Date == schedule.DateKey(now)
	if logged || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return Reminder{Kind: ReminderMood, Date: next.Format(schedule.DateKeyLayout), At: next, DueAt: next}
}
