package model

import "time"

// TaskStatus is the completion state of a task or of one habit occurrence.
type TaskStatus string

const (
	StatusTodo TaskStatus = "todo"
	StatusDone TaskStatus = "done"
)

// EntryType discriminates one-off tasks from recurring habits.
type EntryType string

const (
	EntryTask  EntryType = "task"
	EntryHabit EntryType = "habit"
)

// RepeatInterval is meaningful only for habits.
type RepeatInterval string

const (
	RepeatDaily  RepeatInterval = "daily"
	RepeatWeekly RepeatInterval = "weekly"
)

const DefaultCategory = "today"

// Task represents a single task or a recurring habit.
//
// Date is the anchor date (YYYY-MM-DD): the only day of a task, or the first
// day of a habit. For habits only the time of day of DueAt matters.
type Task struct {
	ID             string     `gorm:"primaryKey"`
	Title          string     `gorm:"not null"`
	Status         TaskStatus `gorm:"not null"`
	Category       string     `gorm:"not null;index"`
	Date           string     `gorm:"not null;index"`
	CreatedAt      time.Time
	Icon           *string
	DueAt          *time.Time
	EntryType      EntryType `gorm:"not null;default:task"`
	RepeatInterval *RepeatInterval
	RepeatWeekday  *int
}

func (t Task) IsHabit() bool {
	return t.EntryType == EntryHabit
}

// TaskCompletion is the per-date status override of a task or habit occurrence.
type TaskCompletion struct {
	TaskID string     `gorm:"primaryKey"`
	Date   string     `gorm:"primaryKey;index"`
	Status TaskStatus `gorm:"not null"`
}
