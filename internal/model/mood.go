package model

import "time"

// MoodType is one of the four quadrants a user can log for a day.
type MoodType string

const (
	MoodProductive MoodType = "Productive"
	MoodRelaxed    MoodType = "Relaxed"
	MoodStressed   MoodType = "Stressed"
	MoodAnxious    MoodType = "Anxious"
)

// Moods lists the supported mood types in display order.
var Moods = []MoodType{MoodProductive, MoodRelaxed, MoodStressed, MoodAnxious}

// Mood is a single mood entry; at most one exists per date.
type Mood struct {
	ID        string   `gorm:"primaryKey"`
	Mood      MoodType `gorm:"not null"`
	Date      string   `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}
