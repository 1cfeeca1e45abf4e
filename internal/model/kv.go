package model

import "time"

// KVEntry is a row of the key-value store.
type KVEntry struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// Streak tracks consecutive days the planner was opened.
type Streak struct {
	CurrentStreak int    `json:"currentStreak"`
	LastVisitDate string `json:"lastVisitDate"`
	LongestStreak int    `json:"longestStreak"`
}
