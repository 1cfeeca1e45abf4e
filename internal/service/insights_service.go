package service

import (
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
)

// DayStat is the completion ratio of everything scheduled on one date.
type DayStat struct {
	Date      string
	Completed int
	Total     int
	Rate      float64
}

// Highlights holds the best and worst day of a range. When NoData is set no
// date in the range had anything scheduled and Best/Worst are meaningless.
type Highlights struct {
	NoData bool
	Best   DayStat
	Worst  DayStat
}

// MonthReport is what the insights screen renders for a month.
type MonthReport struct {
	Year       int
	Month      time.Month
	Window     []DayStat
	Highlights Highlights
}

// InsightsService aggregates completion statistics over date ranges.
type InsightsService struct {
	windowDays int
	now        func() time.Time
}

func NewInsightsService(windowDays int, now func() time.Time) *InsightsService {
	if windowDays <= 0 {
		windowDays = 10
	}
	if now == nil {
		now = time.Now
	}
	return &InsightsService{windowDays: windowDays, now: now}
}

// ComputeDayStat counts the occurrences on dateKey and how many are done.
func ComputeDayStat(tasks []model.Task, completions schedule.CompletionMap, dateKey string) DayStat {
	date := schedule.NormalizeDateKey(dateKey)
	stat := DayStat{Date: date}
	for _, task := range tasks {
		if !schedule.IsScheduledOnDate(task, date) {
			continue
		}
		stat.Total++
		if schedule.StatusOnDate(task, date, completions) == model.StatusDone {
			stat.Completed++
		}
	}
	if stat.Total > 0 {
		stat.Rate = float64(stat.Completed) / float64(stat.Total)
	}
	return stat
}

func ComputeDayStats(tasks []model.Task, completions schedule.CompletionMap, dateKeys []string) []DayStat {
	stats := make([]DayStat, 0, len(dateKeys))
	for _, key := range dateKeys {
		stats = append(stats, ComputeDayStat(tasks, completions, key))
	}
	return stats
}

// ComputeHighlights picks the best day (most completed, then larger total) and
// the worst day (fewest completed, then smaller total) among days with at
// least one scheduled item. Earlier days win remaining ties.
func ComputeHighlights(stats []DayStat) Highlights {
	var (
		h     Highlights
		found bool
	)
	for _, stat := range stats {
		if stat.Total == 0 {
			continue
		}
		if !found {
			h.Best, h.Worst = stat, stat
			found = true
			continue
		}
		if stat.Completed > h.Best.Completed ||
			(stat.Completed == h.Best.Completed && stat.Total > h.Best.Total) {
			h.Best = stat
		}
		if stat.Completed < h.Worst.Completed ||
			(stat.Completed == h.Worst.Completed && stat.Total < h.Worst.Total) {
			h.Worst = stat
		}
	}
	if !found {
		return Highlights{NoData: true}
	}
	return h
}

// MonthDateKeys lists every date of the month in ascending order.
func MonthDateKeys(year int, month time.Month) []string {
	n := daysInMonth(month, year)
	keys := make([]string, 0, n)
	for day := 1; day <= n; day++ {
		keys = append(keys, time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(schedule.DateKeyLayout))
	}
	return keys
}

// RecentDateKeys returns n date keys ending at end (inclusive), oldest first.
func RecentDateKeys(end string, n int) []string {
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, schedule.AddDays(end, -i))
	}
	return keys
}

// ProductivityWindow returns the chart window for a month: the last
// windowDays dates ending today for the current month, otherwise ending on
// the month's last day.
func (s *InsightsService) ProductivityWindow(year int, month time.Month) []string {
	today := schedule.DateKey(s.now())
	end := time.Date(year, month, daysInMonth(month, year), 0, 0, 0, 0, time.UTC).Format(schedule.DateKeyLayout)
	if t, err := schedule.ParseDateKey(today); err == nil && t.Year() == year && t.Month() == month {
		end = today
	}
	return RecentDateKeys(end, s.windowDays)
}

func (s *InsightsService) MonthReport(snap Snapshot, year int, month time.Month) MonthReport {
	window := ComputeDayStats(snap.Tasks, snap.Completions, s.ProductivityWindow(year, month))
	monthStats := ComputeDayStats(snap.Tasks, snap.Completions, MonthDateKeys(year, month))
	return MonthReport{
		Year:       year,
		Month:      month,
		Window:     window,
		Highlights: ComputeHighlights(monthStats),
	}
}

// CurrentMonth returns the UTC year and month of now.
func (s *InsightsService) CurrentMonth() (int, time.Month) {
	now := s.now().UTC()
	return now.Year(), now.Month()
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)
	lastOfMonth := firstOfNextMonth.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}
