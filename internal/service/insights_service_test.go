package service

import (
	"math"
	"reflect"
	"testing"
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
)

func TestComputeDayStat_EmptyDayIsZeroRate(t *testing.T) {
	stat := ComputeDayStat(nil, nil, "2024-03-05")
	if stat.Total != 0 || stat.Completed != 0 {
		t.Fatalf("unexpected counts: %+v", stat)
	}
	if math.IsNaN(stat.Rate) || stat.Rate != 0 {
		t.Fatalf("rate = %v, want 0", stat.Rate)
	}
}

func TestComputeDayStat_ScenarioC(t *testing.T) {
	tasks := []model.Task{
		{ID: "H", Date: "2024-01-01", EntryType: model.EntryHabit, RepeatInterval: ptrInterval(model.RepeatDaily), Status: model.StatusTodo},
		{ID: "T", Date: "2024-01-10", EntryType: model.EntryTask, Status: model.StatusDone},
		{ID: "X", Date: "2024-01-11", EntryType: model.EntryTask, Status: model.StatusDone},
	}
	completions := schedule.CompletionMap{
		schedule.CompletionKey("H", "2024-01-10"): model.StatusDone,
	}

	stat := ComputeDayStat(tasks, completions, "2024-01-10")
	want := DayStat{Date: "2024-01-10", Completed: 2, Total: 2, Rate: 1}
	if stat != want {
		t.Fatalf("ComputeDayStat() = %+v, want %+v", stat, want)
	}

	stat = ComputeDayStat(tasks, completions, "2024-01-09")
	if stat.Completed != 0 || stat.Total != 1 || stat.Rate != 0 {
		t.Fatalf("day before: %+v", stat)
	}
}

func TestComputeDayStat_RateWithinBounds(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Date: "2024-01-10", Status: model.StatusDone},
		{ID: "b", Date: "2024-01-10", Status: model.StatusTodo},
		{ID: "c", Date: "2024-01-10", Status: model.StatusTodo},
	}
	stat := ComputeDayStat(tasks, schedule.CompletionMap{}, "2024-01-10")
	if stat.Completed > stat.Total {
		t.Fatalf("completed exceeds total: %+v", stat)
	}
	if stat.Rate < 0 || stat.Rate > 1 || math.Abs(stat.Rate-1.0/3.0) > 1e-9 {
		t.Fatalf("rate = %v", stat.Rate)
	}
}

func TestComputeHighlights(t *testing.T) {
	tests := []struct {
		name      string
		stats     []DayStat
		noData    bool
		bestDate  string
		worstDate string
	}{
		{
			name:   "no scheduled days",
			stats:  []DayStat{{Date: "2024-01-01"}, {Date: "2024-01-02"}},
			noData: true,
		},
		{
			name: "best by completed, worst by completed",
			stats: []DayStat{
				{Date: "2024-01-01", Completed: 1, Total: 2},
				{Date: "2024-01-02", Completed: 3, Total: 3},
				{Date: "2024-01-03"},
				{Date: "2024-01-04", Completed: 0, Total: 1},
			},
			bestDate:  "2024-01-02",
			worstDate: "2024-01-04",
		},
		{
			name: "ties broken by total",
			stats: []DayStat{
				{Date: "2024-01-01", Completed: 2, Total: 2},
				{Date: "2024-01-02", Completed: 2, Total: 5},
				{Date: "2024-01-03", Completed: 0, Total: 4},
				{Date: "2024-01-04", Completed: 0, Total: 1},
			},
			bestDate:  "2024-01-02",
			worstDate: "2024-01-04",
		},
		{
			name: "full tie keeps the earliest day",
			stats: []DayStat{
				{Date: "2024-01-01", Completed: 1, Total: 1},
				{Date: "2024-01-02", Completed: 1, Total: 1},
			},
			bestDate:  "2024-01-01",
			worstDate: "2024-01-01",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ComputeHighlights(tt.stats)
			if h.NoData != tt.noData {
				t.Fatalf("NoData = %v, want %v", h.NoData, tt.noData)
			}
			if tt.noData {
				return
			}
			if h.Best.Date != tt.bestDate || h.Worst.Date != tt.worstDate {
				t.Fatalf("best=%s worst=%s, want best=%s worst=%s", h.Best.Date, h.Worst.Date, tt.bestDate, tt.worstDate)
			}
		})
	}
}

func TestMonthDateKeys(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, c := range cases {
		keys := MonthDateKeys(c.year, c.month)
		if len(keys) != c.days {
			t.Fatalf("%d-%02d: %d keys, want %d", c.year, c.month, len(keys), c.days)
		}
		first := time.Date(c.year, c.month, 1, 0, 0, 0, 0, time.UTC).Format(schedule.DateKeyLayout)
		if keys[0] != first {
			t.Fatalf("first key = %s, want %s", keys[0], first)
		}
	}
}

func TestRecentDateKeys(t *testing.T) {
	got := RecentDateKeys("2024-03-02", 4)
	want := []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RecentDateKeys() = %v, want %v", got, want)
	}
}

func TestProductivityWindow(t *testing.T) {
	svc := NewInsightsService(10, fixedClock(time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)))

	current := svc.ProductivityWindow(2024, time.March)
	if len(current) != 10 || current[9] != "2024-03-15" || current[0] != "2024-03-06" {
		t.Fatalf("current month window = %v", current)
	}

	past := svc.ProductivityWindow(2024, time.February)
	if len(past) != 10 || past[9] != "2024-02-29" || past[0] != "2024-02-20" {
		t.Fatalf("past month window = %v", past)
	}
}

func TestMonthReport(t *testing.T) {
	now := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
	svc := NewInsightsService(5, fixedClock(now))

	snap := Snapshot{
		Tasks: []model.Task{
			{ID: "H", Date: "2024-01-08", EntryType: model.EntryHabit, RepeatInterval: ptrInterval(model.RepeatDaily)},
			{ID: "T", Date: "2024-01-10", EntryType: model.EntryTask, Status: model.StatusDone},
		},
		Completions: schedule.CompletionMap{
			schedule.CompletionKey("H", "2024-01-09"): model.StatusDone,
			schedule.CompletionKey("H", "2024-01-10"): model.StatusDone,
		},
	}

	year, month := svc.CurrentMonth()
	report := svc.MonthReport(snap, year, month)
	if report.Year != 2024 || report.Month != time.January {
		t.Fatalf("unexpected month %d-%d", report.Year, report.Month)
	}
	if len(report.Window) != 5 || report.Window[4].Date != "2024-01-12" {
		t.Fatalf("window = %+v", report.Window)
	}
	if report.Window[0].Date != "2024-01-08" || report.Window[0].Total != 1 || report.Window[0].Completed != 0 {
		t.Fatalf("first window day = %+v", report.Window[0])
	}
	if report.Highlights.NoData {
		t.Fatalf("expected data for January")
	}
	if report.Highlights.Best.Date != "2024-01-10" {
		t.Fatalf("best = %+v", report.Highlights.Best)
	}
	if report.Highlights.Worst.Date != "2024-01-08" {
		t.Fatalf("worst = %+v", report.Highlights.Worst)
	}
}
