package schedule

import (
	"testing"

	"habit-tracker/internal/model"
)

func interval(v model.RepeatInterval) *model.RepeatInterval { return &v }
func weekday(v int) *int { return &v }

func habit(id, start string, every model.RepeatInterval, wd *int) model.Task {
	return model.Task{
		ID:             id,
		Title:          "habit " + id,
		Status:         model.StatusTodo,
		Date:           start,
		EntryType:      model.EntryHabit,
		RepeatInterval: interval(every),
		RepeatWeekday:  wd,
	}
}

func TestIsScheduledOnDate_TaskOnlyOnAnchorDate(t *testing.T) {
	task := model.Task{ID: "t1", Date: "2024-03-05", EntryType: model.EntryTask, Status: model.StatusTodo}

	cases := map[string]bool{
		"2024-03-04":          false,
		"2024-03-05":          true,
		"2024-03-05T23:59:00": true,
		"2024-03-06":          false,
		"2025-03-05":          false,
	}
	for date, want := range cases {
		if got := IsScheduledOnDate(task, date); got != want {
			t.Errorf("IsScheduledOnDate(task, %q) = %v, want %v", date, got, want)
		}
	}
}

func TestIsScheduledOnDate_EmptyEntryTypeBehavesAsTask(t *testing.T) {
	task := model.Task{ID: "t1", Date: "2024-03-05"}
	if !IsScheduledOnDate(task, "2024-03-05") {
		t.Fatalf("expected task without entry type to be scheduled on its date")
	}
	if IsScheduledOnDate(task, "2024-03-06") {
		t.Fatalf("expected task without entry type to be scheduled only on its date")
	}
}

func TestIsScheduledOnDate_HabitNeverBeforeStart(t *testing.T) {
	habits := []model.Task{
		habit("d", "2024-02-01", model.RepeatDaily, nil),
		habit("w", "2024-02-01", model.RepeatWeekly, weekday(3)),
	}
	for _, h := range habits {
		for d := 1; d <= 60; d++ {
			date := AddDays("2024-02-01", -d)
			if IsScheduledOnDate(h, date) {
				t.Fatalf("habit %s scheduled on %s before start %s", h.ID, date, h.Date)
			}
		}
	}
}

func TestIsScheduledOnDate_DailyHabitEveryDayFromStart(t *testing.T) {
	h := habit("d", "2024-02-01", model.RepeatDaily, nil)
	for d := 0; d < 400; d++ {
		date := AddDays("2024-02-01", d)
		if !IsScheduledOnDate(h, date) {
			t.Fatalf("daily habit not scheduled on %s", date)
		}
	}
}

func TestIsScheduledOnDate_WeeklyHabitOnItsWeekdayOnly(t *testing.T) {
	h := habit("w", "2024-01-01", model.RepeatWeekly, weekday(1))

	if !IsScheduledOnDate(h, "2024-01-08") {
		t.Fatalf("expected Monday 2024-01-08 to be scheduled")
	}
	if IsScheduledOnDate(h, "2024-01-07") {
		t.Fatalf("expected Sunday 2024-01-07 not to be scheduled")
	}

	seen := map[int]bool{}
	for d := 0; d < 70; d++ {
		date := AddDays("2024-01-01", d)
		wd, ok := Weekday(date)
		if !ok {
			t.Fatalf("Weekday(%s) failed", date)
		}
		got := IsScheduledOnDate(h, date)
		if got != (int(wd) == 1) {
			t.Fatalf("IsScheduledOnDate(%s) = %v on weekday %d", date, got, wd)
		}
		if got {
			seen[int(wd)] = true
		}
	}
	if len(seen) != 1 {
		t.Fatalf("weekly habit scheduled on %d different weekdays", len(seen))
	}
}

func TestIsScheduledOnDate_MalformedHabitsNeverScheduled(t *testing.T) {
	unknown := model.RepeatInterval("monthly")
	cases := []model.Task{
		habit("no-weekday", "2024-01-01", model.RepeatWeekly, nil),
		{ID: "no-interval", Date: "2024-01-01", EntryType: model.EntryHabit},
		{ID: "unknown", Date: "2024-01-01", EntryType: model.EntryHabit, RepeatInterval: &unknown},
	}
	for _, task := range cases {
		for d := 0; d < 14; d++ {
			date := AddDays("2024-01-01", d)
			if IsScheduledOnDate(task, date) {
				t.Fatalf("malformed habit %s scheduled on %s", task.ID, date)
			}
		}
	}
}

func TestIsScheduledOnDate_WeeklyUsesUTCWeekday(t *testing.T) {
	// 2024-01-08T23:30 in UTC-5 is still Monday when truncated to the key.
	h := habit("w", "2024-01-01", model.RepeatWeekly, weekday(1))
	if !IsScheduledOnDate(h, "2024-01-08T23:30:00-05:00") {
		t.Fatalf("expected key prefix to decide the weekday")
	}
}

func TestStatusOnDate(t *testing.T) {
	task := model.Task{ID: "T", Date: "2024-03-05", EntryType: model.EntryTask, Status: model.StatusTodo}
	doneTask := model.Task{ID: "D", Date: "2024-03-05", EntryType: model.EntryTask, Status: model.StatusDone}
	h := habit("H2", "2024-02-01", model.RepeatDaily, nil)
	h.Status = model.StatusDone

	overrides := CompletionMap{
		CompletionKey("D", "2024-03-05"):  model.StatusTodo,
		CompletionKey("H2", "2024-02-11"): model.StatusDone,
	}

	tests := []struct {
		name        string
		task        model.Task
		date        string
		completions CompletionMap
		want        model.TaskStatus
	}{
		{"task falls back to base status", task, "2024-03-05", CompletionMap{}, model.StatusTodo},
		{"done task falls back to base status", doneTask, "2024-03-05", nil, model.StatusDone},
		{"override beats base status", doneTask, "2024-03-05", overrides, model.StatusTodo},
		{"habit defaults to todo even if base is done", h, "2024-02-10", CompletionMap{}, model.StatusTodo},
		{"habit override wins", h, "2024-02-11", overrides, model.StatusDone},
		{"override lookup normalises date", h, "2024-02-11T08:00:00Z", overrides, model.StatusDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOnDate(tt.task, tt.date, tt.completions); got != tt.want {
				t.Fatalf("StatusOnDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusOnDate_ScenarioB(t *testing.T) {
	task := model.Task{ID: "T", Date: "2024-03-05", EntryType: model.EntryTask, Status: model.StatusTodo}
	completions := CompletionMap{}
	if got := StatusOnDate(task, "2024-03-05", completions); got != model.StatusTodo {
		t.Fatalf("before override: got %q", got)
	}
	completions = NewCompletionMap([]model.TaskCompletion{{TaskID: "T", Date: "2024-03-05", Status: model.StatusDone}})
	if got := StatusOnDate(task, "2024-03-05", completions); got != model.StatusDone {
		t.Fatalf("after override: got %q", got)
	}
}

func TestDueOn(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Date: "2024-01-08", EntryType: model.EntryTask},
		habit("b", "2024-01-01", model.RepeatWeekly, weekday(1)),
		habit("c", "2024-01-09", model.RepeatDaily, nil),
		{ID: "d", Date: "2024-01-07", EntryType: model.EntryTask},
	}
	due := DueOn(tasks, "2024-01-08")
	if len(due) != 2 || due[0].ID != "a" || due[1].ID != "b" {
		t.Fatalf("DueOn() = %+v", due)
	}
}
