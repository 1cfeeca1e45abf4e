package schedule

import "habit-tracker/internal/model"

// CompletionMap is a snapshot of the override table keyed by CompletionKey.
type CompletionMap map[string]model.TaskStatus

// NewCompletionMap indexes completion rows by CompletionKey.
func NewCompletionMap(completions []model.TaskCompletion) CompletionMap {
	m := make(CompletionMap, len(completions))
	for _, c := range completions {
		m[CompletionKey(c.TaskID, c.Date)] = c.Status
	}
	return m
}

// CompletionKey builds the lookup key of one occurrence.
func CompletionKey(taskID, dateKey string) string {
	return taskID + ":" + NormalizeDateKey(dateKey)
}

// IsScheduledOnDate reports whether task has an occurrence on dateKey.
//
// Tasks occur only on their anchor date. Habits never occur before their
// start date; daily habits occur every day after it and weekly habits on
// their UTC weekday. Anything else is never scheduled.
func IsScheduledOnDate(task model.Task, dateKey string) bool {
	date := NormalizeDateKey(dateKey)

	if task.EntryType != model.EntryHabit {
		return task.Date == date
	}

	if date < task.Date {
		return false
	}

	if task.RepeatInterval == nil {
		return false
	}

	switch *task.RepeatInterval {
	case model.RepeatDaily:
		return true
	case model.RepeatWeekly:
		if task.RepeatWeekday == nil {
			return false
		}
		weekday, ok := Weekday(date)
		if !ok {
			return false
		}
		return int(weekday) == *task.RepeatWeekday
	default:
		return false
	}
}

// StatusOnDate resolves the status of task's occurrence on dateKey.
// An override always wins; otherwise habits are todo and tasks fall back to
// their stored status.
func StatusOnDate(task model.Task, dateKey string, completions CompletionMap) model.TaskStatus {
	if status, ok := completions[CompletionKey(task.ID, dateKey)]; ok && status != "" {
		return status
	}

	if task.EntryType == model.EntryHabit {
		return model.StatusTodo
	}

	return task.Status
}

// DueOn returns the tasks scheduled on dateKey, preserving order.
func DueOn(tasks []model.Task, dateKey string) []model.Task {
	var due []model.Task
	for _, task := range tasks {
		if IsScheduledOnDate(task, dateKey) {
			due = append(due, task)
		}
	}
	return due
}
