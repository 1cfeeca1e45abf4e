package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
)

var (
	ErrEmptyTitle     = errors.New("title is required")
	ErrInvalidDateKey = errors.New("date must be YYYY-MM-DD")
	ErrInvalidStatus  = errors.New("status must be todo or done")
)

// TaskStorage is the durable side of tasks and completions.
type TaskStorage interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	UpdateBaseStatus(ctx context.Context, id string, status model.TaskStatus) error
	UpsertCompletion(ctx context.Context, taskID, dateKey string, status model.TaskStatus) error
	ListCompletions(ctx context.Context) ([]model.TaskCompletion, error)
}

// TaskInput represents data required to create a task or habit.
type TaskInput struct {
	Title          string
	Status         model.TaskStatus
	Category       string
	Date           string
	Icon           *string
	DueAt          *time.Time
	EntryType      model.EntryType
	RepeatInterval *model.RepeatInterval
	RepeatWeekday  *int
}

// Snapshot is a consistent read-only view of tasks and their overrides.
type Snapshot struct {
	Tasks       []model.Task
	Completions schedule.CompletionMap
}

// TaskService owns task mutations and the in-memory copy of tasks and
// completions. Every mutation is followed by a full reload; a failed reload
// leaves the previous state in place.
type TaskService struct {
	repo        TaskStorage
	completions *CompletionStore
	now         func() time.Time

	mu    sync.RWMutex
	tasks []model.Task
	ready bool
}

func NewTaskService(repo TaskStorage, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		repo:        repo,
		completions: NewCompletionStore(),
		now:         now,
	}
}

// Refresh reloads tasks and completions from storage.
func (s *TaskService) Refresh(ctx context.Context) error {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	completions, err := s.repo.ListCompletions(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.ready = true
	s.completions.Replace(completions)
	s.mu.Unlock()
	return nil
}

func (s *TaskService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Tasks returns a copy of the last loaded task list.
func (s *TaskService) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Completions returns the last loaded override mapping.
func (s *TaskService) Completions() schedule.CompletionMap {
	return s.completions.Snapshot()
}

func (s *TaskService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]model.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return Snapshot{Tasks: tasks, Completions: s.completions.Snapshot()}
}

// CreateTask validates input, applies defaults, persists the task and refreshes.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	date := schedule.DateKey(s.now())
	if input.Date != "" {
		date = schedule.NormalizeDateKey(strings.TrimSpace(input.Date))
		if _, err := schedule.ParseDateKey(date); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDateKey, input.Date)
		}
	}

	task := model.Task{
		ID:             uuid.NewString(),
		Title:          title,
		Status:         input.Status,
		Category:       input.Category,
		Date:           date,
		CreatedAt:      s.now().UTC(),
		Icon:           input.Icon,
		DueAt:          input.DueAt,
		EntryType:      input.EntryType,
		RepeatInterval: input.RepeatInterval,
		RepeatWeekday:  input.RepeatWeekday,
	}
	if task.Status == "" {
		task.Status = model.StatusTodo
	}
	if task.Category == "" {
		task.Category = model.DefaultCategory
	}
	if task.EntryType == "" {
		task.EntryType = model.EntryTask
	}

	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, err
	}
	// The row is committed; callers still get it when the reload fails.
	if err := s.Refresh(ctx); err != nil {
		return &task, fmt.Errorf("reload after create: %w", err)
	}
	return &task, nil
}

// UpdateTaskStatus changes the base status of a task, not tied to any date.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.repo.UpdateBaseStatus(ctx, id, status); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// SetCompletion records the status of one occurrence and refreshes.
func (s *TaskService) SetCompletion(ctx context.Context, taskID, dateKey string, status model.TaskStatus) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	date := schedule.NormalizeDateKey(dateKey)
	if _, err := schedule.ParseDateKey(date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDateKey, dateKey)
	}
	if err := s.repo.UpsertCompletion(ctx, taskID, date, status); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Occurrence is a task scheduled on a specific date together with its status there.
type Occurrence struct {
	Task   model.Task
	Date   string
	Status model.TaskStatus
}

// OccurrencesOn lists what is due on dateKey using the current snapshot.
func (s *TaskService) OccurrencesOn(dateKey string) []Occurrence {
	snap := s.Snapshot()
	date := schedule.NormalizeDateKey(dateKey)
	var out []Occurrence
	for _, task := range schedule.DueOn(snap.Tasks, date) {
		out = append(out, Occurrence{
			Task:   task,
			Date:   date,
			Status: schedule.StatusOnDate(task, date, snap.Completions),
		})
	}
	return out
}

func validStatus(status model.TaskStatus) bool {
	return status == model.StatusTodo || status == model.StatusDone
}
