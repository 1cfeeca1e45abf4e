package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"habit-tracker/internal/model"
)

var errStorage = errors.New("disk I/O error")

// fakeTaskStorage keeps tasks in memory and can be told to fail.
type fakeTaskStorage struct {
	mu          sync.Mutex
	tasks       []model.Task
	completions map[[2]string]model.TaskStatus

	failList    bool
	failCreate  bool
	failUpsert  bool
	createCalls int
	upsertCalls int

	// breakListOnCreate makes every List fail once a Create has succeeded.
	breakListOnCreate bool
}

func newFakeTaskStorage(tasks ...model.Task) *fakeTaskStorage {
	return &fakeTaskStorage{tasks: tasks, completions: map[[2]string]model.TaskStatus{}}
}

func (f *fakeTaskStorage) List(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errStorage
	}
	out := make([]model.Task, len(f.tasks))
	copy(out, f.tasks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeTaskStorage) Create(ctx context.Context, task *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate {
		return errStorage
	}
	f.tasks = append(f.tasks, *task)
	if f.breakListOnCreate {
		f.failList = true
	}
	return nil
}

func (f *fakeTaskStorage) UpdateBaseStatus(ctx context.Context, id string, status model.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Status = status
		}
	}
	return nil
}

func (f *fakeTaskStorage) UpsertCompletion(ctx context.Context, taskID, dateKey string, status model.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.failUpsert {
		return errStorage
	}
	f.completions[[2]string{taskID, dateKey}] = status
	return nil
}

func (f *fakeTaskStorage) ListCompletions(ctx context.Context) ([]model.TaskCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errStorage
	}
	out := make([]model.TaskCompletion, 0, len(f.completions))
	for key, status := range f.completions {
		out = append(out, model.TaskCompletion{TaskID: key[0], Date: key[1], Status: status})
	}
	return out, nil
}

func (f *fakeTaskStorage) setFailList(v bool) {
	f.mu.Lock()
	f.failList = v
	f.mu.Unlock()
}

// fakeKV is an in-memory KVStorage.
type fakeKV struct {
	values map[string]any
	fail   bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]any{}}
}

func (f *fakeKV) GetObject(ctx context.Context, key string, dst any) (bool, error) {
	if f.fail {
		return false, errStorage
	}
	v, ok := f.values[key]
	if !ok {
		return false, nil
	}
	streak, ok := v.(model.Streak)
	if !ok {
		return false, errors.New("unexpected value type")
	}
	*(dst.(*model.Streak)) = streak
	return true, nil
}

func (f *fakeKV) SetObject(ctx context.Context, key string, value any) error {
	if f.fail {
		return errStorage
	}
	f.values[key] = value
	return nil
}

func ptrInterval(v model.RepeatInterval) *model.RepeatInterval { return &v }
func ptrInt(v int) *int { return &v }
func ptrTime(v time.Time) *time.Time { return &v }
