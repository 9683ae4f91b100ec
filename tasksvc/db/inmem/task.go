package inmem

import (
	"context"
	"strings"
	"sync"

	"github.com/ichigozero/gtdkit/tasksvc"
)

type taskRepository struct {
	mtx    sync.RWMutex
	nextID uint64
	tasks  []tasksvc.Task
}

func NewTaskRepository() tasksvc.TaskRepository {
	return &taskRepository{}
}

func (r *taskRepository) Create(_ context.Context, title, description string, userID uint64) (tasksvc.Task, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.nextID++
	task := tasksvc.Task{
		ID:          r.nextID,
		Title:       title,
		Description: description,
		Status:      tasksvc.StatusOpen,
		UserID:      userID,
	}
	r.tasks = append(r.tasks, task)

	return task, nil
}

func (r *taskRepository) FindAll(_ context.Context, userID uint64, f tasksvc.Filter) ([]tasksvc.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	search := strings.ToLower(f.Search)

	tasks := []tasksvc.Task{}
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

func (r *taskRepository) Find(_ context.Context, userID, taskID uint64) (tasksvc.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	i := r.index(userID, taskID)
	if i < 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	return r.tasks[i], nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, userID, taskID uint64, status tasksvc.Status) (tasksvc.Task, error) {
	if _, err := r.Find(ctx, userID, taskID); err != nil {
		return tasksvc.Task{}, err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	// The task may have been deleted between Find and Lock.
	i := r.index(userID, taskID)
	if i < 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	r.tasks[i].Status = status

	return r.tasks[i], nil
}

func (r *taskRepository) Delete(_ context.Context, userID, taskID uint64) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	i := r.index(userID, taskID)
	if i < 0 {
		return tasksvc.ErrTaskNotFound
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)

	return nil
}

// index must be called with mtx held.
func (r *taskRepository) index(userID, taskID uint64) int {
	for i, t := range r.tasks {
		if t.ID == taskID && t.UserID == userID {
			return i
		}
	}
	return -1
}
