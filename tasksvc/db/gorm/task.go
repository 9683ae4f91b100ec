package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ichigozero/gtdkit/tasksvc"
	stdgorm "gorm.io/gorm"
)

type taskRepository struct {
	db *stdgorm.DB
}

func NewTaskRepository(db *stdgorm.DB) tasksvc.TaskRepository {
	return &taskRepository{db}
}

func (t taskRepository) Create(ctx context.Context, title, description string, userID uint64) (tasksvc.Task, error) {
	task := tasksvc.Task{Title: title, Description: description, Status: tasksvc.StatusOpen, UserID: userID}

	result := t.db.WithContext(ctx).Create(&task)
	if result.Error != nil {
		return tasksvc.Task{}, storageError(result.Error)
	}

	return task, nil
}

func (t taskRepository) FindAll(ctx context.Context, userID uint64, f tasksvc.Filter) ([]tasksvc.Task, error) {
	query := t.db.WithContext(ctx).Where("user_id = ?", userID)

	if f.Status != nil {
		query = query.Where("status = ?", string(*f.Status))
	}

	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		query = query.Where(
			`(LOWER(title) LIKE LOWER(?) ESCAPE '!' OR LOWER(description) LIKE LOWER(?) ESCAPE '!')`,
			pattern, pattern,
		)
	}

	tasks := []tasksvc.Task{}
	if result := query.Order("id").Find(&tasks); result.Error != nil {
		return nil, storageError(result.Error)
	}

	return tasks, nil
}

func (t taskRepository) Find(ctx context.Context, userID, taskID uint64) (tasksvc.Task, error) {
	var task tasksvc.Task

	result := t.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID).First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, stdgorm.ErrRecordNotFound) {
			return tasksvc.Task{}, tasksvc.ErrTaskNotFound
		}
		return tasksvc.Task{}, storageError(result.Error)
	}

	return task, nil
}

// UpdateStatus goes through Find first so writes pass the same ownership
// check as reads.
func (t taskRepository) UpdateStatus(ctx context.Context, userID, taskID uint64, status tasksvc.Status) (tasksvc.Task, error) {
	tk, err := t.Find(ctx, userID, taskID)
	if err != nil {
		return tasksvc.Task{}, err
	}

	result := t.db.WithContext(ctx).
		Model(&tasksvc.Task{}).
		Where("id = ? AND user_id = ?", tk.ID, userID).
		Update("status", string(status))
	if result.Error != nil {
		return tasksvc.Task{}, storageError(result.Error)
	}

	tk.Status = status

	return tk, nil
}

func (t taskRepository) Delete(ctx context.Context, userID, taskID uint64) error {
	result := t.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, userID).Delete(&tasksvc.Task{})
	if result.Error != nil {
		return storageError(result.Error)
	}

	if result.RowsAffected == 0 {
		return tasksvc.ErrTaskNotFound
	}

	return nil
}

// likeEscaper uses '!' since mysql treats a backslash inside a string
// literal as an escape of its own.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", tasksvc.ErrStorage, err)
}
