package gorm

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ichigozero/gtdkit/tasksvc"
	"github.com/ichigozero/gtdkit/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	stdgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) (tasksvc.TaskRepository, *stdgorm.DB, usersvc.User, usersvc.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := stdgorm.Open(sqlite.Open(dsn), &stdgorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&usersvc.User{}, &tasksvc.Task{}))

	alice := usersvc.User{Username: "alice", PasswordHash: "x", Salt: []byte("x")}
	bob := usersvc.User{Username: "bob", PasswordHash: "x", Salt: []byte("x")}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	return NewTaskRepository(db), db, alice, bob
}

func titles(tasks []tasksvc.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestTaskRepositoryCreate(t *testing.T) {
	repo, _, alice, _ := newTestRepository(t)

	task, err := repo.Create(context.Background(), "Buy milk", "two litres", alice.ID)
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
	assert.Equal(t, tasksvc.StatusOpen, task.Status)
	assert.Equal(t, alice.ID, task.UserID)
}

func TestTaskRepositoryFindAllScoped(t *testing.T) {
	repo, _, alice, bob := newTestRepository(t)
	ctx := context.Background()

	for _, title := range []string{"a1", "a2"} {
		_, err := repo.Create(ctx, title, "desc", alice.ID)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, "b1", "desc", bob.ID)
	require.NoError(t, err)

	tasks, err := repo.FindAll(ctx, alice.ID, tasksvc.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, titles(tasks))

	tasks, err = repo.FindAll(ctx, bob.ID, tasksvc.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, titles(tasks))

	tasks, err = repo.FindAll(ctx, 999, tasksvc.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskRepositoryFindAllFilters(t *testing.T) {
	repo, _, alice, bob := newTestRepository(t)
	ctx := context.Background()

	milk, err := repo.Create(ctx, "Buy MILK", "groceries", alice.ID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Call mom", "about the milkman", alice.ID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Pay rent", "100% due", alice.ID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Ship it!", "now", alice.ID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "milk for bob", "nope", bob.ID)
	require.NoError(t, err)

	_, err = repo.UpdateStatus(ctx, alice.ID, milk.ID, tasksvc.StatusDone)
	require.NoError(t, err)

	done := tasksvc.StatusDone
	open := tasksvc.StatusOpen

	tests := []struct {
		name   string
		filter tasksvc.Filter
		want   []string
	}{
		{"status", tasksvc.Filter{Status: &done}, []string{"Buy MILK"}},
		{"search title or description", tasksvc.Filter{Search: "Milk"}, []string{"Buy MILK", "Call mom"}},
		{"status and search", tasksvc.Filter{Status: &open, Search: "milk"}, []string{"Call mom"}},
		{"percent is literal", tasksvc.Filter{Search: "%"}, []string{"Pay rent"}},
		{"underscore is literal", tasksvc.Filter{Search: "_"}, []string{}},
		{"escape character is literal", tasksvc.Filter{Search: "it!"}, []string{"Ship it!"}},
		{"escaped sequence is literal", tasksvc.Filter{Search: "!%"}, []string{}},
		{"no match", tasksvc.Filter{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := repo.FindAll(ctx, alice.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(tasks))
		})
	}
}

func TestTaskRepositoryFindScoped(t *testing.T) {
	repo, _, alice, bob := newTestRepository(t)
	ctx := context.Background()

	task, err := repo.Create(ctx, "mine", "desc", alice.ID)
	require.NoError(t, err)

	found, err := repo.Find(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, found)

	_, err = repo.Find(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	_, err = repo.Find(ctx, alice.ID, task.ID+100)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
}

func TestTaskRepositoryUpdateStatusScoped(t *testing.T) {
	repo, _, alice, bob := newTestRepository(t)
	ctx := context.Background()

	task, err := repo.Create(ctx, "mine", "desc", alice.ID)
	require.NoError(t, err)

	_, err = repo.UpdateStatus(ctx, bob.ID, task.ID, tasksvc.StatusDone)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	found, err := repo.Find(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasksvc.StatusOpen, found.Status)

	updated, err := repo.UpdateStatus(ctx, alice.ID, task.ID, tasksvc.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, tasksvc.StatusInProgress, updated.Status)
	assert.Equal(t, "mine", updated.Title)

	found, err = repo.Find(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasksvc.StatusInProgress, found.Status)
}

func TestTaskRepositoryDeleteScoped(t *testing.T) {
	repo, _, alice, bob := newTestRepository(t)
	ctx := context.Background()

	task, err := repo.Create(ctx, "mine", "desc", alice.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, bob.ID, task.ID), tasksvc.ErrTaskNotFound)

	_, err = repo.Find(ctx, alice.ID, task.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, alice.ID, task.ID))
	assert.ErrorIs(t, repo.Delete(ctx, alice.ID, task.ID), tasksvc.ErrTaskNotFound)

	_, err = repo.Find(ctx, alice.ID, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
}

func TestTaskRepositoryStorageFailure(t *testing.T) {
	repo, db, alice, _ := newTestRepository(t)
	ctx := context.Background()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.Create(ctx, "t", "d", alice.ID)
	assert.ErrorIs(t, err, tasksvc.ErrStorage)

	_, err = repo.FindAll(ctx, alice.ID, tasksvc.Filter{})
	assert.ErrorIs(t, err, tasksvc.ErrStorage)

	_, err = repo.Find(ctx, alice.ID, 1)
	assert.ErrorIs(t, err, tasksvc.ErrStorage)

	assert.ErrorIs(t, repo.Delete(ctx, alice.ID, 1), tasksvc.ErrStorage)
}

func TestTaskRepositorySearchOnMySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := stdgorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &stdgorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`LOWER\(title\) LIKE LOWER\(\?\) ESCAPE '!' OR LOWER\(description\) LIKE LOWER\(\?\) ESCAPE '!'`).
		WithArgs(sqlmock.AnyArg(), "%100!%!_!!%", "%100!%!_!!%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "status", "user_id"}).
			AddRow(1, "Pay rent", "100%_! due", "OPEN", 1))

	tasks, err := NewTaskRepository(db).FindAll(context.Background(), 1, tasksvc.Filter{Search: "100%_!"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pay rent"}, titles(tasks))
	assert.NoError(t, mock.ExpectationsWereMet())
}
