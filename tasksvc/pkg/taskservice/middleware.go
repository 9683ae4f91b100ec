package taskservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/gtdkit/tasksvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) CreateTask(ctx context.Context, a tasksvc.Auth, title, description string) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTask",
			"username", a.Username,
			"user_id", a.UserID,
			"title", title,
			"task_id", t.ID,
			"err", err,
		)
	}()
	return mw.next.CreateTask(ctx, a, title, description)
}

func (mw loggingMiddleware) Tasks(ctx context.Context, a tasksvc.Auth, f tasksvc.Filter) (t []tasksvc.Task, err error) {
	defer func() {
		status := ""
		if f.Status != nil {
			status = string(*f.Status)
		}
		mw.logger.Log(
			"method", "Tasks",
			"username", a.Username,
			"user_id", a.UserID,
			"status", status,
			"search", f.Search,
			"count", len(t),
			"err", err,
		)
	}()
	return mw.next.Tasks(ctx, a, f)
}

func (mw loggingMiddleware) Task(ctx context.Context, a tasksvc.Auth, taskID uint64) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Task",
			"username", a.Username,
			"user_id", a.UserID,
			"task_id", taskID,
			"err", err,
		)
	}()
	return mw.next.Task(ctx, a, taskID)
}

func (mw loggingMiddleware) UpdateTaskStatus(ctx context.Context, a tasksvc.Auth, taskID uint64, status tasksvc.Status) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTaskStatus",
			"username", a.Username,
			"user_id", a.UserID,
			"task_id", taskID,
			"status", status,
			"err", err,
		)
	}()
	return mw.next.UpdateTaskStatus(ctx, a, taskID, status)
}

func (mw loggingMiddleware) DeleteTask(ctx context.Context, a tasksvc.Auth, taskID uint64) (err error) {
	defer func() {
		mw.logger.Log(
			"method", "DeleteTask",
			"username", a.Username,
			"user_id", a.UserID,
			"task_id", taskID,
			"err", err,
		)
	}()
	return mw.next.DeleteTask(ctx, a, taskID)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) CreateTask(ctx context.Context, a tasksvc.Auth, title, description string) (tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "create_task").Add(1)
		mw.requestLatency.With("method", "create_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.CreateTask(ctx, a, title, description)
}

func (mw instrumentingMiddleware) Tasks(ctx context.Context, a tasksvc.Auth, f tasksvc.Filter) ([]tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "tasks").Add(1)
		mw.requestLatency.With("method", "tasks").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Tasks(ctx, a, f)
}

func (mw instrumentingMiddleware) Task(ctx context.Context, a tasksvc.Auth, taskID uint64) (tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "task").Add(1)
		mw.requestLatency.With("method", "task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Task(ctx, a, taskID)
}

func (mw instrumentingMiddleware) UpdateTaskStatus(ctx context.Context, a tasksvc.Auth, taskID uint64, status tasksvc.Status) (tasksvc.Task, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "update_task_status").Add(1)
		mw.requestLatency.With("method", "update_task_status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.UpdateTaskStatus(ctx, a, taskID, status)
}

func (mw instrumentingMiddleware) DeleteTask(ctx context.Context, a tasksvc.Auth, taskID uint64) error {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "delete_task").Add(1)
		mw.requestLatency.With("method", "delete_task").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.DeleteTask(ctx, a, taskID)
}
