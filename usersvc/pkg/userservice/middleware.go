package userservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/gtdkit/usersvc"
)

type Middleware func(Service) Service

// LoggingMiddleware logs usernames and outcomes. Passwords are never logged.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Register(ctx context.Context, username, password string) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Register", "username", username, "id", u.ID, "err", err)
	}()
	return mw.next.Register(ctx, username, password)
}

func (mw loggingMiddleware) Credentials(ctx context.Context, username, password string) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Credentials", "username", username, "id", u.ID, "err", err)
	}()
	return mw.next.Credentials(ctx, username, password)
}

func (mw loggingMiddleware) User(ctx context.Context, username string) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "User", "username", username, "id", u.ID, "err", err)
	}()
	return mw.next.User(ctx, username)
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

func (mw instrumentingMiddleware) Register(ctx context.Context, username, password string) (usersvc.User, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "register").Add(1)
		mw.requestLatency.With("method", "register").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Register(ctx, username, password)
}

func (mw instrumentingMiddleware) Credentials(ctx context.Context, username, password string) (usersvc.User, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "credentials").Add(1)
		mw.requestLatency.With("method", "credentials").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Credentials(ctx, username, password)
}

func (mw instrumentingMiddleware) User(ctx context.Context, username string) (usersvc.User, error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "user").Add(1)
		mw.requestLatency.With("method", "user").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.User(ctx, username)
}
