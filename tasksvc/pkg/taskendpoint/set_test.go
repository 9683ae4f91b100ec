package taskendpoint

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/gtdkit/authsvc"
	"github.com/ichigozero/gtdkit/tasksvc"
	"github.com/ichigozero/gtdkit/tasksvc/db/inmem"
	"github.com/ichigozero/gtdkit/tasksvc/pkg/taskservice"
	"github.com/ichigozero/gtdkit/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointsRequireUserContext(t *testing.T) {
	set := New(taskservice.NewBasicService(inmem.NewTaskRepository()), log.NewNopLogger())

	calls := []struct {
		e   endpoint.Endpoint
		req interface{}
	}{
		{set.CreateTaskEndpoint, CreateTaskRequest{Title: "t", Description: "d"}},
		{set.TasksEndpoint, TasksRequest{}},
		{set.TaskEndpoint, TaskRequest{TaskID: 1}},
		{set.UpdateTaskStatusEndpoint, UpdateTaskStatusRequest{TaskID: 1, Status: tasksvc.StatusDone}},
		{set.DeleteTaskEndpoint, DeleteTaskRequest{TaskID: 1}},
	}

	for _, ctx := range []context.Context{
		context.Background(),
		authsvc.ContextWithUser(context.Background(), usersvc.User{}),
	} {
		for _, c := range calls {
			resp, err := c.e(ctx, c.req)
			require.NoError(t, err)
			assert.ErrorIs(t, resp.(endpoint.Failer).Failed(), tasksvc.ErrUserContextMissing)
		}
	}
}

func TestEndpointsUseContextOwner(t *testing.T) {
	set := New(taskservice.NewBasicService(inmem.NewTaskRepository()), log.NewNopLogger())
	ctx := authsvc.ContextWithUser(context.Background(), usersvc.User{ID: 3, Username: "carol"})

	resp, err := set.CreateTaskEndpoint(ctx, CreateTaskRequest{Title: "t", Description: "d"})
	require.NoError(t, err)
	created := resp.(CreateTaskResponse)
	require.NoError(t, created.Failed())
	assert.Equal(t, uint64(3), created.Task.UserID)

	b, err := json.Marshal(created)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"userId":3`)

	resp, err = set.TasksEndpoint(context.WithValue(ctx, authsvc.UserContextKey, usersvc.User{ID: 4}), TasksRequest{})
	require.NoError(t, err)
	b, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}
