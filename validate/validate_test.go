package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, err error) []string {
	t.Helper()

	var errs Errors
	require.True(t, errors.As(err, &errs), "expected validation errors, got %v", err)

	out := make([]string, len(errs))
	for i, fe := range errs {
		out[i] = fe.Field
	}
	return out
}

func TestCredentials(t *testing.T) {
	assert.NoError(t, Credentials("alice", "Passw0rd!"))
	assert.NoError(t, Credentials("abcd", "Abcdefg1"))

	tests := []struct {
		name     string
		username string
		password string
		fields   []string
	}{
		{"short username", "abc", "Passw0rd!", []string{"username"}},
		{"long username", strings.Repeat("a", 21), "Passw0rd!", []string{"username"}},
		{"short password", "alice", "Ab1", []string{"password", "password"}},
		{"long password", "alice", "Passw0rd!" + strings.Repeat("a", 12), []string{"password"}},
		{"no digit", "alice", "Password", []string{"password"}},
		{"no upper", "alice", "passw0rd", []string{"password"}},
		{"no lower", "alice", "PASSW0RD", []string{"password"}},
		{"under eight", "alice", "Pass0rd", []string{"password"}},
		{"non-ascii upper", "alice", "Äbcdefg1", []string{"password"}},
		{"non-ascii digit", "alice", "Passwor١", []string{"password"}},
		{"non-ascii letters only", "alice", "ÄÖÜäöü12", []string{"password"}},
		{"both", "", "", []string{"username", "password", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fields, fields(t, Credentials(tt.username, tt.password)))
		})
	}
}

func TestCredentialsCountsRunes(t *testing.T) {
	assert.NoError(t, Credentials("ünïcödé", "Passw0rd!"))
	assert.Error(t, Credentials(strings.Repeat("ü", 21), "Passw0rd!"))
}

func TestNewTask(t *testing.T) {
	assert.NoError(t, NewTask("title", "description"))
	assert.Equal(t, []string{"title"}, fields(t, NewTask(" ", "description")))
	assert.Equal(t, []string{"description"}, fields(t, NewTask("title", "")))
	assert.Equal(t, []string{"title", "description"}, fields(t, NewTask("", "")))
}

func TestOneOf(t *testing.T) {
	assert.NoError(t, OneOf("status", "DONE", "OPEN", "DONE"))
	assert.Equal(t, []string{"status"}, fields(t, OneOf("status", "done", "OPEN", "DONE")))
}

func TestID(t *testing.T) {
	id, err := ID("id", "42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, v := range []string{"", "0", "-1", "abc", "1.5", "99999999999999999999"} {
		_, err := ID("id", v)
		assert.Equal(t, []string{"id"}, fields(t, err), v)
	}
}

func TestErrorsMessage(t *testing.T) {
	err := NewTask("", "")
	assert.Equal(t, "validation failed: title: Title should not be empty; description: Description should not be empty", err.Error())
}
