package tgbot

import (
	"testing"

	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/stretchr/testify/assert"
)

func TestSubscriptions(t *testing.T) {
	s := newSubs()
	assert.Empty(t, s.GetChatIDs(users.UserCreated))

	s.Add(users.UserCreated, 3)
	s.Add(users.UserCreated, 1)
	s.Add(users.UserCreated, 3)
	s.Add(users.UserDeleted, 2)
	assert.Equal(t, []int64{1, 3}, s.GetChatIDs(users.UserCreated))
	assert.Equal(t, []int64{2}, s.GetChatIDs(users.UserDeleted))

	s.Remove(users.UserCreated, 3)
	s.Remove(users.UserUpdated, 3)
	assert.Equal(t, []int64{1}, s.GetChatIDs(users.UserCreated))
}

func TestParseEventTypes(t *testing.T) {
	got, err := parseEventTypes("")
	assert.NoError(t, err)
	assert.Equal(t, eventTypes, got)

	got, err = parseEventTypes(" user_created  user_deleted ")
	assert.NoError(t, err)
	assert.Equal(t, []users.EventType{users.UserCreated, users.UserDeleted}, got)

	_, err = parseEventTypes("user_created nope")
	assert.Error(t, err)
}
