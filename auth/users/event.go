package users

import "time"

type EventType string

const (
	UserCreated EventType = "user_created"
	UserUpdated EventType = "user_updated"
	UserDeleted EventType = "user_deleted"
)

type Event struct {
	Type EventType
	User User
	At   time.Time
}

func NewEvent(t EventType, user User, at time.Time) Event {
	return Event{
		Type: t,
		User: user.Public(),
		At:   at,
	}
}
