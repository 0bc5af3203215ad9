package tgbot

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/njimyasmine/user-management-api/auth/users"
)

var eventTypes = []users.EventType{users.UserCreated, users.UserUpdated, users.UserDeleted}

type subscriptions struct {
	m map[users.EventType]mapset.Set[int64]
}

func newSubs() subscriptions {
	m := make(map[users.EventType]mapset.Set[int64])
	return subscriptions{
		m: m,
	}
}

func (s *subscriptions) Add(t users.EventType, chatID int64) {
	if s.m[t] == nil {
		s.m[t] = mapset.NewSet[int64]()
	}
	s.m[t].Add(chatID)
}

func (s *subscriptions) Remove(t users.EventType, chatID int64) {
	if s.m[t] == nil {
		return
	}
	s.m[t].Remove(chatID)
}

// GetChatIDs returns the subscribers of t in ascending order.
func (s *subscriptions) GetChatIDs(t users.EventType) []int64 {
	if s.m[t] == nil {
		return nil
	}
	ids := s.m[t].ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
