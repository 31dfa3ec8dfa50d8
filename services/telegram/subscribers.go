package telegram

import (
	"slices"
	"sync"
)

// Subscribers is the in-memory registry of chats receiving the daily
// digest. Add and Remove are idempotent. Ownership lives with whoever
// constructs the bot service; there is no module-level state.
type Subscribers struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewSubscribers() *Subscribers {
	return &Subscribers{ids: map[int64]struct{}{}}
}

func (s *Subscribers) Add(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[chatID] = struct{}{}
}

// Remove reports whether the chat was subscribed.
func (s *Subscribers) Remove(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, subscribed := s.ids[chatID]
	delete(s.ids, chatID)
	return subscribed
}

func (s *Subscribers) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Snapshot returns the subscribed chats in a stable order, detached from
// the live set so a digest in flight is unaffected by concurrent
// (un)subscribes.
func (s *Subscribers) Snapshot() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
