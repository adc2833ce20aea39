// Package moderation keeps the viewer's ignored-topic and blocked-member ids. The forum
// only exposes them through inline script state, and list pages are not filtered by the
// server, so parsers record what they find here and filter against it.
package moderation

import (
	"slices"
	"sync"
)

// Set is one viewer's moderation state.
type Set struct {
	IgnoredTopics  []int `json:"ignored_topics"`
	BlockedMembers []int `json:"blocked_members"`
}

// Merge fills the arrays s lacks (nil) from prev.
func (s Set) Merge(prev Set) Set {
	if s.IgnoredTopics == nil {
		s.IgnoredTopics = prev.IgnoredTopics
	}
	if s.BlockedMembers == nil {
		s.BlockedMembers = prev.BlockedMembers
	}
	return s
}

func (s Set) HasTopic(id int) bool { return slices.Contains(s.IgnoredTopics, id) }

func (s Set) HasMember(id int) bool { return slices.Contains(s.BlockedMembers, id) }

// Store reads and writes moderation sets per viewer. Writes are last-writer-wins; the
// set is a coarse filter, so implementations may degrade to an empty Set on failure.
type Store interface {
	Load(viewer string) Set
	Save(viewer string, s Set)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Set
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Set)}
}

func (m *MemoryStore) Load(viewer string) Set {
	m.mu.RLock()
	s := m.data[viewer]
	m.mu.RUnlock()
	return Set{
		IgnoredTopics:  slices.Clone(s.IgnoredTopics),
		BlockedMembers: slices.Clone(s.BlockedMembers),
	}
}

func (m *MemoryStore) Save(viewer string, s Set) {
	m.mu.Lock()
	m.data[viewer] = Set{
		IgnoredTopics:  slices.Clone(s.IgnoredTopics),
		BlockedMembers: slices.Clone(s.BlockedMembers),
	}
	m.mu.Unlock()
}
