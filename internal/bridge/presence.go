package bridge

import (
	"sort"
	"sync"
)

// PresenceSet is the materialized set of online user ids. It is written only
// by the bridge's channel subscription; everyone else reads.
type PresenceSet struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

// NewPresenceSet creates an empty presence set
func NewPresenceSet() *PresenceSet {
	return &PresenceSet{online: make(map[string]struct{})}
}

// Replace swaps the whole set for the server's latest snapshot
func (p *PresenceSet) Replace(userIds []string) {
	online := make(map[string]struct{}, len(userIds))
	for _, id := range userIds {
		online[id] = struct{}{}
	}

	p.mu.Lock()
	p.online = online
	p.mu.Unlock()
}

// IsOnline reports whether the user is currently online
func (p *PresenceSet) IsOnline(userId string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[userId]
	return ok
}

// OnlineUsers returns the online user ids in stable order
func (p *PresenceSet) OnlineUsers() []string {
	p.mu.RLock()
	ids := make([]string, 0, len(p.online))
	for id := range p.online {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
