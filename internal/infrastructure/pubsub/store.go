package pubsub

import (
	"sort"
	"sync"

	"github.com/tdex-network/reserve-lister/internal/core/ports"
)

// store keeps subscriptions indexed by id and by topic.
type store struct {
	lock        *sync.RWMutex
	subs        map[string]Subscription
	subsByTopic map[string][]string
}

func newStore() *store {
	return &store{
		lock:        &sync.RWMutex{},
		subs:        make(map[string]Subscription),
		subsByTopic: make(map[string][]string),
	}
}

func (s *store) add(sub Subscription) string {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, id := range s.subsByTopic[sub.Event] {
		if ss := s.subs[id]; ss.Endpoint == sub.Endpoint {
			return ss.ID
		}
	}

	s.subs[sub.ID] = sub
	s.subsByTopic[sub.Event] = append(s.subsByTopic[sub.Event], sub.ID)
	return sub.ID
}

func (s *store) remove(id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return ports.ErrSubscriptionNotFound
	}
	delete(s.subs, id)

	ids := s.subsByTopic[sub.Event]
	for i, subID := range ids {
		if subID == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) <= 0 {
		delete(s.subsByTopic, sub.Event)
	} else {
		s.subsByTopic[sub.Event] = ids
	}
	return nil
}

func (s *store) getForTopic(topic string) subscriptions {
	s.lock.RLock()
	defer s.lock.RUnlock()

	subs := make(subscriptions, 0)
	if topic == ports.UnspecifiedTopic {
		for _, sub := range s.subs {
			subs = append(subs, sub)
		}
	} else {
		for _, id := range s.subsByTopic[topic] {
			subs = append(subs, s.subs[id])
		}
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
	return subs
}
